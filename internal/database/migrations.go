package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// compositeIndexes back the hot lookups of the lifecycle engines. Single
// column indexes are declared on the models.
var compositeIndexes = []struct {
	table   string
	name    string
	columns string
}{
	// Duplicate-request check and sibling rejection
	{"requests", "idx_requests_project_solver_status", "project_id, solver_id, status"},

	// Task board per project and per solver
	{"tasks", "idx_tasks_project_status", "project_id, status"},
	{"tasks", "idx_tasks_solver_created", "solver_id, created_at"},

	// Buyer dashboards, newest first
	{"projects", "idx_projects_buyer_created", "buyer_id, created_at"},
	{"projects", "idx_projects_status_created", "status, created_at"},
}

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	for _, idx := range compositeIndexes {
		exists, err := indexExists(db, idx.table, idx.name)
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if exists {
			log.Debug("Index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("Created index",
			zap.String("index", idx.name),
			zap.String("table", idx.table),
			zap.String("columns", idx.columns),
		)
	}

	return nil
}

func indexExists(db *gorm.DB, table, name string) (bool, error) {
	var query string
	switch db.Dialector.Name() {
	case "postgres":
		query = `SELECT COUNT(*) FROM pg_indexes WHERE tablename = ? AND indexname = ?`
	case "mysql":
		query = `SELECT COUNT(*) FROM information_schema.statistics WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?`
	case "sqlite":
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND name = ?`
	default:
		return false, fmt.Errorf("unsupported dialect %q", db.Dialector.Name())
	}

	var count int64
	if err := db.Raw(query, table, name).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
