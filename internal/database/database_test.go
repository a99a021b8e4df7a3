package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/solver-marketplace-api/internal/config"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/testutil"
	"github.com/yukikurage/solver-marketplace-api/internal/utils"
	"go.uber.org/zap"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres"} {
		d, err := Dialector(&config.Config{DBDriver: driver, DBHost: "db", DBPort: "1", DBName: "x"})
		require.NoError(t, err)
		assert.Equal(t, driver, d.Name())
	}

	_, err := Dialector(&config.Config{DBDriver: "mongo"})
	assert.Error(t, err)
}

func TestAddIndexes_Idempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	log := zap.NewNop()

	require.NoError(t, AddIndexes(db, log))
	require.NoError(t, AddIndexes(db, log))

	exists, err := indexExists(db, "requests", "idx_requests_project_solver_status")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPaginate(t *testing.T) {
	db := testutil.NewTestDB(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.Project{Title: "p", Description: "d", BuyerID: "b"}).Error)
	}

	var page []models.Project
	err := db.Scopes(Paginate(utils.NewPaginationParams(2, 2))).Find(&page).Error
	require.NoError(t, err)
	assert.Len(t, page, 2)

	err = db.Scopes(Paginate(utils.NewPaginationParams(3, 2))).Find(&page).Error
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestNewestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	base := time.Now().Add(-time.Hour)
	for i, title := range []string{"old", "middle", "new"} {
		p := &models.Project{Title: title, Description: "d", BuyerID: "b", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, db.Create(p).Error)
	}

	var projects []models.Project
	require.NoError(t, db.Scopes(NewestFirst).Find(&projects).Error)
	require.Len(t, projects, 3)
	assert.Equal(t, "new", projects[0].Title)
	assert.Equal(t, "old", projects[2].Title)
}
