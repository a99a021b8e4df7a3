package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payout records a settlement credit. At most one exists per project.
type Payout struct {
	ID        string          `gorm:"primarykey;type:varchar(64)" json:"id"`
	ProjectID string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"project_id"`
	TaskID    string          `gorm:"type:varchar(64);not null" json:"task_id"`
	SolverID  string          `gorm:"type:varchar(128);not null;index" json:"solver_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

func (p *Payout) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
