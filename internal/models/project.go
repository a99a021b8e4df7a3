package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusOpen      ProjectStatus = "OPEN"
	ProjectStatusAssigned  ProjectStatus = "ASSIGNED"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
)

type Project struct {
	ID                  string          `gorm:"primarykey;type:varchar(64)" json:"id"`
	Title               string          `gorm:"type:varchar(255);not null" json:"title"`
	Description         string          `gorm:"type:text;not null" json:"description"`
	Budget              decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"budget"`
	Category            string          `gorm:"type:varchar(100)" json:"category"`
	Deadline            *time.Time      `json:"deadline"`
	Status              ProjectStatus   `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`
	BuyerID             string          `gorm:"type:varchar(128);not null;index" json:"buyer_id"`
	BuyerEmail          string          `gorm:"type:varchar(255)" json:"buyer_email"`
	AssignedSolverID    *string         `gorm:"type:varchar(128);index" json:"assigned_solver_id"`
	AssignedSolverEmail *string         `gorm:"type:varchar(255)" json:"assigned_solver_email"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	CompletedAt         *time.Time      `json:"completed_at"`
}

// BeforeCreate assigns a uuid when the caller has not supplied an id.
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsAssignedTo reports whether solverID is the project's assigned solver.
func (p *Project) IsAssignedTo(solverID string) bool {
	return p.AssignedSolverID != nil && *p.AssignedSolverID == solverID
}
