package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusAccepted RequestStatus = "ACCEPTED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// Request is a solver's bid to be assigned a project.
type Request struct {
	ID          string        `gorm:"primarykey;type:varchar(64)" json:"id"`
	ProjectID   string        `gorm:"type:varchar(64);not null;index" json:"project_id"`
	SolverID    string        `gorm:"type:varchar(128);not null;index" json:"solver_id"`
	SolverEmail string        `gorm:"type:varchar(255);not null" json:"solver_email"`
	SolverName  string        `gorm:"type:varchar(255)" json:"solver_name"`
	Message     string        `gorm:"type:text" json:"message"`
	Status      RequestStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
