package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusSubmitted  TaskStatus = "SUBMITTED"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusRejected   TaskStatus = "REJECTED"
)

type Task struct {
	ID            string     `gorm:"primarykey;type:varchar(64)" json:"id"`
	ProjectID     string     `gorm:"type:varchar(64);not null;index" json:"project_id"`
	ProjectTitle  string     `gorm:"type:varchar(255)" json:"project_title"`
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	Deadline      *time.Time `json:"deadline"`
	Status        TaskStatus `gorm:"type:varchar(20);not null;default:'TODO';index" json:"status"`
	SolverID      string     `gorm:"type:varchar(128);not null;index" json:"solver_id"`
	SolverEmail   string     `gorm:"type:varchar(255)" json:"solver_email"`
	SubmissionURL *string    `gorm:"type:varchar(2048)" json:"submission_url"`
	SubmittedAt   *time.Time `json:"submitted_at"`
	Feedback      *string    `gorm:"type:text" json:"feedback"`
	ReviewedAt    *time.Time `json:"reviewed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
