package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleSolver Role = "SOLVER"
	RoleBuyer  Role = "BUYER"
	RoleAdmin  Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSolver, RoleBuyer, RoleAdmin:
		return true
	}
	return false
}

// User is keyed by the identity provider's id. Balance accumulates solver
// earnings and is only ever changed by settlement.
type User struct {
	ID        string          `gorm:"primarykey;type:varchar(128)" json:"uid"`
	Email     string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name      string          `gorm:"type:varchar(255)" json:"name"`
	Bio       string          `gorm:"type:text" json:"bio"`
	Avatar    string          `gorm:"type:varchar(1024)" json:"avatar"`
	Role      Role            `gorm:"type:varchar(20);not null;default:'SOLVER'" json:"role"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
