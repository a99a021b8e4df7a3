package dto

import (
	"time"

	"github.com/yukikurage/solver-marketplace-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	UID       string      `json:"uid"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Bio       string      `json:"bio"`
	Avatar    string      `json:"avatar"`
	Role      models.Role `json:"role"`
	Balance   string      `json:"balance"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreateSessionRequest exchanges an identity provider token for a session
type CreateSessionRequest struct {
	Token string `json:"token" binding:"required"`
}

// UpdateProfileRequest patches the caller's own profile
type UpdateProfileRequest struct {
	Name   *string `json:"name"`
	Bio    *string `json:"bio"`
	Avatar *string `json:"avatar"`
}

// ChangeRoleRequest sets another user's role
type ChangeRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// BootstrapAdminRequest promotes or creates an admin
type BootstrapAdminRequest struct {
	UID    string `json:"uid"`
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		UID:       user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Bio:       user.Bio,
		Avatar:    user.Avatar,
		Role:      user.Role,
		Balance:   user.Balance.StringFixed(2),
		CreatedAt: user.CreatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}
	return items
}
