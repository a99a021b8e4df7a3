package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/solver-marketplace-api/internal/database"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// CreateIfAbsent inserts the user unless the id is already taken
func (r *GormUserRepository) CreateIfAbsent(ctx context.Context, user *models.User) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(user)
	if result.Error != nil {
		return false, storeError("user", "create user", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Save inserts or overwrites a user
func (r *GormUserRepository) Save(ctx context.Context, user *models.User) error {
	return storeError("user", "save user", r.db.WithContext(ctx).Save(user).Error)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, storeError("user", "find user", err)
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, storeError("user", "find user", err)
	}
	return &user, nil
}

// List returns all users
func (r *GormUserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Scopes(database.NewestFirst).Find(&users).Error; err != nil {
		return nil, storeError("user", "list users", err)
	}
	return users, nil
}

// UpdateProfile patches profile fields
func (r *GormUserRepository) UpdateProfile(ctx context.Context, id string, fields map[string]any) error {
	return r.update(ctx, id, "update user", fields)
}

// SetRole changes a user's role
func (r *GormUserRepository) SetRole(ctx context.Context, id string, role models.Role) error {
	return r.update(ctx, id, "update user role", map[string]any{"role": role})
}

// CreditBalance adds amount to the balance in a single statement
func (r *GormUserRepository) CreditBalance(ctx context.Context, id string, amount decimal.Decimal) error {
	return r.update(ctx, id, "credit balance", map[string]any{
		"balance": gorm.Expr("balance + ?", amount),
	})
}

func (r *GormUserRepository) update(ctx context.Context, id, op string, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return storeError("user", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return apierrors.NotFoundError("user")
	}
	return nil
}
