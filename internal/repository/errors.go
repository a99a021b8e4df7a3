package repository

import (
	"errors"

	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"gorm.io/gorm"
)

// storeError converts a gorm error into the domain taxonomy.
func storeError(entity, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierrors.NotFoundError(entity)
	}
	return apierrors.StoreUnavailable(op, err)
}
