package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursepay/internal/models/db_models"
)

type IUserRepository interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*db_models.User, error)
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) IUserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*db_models.User, error) {

	var user db_models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}
