package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursepay/internal/models/db_models"
)

type ICourseRepository interface {
	GetCourseByID(ctx context.Context, courseID uuid.UUID) (*db_models.Course, error)
}

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) ICourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) GetCourseByID(ctx context.Context, courseID uuid.UUID) (*db_models.Course, error) {

	var course db_models.Course
	err := r.db.WithContext(ctx).First(&course, "id = ?", courseID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &course, nil
}
