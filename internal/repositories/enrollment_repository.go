package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coursepay/internal/models/db_models"
)

type IEnrollmentRepository interface {
	// Upsert creates the enrollment or re-approves an existing one for the
	// same (user, course) pair.
	Upsert(ctx context.Context, enrollment *db_models.Enrollment) error
	GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*db_models.Enrollment, error)
}

type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) IEnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) Upsert(ctx context.Context, enrollment *db_models.Enrollment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "payment_order_id", "approved_at", "updated_at",
		}),
	}).Create(enrollment).Error
}

func (r *EnrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*db_models.Enrollment, error) {

	var enrollment db_models.Enrollment
	err := r.db.WithContext(ctx).
		First(&enrollment, "user_id = ? AND course_id = ?", userID, courseID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &enrollment, nil
}
