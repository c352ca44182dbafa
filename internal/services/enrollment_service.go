package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"coursepay/internal/models/db_models"
	"coursepay/internal/repositories"
)

// EnrollmentService is the side-effect trigger invoked after a payment
// reaches paid. Approve is idempotent keyed on (user, course): a re-trigger
// from a retried confirm or the reconciliation sweep re-approves the existing
// row instead of duplicating it.
type EnrollmentService interface {
	Approve(ctx context.Context, userID, courseID uuid.UUID, orderID string) error
	IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
}

type enrollmentService struct {
	enrollmentRepo repositories.IEnrollmentRepository
}

func NewEnrollmentService(enrollmentRepo repositories.IEnrollmentRepository) EnrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
	}
}

func (s *enrollmentService) Approve(ctx context.Context, userID, courseID uuid.UUID, orderID string) error {
	return s.enrollmentRepo.Upsert(ctx, &db_models.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		PaymentOrderID: orderID,
		Status:         db_models.EnrollmentStatusApproved,
		ApprovedAt:     time.Now().Unix(),
	})
}

func (s *enrollmentService) IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return false, err
	}
	return enrollment != nil, nil
}
