package db_models

import (
	"github.com/google/uuid"
)

type EnrollmentStatus string

const (
	EnrollmentStatusApproved EnrollmentStatus = "approved"
)

// Enrollment ties a user to a purchased course. At most one row exists per
// (user, course); a re-trigger after a partial run updates it in place.
type Enrollment struct {
	BaseModel
	UserID         uuid.UUID        `gorm:"uniqueIndex:idx_user_course;not null"`
	CourseID       uuid.UUID        `gorm:"uniqueIndex:idx_user_course;not null"`
	PaymentOrderID string           `gorm:"index"`
	Status         EnrollmentStatus `gorm:"default:'approved'"`
	ApprovedAt     int64

	User   User   `gorm:"foreignKey:UserID"`
	Course Course `gorm:"foreignKey:CourseID"`
}
