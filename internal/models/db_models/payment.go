package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Terminal reports whether no further transition may leave this status.
// Paid is not terminal: it can still move to cancelled or refunded.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusFailed || s == PaymentStatusCancelled || s == PaymentStatusRefunded
}

type PaymentProvider string

const (
	ProviderToss    PaymentProvider = "toss"
	ProviderIamport PaymentProvider = "iamport"
)

// Payment is the ledger row for one purchase attempt. AmountMinor is fixed at
// prepare time from the course catalog and never changes afterwards; status is
// the only field business logic mutates. The partial unique index on
// (user_id, course_id) for paid rows backs the one-paid-purchase-per-course
// invariant at the datastore level.
type Payment struct {
	BaseModel
	OrderID   string    `gorm:"uniqueIndex;not null"`
	UserID    uuid.UUID `gorm:"index;uniqueIndex:idx_paid_user_course,where:status = 'paid'"`
	CourseID  uuid.UUID `gorm:"index;uniqueIndex:idx_paid_user_course,where:status = 'paid'"`
	OrderName string

	AmountMinor int64
	Currency    string        `gorm:"size:3"`
	Status      PaymentStatus `gorm:"index;default:'pending'"`

	// Gateway fields
	Provider      PaymentProvider `gorm:"index"`
	Method        string          // advisory hint: card, transfer, wallet
	ProviderTxnID string          `gorm:"index"` // paymentKey, set on successful confirm

	// LastPaymentKey records the handle of the most recent confirm attempt
	// before the gateway call is made. Advisory only; it lets the
	// reconciliation sweep query the provider for orders stuck pending after
	// an ambiguous timeout.
	LastPaymentKey string

	FailReason        string
	RefundReason      string
	RefundAmountMinor int64

	// Unix seconds, set exactly once at the corresponding transition
	ApprovedAt  *int64
	CancelledAt *int64
	RefundedAt  *int64

	// Raw provider receipts and traceability metadata
	Receipt  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	User   User   `gorm:"foreignKey:UserID"`
	Course Course `gorm:"foreignKey:CourseID"`
}
