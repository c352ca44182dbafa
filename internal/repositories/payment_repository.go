package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"coursepay/internal/models/db_models"
)

// IPaymentRepository owns the payment ledger. Every status transition goes
// through a conditional update checking the expected prior status; the caller
// learns from the returned bool whether it won the transition. Rows are never
// deleted.
type IPaymentRepository interface {
	Create(ctx context.Context, payment *db_models.Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*db_models.Payment, error)
	GetByProviderTxnID(ctx context.Context, providerTxnID string) (*db_models.Payment, error)
	HasPaidPayment(ctx context.Context, userID, courseID uuid.UUID) (bool, error)

	RecordConfirmAttempt(ctx context.Context, orderID, paymentKey string) error
	MarkPaid(ctx context.Context, orderID, providerTxnID, method string, approvedAt int64, receipt []byte) (bool, error)
	MarkFailed(ctx context.Context, orderID, reason string) (bool, error)
	MarkCancelled(ctx context.Context, orderID string, status db_models.PaymentStatus, reason string, amount int64, at int64) (bool, error)

	ListPaidWithoutEnrollment(ctx context.Context, limit int) ([]db_models.Payment, error)
	ListStalePending(ctx context.Context, olderThan int64, limit int) ([]db_models.Payment, error)
}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) IPaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *db_models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*db_models.Payment, error) {

	var payment db_models.Payment
	err := r.db.WithContext(ctx).First(&payment, "order_id = ?", orderID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &payment, nil
}

func (r *PaymentRepository) GetByProviderTxnID(ctx context.Context, providerTxnID string) (*db_models.Payment, error) {

	var payment db_models.Payment
	err := r.db.WithContext(ctx).First(&payment, "provider_txn_id = ?", providerTxnID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &payment, nil
}

func (r *PaymentRepository) HasPaidPayment(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {

	var count int64
	err := r.db.WithContext(ctx).Model(&db_models.Payment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, db_models.PaymentStatusPaid).
		Count(&count).Error

	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PaymentRepository) RecordConfirmAttempt(ctx context.Context, orderID, paymentKey string) error {
	return r.db.WithContext(ctx).Model(&db_models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, db_models.PaymentStatusPending).
		Update("last_payment_key", paymentKey).Error
}

// MarkPaid is the pending -> paid compare-and-swap. The NOT EXISTS guard keeps
// a second order for the same (user, course) pair from also reaching paid when
// confirms race; the partial unique index backs it up at commit time.
func (r *PaymentRepository) MarkPaid(ctx context.Context, orderID, providerTxnID, method string, approvedAt int64, receipt []byte) (bool, error) {

	updates := map[string]interface{}{
		"status":          db_models.PaymentStatusPaid,
		"provider_txn_id": providerTxnID,
		"approved_at":     approvedAt,
		"updated_at":      time.Now().Unix(),
	}
	if method != "" {
		updates["method"] = method
	}
	if len(receipt) > 0 {
		updates["receipt"] = datatypes.JSON(receipt)
	}

	result := r.db.WithContext(ctx).Model(&db_models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, db_models.PaymentStatusPending).
		Where("NOT EXISTS (SELECT 1 FROM payments p2 WHERE p2.user_id = payments.user_id AND p2.course_id = payments.course_id AND p2.status = ? AND p2.deleted_at IS NULL)", db_models.PaymentStatusPaid).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, orderID, reason string) (bool, error) {

	result := r.db.WithContext(ctx).Model(&db_models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, db_models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":      db_models.PaymentStatusFailed,
			"fail_reason": reason,
			"updated_at":  time.Now().Unix(),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PaymentRepository) MarkCancelled(ctx context.Context, orderID string, status db_models.PaymentStatus, reason string, amount int64, at int64) (bool, error) {

	updates := map[string]interface{}{
		"status":              status,
		"refund_reason":       reason,
		"refund_amount_minor": amount,
		"updated_at":          time.Now().Unix(),
	}
	if status == db_models.PaymentStatusRefunded {
		updates["refunded_at"] = at
	} else {
		updates["cancelled_at"] = at
	}

	result := r.db.WithContext(ctx).Model(&db_models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, db_models.PaymentStatusPaid).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PaymentRepository) ListPaidWithoutEnrollment(ctx context.Context, limit int) ([]db_models.Payment, error) {

	var payments []db_models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ?", db_models.PaymentStatusPaid).
		Where("NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.user_id = payments.user_id AND e.course_id = payments.course_id AND e.deleted_at IS NULL)").
		Limit(limit).
		Find(&payments).Error

	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) ListStalePending(ctx context.Context, olderThan int64, limit int) ([]db_models.Payment, error) {

	var payments []db_models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", db_models.PaymentStatusPending, olderThan).
		Limit(limit).
		Find(&payments).Error

	if err != nil {
		return nil, err
	}
	return payments, nil
}
