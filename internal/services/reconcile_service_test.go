package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursepay/internal/gateways"
	"coursepay/internal/models/db_models"
)

// reconcilePaymentRepo extends the in-memory fake with working list queries.
type reconcilePaymentRepo struct {
	fakePaymentRepo
	enrollRepo *fakeEnrollmentRepo
}

func newReconcilePaymentRepo(enrollRepo *fakeEnrollmentRepo) *reconcilePaymentRepo {
	return &reconcilePaymentRepo{
		fakePaymentRepo: fakePaymentRepo{byOrder: make(map[string]*db_models.Payment)},
		enrollRepo:      enrollRepo,
	}
}

func (r *reconcilePaymentRepo) ListPaidWithoutEnrollment(ctx context.Context, limit int) ([]db_models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []db_models.Payment
	for _, payment := range r.byOrder {
		if payment.Status != db_models.PaymentStatusPaid {
			continue
		}
		enrollment, _ := r.enrollRepo.GetByUserAndCourse(ctx, payment.UserID, payment.CourseID)
		if enrollment == nil {
			out = append(out, *payment)
		}
	}
	return out, nil
}

func (r *reconcilePaymentRepo) ListStalePending(ctx context.Context, olderThan int64, limit int) ([]db_models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []db_models.Payment
	for _, payment := range r.byOrder {
		if payment.Status == db_models.PaymentStatusPending && payment.CreatedAt < olderThan {
			out = append(out, *payment)
		}
	}
	return out, nil
}

func (r *reconcilePaymentRepo) seed(payment *db_models.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byOrder[payment.OrderID] = payment
}

func newReconcileFixture(adapter *fakeAdapter) (*reconcilePaymentRepo, *fakeEnrollmentRepo, ReconcileService) {
	enrollRepo := newFakeEnrollmentRepo()
	paymentRepo := newReconcilePaymentRepo(enrollRepo)
	reconciler := NewReconcileService(
		paymentRepo,
		NewEnrollmentService(enrollRepo),
		gateways.NewRegistry(adapter),
		30*time.Minute,
	)
	return paymentRepo, enrollRepo, reconciler
}

func stalePending(provider db_models.PaymentProvider, lastKey string) *db_models.Payment {
	approvedAge := time.Now().Add(-2 * time.Hour).Unix()
	return &db_models.Payment{
		BaseModel:      db_models.BaseModel{ID: uuid.New(), CreatedAt: approvedAge},
		OrderID:        "ord-" + uuid.NewString()[:8],
		UserID:         uuid.New(),
		CourseID:       uuid.New(),
		AmountMinor:    coursePrice,
		Currency:       "KRW",
		Status:         db_models.PaymentStatusPending,
		Provider:       provider,
		LastPaymentKey: lastKey,
	}
}

func TestSweep_RetriesEnrollmentForPaidOrders(t *testing.T) {
	adapter := &fakeAdapter{name: "toss"}
	paymentRepo, enrollRepo, reconciler := newReconcileFixture(adapter)

	approvedAt := time.Now().Unix()
	paid := stalePending(db_models.ProviderToss, "")
	paid.Status = db_models.PaymentStatusPaid
	paid.ProviderTxnID = "pay_key_1"
	paid.ApprovedAt = &approvedAt
	paymentRepo.seed(paid)

	reconciler.SweepOnce(context.Background())

	enrollment, err := enrollRepo.GetByUserAndCourse(context.Background(), paid.UserID, paid.CourseID)
	require.NoError(t, err)
	require.NotNil(t, enrollment, "paid order without enrollment must be re-enrolled")
	assert.Equal(t, paid.OrderID, enrollment.PaymentOrderID)
}

func TestSweep_ResolvesStalePendingSettledAtProvider(t *testing.T) {
	adapter := &fakeAdapter{
		name: "toss",
		queryResult: &gateways.QueryResult{
			Status:       gateways.QueryStatusDone,
			SettledMinor: coursePrice,
			Method:       "card",
			ApprovedAt:   time.Now().Unix(),
		},
	}
	paymentRepo, enrollRepo, reconciler := newReconcileFixture(adapter)

	pending := stalePending(db_models.ProviderToss, "pay_key_lost")
	paymentRepo.seed(pending)

	reconciler.SweepOnce(context.Background())

	record, _ := paymentRepo.GetByOrderID(context.Background(), pending.OrderID)
	assert.Equal(t, db_models.PaymentStatusPaid, record.Status)
	assert.Equal(t, "pay_key_lost", record.ProviderTxnID)
	assert.Equal(t, 1, enrollRepo.count())
}

func TestSweep_FailsStalePendingNeverSettled(t *testing.T) {
	adapter := &fakeAdapter{
		name:        "toss",
		queryResult: &gateways.QueryResult{Status: gateways.QueryStatusReady},
	}
	paymentRepo, enrollRepo, reconciler := newReconcileFixture(adapter)

	pending := stalePending(db_models.ProviderToss, "pay_key_never")
	paymentRepo.seed(pending)

	reconciler.SweepOnce(context.Background())

	record, _ := paymentRepo.GetByOrderID(context.Background(), pending.OrderID)
	assert.Equal(t, db_models.PaymentStatusFailed, record.Status)
	assert.Zero(t, enrollRepo.count())
}

func TestSweep_SkipsPendingWithoutConfirmAttempt(t *testing.T) {
	adapter := &fakeAdapter{
		name:        "toss",
		queryResult: &gateways.QueryResult{Status: gateways.QueryStatusDone, SettledMinor: coursePrice},
	}
	paymentRepo, _, reconciler := newReconcileFixture(adapter)

	pending := stalePending(db_models.ProviderToss, "")
	paymentRepo.seed(pending)

	reconciler.SweepOnce(context.Background())

	record, _ := paymentRepo.GetByOrderID(context.Background(), pending.OrderID)
	assert.Equal(t, db_models.PaymentStatusPending, record.Status, "abandoned checkouts are not touched by the sweep")
}

func TestSweep_AmbiguousQueryLeavesPending(t *testing.T) {
	adapter := &fakeAdapter{
		name:     "toss",
		queryErr: &gateways.Error{Code: "NETWORK_ERROR", Message: "timeout", Ambiguous: true},
	}
	paymentRepo, _, reconciler := newReconcileFixture(adapter)

	pending := stalePending(db_models.ProviderToss, "pay_key_unknown")
	paymentRepo.seed(pending)

	reconciler.SweepOnce(context.Background())

	record, _ := paymentRepo.GetByOrderID(context.Background(), pending.OrderID)
	assert.Equal(t, db_models.PaymentStatusPending, record.Status)
}
