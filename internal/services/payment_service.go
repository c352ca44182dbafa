package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"coursepay/internal/gateways"
	"coursepay/internal/models/db_models"
	"coursepay/internal/models/request_models"
	"coursepay/internal/models/response_models"
	"coursepay/internal/repositories"
	"coursepay/pkg/utils"
)

// PaymentService orchestrates the purchase flow: Prepare writes the pending
// ledger row, Confirm settles it against the gateway and triggers enrollment,
// Cancel reverses a paid row. All coordination between concurrent callers
// lives in the ledger's conditional status updates; the service itself holds
// no mutable state and any number of instances may run side by side.
type PaymentService interface {
	Prepare(ctx context.Context, req request_models.PrepareRequest) (*response_models.PrepareResponse, error)
	Confirm(ctx context.Context, req request_models.ConfirmRequest) (*response_models.ConfirmResponse, error)
	Cancel(ctx context.Context, req request_models.CancelRequest) (*response_models.CancelResponse, error)
	GetByOrderID(ctx context.Context, orderID string) (*response_models.PaymentDetailResponse, error)
}

type paymentService struct {
	paymentRepo    repositories.IPaymentRepository
	courseRepo     repositories.ICourseRepository
	userRepo       repositories.IUserRepository
	enrollment     EnrollmentService
	registry       *gateways.Registry
	gatewayTimeout time.Duration
}

func NewPaymentService(
	paymentRepo repositories.IPaymentRepository,
	courseRepo repositories.ICourseRepository,
	userRepo repositories.IUserRepository,
	enrollment EnrollmentService,
	registry *gateways.Registry,
	gatewayTimeout time.Duration,
) PaymentService {
	if gatewayTimeout <= 0 {
		gatewayTimeout = 15 * time.Second
	}
	return &paymentService{
		paymentRepo:    paymentRepo,
		courseRepo:     courseRepo,
		userRepo:       userRepo,
		enrollment:     enrollment,
		registry:       registry,
		gatewayTimeout: gatewayTimeout,
	}
}

func (s *paymentService) Prepare(ctx context.Context, req request_models.PrepareRequest) (*response_models.PrepareResponse, error) {

	var missing []string
	if req.CourseID == "" {
		missing = append(missing, "course_id")
	}
	if req.UserID == "" {
		missing = append(missing, "user_id")
	}
	if req.CustomerName == "" {
		missing = append(missing, "customer_name")
	}
	if req.CustomerEmail == "" {
		missing = append(missing, "customer_email")
	}
	if req.Provider == "" {
		missing = append(missing, "provider")
	}

	var courseID, userID uuid.UUID
	var err error
	if req.CourseID != "" {
		if courseID, err = uuid.Parse(req.CourseID); err != nil {
			missing = append(missing, "course_id")
		}
	}
	if req.UserID != "" {
		if userID, err = uuid.Parse(req.UserID); err != nil {
			missing = append(missing, "user_id")
		}
	}
	if len(missing) > 0 {
		return nil, utils.NewValidationError(missing...)
	}

	adapter := s.registry.Get(req.Provider)
	if adapter == nil {
		return nil, utils.ErrUnknownProvider
	}

	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if course == nil {
		return nil, utils.ErrCourseNotFound
	}
	if !course.IsActive || course.PriceMinor <= 0 {
		return nil, utils.ErrNotPayable
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}

	alreadyPaid, err := s.paymentRepo.HasPaidPayment(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if alreadyPaid {
		return nil, utils.ErrAlreadyPurchased
	}

	orderID := utils.GenerateOrderID()

	// The amount comes from the catalog, never from the caller.
	metadata, _ := json.Marshal(map[string]string{
		"customer_name":  req.CustomerName,
		"customer_email": req.CustomerEmail,
		"success_url":    req.SuccessURL,
		"fail_url":       req.FailURL,
	})

	payment := &db_models.Payment{
		OrderID:     orderID,
		UserID:      userID,
		CourseID:    courseID,
		OrderName:   course.Title,
		AmountMinor: course.PriceMinor,
		Currency:    course.Currency,
		Status:      db_models.PaymentStatusPending,
		Provider:    db_models.PaymentProvider(req.Provider),
		Method:      req.Method,
		Metadata:    metadata,
	}

	// A failed insert (including an order-id collision) surfaces here and the
	// caller retries Prepare with a fresh id; nothing was handed to the
	// gateway yet.
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("%w: create payment: %v", utils.ErrDatabaseError, err)
	}

	return &response_models.PrepareResponse{
		OrderID:    orderID,
		OrderName:  course.Title,
		Amount:     course.PriceMinor,
		Currency:   course.Currency,
		Provider:   req.Provider,
		Method:     req.Method,
		SuccessURL: req.SuccessURL,
		FailURL:    req.FailURL,
		ClientKey:  adapter.ClientKey(),
	}, nil
}

func (s *paymentService) Confirm(ctx context.Context, req request_models.ConfirmRequest) (*response_models.ConfirmResponse, error) {

	payment, err := s.paymentRepo.GetByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if payment == nil {
		return nil, utils.ErrOrderNotFound
	}
	if payment.Status != db_models.PaymentStatusPending {
		return nil, utils.ErrAlreadyProcessed
	}

	// Integrity checks run before the gateway is ever called. A mismatch is
	// fraud-adjacent: the record fails with the reason, it is not corrected.
	if req.Amount != payment.AmountMinor {
		reason := fmt.Sprintf("amount mismatch: claimed %d, declared %d", req.Amount, payment.AmountMinor)
		return nil, s.failPending(ctx, req.OrderID, reason, utils.ErrAmountMismatch)
	}
	if db_models.PaymentProvider(req.Provider) != payment.Provider {
		reason := fmt.Sprintf("provider mismatch: claimed %s, declared %s", req.Provider, payment.Provider)
		return nil, s.failPending(ctx, req.OrderID, reason, utils.ErrProviderMismatch)
	}

	adapter := s.registry.Get(string(payment.Provider))
	if adapter == nil {
		return nil, utils.ErrUnknownProvider
	}

	// The gateway call must survive the caller hanging up: once dispatched,
	// its result is persisted whether or not anyone is still listening.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.gatewayTimeout)
	defer cancel()

	if err := s.paymentRepo.RecordConfirmAttempt(callCtx, req.OrderID, req.PaymentKey); err != nil {
		log.Printf("confirm %s: recording attempt key failed: %v", req.OrderID, err)
	}

	result, err := adapter.Confirm(callCtx, gateways.ConfirmRequest{
		PaymentKey: req.PaymentKey,
		OrderID:    req.OrderID,
		Amount:     payment.AmountMinor,
		Currency:   payment.Currency,
	})
	if err != nil {
		var gatewayErr *gateways.Error
		if errors.As(err, &gatewayErr) && gatewayErr.Ambiguous {
			// Outcome unknown: leave the row pending for the reconciler
			// rather than guessing.
			log.Printf("confirm %s: ambiguous gateway outcome: %v", req.OrderID, err)
			return nil, fmt.Errorf("%w: %v", utils.ErrGatewayTimeout, err)
		}
		return nil, s.failPending(callCtx, req.OrderID, err.Error(), fmt.Errorf("%w: %v", utils.ErrGatewayFailure, err))
	}

	if result.SettledMinor != payment.AmountMinor {
		reason := fmt.Sprintf("settled amount mismatch: gateway settled %d, declared %d", result.SettledMinor, payment.AmountMinor)
		return nil, s.failPending(callCtx, req.OrderID, reason, utils.ErrAmountMismatch)
	}

	approvedAt := result.ApprovedAt
	if approvedAt == 0 {
		approvedAt = time.Now().Unix()
	}

	won, err := s.paymentRepo.MarkPaid(callCtx, req.OrderID, result.PaymentKey, result.Method, approvedAt, result.Raw)
	if err != nil {
		// Money moved at the gateway but the ledger write failed. The row is
		// still pending with the attempt key recorded, so the sweep resolves
		// it; the caller must not be told success.
		return nil, fmt.Errorf("%w: persist paid transition: %v", utils.ErrDatabaseError, err)
	}
	if !won {
		return nil, utils.ErrAlreadyProcessed
	}

	// Paid is committed; enrollment is an at-least-once follow-up, not a
	// transaction partner. A failure here is picked up by the sweep.
	if err := s.enrollment.Approve(callCtx, payment.UserID, payment.CourseID, req.OrderID); err != nil {
		log.Printf("confirm %s: enrollment trigger failed, left to reconciler: %v", req.OrderID, err)
	}

	return &response_models.ConfirmResponse{
		OrderID:    req.OrderID,
		PaymentKey: result.PaymentKey,
		Amount:     payment.AmountMinor,
		Status:     string(db_models.PaymentStatusPaid),
		Method:     result.Method,
		ApprovedAt: approvedAt,
		ReceiptURL: result.ReceiptURL,
	}, nil
}

// failPending moves a pending row to failed with the given reason and returns
// callerErr. If another writer finished the row first, the idempotency
// rejection wins instead.
func (s *paymentService) failPending(ctx context.Context, orderID, reason string, callerErr error) error {
	won, err := s.paymentRepo.MarkFailed(ctx, orderID, reason)
	if err != nil {
		return fmt.Errorf("%w: persist failed transition: %v", utils.ErrDatabaseError, err)
	}
	if !won {
		return utils.ErrAlreadyProcessed
	}
	return callerErr
}

func (s *paymentService) Cancel(ctx context.Context, req request_models.CancelRequest) (*response_models.CancelResponse, error) {

	if req.Reason == "" {
		return nil, utils.NewValidationError("reason")
	}
	if req.OrderID == "" && req.PaymentKey == "" {
		return nil, utils.NewValidationError("order_id")
	}

	var payment *db_models.Payment
	var err error
	if req.OrderID != "" {
		payment, err = s.paymentRepo.GetByOrderID(ctx, req.OrderID)
	} else {
		payment, err = s.paymentRepo.GetByProviderTxnID(ctx, req.PaymentKey)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if payment == nil {
		return nil, utils.ErrOrderNotFound
	}
	if payment.Status != db_models.PaymentStatusPaid {
		return nil, utils.ErrNotCancellable
	}
	if req.Amount < 0 || req.Amount > payment.AmountMinor {
		return nil, utils.NewValidationError("amount")
	}

	full := req.Amount == 0 || req.Amount == payment.AmountMinor
	refundAmount := req.Amount
	if full {
		refundAmount = payment.AmountMinor
	}

	adapter := s.registry.Get(string(payment.Provider))
	if adapter == nil {
		return nil, utils.ErrUnknownProvider
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.gatewayTimeout)
	defer cancel()

	cancelReq := gateways.CancelRequest{
		PaymentKey: payment.ProviderTxnID,
		Reason:     req.Reason,
	}
	if !full {
		cancelReq.Amount = refundAmount
	}

	result, err := adapter.Cancel(callCtx, cancelReq)
	if err != nil {
		// The row stays paid: a cancel must never succeed locally while the
		// gateway-side money movement failed.
		var gatewayErr *gateways.Error
		if errors.As(err, &gatewayErr) && gatewayErr.Ambiguous {
			return nil, fmt.Errorf("%w: %v", utils.ErrGatewayTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", utils.ErrGatewayFailure, err)
	}

	status := db_models.PaymentStatusRefunded
	if full {
		status = db_models.PaymentStatusCancelled
	}
	at := result.CancelledAt
	if at == 0 {
		at = time.Now().Unix()
	}

	won, err := s.paymentRepo.MarkCancelled(callCtx, payment.OrderID, status, req.Reason, refundAmount, at)
	if err != nil {
		return nil, fmt.Errorf("%w: persist cancel transition: %v", utils.ErrDatabaseError, err)
	}
	if !won {
		return nil, utils.ErrAlreadyProcessed
	}

	return &response_models.CancelResponse{
		OrderID:      payment.OrderID,
		Status:       string(status),
		RefundAmount: refundAmount,
	}, nil
}

func (s *paymentService) GetByOrderID(ctx context.Context, orderID string) (*response_models.PaymentDetailResponse, error) {

	payment, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if payment == nil {
		return nil, utils.ErrOrderNotFound
	}

	return &response_models.PaymentDetailResponse{
		OrderID:     payment.OrderID,
		OrderName:   payment.OrderName,
		UserID:      payment.UserID.String(),
		CourseID:    payment.CourseID.String(),
		Amount:      payment.AmountMinor,
		Currency:    payment.Currency,
		Provider:    string(payment.Provider),
		Method:      payment.Method,
		Status:      string(payment.Status),
		FailReason:  payment.FailReason,
		ApprovedAt:  payment.ApprovedAt,
		CancelledAt: payment.CancelledAt,
		RefundedAt:  payment.RefundedAt,
	}, nil
}
