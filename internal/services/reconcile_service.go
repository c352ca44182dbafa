package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"coursepay/internal/gateways"
	"coursepay/internal/models/db_models"
	"coursepay/internal/repositories"
)

// ReconcileService is the out-of-band sweep that closes the two gaps the
// saga leaves open: paid orders whose enrollment trigger failed, and orders
// stuck pending after an ambiguous gateway timeout. It applies exactly the
// same conditional transitions as Confirm, so it is safe to run alongside
// live traffic and on several instances at once.
type ReconcileService interface {
	SweepOnce(ctx context.Context)
}

type reconcileService struct {
	paymentRepo  repositories.IPaymentRepository
	enrollment   EnrollmentService
	registry     *gateways.Registry
	pendingGrace time.Duration
	batchSize    int
}

func NewReconcileService(
	paymentRepo repositories.IPaymentRepository,
	enrollment EnrollmentService,
	registry *gateways.Registry,
	pendingGrace time.Duration,
) ReconcileService {
	if pendingGrace <= 0 {
		pendingGrace = 30 * time.Minute
	}
	return &reconcileService{
		paymentRepo:  paymentRepo,
		enrollment:   enrollment,
		registry:     registry,
		pendingGrace: pendingGrace,
		batchSize:    100,
	}
}

func (s *reconcileService) SweepOnce(ctx context.Context) {
	s.retryMissedEnrollments(ctx)
	s.resolveStalePending(ctx)
}

func (s *reconcileService) retryMissedEnrollments(ctx context.Context) {

	payments, err := s.paymentRepo.ListPaidWithoutEnrollment(ctx, s.batchSize)
	if err != nil {
		log.Printf("reconcile: listing paid-without-enrollment: %v", err)
		return
	}

	for _, payment := range payments {
		if err := s.enrollment.Approve(ctx, payment.UserID, payment.CourseID, payment.OrderID); err != nil {
			log.Printf("reconcile: re-triggering enrollment for %s: %v", payment.OrderID, err)
			continue
		}
		log.Printf("reconcile: enrolled %s for paid order %s", payment.UserID, payment.OrderID)
	}
}

func (s *reconcileService) resolveStalePending(ctx context.Context) {

	cutoff := time.Now().Add(-s.pendingGrace).Unix()
	payments, err := s.paymentRepo.ListStalePending(ctx, cutoff, s.batchSize)
	if err != nil {
		log.Printf("reconcile: listing stale pending: %v", err)
		return
	}

	for _, payment := range payments {
		if payment.LastPaymentKey == "" {
			// Never handed to a gateway: an abandoned checkout, left for the
			// pending-row janitor.
			continue
		}
		s.resolveOne(ctx, payment)
	}
}

// resolveOne asks the provider for the authoritative outcome of a pending
// order whose confirm attempt never reported back.
func (s *reconcileService) resolveOne(ctx context.Context, payment db_models.Payment) {

	adapter := s.registry.Get(string(payment.Provider))
	if adapter == nil {
		log.Printf("reconcile: no adapter for provider %s (order %s)", payment.Provider, payment.OrderID)
		return
	}

	state, err := adapter.Query(ctx, payment.LastPaymentKey)
	if err != nil {
		log.Printf("reconcile: querying %s for order %s: %v", payment.Provider, payment.OrderID, err)
		return
	}

	switch state.Status {
	case gateways.QueryStatusDone:
		if state.SettledMinor != payment.AmountMinor {
			reason := fmt.Sprintf("settled amount mismatch on reconcile: gateway settled %d, declared %d", state.SettledMinor, payment.AmountMinor)
			s.fail(ctx, payment.OrderID, reason)
			return
		}
		approvedAt := state.ApprovedAt
		if approvedAt == 0 {
			approvedAt = time.Now().Unix()
		}
		won, err := s.paymentRepo.MarkPaid(ctx, payment.OrderID, payment.LastPaymentKey, state.Method, approvedAt, nil)
		if err != nil {
			log.Printf("reconcile: marking %s paid: %v", payment.OrderID, err)
			return
		}
		if won {
			log.Printf("reconcile: order %s settled at provider, marked paid", payment.OrderID)
			if err := s.enrollment.Approve(ctx, payment.UserID, payment.CourseID, payment.OrderID); err != nil {
				log.Printf("reconcile: enrollment for %s: %v", payment.OrderID, err)
			}
		}
	case gateways.QueryStatusFailed, gateways.QueryStatusCancelled:
		s.fail(ctx, payment.OrderID, fmt.Sprintf("provider reports terminal status %q", state.Status))
	case gateways.QueryStatusReady:
		// Initiated but never settled within the grace window.
		s.fail(ctx, payment.OrderID, "confirm attempt never settled at provider")
	default:
		log.Printf("reconcile: order %s still unresolved at provider, will retry", payment.OrderID)
	}
}

func (s *reconcileService) fail(ctx context.Context, orderID, reason string) {
	won, err := s.paymentRepo.MarkFailed(ctx, orderID, reason)
	if err != nil {
		log.Printf("reconcile: marking %s failed: %v", orderID, err)
		return
	}
	if won {
		log.Printf("reconcile: order %s failed: %s", orderID, reason)
	}
}
