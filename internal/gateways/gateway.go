// Package gateways defines the provider-neutral contract every payment
// gateway adapter implements. Adapters own provider authentication, request
// shaping, and error normalization; they never retry a settle on their own,
// so a retried confirm always re-enters the orchestrator's idempotency guard.
package gateways

import (
	"context"
	"fmt"
)

type ConfirmRequest struct {
	PaymentKey string // provider transaction handle
	OrderID    string
	Amount     int64
	Currency   string
}

type ConfirmResult struct {
	PaymentKey   string
	SettledMinor int64
	Method       string
	ApprovedAt   int64 // unix seconds
	ReceiptURL   string
	Raw          []byte // raw provider response for the ledger receipt column
}

type CancelRequest struct {
	PaymentKey string
	Reason     string
	Amount     int64 // 0 means full cancel
}

type CancelResult struct {
	CancelledMinor int64
	CancelledAt    int64
	Raw            []byte
}

type QueryResult struct {
	Status       string // provider-side status, normalized to done | ready | cancelled | failed | unknown
	SettledMinor int64
	Method       string
	ApprovedAt   int64
	ReceiptURL   string
}

// Provider-side status values returned by Query.
const (
	QueryStatusDone      = "done"
	QueryStatusReady     = "ready" // initiated, never settled
	QueryStatusCancelled = "cancelled"
	QueryStatusFailed    = "failed"
	QueryStatusUnknown   = "unknown"
)

// Error is the normalized failure shape. Ambiguous marks transport faults and
// timeouts where the provider-side outcome is unknown: the ledger row must
// stay pending and be resolved by a later Query, never guessed.
type Error struct {
	Code      string
	Message   string
	Ambiguous bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
}

// NewTransportError wraps a client-side transport failure. By the time the
// request left the process the provider may already have acted on it, so
// these are always ambiguous.
func NewTransportError(err error) *Error {
	return &Error{Code: "NETWORK_ERROR", Message: err.Error(), Ambiguous: true}
}

type Adapter interface {
	Name() string
	// ClientKey is the public credential embedded in the Prepare launch
	// descriptor for the provider's client-side flow.
	ClientKey() string
	Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error)
	Cancel(ctx context.Context, req CancelRequest) (*CancelResult, error)
	Query(ctx context.Context, paymentKey string) (*QueryResult, error)
}

// Registry maps provider names to adapters so the orchestrator stays
// provider-agnostic.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Registry{adapters: m}
}

func (r *Registry) Get(provider string) Adapter {
	return r.adapters[provider]
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
