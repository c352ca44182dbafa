package gateways

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubAdapter struct {
	name string
}

func (a *stubAdapter) Name() string      { return a.name }
func (a *stubAdapter) ClientKey() string { return "ck_" + a.name }
func (a *stubAdapter) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error) {
	return nil, nil
}
func (a *stubAdapter) Cancel(ctx context.Context, req CancelRequest) (*CancelResult, error) {
	return nil, nil
}
func (a *stubAdapter) Query(ctx context.Context, paymentKey string) (*QueryResult, error) {
	return nil, nil
}

func TestRegistry_LookupByProviderName(t *testing.T) {
	toss := &stubAdapter{name: "toss"}
	iamport := &stubAdapter{name: "iamport"}
	registry := NewRegistry(toss, iamport)

	assert.Equal(t, toss, registry.Get("toss"))
	assert.Equal(t, iamport, registry.Get("iamport"))
	assert.Nil(t, registry.Get("paypal"))
	assert.ElementsMatch(t, []string{"toss", "iamport"}, registry.Names())
}

func TestError_Formatting(t *testing.T) {
	err := &Error{Code: "REJECT_CARD_COMPANY", Message: "declined"}
	assert.Equal(t, "gateway error REJECT_CARD_COMPANY: declined", err.Error())
	assert.False(t, err.Ambiguous)

	transport := NewTransportError(context.DeadlineExceeded)
	assert.True(t, transport.Ambiguous)
	assert.Equal(t, "NETWORK_ERROR", transport.Code)
}
