// Package iamport integrates the I'mport payment gateway. Unlike Toss, the
// REST key/secret is exchanged for a short-lived bearer token that is cached
// until shortly before expiry; the confirm step verifies a payment the
// customer already completed against the provider's record of it.
package iamport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"coursepay/internal/gateways"
)

const defaultBaseURL = "https://api.iamport.kr"

type Config struct {
	APIKey       string // long-lived REST key
	APISecret    string
	ClientKeyVal string // merchant identification code for the client SDK
	BaseURL      string
}

type Adapter struct {
	cfg        Config
	httpClient *http.Client
	baseURL    string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewAdapter(cfg Config, client *http.Client) *Adapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		cfg:        cfg,
		httpClient: client,
		baseURL:    baseURL,
	}
}

func (a *Adapter) Name() string {
	return "iamport"
}

func (a *Adapter) ClientKey() string {
	return a.cfg.ClientKeyVal
}

type iamportEnvelope struct {
	Code     int             `json:"code"`
	Message  string          `json:"message"`
	Response json.RawMessage `json:"response"`
}

type iamportToken struct {
	AccessToken string `json:"access_token"`
	ExpiredAt   int64  `json:"expired_at"`
}

type iamportPayment struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"` // ready | paid | cancelled | failed
	PayMethod   string `json:"pay_method"`
	PaidAt      int64  `json:"paid_at"`
	ReceiptURL  string `json:"receipt_url"`
	FailReason  string `json:"fail_reason"`
}

type iamportCancel struct {
	CancelAmount int64 `json:"cancel_amount"`
	CancelledAt  int64 `json:"cancelled_at"`
}

// token returns a cached access token, refreshing it when it is within a
// minute of expiry.
func (a *Adapter) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Add(time.Minute).Before(a.tokenExpiry) {
		return a.accessToken, nil
	}

	payload := map[string]string{
		"imp_key":    a.cfg.APIKey,
		"imp_secret": a.cfg.APISecret,
	}
	envelope, err := a.call(ctx, http.MethodPost, "/users/getToken", "", payload)
	if err != nil {
		return "", err
	}

	var token iamportToken
	if err := json.Unmarshal(envelope.Response, &token); err != nil {
		return "", &gateways.Error{Code: "IAMPORT_BAD_RESPONSE", Message: err.Error(), Ambiguous: true}
	}
	if token.AccessToken == "" {
		return "", &gateways.Error{Code: "IAMPORT_AUTH_FAILED", Message: envelope.Message}
	}

	a.accessToken = token.AccessToken
	a.tokenExpiry = time.Unix(token.ExpiredAt, 0)
	return a.accessToken, nil
}

func (a *Adapter) Confirm(ctx context.Context, req gateways.ConfirmRequest) (*gateways.ConfirmResult, error) {

	payment, raw, err := a.fetchPayment(ctx, req.PaymentKey)
	if err != nil {
		return nil, err
	}

	if payment.Status != "paid" {
		reason := payment.FailReason
		if reason == "" {
			reason = fmt.Sprintf("payment %s in status %s", req.PaymentKey, payment.Status)
		}
		return nil, &gateways.Error{Code: "IAMPORT_NOT_PAID", Message: reason}
	}
	if payment.MerchantUID != req.OrderID {
		return nil, &gateways.Error{
			Code:    "IAMPORT_ORDER_MISMATCH",
			Message: fmt.Sprintf("payment %s belongs to order %s", req.PaymentKey, payment.MerchantUID),
		}
	}

	return &gateways.ConfirmResult{
		PaymentKey:   payment.ImpUID,
		SettledMinor: payment.Amount,
		Method:       payment.PayMethod,
		ApprovedAt:   payment.PaidAt,
		ReceiptURL:   payment.ReceiptURL,
		Raw:          raw,
	}, nil
}

func (a *Adapter) Cancel(ctx context.Context, req gateways.CancelRequest) (*gateways.CancelResult, error) {

	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"imp_uid": req.PaymentKey,
		"reason":  req.Reason,
	}
	if req.Amount > 0 {
		payload["amount"] = req.Amount
	}

	envelope, err := a.call(ctx, http.MethodPost, "/payments/cancel", token, payload)
	if err != nil {
		return nil, err
	}

	var cancel iamportCancel
	if err := json.Unmarshal(envelope.Response, &cancel); err != nil {
		return nil, &gateways.Error{Code: "IAMPORT_BAD_RESPONSE", Message: err.Error(), Ambiguous: true}
	}

	return &gateways.CancelResult{
		CancelledMinor: cancel.CancelAmount,
		CancelledAt:    cancel.CancelledAt,
		Raw:            envelope.Response,
	}, nil
}

func (a *Adapter) Query(ctx context.Context, paymentKey string) (*gateways.QueryResult, error) {

	payment, _, err := a.fetchPayment(ctx, paymentKey)
	if err != nil {
		return nil, err
	}

	result := &gateways.QueryResult{
		SettledMinor: payment.Amount,
		Method:       payment.PayMethod,
		ApprovedAt:   payment.PaidAt,
		ReceiptURL:   payment.ReceiptURL,
	}

	switch payment.Status {
	case "paid":
		result.Status = gateways.QueryStatusDone
	case "ready":
		result.Status = gateways.QueryStatusReady
	case "cancelled":
		result.Status = gateways.QueryStatusCancelled
	case "failed":
		result.Status = gateways.QueryStatusFailed
	default:
		result.Status = gateways.QueryStatusUnknown
	}
	return result, nil
}

func (a *Adapter) fetchPayment(ctx context.Context, impUID string) (*iamportPayment, []byte, error) {

	token, err := a.token(ctx)
	if err != nil {
		return nil, nil, err
	}

	envelope, err := a.call(ctx, http.MethodGet, "/payments/"+impUID, token, nil)
	if err != nil {
		return nil, nil, err
	}

	var payment iamportPayment
	if err := json.Unmarshal(envelope.Response, &payment); err != nil {
		return nil, nil, &gateways.Error{Code: "IAMPORT_BAD_RESPONSE", Message: err.Error(), Ambiguous: true}
	}
	return &payment, envelope.Response, nil
}

func (a *Adapter) call(ctx context.Context, method, path, token string, payload interface{}) (*iamportEnvelope, error) {

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, gateways.NewTransportError(err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return nil, gateways.NewTransportError(err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, gateways.NewTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gateways.NewTransportError(err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &gateways.Error{
			Code:      fmt.Sprintf("IAMPORT_HTTP_%d", resp.StatusCode),
			Message:   string(body),
			Ambiguous: true,
		}
	}

	var envelope iamportEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &gateways.Error{Code: "IAMPORT_BAD_RESPONSE", Message: err.Error(), Ambiguous: true}
	}
	if resp.StatusCode != http.StatusOK || envelope.Code != 0 {
		return nil, &gateways.Error{
			Code:    fmt.Sprintf("IAMPORT_%d", envelope.Code),
			Message: envelope.Message,
		}
	}
	return &envelope, nil
}
