// Package toss integrates the Toss Payments card gateway. Toss authenticates
// every server-side call with basic auth over the merchant secret key; the
// confirm endpoint settles a payment the customer already authorized in the
// client-side widget flow.
package toss

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"coursepay/internal/gateways"
)

const defaultBaseURL = "https://api.tosspayments.com"

type Config struct {
	SecretKey    string
	ClientKeyVal string // public key for the checkout widget
	BaseURL      string // optional: override for sandbox/tests
}

type Adapter struct {
	cfg        Config
	httpClient *http.Client
	baseURL    string
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
	return "toss"
}

func (a *Adapter) ClientKey() string {
	return a.cfg.ClientKeyVal
}

func (a *Adapter) authHeader() string {
	encoded := base64.StdEncoding.EncodeToString([]byte(a.cfg.SecretKey + ":"))
	return "Basic " + encoded
}

type tossPayment struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"totalAmount"`
	Method      string `json:"method"`
	ApprovedAt  string `json:"approvedAt"`
	Receipt     *struct {
		URL string `json:"url"`
	} `json:"receipt"`
	Cancels []struct {
		CancelAmount int64  `json:"cancelAmount"`
		CanceledAt   string `json:"canceledAt"`
	} `json:"cancels"`
}

type tossError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *Adapter) Confirm(ctx context.Context, req gateways.ConfirmRequest) (*gateways.ConfirmResult, error) {

	payload := map[string]interface{}{
		"paymentKey": req.PaymentKey,
		"orderId":    req.OrderID,
		"amount":     req.Amount,
	}

	body, status, err := a.post(ctx, "/v1/payments/confirm", payload)
	if err != nil {
		return nil, gateways.NewTransportError(err)
	}

	if status >= http.StatusInternalServerError {
		// Provider-side fault: the settle may or may not have happened.
		return nil, &gateways.Error{
			Code:      fmt.Sprintf("TOSS_HTTP_%d", status),
			Message:   string(body),
			Ambiguous: true,
		}
	}
	if status != http.StatusOK {
		return nil, declineError(body, status)
	}

	var payment tossPayment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, &gateways.Error{Code: "TOSS_BAD_RESPONSE", Message: err.Error(), Ambiguous: true}
	}
	if payment.Status != "DONE" {
		return nil, &gateways.Error{
			Code:    "TOSS_NOT_DONE",
			Message: fmt.Sprintf("payment %s in status %s after confirm", req.PaymentKey, payment.Status),
		}
	}

	result := &gateways.ConfirmResult{
		PaymentKey:   payment.PaymentKey,
		SettledMinor: payment.TotalAmount,
		Method:       payment.Method,
		ApprovedAt:   parseTossTime(payment.ApprovedAt),
		Raw:          body,
	}
	if payment.Receipt != nil {
		result.ReceiptURL = payment.Receipt.URL
	}
	return result, nil
}

func (a *Adapter) Cancel(ctx context.Context, req gateways.CancelRequest) (*gateways.CancelResult, error) {

	payload := map[string]interface{}{
		"cancelReason": req.Reason,
	}
	if req.Amount > 0 {
		payload["cancelAmount"] = req.Amount
	}

	body, status, err := a.post(ctx, "/v1/payments/"+req.PaymentKey+"/cancel", payload)
	if err != nil {
		return nil, gateways.NewTransportError(err)
	}
	if status >= http.StatusInternalServerError {
		return nil, &gateways.Error{
			Code:      fmt.Sprintf("TOSS_HTTP_%d", status),
			Message:   string(body),
			Ambiguous: true,
		}
	}
	if status != http.StatusOK {
		return nil, declineError(body, status)
	}

	var payment tossPayment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, &gateways.Error{Code: "TOSS_BAD_RESPONSE", Message: err.Error(), Ambiguous: true}
	}

	result := &gateways.CancelResult{Raw: body}
	for _, cancel := range payment.Cancels {
		result.CancelledMinor += cancel.CancelAmount
		result.CancelledAt = parseTossTime(cancel.CanceledAt)
	}
	return result, nil
}

func (a *Adapter) Query(ctx context.Context, paymentKey string) (*gateways.QueryResult, error) {

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v1/payments/"+paymentKey, nil)
	if err != nil {
		return nil, gateways.NewTransportError(err)
	}
	httpReq.Header.Set("Authorization", a.authHeader())

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, gateways.NewTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gateways.NewTransportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, declineError(body, resp.StatusCode)
	}

	var payment tossPayment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, &gateways.Error{Code: "TOSS_BAD_RESPONSE", Message: err.Error()}
	}

	result := &gateways.QueryResult{
		SettledMinor: payment.TotalAmount,
		Method:       payment.Method,
		ApprovedAt:   parseTossTime(payment.ApprovedAt),
	}
	if payment.Receipt != nil {
		result.ReceiptURL = payment.Receipt.URL
	}

	switch payment.Status {
	case "DONE":
		result.Status = gateways.QueryStatusDone
	case "READY", "IN_PROGRESS", "WAITING_FOR_DEPOSIT":
		result.Status = gateways.QueryStatusReady
	case "CANCELED", "PARTIAL_CANCELED":
		result.Status = gateways.QueryStatusCancelled
	case "ABORTED", "EXPIRED":
		result.Status = gateways.QueryStatusFailed
	default:
		result.Status = gateways.QueryStatusUnknown
	}
	return result, nil
}

func (a *Adapter) post(ctx context.Context, path string, payload map[string]interface{}) ([]byte, int, error) {

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("Authorization", a.authHeader())
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func declineError(body []byte, status int) *gateways.Error {
	var decline tossError
	if err := json.Unmarshal(body, &decline); err == nil && decline.Code != "" {
		return &gateways.Error{Code: decline.Code, Message: decline.Message}
	}
	return &gateways.Error{
		Code:    fmt.Sprintf("TOSS_HTTP_%d", status),
		Message: string(body),
	}
}

func parseTossTime(value string) int64 {
	if value == "" {
		return 0
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return 0
	}
	return parsed.Unix()
}
