package response_models

// PrepareResponse is the launch descriptor the frontend hands to the
// provider's client-side checkout flow. ClientKey comes from process
// configuration, never from the request.
type PrepareResponse struct {
	OrderID    string `json:"order_id"`
	OrderName  string `json:"order_name"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Provider   string `json:"provider"`
	Method     string `json:"method,omitempty"`
	SuccessURL string `json:"success_url,omitempty"`
	FailURL    string `json:"fail_url,omitempty"`
	ClientKey  string `json:"client_key,omitempty"`
}

type ConfirmResponse struct {
	OrderID    string `json:"order_id"`
	PaymentKey string `json:"payment_key"`
	Amount     int64  `json:"amount"`
	Status     string `json:"status"`
	Method     string `json:"method,omitempty"`
	ApprovedAt int64  `json:"approved_at"`
	ReceiptURL string `json:"receipt_url,omitempty"`
}

type CancelResponse struct {
	OrderID      string `json:"order_id"`
	Status       string `json:"status"`
	RefundAmount int64  `json:"refund_amount"`
}

type PaymentDetailResponse struct {
	OrderID     string `json:"order_id"`
	OrderName   string `json:"order_name"`
	UserID      string `json:"user_id"`
	CourseID    string `json:"course_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Provider    string `json:"provider"`
	Method      string `json:"method,omitempty"`
	Status      string `json:"status"`
	FailReason  string `json:"fail_reason,omitempty"`
	ApprovedAt  *int64 `json:"approved_at,omitempty"`
	CancelledAt *int64 `json:"cancelled_at,omitempty"`
	RefundedAt  *int64 `json:"refunded_at,omitempty"`
}
