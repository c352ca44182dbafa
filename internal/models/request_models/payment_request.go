package request_models

type PrepareRequest struct {
	CourseID      string `json:"course_id"`
	UserID        string `json:"user_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Provider      string `json:"provider"`
	Method        string `json:"method,omitempty"`
	SuccessURL    string `json:"success_url,omitempty"`
	FailURL       string `json:"fail_url,omitempty"`
}

type ConfirmRequest struct {
	OrderID    string `json:"order_id" binding:"required"`
	PaymentKey string `json:"payment_key" binding:"required"`
	Amount     int64  `json:"amount" binding:"required"`
	Provider   string `json:"provider" binding:"required"`
}

type CancelRequest struct {
	OrderID    string `json:"order_id"`
	PaymentKey string `json:"payment_key,omitempty"`
	Reason     string `json:"reason" binding:"required"`
	Amount     int64  `json:"amount,omitempty"` // omit for a full cancel
}
