package payment

// Event kinds the bridge recognizes. Anything else is acknowledged and
// dropped so the processor does not retry forever.
const (
	EventPaymentSucceeded = "payment_succeeded"
	EventPaymentFailed    = "payment_failed"
)

// Event is the processor's notification payload. The order id travels in
// metadata, matching how the payment intent was created.
type Event struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	PaymentID  string `json:"payment_id"`
	Amount     string `json:"amount"`
	Status     string `json:"status"`
	PayerEmail string `json:"payer_email"`
	Metadata   struct {
		OrderID string `json:"order_id"`
	} `json:"metadata"`
}
