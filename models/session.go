package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentSession correlates a gateway-issued payment id with the
// registration intent during the initiate -> callback window. It lives in
// redis with a fixed TTL and is never written to the durable store; losing
// it surfaces to the user as a session-expired failure, nothing more.
type PaymentSession struct {
	GatewayPaymentID string          `json:"gateway_payment_id"`
	EventID          string          `json:"event_id"`
	UserID           string          `json:"user_id"`
	Amount           decimal.Decimal `json:"amount"`
	Method           string          `json:"payment_method"`
	OrderReference   string          `json:"order_reference"`
	PhoneNumber      string          `json:"phone_number,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
