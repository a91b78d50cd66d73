package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"

	MethodManualBkash  = "manual_bkash"
	MethodManualNagad  = "manual_nagad"
	MethodGatewayBkash = "gateway_bkash"
	MethodGatewayNagad = "gateway_nagad"
)

type Payment struct {
	ID             string          `json:"id"`
	RegistrationID string          `json:"registration_id"`
	EventID        string          `json:"event_id"`
	UserID         string          `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"payment_method"`
	PhoneNumber    string          `json:"phone_number,omitempty"`
	// TransactionReference is globally unique across payments. For manual
	// payments it is the user-reported TrxID; for gateway payments it is
	// the gateway's execution transaction id, known only after verify.
	TransactionReference string    `json:"transaction_id"`
	Status               string    `json:"status"` // pending, completed, failed
	AdminNotes           string    `json:"admin_notes,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// IsManual reports whether the payment method goes through the
// self-reported TrxID path rather than a hosted gateway checkout.
func IsManualMethod(method string) bool {
	return method == MethodManualBkash || method == MethodManualNagad
}

func IsGatewayMethod(method string) bool {
	return method == MethodGatewayBkash || method == MethodGatewayNagad
}

func ValidMethod(method string) bool {
	return IsManualMethod(method) || IsGatewayMethod(method)
}
