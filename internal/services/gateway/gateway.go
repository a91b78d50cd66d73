package gateway

import (
	"context"
	"fmt"

	"tourvista/models"

	"github.com/shopspring/decimal"
)

// Provider identifies an external mobile-money gateway.
type Provider string

const (
	ProviderBkash Provider = "bkash"
	ProviderNagad Provider = "nagad"
)

// InitiateRequest carries everything a gateway needs to open a hosted
// checkout for one order.
type InitiateRequest struct {
	Amount decimal.Decimal `json:"amount"`
	// OrderReference is the merchant-side invoice/order id, used for
	// gateway reconciliation. It is not the uniqueness key.
	OrderReference string `json:"order_reference"`
	CallbackURL    string `json:"callback_url"`
	PayerReference string `json:"payer_reference,omitempty"`
}

// InitiateResult is the gateway's answer to Initiate: an external payment
// id to correlate the later callback, and the URL to send the user to.
type InitiateResult struct {
	PaymentID   string `json:"payment_id"`
	RedirectURL string `json:"redirect_url"`
}

// VerifyResult reports the outcome of a post-callback verification.
// Success false without an error means the gateway answered and the
// payment did not go through.
type VerifyResult struct {
	Success       bool            `json:"success"`
	TransactionID string          `json:"transaction_id"`
	PayerContact  string          `json:"payer_contact"`
	Amount        decimal.Decimal `json:"amount"`
}

// Gateway normalizes the initiate -> (external redirect) -> verify flow
// across providers. Network and protocol failures surface as errors
// wrapping status.ErrGatewayUnavailable; adapters never retry on their
// own, that call belongs to the coordinator.
type Gateway interface {
	Provider() Provider

	Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResult, error)

	// Verify checks a payment by the gateway-issued id delivered in the
	// callback. For bkash this executes the checkout; for nagad it hits
	// the verify endpoint with the payment reference id.
	Verify(ctx context.Context, paymentID string) (*VerifyResult, error)
}

// ProviderForMethod maps a gateway payment method onto its provider.
func ProviderForMethod(method string) (Provider, error) {
	switch method {
	case models.MethodGatewayBkash:
		return ProviderBkash, nil
	case models.MethodGatewayNagad:
		return ProviderNagad, nil
	default:
		return "", fmt.Errorf("no gateway provider for method %q", method)
	}
}
