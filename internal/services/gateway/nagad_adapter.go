package gateway

import (
	"context"
	"errors"
	"fmt"

	"tourvista/config"
	"tourvista/internal/services/gateway/nagad"
	"tourvista/internal/status"
	"tourvista/utils"

	"github.com/shopspring/decimal"
)

// NagadAdapter conforms the Nagad challenge-response client to the
// Gateway interface. Initiate is two sequential remote calls (initialize,
// then complete); the callback later delivers the payment reference id
// that Verify is keyed by.
type NagadAdapter struct {
	client *nagad.Client
	cb     *utils.CircuitBreaker
}

func NewNagadAdapter(_ context.Context, cfg *config.NagadConfig) (*NagadAdapter, error) {
	client, err := nagad.NewClient(&nagad.Config{
		BaseURL:            cfg.BaseURL,
		MerchantID:         cfg.MerchantID,
		MerchantNumber:     cfg.MerchantNumber,
		PGPublicKey:        cfg.PGPublicKey,
		MerchantPrivateKey: cfg.MerchantPrivateKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create nagad client: %w", err)
	}

	return &NagadAdapter{
		client: client,
		cb:     utils.NewCircuitBreaker("nagad"),
	}, nil
}

func (a *NagadAdapter) Provider() Provider {
	return ProviderNagad
}

func (a *NagadAdapter) Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResult, error) {
	res, err := a.cb.Execute(ctx, func() (interface{}, error) {
		init, err := a.client.InitializePayment(ctx, req.OrderReference)
		if err != nil {
			return nil, err
		}

		redirect, err := a.client.CompletePayment(ctx, &nagad.CompleteForm{
			OrderID:            req.OrderReference,
			Amount:             req.Amount,
			PaymentReferenceID: init.PaymentReferenceID,
			Challenge:          init.Challenge,
			CallbackURL:        req.CallbackURL,
		})
		if err != nil {
			return nil, err
		}

		return &InitiateResult{
			PaymentID:   init.PaymentReferenceID,
			RedirectURL: redirect,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("nagad initiate: %v: %w", err, status.ErrGatewayUnavailable)
	}

	return res.(*InitiateResult), nil
}

func (a *NagadAdapter) Verify(ctx context.Context, paymentRefID string) (*VerifyResult, error) {
	res, err := a.cb.Execute(ctx, func() (interface{}, error) {
		reply, err := a.client.VerifyPayment(ctx, paymentRefID)
		if errors.Is(err, status.ErrFailedPayment) {
			return reply, nil
		}
		return reply, err
	})
	if err != nil {
		return nil, fmt.Errorf("nagad verify: %v: %w", err, status.ErrGatewayUnavailable)
	}

	reply := res.(*nagad.VerifyReply)
	if reply == nil || reply.Status != "Success" {
		return &VerifyResult{Success: false}, nil
	}

	return &VerifyResult{
		Success:       true,
		TransactionID: reply.IssuerPaymentRef,
		PayerContact:  reply.ClientMobileNo,
		Amount:        parseAmount(reply.Amount),
	}, nil
}

// parseAmount converts gateway string amounts, tolerating empty values.
func parseAmount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
