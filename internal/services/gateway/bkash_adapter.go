package gateway

import (
	"context"
	"errors"
	"fmt"

	"tourvista/config"
	"tourvista/internal/services/gateway/bkash"
	"tourvista/internal/status"
	"tourvista/utils"
)

// BkashAdapter conforms the bKash checkout-URL client to the Gateway
// interface. Every remote call runs through a circuit breaker; an open
// breaker and any transport failure both surface as GatewayUnavailable.
type BkashAdapter struct {
	client *bkash.Client
	cb     *utils.CircuitBreaker
}

func NewBkashAdapter(_ context.Context, cfg *config.BkashConfig) (*BkashAdapter, error) {
	return &BkashAdapter{
		client: bkash.NewClient(&bkash.Config{
			BaseURL:   cfg.BaseURL,
			AppKey:    cfg.AppKey,
			AppSecret: cfg.AppSecret,
			Username:  cfg.Username,
			Password:  cfg.Password,
		}),
		cb: utils.NewCircuitBreaker("bkash"),
	}, nil
}

func (a *BkashAdapter) Provider() Provider {
	return ProviderBkash
}

func (a *BkashAdapter) Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResult, error) {
	res, err := a.cb.Execute(ctx, func() (interface{}, error) {
		return a.client.CreatePayment(ctx, req.Amount, req.OrderReference, req.CallbackURL, req.PayerReference)
	})
	if err != nil {
		return nil, fmt.Errorf("bkash initiate: %v: %w", err, status.ErrGatewayUnavailable)
	}

	reply := res.(*bkash.CreateReply)
	return &InitiateResult{
		PaymentID:   reply.PaymentID,
		RedirectURL: reply.BkashURL,
	}, nil
}

func (a *BkashAdapter) Verify(ctx context.Context, paymentID string) (*VerifyResult, error) {
	res, err := a.cb.Execute(ctx, func() (interface{}, error) {
		reply, err := a.client.ExecutePayment(ctx, paymentID)
		// A definite "not completed" answer is a healthy gateway response;
		// it must not trip the breaker or read as an outage. Execute also
		// declines a checkout that an earlier callback delivery already
		// finalized, so the status query gives the real answer.
		if errors.Is(err, status.ErrFailedPayment) {
			q, qerr := a.client.QueryPayment(ctx, paymentID)
			if qerr != nil {
				return nil, qerr
			}
			return &bkash.ExecuteReply{
				PaymentID:         q.PaymentID,
				TrxID:             q.TrxID,
				TransactionStatus: q.TransactionStatus,
				Amount:            q.Amount,
				CustomerMsisdn:    q.CustomerMsisdn,
			}, nil
		}
		return reply, err
	})
	if err != nil {
		return nil, fmt.Errorf("bkash verify: %v: %w", err, status.ErrGatewayUnavailable)
	}

	reply := res.(*bkash.ExecuteReply)
	if reply == nil || reply.TransactionStatus != "Completed" {
		return &VerifyResult{Success: false}, nil
	}

	return &VerifyResult{
		Success:       true,
		TransactionID: reply.TrxID,
		PayerContact:  reply.CustomerMsisdn,
		Amount:        parseAmount(reply.Amount),
	}, nil
}
