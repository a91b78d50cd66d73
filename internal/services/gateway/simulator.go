package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Simulator stands in for a live gateway in environments without
// credentials. Initiate hands out a synthetic payment id and a local
// redirect; Verify deterministically succeeds for ids the simulator
// issued and fails for anything else.
type Simulator struct {
	provider Provider

	mu      sync.Mutex
	pending map[string]decimal.Decimal
}

func NewSimulator(provider Provider) *Simulator {
	return &Simulator{
		provider: provider,
		pending:  make(map[string]decimal.Decimal),
	}
}

func (s *Simulator) Provider() Provider {
	return s.provider
}

func (s *Simulator) Initiate(_ context.Context, req *InitiateRequest) (*InitiateResult, error) {
	paymentID := fmt.Sprintf("SIM-%s-%s", strings.ToUpper(string(s.provider)), uuid.New().String())

	s.mu.Lock()
	s.pending[paymentID] = req.Amount
	s.mu.Unlock()

	// Redirect straight back to the callback with a success status, the
	// same shape a hosted checkout would produce.
	redirect := fmt.Sprintf("%s?paymentID=%s&status=success", req.CallbackURL, paymentID)

	return &InitiateResult{
		PaymentID:   paymentID,
		RedirectURL: redirect,
	}, nil
}

func (s *Simulator) Verify(_ context.Context, paymentID string) (*VerifyResult, error) {
	s.mu.Lock()
	amount, ok := s.pending[paymentID]
	delete(s.pending, paymentID)
	s.mu.Unlock()

	if !ok {
		return &VerifyResult{Success: false}, nil
	}

	return &VerifyResult{
		Success:       true,
		TransactionID: fmt.Sprintf("SIMTRX%s", strings.ToUpper(uuid.New().String()[:12])),
		PayerContact:  "01700000000",
		Amount:        amount,
	}, nil
}
