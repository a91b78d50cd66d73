package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourvista/config"
	"tourvista/internal/status"
	"tourvista/models"
)

func TestProviderForMethod(t *testing.T) {
	p, err := ProviderForMethod(models.MethodGatewayBkash)
	require.NoError(t, err)
	assert.Equal(t, ProviderBkash, p)

	p, err = ProviderForMethod(models.MethodGatewayNagad)
	require.NoError(t, err)
	assert.Equal(t, ProviderNagad, p)

	_, err = ProviderForMethod(models.MethodManualBkash)
	assert.Error(t, err)
}

func TestSimulator_VerifySucceedsOncePerIssuedID(t *testing.T) {
	sim := NewSimulator(ProviderBkash)
	ctx := context.Background()

	res, err := sim.Initiate(ctx, &InitiateRequest{
		Amount:      decimal.NewFromInt(1200),
		CallbackURL: "http://localhost:8090/api/payments/bkash/callback",
	})
	require.NoError(t, err)
	assert.Contains(t, res.PaymentID, "SIM-BKASH-")
	assert.Contains(t, res.RedirectURL, res.PaymentID)

	verified, err := sim.Verify(ctx, res.PaymentID)
	require.NoError(t, err)
	assert.True(t, verified.Success)
	assert.NotEmpty(t, verified.TransactionID)
	assert.True(t, verified.Amount.Equal(decimal.NewFromInt(1200)))

	// Consumed: a replayed verify no longer succeeds.
	verified, err = sim.Verify(ctx, res.PaymentID)
	require.NoError(t, err)
	assert.False(t, verified.Success)

	verified, err = sim.Verify(ctx, "TRnever-issued")
	require.NoError(t, err)
	assert.False(t, verified.Success)
}

func TestFactory_SimulationMode(t *testing.T) {
	cfg := &config.Config{SimulateGateways: true}
	registry := NewRegistry(NewFactory(cfg))
	ctx := context.Background()

	require.NoError(t, registry.Register(ctx, ProviderBkash))
	require.NoError(t, registry.Register(ctx, ProviderNagad))
	assert.Len(t, registry.Available(), 2)

	gw, err := registry.Get(ProviderBkash)
	require.NoError(t, err)
	_, ok := gw.(*Simulator)
	assert.True(t, ok)

	_, err = registry.Get(Provider("rocket"))
	assert.Error(t, err)
}

func TestBkashAdapter_InitiateUnavailable(t *testing.T) {
	adapter, err := NewBkashAdapter(context.Background(), &config.BkashConfig{
		BaseURL: "http://127.0.0.1:1",
	})
	require.NoError(t, err)

	_, err = adapter.Initiate(context.Background(), &InitiateRequest{
		Amount:         decimal.NewFromInt(100),
		OrderReference: "TV001",
		CallbackURL:    "http://localhost/cb",
	})

	assert.ErrorIs(t, err, status.ErrGatewayUnavailable)
}

func TestBkashAdapter_VerifyFailedPaymentIsNotAnOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tokenized/checkout/token/grant":
			json.NewEncoder(w).Encode(map[string]any{
				"statusCode": "0000",
				"id_token":   "tok",
				"expires_in": 3600,
			})
		case "/tokenized/checkout/execute":
			json.NewEncoder(w).Encode(map[string]any{
				"statusCode":        "0000",
				"transactionStatus": "Failed",
			})
		case "/tokenized/checkout/payment/status":
			json.NewEncoder(w).Encode(map[string]any{
				"statusCode":        "0000",
				"transactionStatus": "Failed",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	adapter, err := NewBkashAdapter(context.Background(), &config.BkashConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	res, err := adapter.Verify(context.Background(), "TR0011abc")

	// A definite decline comes back as an unsuccessful result, not an
	// unavailability error.
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestBkashAdapter_VerifyReplayedCheckoutFallsBackToStatusQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tokenized/checkout/token/grant":
			json.NewEncoder(w).Encode(map[string]any{
				"statusCode": "0000",
				"id_token":   "tok",
				"expires_in": 3600,
			})
		case "/tokenized/checkout/execute":
			// A second execute for an already-finalized checkout declines.
			json.NewEncoder(w).Encode(map[string]any{
				"statusCode":    "2062",
				"statusMessage": "The payment has already been completed",
			})
		case "/tokenized/checkout/payment/status":
			json.NewEncoder(w).Encode(map[string]any{
				"statusCode":        "0000",
				"paymentID":         "TR0011abc",
				"trxID":             "9HX2K41LMN",
				"transactionStatus": "Completed",
				"amount":            "1200.00",
				"customerMsisdn":    "01712345678",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	adapter, err := NewBkashAdapter(context.Background(), &config.BkashConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	res, err := adapter.Verify(context.Background(), "TR0011abc")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "9HX2K41LMN", res.TransactionID)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(1200)))
}
