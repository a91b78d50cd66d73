package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tourvista/internal/services"
	"tourvista/internal/services/gateway"
)

type PaymentHandler struct {
	app          *pocketbase.PocketBase
	registration *services.RegistrationService
	resultPath   string
}

func NewPaymentHandler(app *pocketbase.PocketBase, registration *services.RegistrationService, resultPath string) *PaymentHandler {
	return &PaymentHandler{
		app:          app,
		registration: registration,
		resultPath:   resultPath,
	}
}

// SubmitManual - POST /api/payments/submit
func (h *PaymentHandler) SubmitManual(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID       string `json:"event_id"`
		Method        string `json:"payment_method"`
		TransactionID string `json:"transaction_id"`
		PhoneNumber   string `json:"phone_number"`
		Notes         string `json:"notes"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	reg, pay, err := h.registration.SubmitManual(e.Request.Context(), services.SubmitManualRequest{
		EventID:              req.EventID,
		UserID:               e.Auth.Id,
		Method:               req.Method,
		TransactionReference: req.TransactionID,
		PhoneNumber:          req.PhoneNumber,
		Notes:                req.Notes,
	})
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, map[string]any{
		"registration": reg,
		"payment":      pay,
		"message":      "Payment submitted and awaiting verification",
	})
}

// InitiateGateway - POST /api/payments/initiate
func (h *PaymentHandler) InitiateGateway(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID     string `json:"event_id"`
		Method      string `json:"payment_method"`
		PhoneNumber string `json:"phone_number"`
		Notes       string `json:"notes"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	res, err := h.registration.InitiateGateway(e.Request.Context(), services.InitiateGatewayRequest{
		EventID:     req.EventID,
		UserID:      e.Auth.Id,
		Method:      req.Method,
		PhoneNumber: req.PhoneNumber,
		Notes:       req.Notes,
	})
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, res)
}

// Callback - GET /api/payments/{gateway}/callback
//
// The gateway redirects the user's browser here after the hosted
// checkout. The query shape differs per provider; both carry an external
// payment id and a claimed disposition. The claim is re-verified
// server side before anything is recorded.
func (h *PaymentHandler) Callback(e *core.RequestEvent) error {
	providerName := e.Request.PathValue("gateway")

	var provider gateway.Provider
	switch providerName {
	case string(gateway.ProviderBkash):
		provider = gateway.ProviderBkash
	case string(gateway.ProviderNagad):
		provider = gateway.ProviderNagad
	default:
		return apis.NewNotFoundError("unknown payment gateway", nil)
	}

	query := e.Request.URL.Query()

	paymentID := query.Get("paymentID")
	if paymentID == "" {
		paymentID = query.Get("payment_ref_id")
	}
	if paymentID == "" {
		return h.redirectResult(e, &services.CallbackResult{Status: services.CallbackError, Reason: "missing_payment_id"})
	}

	outcome := strings.ToLower(query.Get("status"))
	if outcome == "aborted" {
		outcome = "cancel"
	}

	res, err := h.registration.HandleCallback(e.Request.Context(), provider, paymentID, outcome)
	if err != nil {
		slog.Error("payment callback", "provider", provider, "payment_id", paymentID, "error", err)
		if res == nil {
			res = &services.CallbackResult{Status: services.CallbackError, Reason: "internal_error"}
		}
	}

	return h.redirectResult(e, res)
}

func (h *PaymentHandler) redirectResult(e *core.RequestEvent, res *services.CallbackResult) error {
	return e.Redirect(http.StatusFound, h.resultPath+"?"+resultQuery(res).Encode())
}

// resultQuery flattens a callback outcome into the result-page query
// string. Empty fields are omitted.
func resultQuery(res *services.CallbackResult) url.Values {
	values := url.Values{}
	values.Set("status", res.Status)
	if res.Reason != "" {
		values.Set("reason", res.Reason)
	}
	if res.TransactionID != "" {
		values.Set("trx_id", res.TransactionID)
	}
	if !res.Amount.IsZero() {
		values.Set("amount", res.Amount.StringFixed(2))
	}
	if res.EventID != "" {
		values.Set("event_id", res.EventID)
	}
	return values
}

// VerifyPayment - PUT /api/payments/{id}/verify
func (h *PaymentHandler) VerifyPayment(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Admin access required", nil)
	}

	var req struct {
		AdminNotes string `json:"admin_notes"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	payment, err := h.registration.AdminVerifyPayment(e.Request.Context(), e.Request.PathValue("id"), req.AdminNotes)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"payment": payment,
		"message": "Payment verified",
	})
}

// RejectPayment - PUT /api/payments/{id}/reject
func (h *PaymentHandler) RejectPayment(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Admin access required", nil)
	}

	var req struct {
		AdminNotes string `json:"admin_notes"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	payment, err := h.registration.AdminRejectPayment(e.Request.Context(), e.Request.PathValue("id"), req.AdminNotes)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"payment": payment,
		"message": "Payment rejected",
	})
}

// GetPayment - GET /api/payments/{id}
func (h *PaymentHandler) GetPayment(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	record, err := h.app.FindRecordById("payments", e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("Payment not found", nil)
	}

	if record.GetString("user") != e.Auth.Id && !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Access denied", nil)
	}

	return e.JSON(http.StatusOK, record)
}

// GetMyPayments - GET /api/payments/my
func (h *PaymentHandler) GetMyPayments(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	records, err := h.app.FindRecordsByFilter(
		"payments",
		"user = {:user}",
		"-created",
		0,
		0,
		dbx.Params{"user": e.Auth.Id},
	)
	if err != nil {
		return apis.NewInternalServerError("internal error", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"payments": records,
		"total":    len(records),
	})
}

// ListPayments - GET /api/payments
//
// Admin review queue. Supports ?status= and ?event= filters and returns
// per-status counts alongside the page.
func (h *PaymentHandler) ListPayments(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Admin access required", nil)
	}

	query := e.Request.URL.Query()

	filter := "1=1"
	params := dbx.Params{}
	if s := query.Get("status"); s != "" {
		filter += " && status = {:status}"
		params["status"] = s
	}
	if ev := query.Get("event"); ev != "" {
		filter += " && event = {:event}"
		params["event"] = ev
	}

	records, err := h.app.FindRecordsByFilter("payments", filter, "-created", 0, 0, params)
	if err != nil {
		return apis.NewInternalServerError("internal error", err)
	}

	counts := map[string]any{}
	for _, s := range []string{"pending", "completed", "failed"} {
		n, cerr := h.app.CountRecords("payments", dbx.HashExp{"status": s})
		if cerr != nil {
			return apis.NewInternalServerError("internal error", cerr)
		}
		counts[s] = n
	}

	return e.JSON(http.StatusOK, map[string]any{
		"payments": records,
		"total":    len(records),
		"counts":   counts,
	})
}
