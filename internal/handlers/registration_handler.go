package handlers

import (
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tourvista/internal/services"
)

type RegistrationHandler struct {
	app          *pocketbase.PocketBase
	registration *services.RegistrationService
}

func NewRegistrationHandler(app *pocketbase.PocketBase, registration *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{
		app:          app,
		registration: registration,
	}
}

// Approve - PUT /api/registrations/{id}/approve
func (h *RegistrationHandler) Approve(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Admin access required", nil)
	}

	reg, err := h.registration.AdminApprove(e.Request.Context(), e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"registration": reg,
		"message":      "Registration approved",
	})
}

// Reject - PUT /api/registrations/{id}/reject
func (h *RegistrationHandler) Reject(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Admin access required", nil)
	}

	reg, err := h.registration.AdminReject(e.Request.Context(), e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"registration": reg,
		"message":      "Registration rejected",
	})
}

// Cancel - DELETE /api/registrations/{id}
func (h *RegistrationHandler) Cancel(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	if err := h.registration.UserCancel(e.Request.Context(), e.Request.PathValue("id"), e.Auth.Id); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Registration cancelled"})
}

// GetMyRegistrations - GET /api/registrations/my
func (h *RegistrationHandler) GetMyRegistrations(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	records, err := h.app.FindRecordsByFilter(
		"registrations",
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
		"registrations": records,
		"total":         len(records),
	})
}

// CheckRegistration - GET /api/registrations/check/{eventId}
//
// Used by the event page to decide which payment form to show.
func (h *RegistrationHandler) CheckRegistration(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	record, err := h.app.FindFirstRecordByFilter(
		"registrations",
		"event = {:event} && user = {:user}",
		dbx.Params{"event": e.Request.PathValue("eventId"), "user": e.Auth.Id},
	)
	if err != nil {
		return e.JSON(http.StatusOK, map[string]any{"registered": false})
	}

	return e.JSON(http.StatusOK, map[string]any{
		"registered":      true,
		"registration_id": record.Id,
		"status":          record.GetString("status"),
		"payment_status":  record.GetString("payment_status"),
	})
}

// ListRegistrations - GET /api/registrations
//
// Admin listing with occupancy counts per requested event.
func (h *RegistrationHandler) ListRegistrations(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Admin access required", nil)
	}

	query := e.Request.URL.Query()

	filter := "1=1"
	params := dbx.Params{}
	if ev := query.Get("event"); ev != "" {
		filter += " && event = {:event}"
		params["event"] = ev
	}
	if s := query.Get("status"); s != "" {
		filter += " && status = {:status}"
		params["status"] = s
	}

	records, err := h.app.FindRecordsByFilter("registrations", filter, "-created", 0, 0, params)
	if err != nil {
		return apis.NewInternalServerError("internal error", err)
	}

	response := map[string]any{
		"registrations": records,
		"total":         len(records),
	}

	if ev := query.Get("event"); ev != "" {
		consuming, cerr := h.app.CountRecords("registrations",
			dbx.HashExp{"event": ev},
			dbx.In("status", "pending", "approved"),
		)
		if cerr != nil {
			return apis.NewInternalServerError("internal error", cerr)
		}
		waitlisted, cerr := h.app.CountRecords("registrations",
			dbx.HashExp{"event": ev, "status": "waitlisted"},
		)
		if cerr != nil {
			return apis.NewInternalServerError("internal error", cerr)
		}
		response["occupancy"] = map[string]any{
			"consuming":  consuming,
			"waitlisted": waitlisted,
		}
	}

	return e.JSON(http.StatusOK, response)
}
