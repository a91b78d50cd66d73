package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tourvista/config"
	"tourvista/internal/services/gateway"
	"tourvista/internal/status"
	"tourvista/internal/store"
	"tourvista/models"
	"tourvista/monitoring"
	"tourvista/utils"
)

// GatewayResolver hands out the configured gateway for a provider.
// Satisfied by *gateway.Registry.
type GatewayResolver interface {
	Get(provider gateway.Provider) (gateway.Gateway, error)
}

// SessionRepository is the ephemeral store for in-flight checkouts.
// Satisfied by *SessionStore.
type SessionRepository interface {
	Put(ctx context.Context, session *models.PaymentSession) error
	Get(ctx context.Context, gatewayPaymentID string) (*models.PaymentSession, error)
	Delete(ctx context.Context, gatewayPaymentID string) error
}

// RegistrationService coordinates the registration and payment records so
// they move together. All multi-entity writes happen inside one store
// transaction; gateway calls never do.
type RegistrationService struct {
	store    store.Store
	sessions SessionRepository
	gateways GatewayResolver
	capacity *CapacityLedger
	alerter  Alerter
	logger   *slog.Logger

	publicBaseURL     string
	gatewayTimeout    time.Duration
	minTransactionRef int
}

func NewRegistrationService(
	st store.Store,
	sessions SessionRepository,
	gateways GatewayResolver,
	alerter Alerter,
	cfg *config.Config,
	logger *slog.Logger,
) *RegistrationService {
	return &RegistrationService{
		store:             st,
		sessions:          sessions,
		gateways:          gateways,
		capacity:          NewCapacityLedger(),
		alerter:           alerter,
		logger:            logger,
		publicBaseURL:     strings.TrimRight(cfg.PublicBaseURL, "/"),
		gatewayTimeout:    cfg.GatewayTimeout,
		minTransactionRef: cfg.MinTransactionRef,
	}
}

// SubmitManualRequest is a user-reported mobile-money payment: the user
// already sent the money out of band and submits the TrxID for review.
type SubmitManualRequest struct {
	EventID              string
	UserID               string
	Method               string
	TransactionReference string
	PhoneNumber          string
	Notes                string
}

// SubmitManual creates the registration together with its pending manual
// payment. If the user already holds a registration whose previous
// payment was rejected, a fresh payment is attached to it instead.
func (s *RegistrationService) SubmitManual(ctx context.Context, req SubmitManualRequest) (*models.Registration, *models.Payment, error) {
	if !models.IsManualMethod(req.Method) {
		return nil, nil, fmt.Errorf("%w: payment method must be manual_bkash or manual_nagad", status.ErrValidation)
	}

	ref := strings.TrimSpace(req.TransactionReference)
	if len(ref) < s.minTransactionRef {
		return nil, nil, fmt.Errorf("%w: transaction id must be at least %d characters", status.ErrValidation, s.minTransactionRef)
	}

	var (
		registration *models.Registration
		payment      *models.Payment
	)

	err := s.store.RunInTransaction(func(tx store.Store) error {
		event, err := tx.FindEvent(req.EventID)
		if err != nil {
			return err
		}
		if !event.AcceptingRegistrations() {
			return status.ErrEventNotAccepting
		}

		// Friendly pre-check for a reused reference; the unique index on
		// the payments table still closes the check-then-insert race.
		if _, perr := tx.FindPaymentByReference(ref); perr == nil {
			return status.ErrDuplicateTransaction
		} else if !errors.Is(perr, status.ErrPaymentNotFound) {
			return perr
		}

		existing, err := tx.FindRegistration(req.EventID, req.UserID)
		switch {
		case err == nil:
			// Resubmission is only open while the registration itself is
			// still live and no non-failed payment is attached.
			if existing.Status == models.RegistrationRejected {
				return status.ErrAlreadyRegistered
			}
			if _, perr := tx.FindActivePayment(existing.ID); perr == nil {
				return status.ErrAlreadyRegistered
			} else if !errors.Is(perr, status.ErrPaymentNotFound) {
				return perr
			}
			registration = existing

		case errors.Is(err, status.ErrRegistrationNotFound):
			admission, aerr := s.capacity.Admit(tx, event)
			if aerr != nil {
				return aerr
			}

			registration = &models.Registration{
				EventID:       req.EventID,
				UserID:        req.UserID,
				Status:        admission,
				PaymentStatus: models.PaymentStatusUnpaid,
				Notes:         req.Notes,
			}
			if cerr := tx.CreateRegistration(registration); cerr != nil {
				return cerr
			}

		default:
			return err
		}

		payment = &models.Payment{
			RegistrationID:       registration.ID,
			EventID:              req.EventID,
			UserID:               req.UserID,
			Amount:               event.Cost,
			Method:               req.Method,
			PhoneNumber:          req.PhoneNumber,
			TransactionReference: ref,
			Status:               models.PaymentPending,
		}
		return tx.CreatePayment(payment)
	})
	if err != nil {
		monitoring.TrackPaymentOperation("submit_manual", "error")
		return nil, nil, err
	}

	monitoring.TrackPaymentOperation("submit_manual", "success")
	s.logger.Info("manual payment submitted",
		"event_id", req.EventID,
		"user_id", req.UserID,
		"registration_id", registration.ID,
		"payment_id", payment.ID,
		"registration_status", registration.Status,
	)
	return registration, payment, nil
}

// InitiateGatewayRequest opens a hosted checkout with a mobile-money
// gateway. No registration exists yet; everything needed to build it
// later is parked in the payment session.
type InitiateGatewayRequest struct {
	EventID     string
	UserID      string
	Method      string
	PhoneNumber string
	Notes       string
}

type InitiateGatewayResult struct {
	Method      string `json:"payment_method"`
	PaymentID   string `json:"payment_id"`
	RedirectURL string `json:"redirect_url"`
}

func (s *RegistrationService) InitiateGateway(ctx context.Context, req InitiateGatewayRequest) (*InitiateGatewayResult, error) {
	provider, err := gateway.ProviderForMethod(req.Method)
	if err != nil {
		return nil, fmt.Errorf("%w: payment method must be gateway_bkash or gateway_nagad", status.ErrValidation)
	}

	event, err := s.store.FindEvent(req.EventID)
	if err != nil {
		return nil, err
	}
	if !event.AcceptingRegistrations() {
		return nil, status.ErrEventNotAccepting
	}

	if existing, rerr := s.store.FindRegistration(req.EventID, req.UserID); rerr == nil {
		if existing.Status == models.RegistrationRejected {
			return nil, status.ErrAlreadyRegistered
		}
		if _, perr := s.store.FindActivePayment(existing.ID); perr == nil {
			return nil, status.ErrAlreadyRegistered
		} else if !errors.Is(perr, status.ErrPaymentNotFound) {
			return nil, perr
		}
	} else if !errors.Is(rerr, status.ErrRegistrationNotFound) {
		return nil, rerr
	}

	gw, err := s.gateways.Get(provider)
	if err != nil {
		return nil, fmt.Errorf("initiate: %v: %w", err, status.ErrGatewayUnavailable)
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	orderRef := utils.GenerateOrderReference()
	started := time.Now()
	result, err := gw.Initiate(gctx, &gateway.InitiateRequest{
		Amount:         event.Cost,
		OrderReference: orderRef,
		CallbackURL:    fmt.Sprintf("%s/api/payments/%s/callback", s.publicBaseURL, provider),
		PayerReference: req.PhoneNumber,
	})
	monitoring.ObserveGatewayRequest(string(provider), "initiate", time.Since(started), err == nil)
	if err != nil {
		monitoring.TrackPaymentOperation("initiate_gateway", "gateway_error")
		return nil, err
	}

	session := &models.PaymentSession{
		GatewayPaymentID: result.PaymentID,
		EventID:          req.EventID,
		UserID:           req.UserID,
		Amount:           event.Cost,
		Method:           req.Method,
		OrderReference:   orderRef,
		PhoneNumber:      req.PhoneNumber,
		Notes:            req.Notes,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.sessions.Put(ctx, session); err != nil {
		monitoring.TrackPaymentOperation("initiate_gateway", "error")
		return nil, err
	}

	monitoring.TrackPaymentOperation("initiate_gateway", "success")
	s.logger.Info("gateway checkout opened",
		"provider", provider,
		"event_id", req.EventID,
		"user_id", req.UserID,
		"gateway_payment_id", result.PaymentID,
	)
	return &InitiateGatewayResult{
		Method:      req.Method,
		PaymentID:   result.PaymentID,
		RedirectURL: result.RedirectURL,
	}, nil
}

// Callback outcome classes returned to the handler for redirecting the
// user. Error means the money may have moved but no record proves it yet.
const (
	CallbackSuccess   = "success"
	CallbackCancelled = "cancelled"
	CallbackFailed    = "failed"
	CallbackError     = "error"
)

type CallbackResult struct {
	Status        string
	Reason        string
	EventID       string
	TransactionID string
	Amount        decimal.Decimal
}

// HandleCallback lands the gateway redirect. Outcome is the normalized
// gateway-reported disposition ("success", "cancel", "failure"); a
// success claim is never trusted without a server-side verify.
//
// When persistence fails after a verified payment the error wraps
// status.ErrReconciliationRequired and the result is still returned so
// the caller can render a redirect for the user.
func (s *RegistrationService) HandleCallback(ctx context.Context, provider gateway.Provider, gatewayPaymentID, outcome string) (*CallbackResult, error) {
	session, err := s.sessions.Get(ctx, gatewayPaymentID)
	if errors.Is(err, status.ErrSessionExpired) {
		monitoring.TrackPaymentOperation("callback", "session_expired")
		s.logger.Warn("callback for unknown session",
			"provider", provider,
			"gateway_payment_id", gatewayPaymentID,
			"outcome", outcome,
		)
		return &CallbackResult{Status: CallbackError, Reason: "session_expired"}, nil
	}
	if err != nil {
		return nil, err
	}

	switch outcome {
	case "cancel", "cancelled":
		if err := s.sessions.Delete(ctx, gatewayPaymentID); err != nil {
			s.logger.Error("delete cancelled session", "gateway_payment_id", gatewayPaymentID, "err", err)
		}
		monitoring.TrackPaymentOperation("callback", "cancelled")
		return &CallbackResult{Status: CallbackCancelled, EventID: session.EventID}, nil

	case "failure", "failed":
		if err := s.sessions.Delete(ctx, gatewayPaymentID); err != nil {
			s.logger.Error("delete failed session", "gateway_payment_id", gatewayPaymentID, "err", err)
		}
		monitoring.TrackPaymentOperation("callback", "failed")
		return &CallbackResult{Status: CallbackFailed, Reason: "gateway_reported_failure", EventID: session.EventID}, nil
	}

	gw, err := s.gateways.Get(provider)
	if err != nil {
		return nil, fmt.Errorf("callback: %v: %w", err, status.ErrGatewayUnavailable)
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	started := time.Now()
	verified, err := gw.Verify(gctx, gatewayPaymentID)
	monitoring.ObserveGatewayRequest(string(provider), "verify", time.Since(started), err == nil)
	if err != nil {
		// An outage or timeout during verify is terminal for this checkout.
		// Nothing durable exists yet, so the user just starts over.
		if derr := s.sessions.Delete(ctx, gatewayPaymentID); derr != nil {
			s.logger.Error("delete unverifiable session", "gateway_payment_id", gatewayPaymentID, "err", derr)
		}
		monitoring.TrackPaymentOperation("callback", "verify_unavailable")
		s.logger.Error("verification unavailable",
			"provider", provider,
			"gateway_payment_id", gatewayPaymentID,
			"err", err,
		)
		return &CallbackResult{Status: CallbackFailed, Reason: "verification_unavailable", EventID: session.EventID}, nil
	}
	if !verified.Success {
		if derr := s.sessions.Delete(ctx, gatewayPaymentID); derr != nil {
			s.logger.Error("delete unverified session", "gateway_payment_id", gatewayPaymentID, "err", derr)
		}
		monitoring.TrackPaymentOperation("callback", "verify_failed")
		return &CallbackResult{Status: CallbackFailed, Reason: "verification_failed", EventID: session.EventID}, nil
	}

	phone := verified.PayerContact
	if phone == "" {
		phone = session.PhoneNumber
	}

	err = s.store.RunInTransaction(func(tx store.Store) error {
		event, terr := tx.FindEvent(session.EventID)
		if terr != nil {
			return terr
		}

		admission, terr := s.capacity.Admit(tx, event)
		if terr != nil {
			return terr
		}

		registration := &models.Registration{
			EventID:       session.EventID,
			UserID:        session.UserID,
			Status:        admission,
			PaymentStatus: models.PaymentStatusPaid,
			Notes:         session.Notes,
		}
		if terr := tx.CreateRegistration(registration); terr != nil {
			return terr
		}

		payment := &models.Payment{
			RegistrationID:       registration.ID,
			EventID:              session.EventID,
			UserID:               session.UserID,
			Amount:               session.Amount,
			Method:               session.Method,
			PhoneNumber:          phone,
			TransactionReference: verified.TransactionID,
			Status:               models.PaymentCompleted,
		}
		return tx.CreatePayment(payment)
	})

	switch {
	case err == nil:
		// Fall through to session cleanup.

	case errors.Is(err, status.ErrAlreadyRegistered), errors.Is(err, status.ErrDuplicateTransaction):
		// A replayed callback: the records already landed on an earlier
		// delivery. Converge on success.
		s.logger.Info("callback replay converged",
			"provider", provider,
			"gateway_payment_id", gatewayPaymentID,
			"transaction_id", verified.TransactionID,
		)

	default:
		// Money moved, record did not. Keep the session for a retry and
		// page the operators.
		monitoring.TrackPaymentOperation("callback", "reconciliation_required")
		s.logger.Error("payment confirmed but persistence failed",
			"provider", provider,
			"gateway_payment_id", gatewayPaymentID,
			"transaction_id", verified.TransactionID,
			"event_id", session.EventID,
			"user_id", session.UserID,
			"amount", session.Amount.String(),
			"err", err,
		)
		s.alerter.ReconciliationRequired(ctx, map[string]any{
			"provider":           string(provider),
			"gateway_payment_id": gatewayPaymentID,
			"transaction_id":     verified.TransactionID,
			"event_id":           session.EventID,
			"user_id":            session.UserID,
			"amount":             session.Amount.String(),
		})
		return &CallbackResult{Status: CallbackError, Reason: "reconciliation_pending", EventID: session.EventID},
			fmt.Errorf("record verified payment: %v: %w", err, status.ErrReconciliationRequired)
	}

	if derr := s.sessions.Delete(ctx, gatewayPaymentID); derr != nil {
		s.logger.Error("delete consumed session", "gateway_payment_id", gatewayPaymentID, "err", derr)
	}

	monitoring.TrackPaymentOperation("callback", "success")
	s.logger.Info("gateway payment recorded",
		"provider", provider,
		"gateway_payment_id", gatewayPaymentID,
		"transaction_id", verified.TransactionID,
		"event_id", session.EventID,
		"user_id", session.UserID,
	)
	return &CallbackResult{
		Status:        CallbackSuccess,
		EventID:       session.EventID,
		TransactionID: verified.TransactionID,
		Amount:        verified.Amount,
	}, nil
}

// AdminVerifyPayment marks a pending manual payment as completed and
// flips the registration to paid in the same transaction.
func (s *RegistrationService) AdminVerifyPayment(ctx context.Context, paymentID, notes string) (*models.Payment, error) {
	var payment *models.Payment

	err := s.store.RunInTransaction(func(tx store.Store) error {
		p, err := tx.FindPaymentByID(paymentID)
		if err != nil {
			return err
		}
		if p.Status != models.PaymentPending {
			return status.ErrAlreadyProcessed
		}

		p.Status = models.PaymentCompleted
		if notes != "" {
			p.AdminNotes = notes
		} else {
			p.AdminNotes = "Verified by admin"
		}
		if err := tx.UpdatePayment(p); err != nil {
			return err
		}

		reg, err := tx.FindRegistrationByID(p.RegistrationID)
		if err != nil {
			return err
		}
		reg.PaymentStatus = models.PaymentStatusPaid
		if err := tx.UpdateRegistration(reg); err != nil {
			return err
		}

		payment = p
		return nil
	})
	if err != nil {
		monitoring.TrackPaymentOperation("admin_verify", "error")
		return nil, err
	}

	monitoring.TrackPaymentOperation("admin_verify", "success")
	s.logger.Info("payment verified", "payment_id", paymentID)
	return payment, nil
}

// AdminRejectPayment fails a pending manual payment and rejects its
// registration, releasing the seat.
func (s *RegistrationService) AdminRejectPayment(ctx context.Context, paymentID, notes string) (*models.Payment, error) {
	var payment *models.Payment

	err := s.store.RunInTransaction(func(tx store.Store) error {
		p, err := tx.FindPaymentByID(paymentID)
		if err != nil {
			return err
		}
		if p.Status != models.PaymentPending {
			return status.ErrAlreadyProcessed
		}

		p.Status = models.PaymentFailed
		if notes != "" {
			p.AdminNotes = notes
		} else {
			p.AdminNotes = "Rejected by admin"
		}
		if err := tx.UpdatePayment(p); err != nil {
			return err
		}

		reg, err := tx.FindRegistrationByID(p.RegistrationID)
		if err != nil {
			return err
		}
		reg.Status = models.RegistrationRejected
		reg.PaymentStatus = models.PaymentStatusUnpaid
		if err := tx.UpdateRegistration(reg); err != nil {
			return err
		}

		payment = p
		return nil
	})
	if err != nil {
		monitoring.TrackPaymentOperation("admin_reject_payment", "error")
		return nil, err
	}

	monitoring.TrackPaymentOperation("admin_reject_payment", "success")
	s.logger.Info("payment rejected", "payment_id", paymentID)
	return payment, nil
}

// AdminApprove confirms a pending or waitlisted registration. A
// waitlisted one is only promoted while the event still has room.
func (s *RegistrationService) AdminApprove(ctx context.Context, registrationID string) (*models.Registration, error) {
	var registration *models.Registration

	err := s.store.RunInTransaction(func(tx store.Store) error {
		reg, err := tx.FindRegistrationByID(registrationID)
		if err != nil {
			return err
		}

		switch reg.Status {
		case models.RegistrationPending:
			// Already counted against capacity.

		case models.RegistrationWaitlisted:
			event, eerr := tx.FindEvent(reg.EventID)
			if eerr != nil {
				return eerr
			}
			room, eerr := s.capacity.HasRoom(tx, event)
			if eerr != nil {
				return eerr
			}
			if !room {
				return status.ErrEventFull
			}

		default:
			return status.ErrAlreadyProcessed
		}

		reg.Status = models.RegistrationApproved
		if err := tx.UpdateRegistration(reg); err != nil {
			return err
		}

		registration = reg
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("registration approved", "registration_id", registrationID)
	return registration, nil
}

// AdminReject turns down a registration. A registration holding a
// completed payment cannot be rejected; the money has to be dealt with
// first, outside this system.
func (s *RegistrationService) AdminReject(ctx context.Context, registrationID string) (*models.Registration, error) {
	var registration *models.Registration

	err := s.store.RunInTransaction(func(tx store.Store) error {
		reg, err := tx.FindRegistrationByID(registrationID)
		if err != nil {
			return err
		}
		if reg.Status == models.RegistrationRejected {
			return status.ErrAlreadyProcessed
		}
		if reg.PaymentStatus == models.PaymentStatusPaid {
			return status.ErrPaidRegistration
		}

		reg.Status = models.RegistrationRejected
		if err := tx.UpdateRegistration(reg); err != nil {
			return err
		}

		registration = reg
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("registration rejected", "registration_id", registrationID)
	return registration, nil
}

// UserCancel removes the caller's own registration while it is still
// pending or waitlisted and unpaid. Payment rows are kept for audit.
func (s *RegistrationService) UserCancel(ctx context.Context, registrationID, userID string) error {
	err := s.store.RunInTransaction(func(tx store.Store) error {
		reg, err := tx.FindRegistrationByID(registrationID)
		if err != nil {
			return err
		}
		if reg.UserID != userID {
			// Do not leak other users' registrations.
			return status.ErrRegistrationNotFound
		}

		if reg.Status != models.RegistrationPending && reg.Status != models.RegistrationWaitlisted {
			return status.ErrCancelNotAllowed
		}
		if reg.PaymentStatus == models.PaymentStatusPaid {
			return status.ErrCancelNotAllowed
		}
		if p, perr := tx.FindActivePayment(reg.ID); perr == nil && p.Status == models.PaymentCompleted {
			return status.ErrCancelNotAllowed
		} else if perr != nil && !errors.Is(perr, status.ErrPaymentNotFound) {
			return perr
		}

		return tx.DeleteRegistration(reg.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("registration cancelled", "registration_id", registrationID, "user_id", userID)
	return nil
}
