package status

import "errors"

var (
	// Validation / lookup failures surfaced directly to the caller.
	ErrValidation           = errors.New("validation: invalid input")
	ErrEventNotFound        = errors.New("event: not found")
	ErrEventNotAccepting    = errors.New("event: not accepting registrations")
	ErrRegistrationNotFound = errors.New("registration: not found")
	ErrPaymentNotFound      = errors.New("payment: not found")

	// Conflicts closed by durable unique constraints.
	ErrAlreadyRegistered    = errors.New("registration: already registered for this event")
	ErrDuplicateTransaction = errors.New("payment: transaction id already used")
	ErrAlreadyProcessed     = errors.New("payment: already processed")
	ErrCancelNotAllowed     = errors.New("registration: cannot be cancelled at this stage")
	ErrEventFull            = errors.New("event: no capacity left")
	ErrPaidRegistration     = errors.New("registration: has a completed payment, reconcile the payment first")

	// Gateway and session failures.
	ErrGatewayUnavailable = errors.New("gateway: payment provider unavailable")
	ErrFailedPayment      = errors.New("gateway: payment failed")
	ErrSessionExpired     = errors.New("payment session: expired or not found")

	// Persistence failed after the gateway confirmed a payment. The session
	// is kept so the callback can be replayed; operators must reconcile if
	// it expires first.
	ErrReconciliationRequired = errors.New("payment: gateway confirmed but persistence failed, reconciliation required")
)
