package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Checkout validation (blocks submission, user-correctable)
	ErrInvalidPrice = errors.New("base price must be positive")
	ErrEmptyName    = errors.New("customer name is empty")
	ErrInvalidEmail = errors.New("customer email is malformed")

	// Payment preference / gateway
	ErrPreferenceCreation   = errors.New("payment preference creation failed")
	ErrMalformedPaymentLink = errors.New("payment link is missing a preference id")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")

	// Full-balance short circuit: the gateway path was invoked although
	// nothing is left to pay.
	ErrNothingToPay = errors.New("payable amount is zero; no gateway payment required")

	// Widget lifecycle
	ErrWidgetInit       = errors.New("widget SDK initialization failed")
	ErrWidgetNotMounted = errors.New("no widget mounted for container")

	// Wallet
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// Sessions
	ErrSessionNotFound = errors.New("checkout session not found")

	// Infra-side sentinels used by repositories
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid transaction execution context")
	ErrLockNotAcquired    = errors.New("could not acquire lock")
)
