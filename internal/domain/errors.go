package domain

import "errors"

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternalError = errors.New("internal error")

	ErrLandlordNotFound = errors.New("landlord not found")
	ErrTenantNotFound   = errors.New("tenant not found")

	// Credential vault
	ErrCredentialCorrupted  = errors.New("credential ciphertext is corrupted")
	ErrEncryptionKeyMissing = errors.New("encryption key is required outside development")

	// Phone normalizer
	ErrInvalidPhone = errors.New("phone number is not a valid Kenyan MSISDN")

	// Daraja gateway
	ErrGatewayNotConfigured = errors.New("daraja gateway is not configured or not active")
	ErrDarajaAuthFailed     = errors.New("daraja authentication failed")
	ErrSTKRejected          = errors.New("daraja rejected the stk push request")
	ErrDarajaTimeout        = errors.New("daraja request timed out")

	// Payment intent store
	ErrIntentNotFound              = errors.New("payment intent not found")
	ErrDuplicateIdempotencyKey     = errors.New("an intent with this idempotency key already exists")
	ErrDuplicateCheckoutRequestID  = errors.New("an intent with this checkout request id already exists")
	ErrDuplicateTerminalTransition = errors.New("intent has already reached a terminal state")

	// Statement parser
	ErrParseFailed = errors.New("statement line could not be parsed")

	// Review workflow
	ErrMatchNotFound       = errors.New("transaction match not found")
	ErrUnmatchedApprove    = errors.New("cannot approve a match with no matched tenant")
	ErrMatchTerminal       = errors.New("transaction match has already reached a terminal state")
	ErrTenantCrossLandlord = errors.New("tenant does not belong to this landlord")

	// Statement ingest
	ErrStatementNotFound = errors.New("statement not found")

	// Receipt assembly
	ErrPaymentNotFound     = errors.New("payment history record not found")
	ErrPaymentNotCompleted = errors.New("receipts can only be issued for completed payments")
)

// Validation constants
const (
	MaxAccountReferenceLength = 13
	MaxTransactionDescLength  = 20
	IdempotencyKeyLength      = 32
)
