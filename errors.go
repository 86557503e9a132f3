package mint

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("mint: not found")
	ErrAlreadyExists = errors.New("mint: already exists")
	ErrInvalidInput  = errors.New("mint: invalid input")
	ErrUnauthorized  = errors.New("mint: unauthorized")

	// Collection errors
	ErrCollectionNotFound = errors.New("mint: collection not found")
	ErrInvalidSupply      = errors.New("mint: invalid supply cap")
	ErrInvalidRoyalty     = errors.New("mint: royalty rate exceeds 10000 basis points")
	ErrCurrencyMismatch   = errors.New("mint: price currency does not match held balance")

	// Claim errors
	ErrMintClosed        = errors.New("mint: minting is closed")
	ErrInvalidQuantity   = errors.New("mint: invalid quantity")
	ErrWrongPayment      = errors.New("mint: payment does not match price")
	ErrSupplyExhausted   = errors.New("mint: supply cap reached")
	ErrWalletCapExceeded = errors.New("mint: wallet cap exceeded")

	// Treasury errors
	ErrTransferFailed = errors.New("mint: funds transfer failed")

	// Journal errors
	ErrJournalBufferFull = errors.New("mint: journal buffer full")

	// Store errors
	ErrStoreClosed       = errors.New("mint: store is closed")
	ErrTransactionFailed = errors.New("mint: transaction failed")
	ErrMigrationFailed   = errors.New("mint: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("mint: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCollectionNotFound)
}

// IsRejection returns true if the error is one of the claim/grant rejection
// kinds. Rejections are terminal for the triggering call and leave all
// ledger state untouched.
func IsRejection(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrMintClosed) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrWrongPayment) ||
		errors.Is(err, ErrSupplyExhausted) ||
		errors.Is(err, ErrWalletCapExceeded)
}

// IsRetryable returns true if the error is temporary and the operation can be
// resubmitted by the caller. Rejections are never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrJournalBufferFull) ||
		errors.Is(err, ErrTransactionFailed)
}
