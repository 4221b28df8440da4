package domain

import "errors"

var (
	ErrRecordStoreUnavailable = errors.New("record store unavailable")
	ErrProfileNotFound        = errors.New("user profile not found")
	ErrInvalidTimezone        = errors.New("invalid timezone")

	// ErrInvalidToken marks a dispatch failure that will not succeed until the
	// delivery token is refreshed upstream.
	ErrInvalidToken = errors.New("invalid or expired delivery token")
	// ErrDispatchTransient marks a dispatch failure worth retrying next cadence.
	ErrDispatchTransient = errors.New("transient dispatch failure")

	// ErrLedgerWrite is returned when a notification was dispatched but its
	// ledger entry could not be written. A later run may send it again.
	ErrLedgerWrite = errors.New("ledger write failed after dispatch")
)

// IsPermanentDispatchError reports whether err should not be retried until
// something changes upstream.
func IsPermanentDispatchError(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
