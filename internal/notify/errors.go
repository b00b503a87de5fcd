package notify

import "errors"

var (
	// ErrNoEmailAddress is returned when the recipient list is empty.
	ErrNoEmailAddress = errors.New("No email address provided.") //nolint:staticcheck
	// ErrNoValidEmailAddresses is returned when no entry of the list is a valid address.
	ErrNoValidEmailAddresses = errors.New("No valid email addresses provided.") //nolint:staticcheck
	// ErrSendFailed wraps a transport failure.
	ErrSendFailed = errors.New("Failed to send the email. Check server logs for details.") //nolint:staticcheck
)
