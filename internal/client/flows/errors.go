package flows

import (
	"errors"
	"sort"
	"strings"

	"github.com/dmitrijs2005/eventpass/internal/client/api"
)

var (
	ErrMissingCredentials  = errors.New("Could not find user credentials. Please log in again.")
	ErrUserNotFound        = errors.New("User not found. Please log in again.")
	ErrInvalidAmount       = errors.New("Invalid Amount")
	ErrNoDestinationWallet = errors.New("The destination wallet is not available.")
	ErrTransferInProgress  = errors.New("a transfer is already in progress")
	ErrStoreNotReady       = errors.New("no store is loaded for payment")
	ErrScanBusy            = errors.New("scanner is busy")
	ErrFlowClosed          = errors.New("flow closed")
	ErrIncompleteLogin     = errors.New("login response is missing the token or account id")
	ErrPasswordMismatch    = errors.New("Passwords do not match!")
)

// Fallback messages shown when the server gives no reason.
const (
	MsgCheckInFailed      = "Check-in request failed."
	MsgStoreFetchFailed   = "Failed to fetch store details."
	MsgTransferFailed     = "Transfer failed."
	MsgLoadRegistrations  = "Could not load your event registrations."
	MsgUploadFailed       = "File upload failed."
	MsgRegistrationFailed = "Registration failed."
	MsgLoginFailed        = "Login failed."
)

// Describe turns err into text for the user: local sentinels speak for
// themselves, server errors use the server's message, anything else falls
// back to fallback.
func Describe(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	for _, known := range []error{
		ErrMissingCredentials, ErrUserNotFound, ErrInvalidAmount, ErrNoDestinationWallet,
		ErrTransferInProgress, ErrStoreNotReady, ErrScanBusy, ErrPasswordMismatch,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	if msg, ok := api.Message(err); ok {
		return msg
	}
	return fallback
}

// ValidationError lists form fields that failed local validation, keyed by
// field name, with the message to show for each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, e.Fields[name])
	}
	return strings.Join(msgs, " ")
}

func (e *ValidationError) Field(name string) (string, bool) {
	msg, ok := e.Fields[name]
	return msg, ok
}

func isServerError(err error) bool {
	var se *api.ServerError
	return errors.As(err, &se)
}
