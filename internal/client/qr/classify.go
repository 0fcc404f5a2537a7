// Package qr turns scanned QR payloads into intents and issues the
// registration tickets the client can display for later scanning.
package qr

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

type IntentKind int

const (
	IntentInvalid IntentKind = iota
	IntentCheckIn
	IntentPayment
)

func (k IntentKind) String() string {
	switch k {
	case IntentCheckIn:
		return "check-in"
	case IntentPayment:
		return "payment"
	default:
		return "invalid"
	}
}

// Intent is the classified purpose of a scanned payload. For payments
// Payload is the store id; for check-ins it is the raw payload, which still
// has to go through ExtractEventID.
type Intent struct {
	Kind    IntentKind
	Payload string
}

var ErrInvalidFormat = errors.New("Invalid QR Code. The format is incorrect.")

var eventIDPattern = regexp.MustCompile(`id=(\d+)`)

// checkInMarker routes a payload to check-in when it appears anywhere in it,
// case-insensitively. A store id that happens to contain the marker, such as
// "store-check-in-42", is routed to check-in as well.
const checkInMarker = "check-in"

// Classify maps a decoded payload to an intent. Blank payloads are invalid;
// anything that is not a check-in is treated as a store id.
func Classify(payload string) Intent {
	if strings.TrimSpace(payload) == "" {
		return Intent{Kind: IntentInvalid}
	}
	if strings.Contains(strings.ToLower(payload), checkInMarker) {
		return Intent{Kind: IntentCheckIn, Payload: payload}
	}
	return Intent{Kind: IntentPayment, Payload: payload}
}

// ExtractEventID returns the digits of the first id=<digits> in payload.
func ExtractEventID(payload string) (int64, error) {
	m := eventIDPattern.FindStringSubmatch(payload)
	if m == nil {
		return 0, ErrInvalidFormat
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, ErrInvalidFormat
	}
	return id, nil
}
