package models

import "github.com/dmitrijs2005/eventpass/internal/timex"

type EventStatus string

const (
	EventUpcoming   EventStatus = "UPCOMING"
	EventInProgress EventStatus = "IN_PROGRESS"
	EventOngoing    EventStatus = "ONGOING"
	EventFinished   EventStatus = "FINISHED"
	EventCancelled  EventStatus = "CANCELLED"
)

// Known reports whether s is one of the statuses the client understands.
// Unknown values are kept verbatim.
func (s EventStatus) Known() bool {
	switch s {
	case EventUpcoming, EventInProgress, EventOngoing, EventFinished, EventCancelled:
		return true
	}
	return false
}

// Live reports whether check-in is open for the event.
func (s EventStatus) Live() bool {
	return s == EventInProgress || s == EventOngoing
}

type Event struct {
	ID          ID          `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Image       string      `json:"image,omitempty"`
	StartTime   *timex.Time `json:"startTime,omitempty"`
	Status      EventStatus `json:"status,omitempty"`

	// Registers is nil when the server did not send the list at all.
	Registers *[]Registration `json:"registers,omitempty"`
}

// RegistersKnown returns the registration list and whether the server
// included it.
func (e Event) RegistersKnown() ([]Registration, bool) {
	if e.Registers == nil {
		return nil, false
	}
	return *e.Registers, true
}

type RegistrationState int

const (
	RegistrationUnknown RegistrationState = iota
	NotRegistered
	Registered
)

func (s RegistrationState) String() string {
	switch s {
	case Registered:
		return "registered"
	case NotRegistered:
		return "not registered"
	default:
		return "unknown"
	}
}

// IsRegistered scans the event's registrations for accountID.
func (e Event) IsRegistered(accountID ID) RegistrationState {
	regs, ok := e.RegistersKnown()
	if !ok || accountID.IsZero() {
		return RegistrationUnknown
	}
	for _, r := range regs {
		if r.Account != nil && r.Account.ID == accountID {
			return Registered
		}
	}
	return NotRegistered
}
