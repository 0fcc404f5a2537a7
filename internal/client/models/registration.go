package models

import "github.com/dmitrijs2005/eventpass/internal/timex"

// Registration links an account to an event. CheckInTime stays nil until the
// server accepts a check-in.
type Registration struct {
	ID          ID          `json:"id"`
	Account     *Account    `json:"account,omitempty"`
	Event       *Event      `json:"event,omitempty"`
	CheckInTime *timex.Time `json:"checkInTime,omitempty"`
	Images      []string    `json:"images,omitempty"`
}

func (r Registration) CheckedIn() bool {
	return r.CheckInTime != nil && !r.CheckInTime.IsZero()
}

func (r Registration) EventName() (string, bool) {
	if r.Event == nil || r.Event.Name == "" {
		return "", false
	}
	return r.Event.Name, true
}

func (r Registration) EventID() (ID, bool) {
	if r.Event == nil || r.Event.ID.IsZero() {
		return "", false
	}
	return r.Event.ID, true
}

func (r Registration) AccountID() (ID, bool) {
	if r.Account == nil || r.Account.ID.IsZero() {
		return "", false
	}
	return r.Account.ID, true
}

func (r Registration) AttendeeName() (string, bool) {
	if r.Account == nil || r.Account.FullName == "" {
		return "", false
	}
	return r.Account.FullName, true
}
