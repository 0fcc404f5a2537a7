package flows

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dmitrijs2005/eventpass/internal/client/qr"
	"github.com/dmitrijs2005/eventpass/internal/client/repositories/history"
	"github.com/dmitrijs2005/eventpass/internal/logging"
)

// IssuedTicket is a ticket together with the exact payload its QR encodes.
type IssuedTicket struct {
	Entry   history.Entry
	Ticket  qr.Ticket
	Payload string
}

// HistoryService issues registration tickets and keeps them in a local,
// append-only history. It never talks to the server.
type HistoryService struct {
	repo     history.Repository
	log      logging.Logger
	validate *formValidator
}

func NewHistoryService(repo history.Repository, log logging.Logger) *HistoryService {
	return &HistoryService{
		repo: repo,
		log:  log.With("service", "history"),
		validate: newFormValidator(map[string]string{
			"Name":        "Please enter your full name.",
			"Email":       "Please enter your email.",
			"Email.email": "Please enter a valid email.",
			"EventName":   "Event name is required.",
		}),
	}
}

// Issue validates the form, encodes a ticket and appends it to the history.
func (s *HistoryService) Issue(ctx context.Context, name, email, eventName string) (*IssuedTicket, error) {
	t := qr.Ticket{
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		EventName: strings.TrimSpace(eventName),
	}
	if err := s.validate.Check(t); err != nil {
		return nil, err
	}

	payload, err := qr.EncodeTicket(t)
	if err != nil {
		return nil, err
	}

	e := history.Entry{Name: t.Name, Email: t.Email, EventName: t.EventName, Payload: string(payload)}
	if err := s.repo.Append(ctx, &e); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "ticket issued", "event", t.EventName, "id", e.ID)
	return &IssuedTicket{Entry: e, Ticket: t, Payload: e.Payload}, nil
}

// List returns issued tickets, oldest first.
func (s *HistoryService) List(ctx context.Context) ([]IssuedTicket, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]IssuedTicket, 0, len(entries))
	for _, e := range entries {
		out = append(out, IssuedTicket{
			Entry:   e,
			Ticket:  qr.Ticket{Name: e.Name, Email: e.Email, EventName: e.EventName},
			Payload: e.Payload,
		})
	}
	return out, nil
}

// ExportJSON writes the history as a JSON array of tickets.
func (s *HistoryService) ExportJSON(ctx context.Context) ([]byte, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	tickets := make([]qr.Ticket, len(items))
	for i, it := range items {
		tickets[i] = it.Ticket
	}
	return json.MarshalIndent(tickets, "", "  ")
}
