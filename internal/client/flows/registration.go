package flows

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/eventpass/internal/client/api"
	"github.com/dmitrijs2005/eventpass/internal/client/models"
	"github.com/dmitrijs2005/eventpass/internal/client/session"
	"github.com/dmitrijs2005/eventpass/internal/logging"
)

// RegistrationFlow lists events and signs the current account up for them.
// Registration state is always derived from a fresh copy of the event.
type RegistrationFlow struct {
	client  api.Client
	session session.Store
	log     logging.Logger
}

func NewRegistrationFlow(client api.Client, sess session.Store, log logging.Logger) *RegistrationFlow {
	return &RegistrationFlow{client: client, session: sess, log: log.With("flow", "registration")}
}

func (f *RegistrationFlow) ListEvents(ctx context.Context) ([]models.Event, error) {
	return f.client.ListEvents(ctx)
}

func (f *RegistrationFlow) GetEvent(ctx context.Context, id models.ID) (*models.Event, error) {
	return f.client.GetEvent(ctx, id)
}

// Status fetches the event and reports whether the current account is on
// its registration list. With nobody logged in the state is unknown.
func (f *RegistrationFlow) Status(ctx context.Context, eventID models.ID) (*models.Event, models.RegistrationState, error) {
	ev, err := f.client.GetEvent(ctx, eventID)
	if err != nil {
		return nil, models.RegistrationUnknown, err
	}
	accountID, err := f.session.AccountID(ctx)
	if err != nil {
		return ev, models.RegistrationUnknown, err
	}
	return ev, ev.IsRegistered(accountID), nil
}

// Register signs the current account up for eventID, then re-fetches the
// event so the returned state comes from the server.
func (f *RegistrationFlow) Register(ctx context.Context, eventID models.ID) (*models.Event, models.RegistrationState, error) {
	accountID, err := f.session.AccountID(ctx)
	if err != nil {
		return nil, models.RegistrationUnknown, fmt.Errorf("%w: %w", ErrMissingCredentials, err)
	}
	if accountID.IsZero() {
		return nil, models.RegistrationUnknown, ErrMissingCredentials
	}

	if err := f.client.RegisterForEvent(ctx, accountID, eventID); err != nil {
		f.log.Warn(ctx, "registration failed", "event", eventID, "error", err)
		return nil, models.RegistrationUnknown, err
	}
	f.log.Info(ctx, "registered for event", "event", eventID, "account", accountID)

	ev, err := f.client.GetEvent(ctx, eventID)
	if err != nil {
		return nil, models.RegistrationUnknown, err
	}
	return ev, ev.IsRegistered(accountID), nil
}

// MyRegistrations lists the current account's registrations.
func (f *RegistrationFlow) MyRegistrations(ctx context.Context) ([]models.Registration, error) {
	accountID, err := f.session.AccountID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserNotFound, err)
	}
	if accountID.IsZero() {
		return nil, ErrUserNotFound
	}
	return f.client.StudentRegistrations(ctx, accountID)
}
