package flows

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/eventpass/internal/client/api"
	"github.com/dmitrijs2005/eventpass/internal/client/models"
	"github.com/dmitrijs2005/eventpass/internal/client/qr"
	"github.com/dmitrijs2005/eventpass/internal/client/session"
	"github.com/dmitrijs2005/eventpass/internal/logging"
)

// CheckInState is one of CheckInIdle, CheckInLoading, CheckInSucceeded or
// CheckInFailed.
type CheckInState interface {
	checkInState()
}

type CheckInIdle struct{}

type CheckInLoading struct {
	EventID models.ID
}

// CheckInSucceeded carries the registration returned by the server, with
// its check-in time set.
type CheckInSucceeded struct {
	Registration models.Registration
}

type CheckInFailed struct {
	Reason string
	Err    error
}

func (CheckInIdle) checkInState()      {}
func (CheckInLoading) checkInState()   {}
func (CheckInSucceeded) checkInState() {}
func (CheckInFailed) checkInState()    {}

// CheckInFlow stamps the current account's registration for an event. It
// never retries and keeps no record of earlier check-ins; rejecting a
// duplicate is the server's job.
type CheckInFlow struct {
	client  api.Client
	session session.Store
	log     logging.Logger
	life    *lifetime

	mu    sync.Mutex
	state CheckInState
}

func NewCheckInFlow(client api.Client, sess session.Store, log logging.Logger) *CheckInFlow {
	return &CheckInFlow{
		client:  client,
		session: sess,
		log:     log.With("flow", "check-in"),
		life:    newLifetime(),
		state:   CheckInIdle{},
	}
}

func (f *CheckInFlow) State() CheckInState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Close cancels a pending request. The flow cannot be used afterwards.
func (f *CheckInFlow) Close() {
	f.life.close()
}

// Start checks in using the event id embedded in a scanned payload. A
// payload without id=<digits> fails at once without a request.
func (f *CheckInFlow) Start(ctx context.Context, payload string) (CheckInState, error) {
	id, err := qr.ExtractEventID(payload)
	if err != nil {
		return f.fail(err.Error(), err)
	}
	return f.StartWithEvent(ctx, models.IDFromInt(id))
}

// StartWithEvent checks the logged-in account in to eventID.
func (f *CheckInFlow) StartWithEvent(ctx context.Context, eventID models.ID) (CheckInState, error) {
	if f.life.closed() {
		return f.State(), ErrFlowClosed
	}

	accountID, err := f.session.AccountID(ctx)
	if err != nil {
		return f.fail(ErrMissingCredentials.Error(), fmt.Errorf("read account id: %w", err))
	}
	if accountID.IsZero() {
		return f.fail(ErrMissingCredentials.Error(), ErrMissingCredentials)
	}
	return f.run(ctx, accountID, eventID)
}

// CheckInForRegistration is the scanner attached to one of the user's
// registrations: the scanned code must belong to that registration's event.
func (f *CheckInFlow) CheckInForRegistration(ctx context.Context, reg models.Registration, payload string) (CheckInState, error) {
	scanned, err := qr.ExtractEventID(payload)
	if err != nil {
		return f.fail(err.Error(), err)
	}

	eventID, ok := reg.EventID()
	if want, isInt := eventID.Int64(); !ok || !isInt || want != scanned {
		name, _ := reg.EventName()
		return f.fail(fmt.Sprintf("Incorrect Event QR. Expected code for \"%s\".", name), nil)
	}

	accountID, ok := reg.AccountID()
	if !ok {
		return f.fail(ErrMissingCredentials.Error(), ErrMissingCredentials)
	}
	return f.run(ctx, accountID, eventID)
}

func (f *CheckInFlow) run(ctx context.Context, accountID, eventID models.ID) (CheckInState, error) {
	f.mu.Lock()
	if f.life.closed() {
		defer f.mu.Unlock()
		return f.state, ErrFlowClosed
	}
	f.state = CheckInLoading{EventID: eventID}
	f.mu.Unlock()

	reqCtx, cancel := f.life.bind(ctx)
	defer cancel()

	reg, err := f.client.CheckIn(reqCtx, accountID, eventID)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.life.closed() {
		f.log.Debug(ctx, "discarding late check-in response", "event", eventID)
		return f.state, ErrFlowClosed
	}
	if err != nil {
		reason := MsgCheckInFailed
		if msg, ok := api.Message(err); ok {
			reason = msg
		}
		f.log.Warn(ctx, "check-in failed", "event", eventID, "account", accountID, "error", err)
		f.state = CheckInFailed{Reason: reason, Err: err}
		return f.state, nil
	}

	f.log.Info(ctx, "checked in", "event", eventID, "account", accountID)
	f.state = CheckInSucceeded{Registration: *reg}
	return f.state, nil
}

func (f *CheckInFlow) fail(reason string, err error) (CheckInState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.life.closed() {
		return f.state, ErrFlowClosed
	}
	if err == nil {
		err = errors.New(reason)
	}
	f.state = CheckInFailed{Reason: reason, Err: err}
	return f.state, nil
}
