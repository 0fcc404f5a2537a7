package cli

import (
	"context"

	"github.com/dmitrijs2005/eventpass/internal/client/flows"
	"github.com/dmitrijs2005/eventpass/internal/client/models"
)

// argOrPrompt returns args[0] or asks for the value.
func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}

func (a *App) Events(ctx context.Context) error {
	events, err := a.events.ListEvents(ctx)
	if err != nil {
		a.report(ctx, err, "Could not load events.")
		return err
	}
	if len(events) == 0 {
		printlnFn("No events.")
		return nil
	}
	for _, e := range events {
		printlnFn(formatEventLine(e))
	}
	return nil
}

// Event shows one event and whether the current account is registered.
func (a *App) Event(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter event id")
	if err != nil || id == "" {
		return err
	}
	ev, state, err := a.events.Status(ctx, models.ID(id))
	if err != nil {
		if ev == nil {
			a.report(ctx, err, "Could not load the event.")
			return err
		}
		a.log.Warn(ctx, "registration state unavailable", "event", id, "error", err)
	}
	printlnFn(formatEvent(*ev, state))
	return nil
}

// Join registers the current account for an event.
func (a *App) Join(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter event id")
	if err != nil || id == "" {
		return err
	}
	ev, state, err := a.events.Register(ctx, models.ID(id))
	if err != nil {
		a.report(ctx, err, flows.MsgRegistrationFailed)
		return err
	}
	if state == models.Registered {
		printlnFn("Registered for " + ev.Name + ".")
		return nil
	}
	printlnFn(formatEvent(*ev, state))
	return nil
}

func (a *App) Registrations(ctx context.Context) error {
	regs, err := a.events.MyRegistrations(ctx)
	if err != nil {
		a.report(ctx, err, flows.MsgLoadRegistrations)
		return err
	}
	if len(regs) == 0 {
		printlnFn("You are not registered for any event.")
		return nil
	}
	for _, r := range regs {
		printlnFn(formatRegistration(r))
	}
	return nil
}

// findRegistration looks id up among the current account's registrations.
func (a *App) findRegistration(ctx context.Context, id string) (*models.Registration, error) {
	regs, err := a.events.MyRegistrations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range regs {
		if regs[i].ID.String() == id {
			return &regs[i], nil
		}
	}
	return nil, nil
}
