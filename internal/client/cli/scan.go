package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/eventpass/internal/client/flows"
	"github.com/dmitrijs2005/eventpass/internal/client/models"
	"github.com/dmitrijs2005/eventpass/internal/client/qr"
)

// Scan takes a scanned payload (the rest of the line, or prompted) and
// routes it to check-in or payment.
func (a *App) Scan(ctx context.Context, args []string) error {
	payload := strings.Join(args, " ")
	if payload == "" {
		var err error
		if payload, err = getSimpleText(a.reader, "Scan or paste the QR payload", a.out); err != nil {
			return err
		}
	}

	_, err := a.scanner.Handle(ctx, payload)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, flows.ErrScanBusy):
		printlnFn("Still processing the previous scan, try again in a moment.")
	case errors.Is(err, qr.ErrInvalidFormat):
		printlnFn(err.Error())
	default:
		// handlers have already told the user
		a.log.Debug(ctx, "scan ended with error", "error", err)
	}
	return err
}

func (a *App) scanCheckIn(ctx context.Context, payload string) error {
	flow := flows.NewCheckInFlow(a.client, a.session, a.log)
	defer flow.Close()

	st, err := flow.Start(ctx, payload)
	if err != nil {
		return err
	}
	a.printCheckIn(st)
	return nil
}

func (a *App) printCheckIn(st flows.CheckInState) {
	switch s := st.(type) {
	case flows.CheckInSucceeded:
		printlnFn(formatCheckIn(s.Registration))
	case flows.CheckInFailed:
		printlnFn("Check-In Failed: " + s.Reason)
	}
}

// CheckIn is the scanner attached to one registration: the scanned code has
// to be for that registration's event.
func (a *App) CheckIn(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter registration id")
	if err != nil || id == "" {
		return err
	}
	reg, err := a.findRegistration(ctx, id)
	if err != nil {
		a.report(ctx, err, flows.MsgLoadRegistrations)
		return err
	}
	if reg == nil {
		printlnFn("No registration with id " + id + ".")
		return nil
	}
	if reg.CheckedIn() {
		printlnFn("Already checked in at " + when(reg.CheckInTime) + ".")
		return nil
	}

	payload, err := getSimpleText(a.reader, "Scan or paste the event QR payload", a.out)
	if err != nil {
		return err
	}

	flow := flows.NewCheckInFlow(a.client, a.session, a.log)
	defer flow.Close()

	st, err := flow.CheckInForRegistration(ctx, *reg, payload)
	if err != nil {
		return err
	}
	a.printCheckIn(st)
	return nil
}

// Pay opens the payment flow for a store id typed in directly.
func (a *App) Pay(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter store id")
	if err != nil || id == "" {
		return err
	}
	return a.scanPayment(ctx, id)
}

// scanPayment walks the payment flow: fetch the store, then ask for an
// amount until a transfer goes through or the user gives up.
func (a *App) scanPayment(ctx context.Context, storeID string) error {
	flow := flows.NewPaymentFlow(a.client, a.session, a.log)
	defer flow.Close()
	flow.OnTransferred(a.afterTransfer)

	st, err := flow.Open(ctx, storeID)
	for err == nil {
		switch s := st.(type) {
		case flows.PaymentStoreFetchFailed:
			printlnFn(s.Reason)
			retry, perr := getYesNo(a.reader, "Retry?", false, a.out)
			if perr != nil || !retry {
				return perr
			}
			st, err = flow.Retry(ctx)

		case flows.PaymentAwaitingAmount:
			st, err = a.promptTransfer(ctx, flow, s)
			if st == nil {
				return err
			}

		case flows.PaymentTransferSucceeded:
			printlnFn(s.Message)
			return nil

		default:
			return nil
		}
	}
	return err
}

// promptTransfer asks for an amount and sends it. A nil state means the
// user cancelled or the flow cannot continue.
func (a *App) promptTransfer(ctx context.Context, flow *flows.PaymentFlow, s flows.PaymentAwaitingAmount) (flows.PaymentState, error) {
	printlnFn("Pay to: " + s.Store.Name)
	if s.Store.Description != "" {
		printlnFn(s.Store.Description)
	}
	if s.Err != "" {
		printlnFn("Transfer failed: " + s.Err)
	}

	prompt := "Enter amount (empty to cancel)"
	if s.Amount != "" {
		prompt = "Enter amount [" + s.Amount + "] (\"-\" to cancel)"
	}
	input, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return nil, err
	}
	switch {
	case input == "" && s.Amount != "":
		input = s.Amount
	case input == "" || input == "-":
		printlnFn("Payment cancelled.")
		return nil, nil
	}

	if !flow.CanTransfer(input) {
		printlnFn(flows.ErrInvalidAmount.Error())
		return s, nil
	}

	st, err := flow.Transfer(ctx, input)
	switch {
	case err == nil:
		return st, nil
	case errors.Is(err, flows.ErrInvalidAmount):
		printlnFn(err.Error())
		return st, nil
	case errors.Is(err, flows.ErrFlowClosed):
		return nil, err
	default:
		a.report(ctx, err, flows.MsgTransferFailed)
		return nil, err
	}
}

// afterTransfer re-fetches the wallet so the new balance comes from the
// server.
func (a *App) afterTransfer(ctx context.Context, _ models.Store, _ float64) {
	acc, err := a.wallet.Profile(ctx)
	if err != nil {
		a.log.Warn(ctx, "refreshing wallet after transfer", "error", err)
		return
	}
	if acc.Wallet != nil {
		printlnFn("New balance: " + money(acc.Wallet.Balance))
	}
}
