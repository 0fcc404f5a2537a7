package cli

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/eventpass/internal/client/models"
	"github.com/dmitrijs2005/eventpass/internal/timex"
)

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func when(t *timex.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(displayLayout)
}

func orDash(s string, ok bool) string {
	if !ok || s == "" {
		return "-"
	}
	return s
}

func formatEventLine(e models.Event) string {
	status := string(e.Status)
	if !e.Status.Known() {
		status = "unknown (" + status + ")"
	}
	return fmt.Sprintf("[%s] %s  %s  %s", e.ID, e.Name, when(e.StartTime), status)
}

func formatEvent(e models.Event, state models.RegistrationState) string {
	var b strings.Builder
	fmt.Fprintln(&b, formatEventLine(e))
	if e.Description != "" {
		fmt.Fprintln(&b, e.Description)
	}
	if regs, ok := e.RegistersKnown(); ok {
		fmt.Fprintf(&b, "Registered attendees: %d\n", len(regs))
	}
	fmt.Fprintf(&b, "You are: %s", state)
	return b.String()
}

func formatRegistration(r models.Registration) string {
	name, ok := r.EventName()
	checked := "not checked in"
	if r.CheckedIn() {
		checked = "checked in " + when(r.CheckInTime)
	}
	line := fmt.Sprintf("[%s] %s  %s", r.ID, orDash(name, ok), checked)
	if n := len(r.Images); n > 0 {
		line += fmt.Sprintf("  (%d proof images)", n)
	}
	return line
}

func formatCheckIn(r models.Registration) string {
	event, eok := r.EventName()
	attendee, aok := r.AttendeeName()
	return strings.Join([]string{
		"Check-In Successful!",
		"Event: " + orDash(event, eok),
		"Attendee: " + orDash(attendee, aok),
		"Checked in at: " + when(r.CheckInTime),
	}, "\n")
}

func formatAccount(acc models.Account) string {
	var b strings.Builder
	name := acc.FullName
	if name == "" {
		name = acc.Username
	}
	fmt.Fprintf(&b, "%s <%s>\n", name, acc.Email)
	if acc.Wallet == nil {
		b.WriteString("No wallet.")
		return b.String()
	}
	fmt.Fprintf(&b, "Balance: %s", money(acc.Wallet.Balance))
	for _, tx := range acc.Wallet.Transactions() {
		sign := "+"
		if tx.Type == models.TransactionSent {
			sign = "-"
		}
		fmt.Fprintf(&b, "\n  %s  %s%s  %s", when(tx.CreatedAt), sign, money(tx.Amount), tx.Type)
	}
	return b.String()
}
