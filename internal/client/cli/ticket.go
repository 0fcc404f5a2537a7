package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/eventpass/internal/client/flows"
	"github.com/dmitrijs2005/eventpass/internal/client/qr"
	"github.com/dmitrijs2005/eventpass/internal/filex"
)

const ticketPNGSize = 256

// ticketDir is a seam for where ticket images and exports are written.
var ticketDir = func() (string, error) {
	return filex.EnsureSubDir("", ticketsDir)
}

// Ticket issues a registration ticket locally: it prints the QR to the
// terminal and saves a PNG next to the history.
func (a *App) Ticket(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Full name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	event, err := getSimpleText(a.reader, "Event name", a.out)
	if err != nil {
		return err
	}

	issued, err := a.history.Issue(ctx, name, email, event)
	if err != nil {
		a.report(ctx, err, "Could not issue the ticket.")
		return err
	}

	a.showTicket(ctx, *issued)
	return nil
}

func (a *App) showTicket(ctx context.Context, t flows.IssuedTicket) {
	printlnFn(fmt.Sprintf("Ticket #%d for %s (%s), %s", t.Entry.ID, t.Ticket.Name, t.Ticket.Email, t.Ticket.EventName))

	if art, err := qr.RenderTerminal(t.Payload, false); err == nil {
		printlnFn(art)
	} else {
		a.log.Warn(ctx, "rendering ticket", "error", err)
	}

	png, err := qr.RenderPNG(t.Payload, ticketPNGSize)
	if err != nil {
		a.log.Warn(ctx, "encoding ticket image", "error", err)
		return
	}
	dir, err := ticketDir()
	if err != nil {
		a.log.Warn(ctx, "preparing ticket directory", "error", err)
		return
	}
	path, err := filex.WriteFile(dir, fmt.Sprintf("ticket-%d.png", t.Entry.ID), png)
	if err != nil {
		a.log.Warn(ctx, "saving ticket image", "error", err)
		return
	}
	printlnFn("Saved " + path)
}

// History lists issued tickets. "history export" writes them as JSON,
// "history <n>" shows ticket n again.
func (a *App) History(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "export" {
		return a.exportHistory(ctx)
	}

	items, err := a.history.List(ctx)
	if err != nil {
		a.report(ctx, err, "Could not read the ticket history.")
		return err
	}

	if len(args) > 0 {
		for _, it := range items {
			if fmt.Sprint(it.Entry.ID) == args[0] {
				a.showTicket(ctx, it)
				return nil
			}
		}
		printlnFn("No ticket #" + args[0] + ".")
		return nil
	}

	if len(items) == 0 {
		printlnFn("No tickets issued yet.")
		return nil
	}
	for _, it := range items {
		printlnFn(fmt.Sprintf("#%d  %s  %s <%s>  %s",
			it.Entry.ID, it.Entry.CreatedAt.Local().Format(displayLayout), it.Ticket.Name, it.Ticket.Email, it.Ticket.EventName))
	}
	return nil
}

func (a *App) exportHistory(ctx context.Context) error {
	data, err := a.history.ExportJSON(ctx)
	if err != nil {
		a.report(ctx, err, "Could not export the ticket history.")
		return err
	}
	dir, err := ticketDir()
	if err != nil {
		a.report(ctx, err, "Could not export the ticket history.")
		return err
	}
	path, err := filex.WriteFile(dir, "history.json", data)
	if err != nil {
		a.report(ctx, err, "Could not export the ticket history.")
		return err
	}
	printlnFn("Exported to " + path)
	return nil
}
