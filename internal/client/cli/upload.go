package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eventpass/internal/client/flows"
	"github.com/dmitrijs2005/eventpass/internal/client/storage"
)

// Upload attaches a proof image to one of the user's registrations.
func (a *App) Upload(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter registration id")
	if err != nil || id == "" {
		return err
	}
	var rest []string
	if len(args) > 1 {
		rest = args[1:]
	}
	path, err := a.argOrPrompt(rest, "Path of the image to upload")
	if err != nil || path == "" {
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

	updated, err := a.proofs.Upload(ctx, *reg, path)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			printlnFn("Proof uploads are not configured.")
			return err
		}
		a.report(ctx, err, flows.MsgUploadFailed)
		return err
	}
	printlnFn(fmt.Sprintf("Uploaded. The registration now has %d proof images.", len(updated.Images)))
	return nil
}
