package cli

import "context"

func (a *App) Profile(ctx context.Context) error {
	acc, err := a.wallet.Profile(ctx)
	if err != nil {
		a.report(ctx, err, "Could not load your profile.")
		return err
	}
	printlnFn(formatAccount(*acc))
	return nil
}

// Deposit tops up the wallet and shows the balance the server reports.
func (a *App) Deposit(ctx context.Context, args []string) error {
	amount, err := a.argOrPrompt(args, "Enter amount to deposit")
	if err != nil {
		return err
	}
	acc, err := a.wallet.Deposit(ctx, amount)
	if err != nil {
		a.report(ctx, err, "Deposit failed.")
		return err
	}
	if acc.Wallet != nil {
		printlnFn("Deposit successful. Balance: " + money(acc.Wallet.Balance))
	} else {
		printlnFn("Deposit successful.")
	}
	return nil
}
