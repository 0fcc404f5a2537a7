package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/eventpass/internal/client/api"
	"github.com/dmitrijs2005/eventpass/internal/client/flows"
	"github.com/dmitrijs2005/eventpass/internal/cryptox"
)

// getSimpleText, getPassword and getYesNo are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getYesNo      = GetYesNo
)

// Register collects the sign-up form and creates an account. The user logs
// in separately afterwards.
func (a *App) Register(ctx context.Context) error {
	var form flows.AccountForm
	var err error

	if form.FullName, err = getSimpleText(a.reader, "Enter full name", a.out); err != nil {
		return err
	}
	if form.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}

	password, err := getPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)
	confirm, err := getPassword(a.reader, "Confirm password", a.out)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(confirm)
	form.Password, form.ConfirmPassword = string(password), string(confirm)

	gender, err := getSimpleText(a.reader, "Gender (male/female/other)", a.out)
	if err != nil {
		return err
	}
	form.Gender = flows.ParseGender(gender)

	if err := a.auth.RegisterAccount(ctx, form); err != nil {
		a.report(ctx, err, flows.MsgRegistrationFailed)
		return err
	}
	printlnFn("Account created. You can log in now.")
	return nil
}

// Login prompts for credentials, pre-filled from remembered ones, and
// starts a session.
func (a *App) Login(ctx context.Context) error {
	saved, haveSaved, err := a.auth.RememberedCredentials(ctx)
	if err != nil {
		a.log.Warn(ctx, "reading remembered credentials", "error", err)
		haveSaved = false
	}

	emailPrompt := "Enter email"
	if haveSaved && saved.Email != "" {
		emailPrompt += " [" + saved.Email + "]"
	}
	email, err := getSimpleText(a.reader, emailPrompt, a.out)
	if err != nil {
		return err
	}
	useSaved := haveSaved && (email == "" || email == saved.Email)
	if email == "" && haveSaved {
		email = saved.Email
	}

	pwPrompt := "Enter password"
	if useSaved && saved.Password != "" {
		pwPrompt += " (empty to use the saved one)"
	}
	password, err := getPassword(a.reader, pwPrompt, a.out)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)
	pw := string(password)
	if pw == "" && useSaved {
		pw = saved.Password
	}

	remember, err := getYesNo(a.reader, "Remember me?", haveSaved, a.out)
	if err != nil {
		return err
	}

	resp, err := a.auth.Login(ctx, email, pw, remember)
	if err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		a.report(ctx, err, flows.MsgLoginFailed)
		return err
	}

	a.setUserName(resp.Username)
	a.setMode(ModeOnline)
	printlnFn("Welcome, " + resp.Username + "!")
	return nil
}

// Logout ends the session. Remembered credentials stay for the next login.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		a.report(ctx, err, "Logout failed.")
		return err
	}
	a.setUserName("")
	printlnFn("Logged out.")
	return nil
}
