package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/eventpass/internal/client/api"
	"github.com/dmitrijs2005/eventpass/internal/client/models"
	"github.com/dmitrijs2005/eventpass/internal/client/session"
	"github.com/dmitrijs2005/eventpass/internal/logging"
)

const (
	defaultPhone = "0000000000"
	defaultRole  = "USER"
)

// RememberStore keeps login details between runs when the user asks for it.
type RememberStore interface {
	Remember(ctx context.Context, email, password string) error
	Forget(ctx context.Context) error
	Remembered(ctx context.Context) (session.Remembered, bool, error)
}

type loginForm struct {
	Email    string `validate:"required,gmail"`
	Password string `validate:"required"`
}

// AccountForm is what the sign-up prompt collects.
type AccountForm struct {
	FullName        string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required"`
	ConfirmPassword string `validate:"required"`
	Gender          models.Gender
}

// AuthService logs the user in and out and creates accounts.
type AuthService struct {
	client   api.Client
	session  session.Store
	remember RememberStore
	log      logging.Logger

	loginCheck   *formValidator
	accountCheck *formValidator
}

func NewAuthService(client api.Client, sess session.Store, remember RememberStore, log logging.Logger) *AuthService {
	return &AuthService{
		client:   client,
		session:  sess,
		remember: remember,
		log:      log.With("service", "auth"),
		loginCheck: newFormValidator(map[string]string{
			"Email.required":    "Please enter your email.",
			"Email.gmail":       "Email must end with @gmail.com.",
			"Password.required": "Please enter your password.",
		}),
		accountCheck: newFormValidator(map[string]string{
			"FullName":        "Please fill all fields.",
			"Email.required":  "Please fill all fields.",
			"Email.email":     "Please enter a valid email.",
			"Password":        "Please fill all fields.",
			"ConfirmPassword": "Please fill all fields.",
		}),
	}
}

// Login checks the form, authenticates and stores the session. With
// remember set the login details are kept for the next prompt; without it
// any previously remembered details are dropped.
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (*api.LoginResponse, error) {
	email = strings.TrimSpace(email)
	if err := s.loginCheck.Check(loginForm{Email: email, Password: password}); err != nil {
		return nil, err
	}

	resp, err := s.client.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		s.log.Warn(ctx, "login failed", "email", email, "error", err)
		return nil, err
	}
	if resp.Token == "" || resp.AccountID.IsZero() {
		return nil, ErrIncompleteLogin
	}

	if remember {
		err = s.remember.Remember(ctx, email, password)
	} else {
		err = s.remember.Forget(ctx)
	}
	if err != nil {
		return nil, err
	}

	if err := s.session.SetSession(ctx, models.Session{AccountID: resp.AccountID, AccessToken: resp.Token}); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "logged in", "account", resp.AccountID)
	return resp, nil
}

// RegisterAccount creates an account with the fixed defaults the server
// expects for self sign-up.
func (s *AuthService) RegisterAccount(ctx context.Context, form AccountForm) error {
	form.FullName = strings.TrimSpace(form.FullName)
	form.Email = strings.TrimSpace(form.Email)
	if err := s.accountCheck.Check(form); err != nil {
		return err
	}
	if form.Password != form.ConfirmPassword {
		return ErrPasswordMismatch
	}

	err := s.client.RegisterAccount(ctx, api.RegisterAccountRequest{
		Email:    form.Email,
		Password: form.Password,
		FullName: form.FullName,
		Gender:   ParseGender(string(form.Gender)),
		Phone:    defaultPhone,
		Image:    "",
		Role:     defaultRole,
		Username: form.Email,
	})
	if err != nil {
		s.log.Warn(ctx, "account registration failed", "email", form.Email, "error", err)
		return err
	}
	s.log.Info(ctx, "account registered", "email", form.Email)
	return nil
}

// Logout ends the session. Remembered login details are kept.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.session.ClearSession(ctx)
}

func (s *AuthService) RememberedCredentials(ctx context.Context) (session.Remembered, bool, error) {
	return s.remember.Remembered(ctx)
}

// LoggedIn reports whether a session is stored.
func (s *AuthService) LoggedIn(ctx context.Context) (bool, error) {
	id, err := s.session.AccountID(ctx)
	if err != nil {
		return false, err
	}
	tok, err := s.session.Token(ctx)
	if err != nil {
		return false, err
	}
	return !id.IsZero() && tok != "", nil
}

func (s *AuthService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// ParseGender maps free-form input to the server's enum; anything
// unrecognised is OTHER.
func ParseGender(s string) models.Gender {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MALE", "M", "NAM":
		return models.GenderMale
	case "FEMALE", "F", "NỮ", "NU":
		return models.GenderFemale
	default:
		return models.GenderOther
	}
}

// IsUnauthorized reports whether err means the stored session is no longer
// accepted.
func IsUnauthorized(err error) bool {
	return errors.Is(err, api.ErrUnauthorized)
}
