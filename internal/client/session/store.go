// Package session keeps the logged-in account on the device and hands it to
// flows on demand. Nothing is cached in memory: every read goes to the
// credential repository, so a logout is visible to the very next request.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eventpass/internal/client/models"
	"github.com/dmitrijs2005/eventpass/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/eventpass/internal/cryptox"
	"github.com/dmitrijs2005/eventpass/internal/dbx"
)

const (
	KeyAccessToken   = "accessToken"
	KeyAccountID     = "accountId"
	KeySavedEmail    = "savedEmail"
	KeySavedPassword = "savedPassword"
	KeyRememberMe    = "rememberMe"
	KeyDeviceSecret  = "deviceSecret"
	KeyDeviceSalt    = "deviceSalt"
)

var ErrInvalidSession = errors.New("session requires an account id and an access token")

// Store is the session seen by flows.
type Store interface {
	// AccountID returns "" when nobody is logged in.
	AccountID(ctx context.Context) (models.ID, error)
	// Token returns "" when nobody is logged in.
	Token(ctx context.Context) (string, error)
	SetSession(ctx context.Context, s models.Session) error
	ClearSession(ctx context.Context) error
}

// Remembered is the pre-fill for the login prompt.
type Remembered struct {
	Email    string
	Password string
}

// SQLiteStore implements Store on the local credentials table. It also
// keeps remember-me data, with the password sealed under a key derived from
// a random per-device secret.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) repo(db dbx.DBTX) credentials.Repository {
	return credentials.NewSQLiteRepository(db)
}

func (s *SQLiteStore) AccountID(ctx context.Context) (models.ID, error) {
	v, err := s.repo(s.db).Get(ctx, KeyAccountID)
	if err != nil {
		return "", err
	}
	return models.ID(v), nil
}

func (s *SQLiteStore) Token(ctx context.Context) (string, error) {
	v, err := s.repo(s.db).Get(ctx, KeyAccessToken)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// SetSession writes token and account id together.
func (s *SQLiteStore) SetSession(ctx context.Context, sess models.Session) error {
	if !sess.Valid() {
		return ErrInvalidSession
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		if err := repo.Set(ctx, KeyAccessToken, []byte(sess.AccessToken)); err != nil {
			return err
		}
		return repo.Set(ctx, KeyAccountID, []byte(sess.AccountID))
	})
}

// ClearSession logs out. Remember-me data survives.
func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	return s.repo(s.db).Delete(ctx, KeyAccessToken, KeyAccountID)
}

// Remember stores the login details for the next prompt.
func (s *SQLiteStore) Remember(ctx context.Context, email, password string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)

		key, err := s.deviceKey(ctx, repo)
		if err != nil {
			return err
		}
		defer cryptox.Wipe(key)

		sealed, err := cryptox.Seal([]byte(password), key)
		if err != nil {
			return fmt.Errorf("seal password: %w", err)
		}

		if err := repo.Set(ctx, KeySavedEmail, []byte(email)); err != nil {
			return err
		}
		if err := repo.Set(ctx, KeySavedPassword, sealed); err != nil {
			return err
		}
		return repo.Set(ctx, KeyRememberMe, []byte("true"))
	})
}

// Forget drops remember-me data.
func (s *SQLiteStore) Forget(ctx context.Context) error {
	return s.repo(s.db).Delete(ctx, KeySavedEmail, KeySavedPassword, KeyRememberMe)
}

// Remembered returns the stored login details, if remember-me is on. A
// password that no longer decrypts is reported as empty rather than failing
// the prompt.
func (s *SQLiteStore) Remembered(ctx context.Context) (Remembered, bool, error) {
	repo := s.repo(s.db)

	flag, err := repo.Get(ctx, KeyRememberMe)
	if err != nil {
		return Remembered{}, false, err
	}
	if string(flag) != "true" {
		return Remembered{}, false, nil
	}

	email, err := repo.Get(ctx, KeySavedEmail)
	if err != nil {
		return Remembered{}, false, err
	}
	out := Remembered{Email: string(email)}

	sealed, err := repo.Get(ctx, KeySavedPassword)
	if err != nil {
		return Remembered{}, false, err
	}
	if len(sealed) == 0 {
		return out, true, nil
	}

	key, err := s.deviceKey(ctx, repo)
	if err != nil {
		return Remembered{}, false, err
	}
	defer cryptox.Wipe(key)

	if plain, err := cryptox.Open(sealed, key); err == nil {
		out.Password = string(plain)
	}
	return out, true, nil
}

// deviceKey loads, or on first use creates, the per-device secret and salt
// and derives the sealing key from them.
func (s *SQLiteStore) deviceKey(ctx context.Context, repo credentials.Repository) ([]byte, error) {
	secret, err := s.getOrCreate(ctx, repo, KeyDeviceSecret, 32)
	if err != nil {
		return nil, err
	}
	salt, err := s.getOrCreate(ctx, repo, KeyDeviceSalt, 16)
	if err != nil {
		return nil, err
	}
	return cryptox.DeriveKey(secret, salt), nil
}

func (s *SQLiteStore) getOrCreate(ctx context.Context, repo credentials.Repository, key string, n int) ([]byte, error) {
	v, err := repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(v) == n {
		return v, nil
	}
	v = cryptox.RandomBytes(n)
	if err := repo.Set(ctx, key, v); err != nil {
		return nil, err
	}
	return v, nil
}
