package flows

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/eventpass/internal/client/api"
	"github.com/dmitrijs2005/eventpass/internal/client/models"
	"github.com/dmitrijs2005/eventpass/internal/client/session"
	"github.com/dmitrijs2005/eventpass/internal/logging"
)

// WalletService shows the current account and tops up its wallet. Balances
// are never computed locally; every call re-fetches the account.
type WalletService struct {
	client  api.Client
	session session.Store
	log     logging.Logger
}

func NewWalletService(client api.Client, sess session.Store, log logging.Logger) *WalletService {
	return &WalletService{client: client, session: sess, log: log.With("service", "wallet")}
}

func (s *WalletService) accountID(ctx context.Context) (models.ID, error) {
	id, err := s.session.AccountID(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUserNotFound, err)
	}
	if id.IsZero() {
		return "", ErrUserNotFound
	}
	return id, nil
}

// Profile fetches the logged-in account with its wallet.
func (s *WalletService) Profile(ctx context.Context) (*models.Account, error) {
	id, err := s.accountID(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.GetAccount(ctx, id)
}

// Deposit adds input to the wallet and returns the refreshed account.
func (s *WalletService) Deposit(ctx context.Context, input string) (*models.Account, error) {
	amount, ok := ParseAmount(input)
	if !ok {
		return nil, ErrInvalidAmount
	}
	id, err := s.accountID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.client.AddMoney(ctx, id, amount); err != nil {
		s.log.Warn(ctx, "deposit failed", "amount", amount, "error", err)
		return nil, err
	}
	s.log.Info(ctx, "deposit done", "amount", amount)
	return s.client.GetAccount(ctx, id)
}
