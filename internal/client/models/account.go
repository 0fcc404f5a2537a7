package models

import (
	"sort"

	"github.com/dmitrijs2005/eventpass/internal/timex"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

type Account struct {
	ID       ID      `json:"id"`
	Email    string  `json:"email,omitempty"`
	Username string  `json:"username,omitempty"`
	FullName string  `json:"fullName,omitempty"`
	Gender   Gender  `json:"gender,omitempty"`
	Phone    string  `json:"phone,omitempty"`
	Image    string  `json:"image,omitempty"`
	Role     string  `json:"role,omitempty"`
	Wallet   *Wallet `json:"wallet,omitempty"`
}

type Store struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Wallet      *Wallet `json:"wallet,omitempty"`
}

// WalletID returns the id of the store's wallet, if the server sent one.
func (s Store) WalletID() (ID, bool) {
	if s.Wallet == nil || s.Wallet.ID.IsZero() {
		return "", false
	}
	return s.Wallet.ID, true
}

type TransactionType string

const (
	TransactionSent     TransactionType = "SENT"
	TransactionReceived TransactionType = "RECEIVED"
)

type Transaction struct {
	ID        ID              `json:"id"`
	Amount    float64         `json:"amount"`
	CreatedAt *timex.Time     `json:"createdAt,omitempty"`
	Type      TransactionType `json:"-"`
}

type Wallet struct {
	ID                   ID            `json:"id"`
	Balance              float64       `json:"balance"`
	SentTransactions     []Transaction `json:"sentTransactions,omitempty"`
	ReceivedTransactions []Transaction `json:"receivedTransactions,omitempty"`
}

// Transactions merges both lists, typing each entry by the list it came
// from, newest first. Entries without a timestamp sort last.
func (w Wallet) Transactions() []Transaction {
	out := make([]Transaction, 0, len(w.SentTransactions)+len(w.ReceivedTransactions))
	for _, t := range w.SentTransactions {
		t.Type = TransactionSent
		out = append(out, t)
	}
	for _, t := range w.ReceivedTransactions {
		t.Type = TransactionReceived
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(b.Time)
		}
	})
	return out
}
