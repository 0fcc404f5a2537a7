// Package api is the typed client for the remote event, account and wallet
// service.
package api

import (
	"context"

	"github.com/dmitrijs2005/eventpass/internal/client/models"
)

// Client is the remote service as the flows see it. Every method returns
// ErrUnavailable (wrapped) on transport failure and *ServerError on a
// non-2xx response.
type Client interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	RegisterAccount(ctx context.Context, req RegisterAccountRequest) error
	GetAccount(ctx context.Context, id models.ID) (*models.Account, error)

	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id models.ID) (*models.Event, error)

	RegisterForEvent(ctx context.Context, accountID, eventID models.ID) error
	StudentRegistrations(ctx context.Context, accountID models.ID) ([]models.Registration, error)
	CheckIn(ctx context.Context, accountID, eventID models.ID) (*models.Registration, error)
	UpdateImages(ctx context.Context, registrationID models.ID, imageURLs []string) (*models.Registration, error)

	GetStore(ctx context.Context, storeID string) (*models.Store, error)
	Pay(ctx context.Context, currentUserID models.ID, req PayRequest, idempotencyKey string) error
	AddMoney(ctx context.Context, currentUserID models.ID, amount float64) error

	Ping(ctx context.Context) error
}

// TokenSource supplies the bearer token for each request. An empty token
// means the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string
	AccountID models.ID
	Username  string
}

type RegisterAccountRequest struct {
	Email    string        `json:"email"`
	Password string        `json:"password"`
	FullName string        `json:"fullName"`
	Gender   models.Gender `json:"gender"`
	Phone    string        `json:"phone"`
	Image    string        `json:"image"`
	Role     string        `json:"role"`
	Username string        `json:"username"`
}

type PayRequest struct {
	ToWalletID models.ID `json:"toWalletId"`
	Amount     float64   `json:"amount"`
}

type registerEventRequest struct {
	AccountID models.ID `json:"accountId"`
	EventID   models.ID `json:"eventId"`
}

type updateImagesRequest struct {
	ImageURLs []string `json:"imageUrls"`
}
