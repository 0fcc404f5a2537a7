package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventpass/internal/client/models"
	"github.com/dmitrijs2005/eventpass/internal/logging"
)

const (
	DefaultBaseURL = "http://103.90.227.51:8080/api"

	idempotencyHeader = "Idempotency-Key"
	maxBodySize       = 8 << 20
)

// HTTPClient implements Client over HTTP/JSON.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	timeout time.Duration
	log     logging.Logger
}

type Option func(*HTTPClient)

func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

func WithTokenSource(ts TokenSource) Option {
	return func(h *HTTPClient) { h.tokens = ts }
}

// WithTimeout bounds every request. Zero, the default, means no deadline
// beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) { h.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(h *HTTPClient) { h.log = l }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	h := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ Client = (*HTTPClient)(nil)

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
}

// do sends r and decodes a 2xx JSON body into out, when out is not nil and
// the body is not empty.
func (c *HTTPClient) do(ctx context.Context, r request, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("read access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "request failed", "method", r.method, "path", r.path, "error", err)
		return c.mapError(ctx, err)
	}
	defer resp.Body.Close()

	c.log.Debug(ctx, "request done", "method", r.method, "path", r.path,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return c.mapError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Status: resp.StatusCode, Message: extractMessage(payload)}
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", r.method, r.path, err)
	}
	return nil
}

// mapError classifies a transport failure. Cancellation by the caller is
// passed through as context.Canceled so flows can tell it apart from an
// outage; deadlines count as the service being unavailable.
func (c *HTTPClient) mapError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled && errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func (c *HTTPClient) Login(ctx context.Context, in LoginRequest) (*LoginResponse, error) {
	var raw struct {
		Token       string    `json:"token"`
		AccessToken string    `json:"accessToken"`
		ID          models.ID `json:"id"`
		AccountID   models.ID `json:"accountId"`
		Username    string    `json:"username"`
		FullName    string    `json:"fullName"`
	}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/login", body: in}, &raw); err != nil {
		return nil, err
	}

	out := &LoginResponse{Token: raw.Token, AccountID: raw.ID, Username: raw.Username}
	if out.Token == "" {
		out.Token = raw.AccessToken
	}
	if out.AccountID.IsZero() {
		out.AccountID = raw.AccountID
	}
	if out.Username == "" {
		out.Username = raw.FullName
	}
	if out.Username == "" {
		out.Username = in.Email
	}
	return out, nil
}

func (c *HTTPClient) RegisterAccount(ctx context.Context, in RegisterAccountRequest) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/register", body: in}, nil)
}

func (c *HTTPClient) GetAccount(ctx context.Context, id models.ID) (*models.Account, error) {
	var out models.Account
	if err := c.do(ctx, request{method: http.MethodGet, path: "/account/" + url.PathEscape(id.String())}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListEvents(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	if err := c.do(ctx, request{method: http.MethodGet, path: "/events"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetEvent(ctx context.Context, id models.ID) (*models.Event, error) {
	var out models.Event
	if err := c.do(ctx, request{method: http.MethodGet, path: "/events/" + url.PathEscape(id.String())}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) RegisterForEvent(ctx context.Context, accountID, eventID models.ID) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/register-event",
		body:   registerEventRequest{AccountID: accountID, EventID: eventID},
	}, nil)
}

func (c *HTTPClient) StudentRegistrations(ctx context.Context, accountID models.ID) ([]models.Registration, error) {
	var out []models.Registration
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/register-event/student",
		query:  url.Values{"accountId": {accountID.String()}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CheckIn(ctx context.Context, accountID, eventID models.ID) (*models.Registration, error) {
	var out models.Registration
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/register-event/check-in",
		query:  url.Values{"accountId": {accountID.String()}, "eventId": {eventID.String()}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateImages(ctx context.Context, registrationID models.ID, imageURLs []string) (*models.Registration, error) {
	if imageURLs == nil {
		imageURLs = []string{}
	}
	var out models.Registration
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/register-event/" + url.PathEscape(registrationID.String()) + "/images",
		body:   updateImagesRequest{ImageURLs: imageURLs},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetStore(ctx context.Context, storeID string) (*models.Store, error) {
	var out models.Store
	if err := c.do(ctx, request{method: http.MethodGet, path: "/stores/" + url.PathEscape(storeID)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Pay(ctx context.Context, currentUserID models.ID, in PayRequest, idempotencyKey string) error {
	r := request{
		method: http.MethodPost,
		path:   "/pay",
		query:  url.Values{"currentUserId": {currentUserID.String()}},
		body:   in,
	}
	if idempotencyKey != "" {
		r.headers = map[string]string{idempotencyHeader: idempotencyKey}
	}
	return c.do(ctx, r, nil)
}

func (c *HTTPClient) AddMoney(ctx context.Context, currentUserID models.ID, amount float64) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/add-money",
		query: url.Values{
			"currentUserId": {currentUserID.String()},
			"money":         {strconv.FormatFloat(amount, 'f', -1, 64)},
		},
	}, nil)
}

// Ping reports whether the service answers at all. Any status below 500
// counts as reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	err := c.do(ctx, request{method: http.MethodHead, path: "/events"}, nil)
	var se *ServerError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &se):
		if se.Status >= 500 {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil
	default:
		return err
	}
}
