package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/eventpass/internal/client/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token(context.Context) (string, error) { return s.token, s.err }

func newServer(t *testing.T, r chi.Router) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCheckIn_SendsQueryAndDecodesRegistration(t *testing.T) {
	r := chi.NewRouter()
	var gotQuery, gotAuth, gotMethod string
	r.Patch("/api/register-event/check-in", func(w http.ResponseWriter, req *http.Request) {
		gotMethod = req.Method
		gotQuery = req.URL.RawQuery
		gotAuth = req.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{
			"id":          10,
			"event":       map[string]any{"id": 42, "name": "Tech Day"},
			"account":     map[string]any{"id": 7, "fullName": "Lan"},
			"checkInTime": "2025-10-01T09:30:00",
		})
	})
	srv := newServer(t, r)

	c := NewHTTPClient(srv.URL+"/api/", WithTokenSource(staticTokens{token: "tok"}))
	reg, err := c.CheckIn(context.Background(), "7", "42")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "accountId=7&eventId=42", gotQuery)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.True(t, reg.CheckedIn())
	name, _ := reg.EventName()
	assert.Equal(t, "Tech Day", name)
}

func TestNoToken_NoAuthorizationHeader(t *testing.T) {
	r := chi.NewRouter()
	var hadAuth bool
	r.Get("/events", func(w http.ResponseWriter, req *http.Request) {
		_, hadAuth = req.Header["Authorization"]
		writeJSON(w, http.StatusOK, []any{})
	})
	srv := newServer(t, r)

	c := NewHTTPClient(srv.URL, WithTokenSource(staticTokens{}))
	events, err := c.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.False(t, hadAuth)
}

func TestTokenSourceError(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", WithTokenSource(staticTokens{err: assert.AnError}))
	_, err := c.ListEvents(context.Background())
	require.ErrorIs(t, err, assert.AnError)
}

func TestGetStore_EscapesID(t *testing.T) {
	r := chi.NewRouter()
	var gotID string
	r.Get("/stores/{id}", func(w http.ResponseWriter, req *http.Request) {
		gotID = chi.URLParam(req, "id")
		writeJSON(w, http.StatusOK, map[string]any{"id": gotID, "name": "Cafe", "wallet": map[string]any{"id": 55}})
	})
	srv := newServer(t, r)

	c := NewHTTPClient(srv.URL)
	store, err := c.GetStore(context.Background(), "store-99")
	require.NoError(t, err)
	assert.Equal(t, "store-99", gotID)
	wid, ok := store.WalletID()
	assert.True(t, ok)
	assert.Equal(t, models.ID("55"), wid)
}

func TestGetStore_NotFound(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/stores/{id}", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "no such store", http.StatusNotFound)
	})
	srv := newServer(t, r)

	_, err := NewHTTPClient(srv.URL).GetStore(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Equal(t, "no such store", se.Message)
}

func TestPay_SendsBodyQueryAndIdempotencyKey(t *testing.T) {
	r := chi.NewRouter()
	var body map[string]any
	var gotQuery, gotKey, gotCT string
	r.Post("/pay", func(w http.ResponseWriter, req *http.Request) {
		gotQuery = req.URL.RawQuery
		gotKey = req.Header.Get("Idempotency-Key")
		gotCT = req.Header.Get("Content-Type")
		b, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(b, &body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Payment successful"))
	})
	srv := newServer(t, r)

	err := NewHTTPClient(srv.URL).Pay(context.Background(), "7", PayRequest{ToWalletID: "55", Amount: 12.5}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "currentUserId=7", gotQuery)
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, map[string]any{"toWalletId": float64(55), "amount": 12.5}, body)
}

func TestPay_ServerMessage(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/pay", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Insufficient funds"})
	})
	srv := newServer(t, r)

	err := NewHTTPClient(srv.URL).Pay(context.Background(), "7", PayRequest{ToWalletID: "55", Amount: 1}, "k")
	require.Error(t, err)
	msg, ok := Message(err)
	require.True(t, ok)
	assert.Equal(t, "Insufficient funds", msg)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestAddMoney_Query(t *testing.T) {
	r := chi.NewRouter()
	var gotQuery string
	r.Post("/add-money", func(w http.ResponseWriter, req *http.Request) {
		gotQuery = req.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	})
	srv := newServer(t, r)

	require.NoError(t, NewHTTPClient(srv.URL).AddMoney(context.Background(), "7", 20.5))
	assert.Equal(t, "currentUserId=7&money=20.5", gotQuery)
}

func TestLogin_DecodesVariants(t *testing.T) {
	r := chi.NewRouter()
	var got LoginRequest
	r.Post("/login", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewDecoder(req.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{"token": "jwt", "id": 7, "fullName": "Lan Anh"})
	})
	srv := newServer(t, r)

	resp, err := NewHTTPClient(srv.URL).Login(context.Background(), LoginRequest{Email: "lan@gmail.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, LoginRequest{Email: "lan@gmail.com", Password: "pw"}, got)
	assert.Equal(t, &LoginResponse{Token: "jwt", AccountID: "7", Username: "Lan Anh"}, resp)
}

func TestLogin_Unauthorized(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/login", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Bad credentials"})
	})
	srv := newServer(t, r)

	_, err := NewHTTPClient(srv.URL).Login(context.Background(), LoginRequest{Email: "a@gmail.com", Password: "x"})
	require.ErrorIs(t, err, ErrUnauthorized)
	msg, _ := Message(err)
	assert.Equal(t, "Bad credentials", msg)
}

func TestRegisterAccount_Body(t *testing.T) {
	r := chi.NewRouter()
	var got map[string]any
	r.Post("/register", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewDecoder(req.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	})
	srv := newServer(t, r)

	err := NewHTTPClient(srv.URL).RegisterAccount(context.Background(), RegisterAccountRequest{
		Email: "lan@gmail.com", Password: "pw", FullName: "Lan", Gender: models.GenderFemale,
		Phone: "0000000000", Role: "USER", Username: "lan@gmail.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "FEMALE", got["gender"])
	assert.Equal(t, "", got["image"])
	assert.Equal(t, "lan@gmail.com", got["username"])
}

func TestRegisterForEventAndStudentRegistrations(t *testing.T) {
	r := chi.NewRouter()
	var body map[string]any
	r.Post("/register-event", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewDecoder(req.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/register-event/student", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "7", req.URL.Query().Get("accountId"))
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "event": map[string]any{"id": 42}}})
	})
	srv := newServer(t, r)
	c := NewHTTPClient(srv.URL)

	require.NoError(t, c.RegisterForEvent(context.Background(), "7", "42"))
	assert.Equal(t, map[string]any{"accountId": float64(7), "eventId": float64(42)}, body)

	regs, err := c.StudentRegistrations(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, models.ID("1"), regs[0].ID)
}

func TestUpdateImages(t *testing.T) {
	r := chi.NewRouter()
	var body updateImagesRequest
	r.Patch("/register-event/{id}/images", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewDecoder(req.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{"id": chi.URLParam(req, "id"), "images": body.ImageURLs})
	})
	srv := newServer(t, r)

	reg, err := NewHTTPClient(srv.URL).UpdateImages(context.Background(), "10", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, reg.Images)
	assert.Equal(t, models.ID("10"), reg.ID)
}

func TestGetEventAndAccount(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/events/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 42, "name": "Tech Day", "status": "IN_PROGRESS"})
	})
	r.Get("/account/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "wallet": map[string]any{"id": 3, "balance": 10}})
	})
	srv := newServer(t, r)
	c := NewHTTPClient(srv.URL)

	ev, err := c.GetEvent(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, models.EventInProgress, ev.Status)

	acc, err := c.GetAccount(context.Background(), "7")
	require.NoError(t, err)
	require.NotNil(t, acc.Wallet)
	assert.Equal(t, 10.0, acc.Wallet.Balance)
}

func TestTransportError_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPClient(url).ListEvents(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCancelledContext_PassedThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/events", func(w http.ResponseWriter, req *http.Request) {
		<-req.Context().Done()
	})
	srv := newServer(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := NewHTTPClient(srv.URL).ListEvents(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestTimeout_Unavailable(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/events", func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-req.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := newServer(t, r)

	_, err := NewHTTPClient(srv.URL, WithTimeout(30*time.Millisecond)).ListEvents(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPing(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	r := chi.NewRouter()
	r.Head("/events", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(int(status.Load()))
	})
	srv := newServer(t, r)
	c := NewHTTPClient(srv.URL)

	require.NoError(t, c.Ping(context.Background()))

	status.Store(http.StatusUnauthorized)
	require.NoError(t, c.Ping(context.Background()))

	status.Store(http.StatusBadGateway)
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestBadJSONResponse(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/events", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})
	srv := newServer(t, r)

	_, err := NewHTTPClient(srv.URL).ListEvents(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode GET /events response")
}

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"Insufficient funds"}`, "Insufficient funds"},
		{`{"error":"Bad Request","status":400}`, "Bad Request"},
		{`{"message":"","error":"x"}`, "x"},
		{`{"status":500}`, ""},
		{`"Already checked in"`, "Already checked in"},
		{"  Event not in progress \n", "Event not in progress"},
		{"", ""},
		{`{broken`, "{broken"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractMessage([]byte(tt.body)), tt.body)
	}
}

func TestServerError_Error(t *testing.T) {
	assert.Equal(t, "server returned 500 Internal Server Error", (&ServerError{Status: 500}).Error())
	assert.Equal(t, "server returned 400: nope", (&ServerError{Status: 400, Message: "nope"}).Error())
	assert.ErrorIs(t, &ServerError{Status: 403}, ErrUnauthorized)

	_, ok := Message(errors.New("plain"))
	assert.False(t, ok)
}
