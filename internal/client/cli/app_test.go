package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/eventpass/internal/client/config"
	"github.com/dmitrijs2005/eventpass/internal/client/models"
	"github.com/dmitrijs2005/eventpass/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedOutput struct {
	mu    sync.Mutex
	lines []string
}

func (c *capturedOutput) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.lines, "")
}

// captureOutput swaps printlnFn for the duration of the test.
func captureOutput(t *testing.T) *capturedOutput {
	t.Helper()
	c := &capturedOutput{}
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		s := fmt.Sprintln(a...)
		c.mu.Lock()
		c.lines = append(c.lines, s)
		c.mu.Unlock()
		return len(s), nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type testEnv struct {
	app    *App
	srv    *httptest.Server
	router chi.Router
	out    *capturedOutput
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	oldTerm, oldDir := isTerminal, ticketDir
	isTerminal = func(int) bool { return false }
	dir := t.TempDir()
	ticketDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { isTerminal, ticketDir = oldTerm, oldDir })

	router := chi.NewRouter()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIBaseURL = srv.URL
	cfg.DatabasePath = filepath.Join(t.TempDir(), "eventpass.db")
	cfg.ScanCooldown = 0
	cfg.OnlineCheckInterval = 0

	app, err := NewApp(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(app.Close)
	app.out = io.Discard

	return &testEnv{app: app, srv: srv, router: router, out: captureOutput(t)}
}

func (e *testEnv) input(s string) {
	e.app.reader = rdr(s)
}

func (e *testEnv) login(t *testing.T, id models.ID, token string) {
	t.Helper()
	require.NoError(t, e.app.session.SetSession(context.Background(), models.Session{AccountID: id, AccessToken: token}))
}

func TestApp_LoginRemembersAndPrefills(t *testing.T) {
	env := newTestEnv(t)
	var logins atomic.Int32
	env.router.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "ada@gmail.com" || body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
			return
		}
		logins.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"token": "tok", "id": 7, "username": "ada"})
	})
	ctx := context.Background()

	env.input("ada@gmail.com\nsecret\ny\n")
	require.NoError(t, env.app.Login(ctx))
	assert.Contains(t, env.out.String(), "Welcome, ada!")
	assert.True(t, env.app.isLoggedIn(ctx))

	require.NoError(t, env.app.Logout(ctx))
	assert.False(t, env.app.isLoggedIn(ctx))

	// empty answers fall back to the remembered email and password
	env.input("\n\n\n")
	require.NoError(t, env.app.Login(ctx))
	assert.Equal(t, int32(2), logins.Load())
	assert.True(t, env.app.isLoggedIn(ctx))
}

func TestApp_LoginRejected(t *testing.T) {
	env := newTestEnv(t)
	env.router.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
	})

	env.input("ada@gmail.com\nwrong\nn\n")
	require.Error(t, env.app.Login(context.Background()))
	assert.Contains(t, env.out.String(), "Invalid email or password")
	assert.False(t, env.app.isLoggedIn(context.Background()))
}

func TestApp_LoginValidationSkipsServer(t *testing.T) {
	env := newTestEnv(t)
	var hits atomic.Int32
	env.router.Post("/login", func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })

	env.input("ada@example.com\nsecret\nn\n")
	require.Error(t, env.app.Login(context.Background()))
	assert.Contains(t, env.out.String(), "Email must end with @gmail.com.")
	assert.Zero(t, hits.Load())
}

func TestApp_ScanPaysStore(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "7", "tok")
	var balance atomic.Int64
	balance.Store(100)
	env.router.Get("/stores/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": chi.URLParam(r, "id"), "name": "Cafe", "wallet": map[string]any{"id": 55}})
	})
	env.router.Post("/pay", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Amount float64 }
		_ = json.NewDecoder(r.Body).Decode(&body)
		balance.Add(-int64(body.Amount))
		w.WriteHeader(http.StatusOK)
	})
	env.router.Get("/account/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "wallet": map[string]any{"id": 1, "balance": balance.Load()}})
	})

	env.input("12\n")
	require.NoError(t, env.app.Scan(context.Background(), []string{"store-99"}))

	text := env.out.String()
	assert.Contains(t, text, "Pay to: Cafe")
	assert.Contains(t, text, "Successfully transferred $12.00 to Cafe!")
	assert.Contains(t, text, "New balance: $88.00")
}

func TestApp_ScanPaymentFailureKeepsAmount(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "7", "tok")
	var pays atomic.Int32
	env.router.Get("/stores/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "store-99", "name": "Cafe", "wallet": map[string]any{"id": 55}})
	})
	env.router.Post("/pay", func(w http.ResponseWriter, r *http.Request) {
		pays.Add(1)
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Insufficient funds"})
	})

	env.input("-5\n25\n-\n")
	require.NoError(t, env.app.Scan(context.Background(), []string{"store-99"}))

	text := env.out.String()
	assert.Contains(t, text, "Invalid Amount")
	assert.Contains(t, text, "Transfer failed: Insufficient funds")
	assert.Contains(t, text, "Payment cancelled.")
	assert.Equal(t, int32(1), pays.Load())
}

func TestApp_ScanStoreNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "7", "tok")
	env.router.Get("/stores/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such store", http.StatusNotFound)
	})

	env.input("n\n")
	require.NoError(t, env.app.Scan(context.Background(), []string{"store-404"}))
	assert.Contains(t, env.out.String(), `Store with ID "store-404" not found.`)
}

func TestApp_ScanChecksIn(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "7", "tok")
	env.router.Patch("/register-event/check-in", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("accountId"))
		assert.Equal(t, "42", r.URL.Query().Get("eventId"))
		writeJSON(w, http.StatusOK, map[string]any{
			"id":          5,
			"account":     map[string]any{"id": 7, "fullName": "Ada Lovelace"},
			"event":       map[string]any{"id": 42, "name": "Go Meetup"},
			"checkInTime": "2025-10-01T18:05:00Z",
		})
	})

	require.NoError(t, env.app.Scan(context.Background(), []string{"event-check-in?id=42"}))

	text := env.out.String()
	assert.Contains(t, text, "Check-In Successful!")
	assert.Contains(t, text, "Event: Go Meetup")
	assert.Contains(t, text, "Attendee: Ada Lovelace")
}

func TestApp_ScanWhileLoggedOut(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.app.Scan(context.Background(), []string{"event-check-in?id=42"}))
	assert.Contains(t, env.out.String(), "Check-In Failed: Could not find user credentials. Please log in again.")
}

func TestApp_ScanBlankPayload(t *testing.T) {
	env := newTestEnv(t)
	env.input("   \n")

	require.Error(t, env.app.Scan(context.Background(), nil))
	assert.Contains(t, env.out.String(), "Invalid QR Code. The format is incorrect.")
}

func TestApp_CheckInForRegistrationWrongEvent(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "7", "tok")
	env.router.Get("/register-event/student", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 5, "account": map[string]any{"id": 7}, "event": map[string]any{"id": 42, "name": "Go Meetup"}},
		})
	})

	env.input("event-check-in?id=43\n")
	require.NoError(t, env.app.CheckIn(context.Background(), []string{"5"}))
	assert.Contains(t, env.out.String(), `Incorrect Event QR. Expected code for "Go Meetup".`)
}

func TestApp_TicketAndHistory(t *testing.T) {
	env := newTestEnv(t)
	dir, err := ticketDir()
	require.NoError(t, err)
	ctx := context.Background()

	env.input("Ada Lovelace\nada@example.com\nGo Meetup\n")
	require.NoError(t, env.app.Ticket(ctx))
	assert.FileExists(t, filepath.Join(dir, "ticket-1.png"))

	require.NoError(t, env.app.History(ctx, nil))
	assert.Contains(t, env.out.String(), "Ada Lovelace <ada@example.com>  Go Meetup")

	require.NoError(t, env.app.History(ctx, []string{"export"}))
	data, err := os.ReadFile(filepath.Join(dir, "history.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Ada Lovelace","email":"ada@example.com","eventName":"Go Meetup"}]`, string(data))
}

func TestApp_TicketValidation(t *testing.T) {
	env := newTestEnv(t)

	env.input("\nada@example.com\nGo Meetup\n")
	require.Error(t, env.app.Ticket(context.Background()))
	assert.Contains(t, env.out.String(), "Please enter your full name.")
}

func TestApp_UploadNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "7", "tok")
	env.router.Get("/register-event/student", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 5}})
	})
	path := filepath.Join(t.TempDir(), "proof.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

	require.Error(t, env.app.Upload(context.Background(), []string{"5", path}))
	assert.Contains(t, env.out.String(), "Proof uploads are not configured.")
}

func TestApp_ProfileAndDeposit(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "7", "tok")
	var balance atomic.Int64
	balance.Store(10)
	env.router.Post("/add-money", func(w http.ResponseWriter, r *http.Request) {
		balance.Add(5)
		w.WriteHeader(http.StatusOK)
	})
	env.router.Get("/account/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id": 7, "fullName": "Ada", "email": "ada@gmail.com",
			"wallet": map[string]any{"id": 1, "balance": balance.Load()},
		})
	})
	ctx := context.Background()

	require.NoError(t, env.app.Deposit(ctx, []string{"5"}))
	require.NoError(t, env.app.Profile(ctx))

	text := env.out.String()
	assert.Contains(t, text, "Deposit successful. Balance: $15.00")
	assert.Contains(t, text, "Ada <ada@gmail.com>")

	require.Error(t, env.app.Deposit(ctx, []string{"-1"}))
	assert.Contains(t, env.out.String(), "Invalid Amount")
}

func TestApp_EventsAndJoin(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "7", "tok")
	var joined atomic.Bool
	event := func() map[string]any {
		regs := []map[string]any{}
		if joined.Load() {
			regs = append(regs, map[string]any{"id": 1, "account": map[string]any{"id": 7}})
		}
		return map[string]any{"id": 42, "name": "Go Meetup", "status": "UPCOMING", "registers": regs}
	}
	env.router.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{event(), {"id": 43, "name": "Party", "status": "POSTPONED"}})
	})
	env.router.Get("/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, event())
	})
	env.router.Post("/register-event", func(w http.ResponseWriter, r *http.Request) {
		joined.Store(true)
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()

	require.NoError(t, env.app.Events(ctx))
	require.NoError(t, env.app.Event(ctx, []string{"42"}))
	require.NoError(t, env.app.Join(ctx, []string{"42"}))

	text := env.out.String()
	assert.Contains(t, text, "[42] Go Meetup")
	assert.Contains(t, text, "unknown (POSTPONED)")
	assert.Contains(t, text, "You are: not registered")
	assert.Contains(t, text, "Registered for Go Meetup.")
}

func TestApp_StatusShowsTokenExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	assert.Empty(t, env.app.getStatus(ctx))

	exp := time.Now().Add(time.Hour)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test"))
	require.NoError(t, err)
	env.login(t, "7", tok)

	assert.Equal(t, "(account 7 until "+exp.Local().Format(expiryLayout)+")", env.app.getStatus(ctx))

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("test"))
	require.NoError(t, err)
	env.login(t, "7", expired)
	env.app.setUserName("ada")
	env.app.setMode(ModeOnline)

	assert.Equal(t, "(ada session expired online)", env.app.getStatus(ctx))
}

func TestApp_OnlineStatusWatcher(t *testing.T) {
	env := newTestEnv(t)
	var down atomic.Bool
	env.router.Head("/events", func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.app.StartOnlineStatusWatcher(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return env.app.currentMode() == ModeOnline }, time.Second, 5*time.Millisecond)
	down.Store(true)
	require.Eventually(t, func() bool { return env.app.currentMode() == ModeOffline }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Contains(t, env.out.String(), "Switched to offline mode")
}

func TestApp_RunExits(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "7", "tok")

	env.input("help\nexit\n")
	env.app.Run(context.Background())

	text := env.out.String()
	assert.Contains(t, text, "Welcome to EventPass")
	assert.Contains(t, text, helpLoggedIn)
	assert.Contains(t, text, "Bye!")
}
