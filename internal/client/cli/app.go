package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/eventpass/internal/client/api"
	"github.com/dmitrijs2005/eventpass/internal/client/config"
	"github.com/dmitrijs2005/eventpass/internal/client/flows"
	"github.com/dmitrijs2005/eventpass/internal/client/migrations"
	"github.com/dmitrijs2005/eventpass/internal/client/repositories/history"
	"github.com/dmitrijs2005/eventpass/internal/client/session"
	"github.com/dmitrijs2005/eventpass/internal/client/storage"
	"github.com/dmitrijs2005/eventpass/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const (
	ticketsDir    = "tickets"
	pingTimeout   = 3 * time.Second
	expiryLayout  = "15:04"
	displayLayout = "2006-01-02 15:04"
)

type App struct {
	config  *config.Config
	log     logging.Logger
	db      *sql.DB
	session *session.SQLiteStore
	client  api.Client

	auth    *flows.AuthService
	events  *flows.RegistrationFlow
	wallet  *flows.WalletService
	history *flows.HistoryService
	proofs  *flows.ProofService
	scanner *flows.Scanner

	reader *bufio.Reader
	out    io.Writer

	mu       sync.Mutex
	mode     Mode
	userName string
}

// NewApp opens the local database and wires the services on top of it.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := migrations.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	sess := session.NewSQLiteStore(db)
	client := api.NewHTTPClient(c.APIBaseURL,
		api.WithTokenSource(sess),
		api.WithTimeout(c.RequestTimeout),
		api.WithLogger(log),
	)

	a := &App{
		config:  c,
		log:     log,
		db:      db,
		session: sess,
		client:  client,
		auth:    flows.NewAuthService(client, sess, sess, log),
		events:  flows.NewRegistrationFlow(client, sess, log),
		wallet:  flows.NewWalletService(client, sess, log),
		history: flows.NewHistoryService(history.NewSQLiteRepository(db), log),
		proofs:  flows.NewProofService(client, storage.NewS3Uploader(c.Storage(), nil), log),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
	a.scanner = flows.NewScanner(flows.ScanHandlers{
		CheckIn: a.scanCheckIn,
		Payment: a.scanPayment,
	}, c.ScanCooldown)
	return a, nil
}

// Run greets the user, offers a login when nobody is logged in, starts the
// connectivity watcher and blocks in the REPL until the user exits or ctx
// is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	printlnFn("Welcome to EventPass (type 'help' for commands)")

	if !a.isLoggedIn(ctx) {
		_ = a.Login(ctx)
	}

	watchCtx, stop := context.WithCancel(ctx)
	defer stop()
	go a.StartOnlineStatusWatcher(watchCtx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, func() string { return a.getStatus(ctx) }, a.reader)
}

func (a *App) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn(context.Background(), "closing database", "error", err)
	}
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	ok, err := a.auth.LoggedIn(ctx)
	if err != nil {
		a.log.Warn(ctx, "reading session", "error", err)
		return false
	}
	return ok
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", mode)
		printlnFn(fmt.Sprintf("Switched to %s mode", mode))
	}
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setUserName(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userName = name
}

func (a *App) currentUserName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userName
}

// StartOnlineStatusWatcher pings the service every interval and flips the
// mode shown in the prompt. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.auth.Ping(pingCtx)
	cancel()

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		a.log.Debug(ctx, "ping failed", "error", err)
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// getStatus is the prompt decoration: who is logged in, when the access
// token runs out and whether the service answers.
func (a *App) getStatus(ctx context.Context) string {
	var parts []string

	if name := a.currentUserName(); name != "" {
		parts = append(parts, name)
	} else if id, err := a.session.AccountID(ctx); err == nil && !id.IsZero() {
		parts = append(parts, "account "+id.String())
	}

	if tok, err := a.session.Token(ctx); err == nil {
		if exp, ok := session.TokenExpiry(tok); ok {
			if time.Until(exp) <= 0 {
				parts = append(parts, "session expired")
			} else {
				parts = append(parts, "until "+exp.Local().Format(expiryLayout))
			}
		}
	}

	if m := a.currentMode(); m != "" {
		parts = append(parts, string(m))
	}

	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// report prints err for the user and logs it.
func (a *App) report(ctx context.Context, err error, fallback string) {
	a.log.Debug(ctx, "command failed", "error", err)
	printlnFn(flows.Describe(err, fallback))
	if flows.IsUnauthorized(err) {
		printlnFn("Your session is no longer valid. Please log in again.")
	}
}
