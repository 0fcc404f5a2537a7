package flows

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/eventpass/internal/client/api"
	"github.com/dmitrijs2005/eventpass/internal/client/models"
	"github.com/dmitrijs2005/eventpass/internal/client/repositories/history"
	"github.com/dmitrijs2005/eventpass/internal/client/session"
	"github.com/dmitrijs2005/eventpass/internal/logging"
	"github.com/go-chi/chi/v5"
)

// memSession is an in-memory session.Store that counts reads.
type memSession struct {
	mu        sync.Mutex
	accountID models.ID
	token     string
	reads     int
	err       error
}

func newSession(accountID models.ID) *memSession {
	s := &memSession{accountID: accountID}
	if accountID != "" {
		s.token = "tok"
	}
	return s
}

func (m *memSession) AccountID(context.Context) (models.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	return m.accountID, m.err
}

func (m *memSession) Token(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.err
}

func (m *memSession) SetSession(_ context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountID, m.token = s.AccountID, s.AccessToken
	return nil
}

func (m *memSession) ClearSession(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountID, m.token = "", ""
	return nil
}

func (m *memSession) setAccount(id models.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountID = id
}

var _ session.Store = (*memSession)(nil)

type fakeRemember struct {
	saved   *session.Remembered
	forgets int
	err     error
}

func (f *fakeRemember) Remember(_ context.Context, email, password string) error {
	if f.err != nil {
		return f.err
	}
	f.saved = &session.Remembered{Email: email, Password: password}
	return nil
}

func (f *fakeRemember) Forget(context.Context) error {
	f.forgets++
	f.saved = nil
	return f.err
}

func (f *fakeRemember) Remembered(context.Context) (session.Remembered, bool, error) {
	if f.saved == nil {
		return session.Remembered{}, false, f.err
	}
	return *f.saved, true, f.err
}

type fakeHistory struct {
	entries []history.Entry
	err     error
}

func (f *fakeHistory) Append(_ context.Context, e *history.Entry) error {
	if f.err != nil {
		return f.err
	}
	e.ID = int64(len(f.entries) + 1)
	e.CreatedAt = time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeHistory) List(context.Context) ([]history.Entry, error) {
	return append([]history.Entry(nil), f.entries...), f.err
}

// fakeService is the remote service, routed with chi, counting every
// request by "METHOD /path".
type fakeService struct {
	Router chi.Router
	srv    *httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	fs := &fakeService{Router: chi.NewRouter(), hits: map[string]int{}}
	fs.Router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fs.mu.Lock()
			fs.hits[r.Method+" "+r.URL.Path]++
			fs.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})
	fs.srv = httptest.NewServer(fs.Router)
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeService) Client() *api.HTTPClient {
	return api.NewHTTPClient(fs.srv.URL, api.WithHTTPClient(fs.srv.Client()))
}

func (fs *fakeService) Hits(key string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.hits[key]
}

func (fs *fakeService) Total() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n := 0
	for _, v := range fs.hits {
		n += v
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func nopLog() logging.Logger { return logging.Nop() }
