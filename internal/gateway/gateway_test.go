package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Craneguard/internal/domain"
)

// fakeSessions — источник сессий для тестов.
type fakeSessions map[domain.Role]domain.Session

func (f fakeSessions) Session(role domain.Role) (domain.Session, bool) {
	s, ok := f[role]
	return s, ok
}

// memoryRecorder — приёмник журнала для тестов.
type memoryRecorder struct {
	mu      sync.Mutex
	entries []domain.LogEntry
}

func (r *memoryRecorder) Append(entry domain.LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *memoryRecorder) byType(t domain.LogType) []domain.LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.LogEntry
	for _, e := range r.entries {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func testSessions() fakeSessions {
	return fakeSessions{
		domain.RoleSafetyManager: {ID: "sm-1", Token: "tok-sm"},
		domain.RoleOwner:         {ID: "ow-1", Token: "tok-ow", OrgID: "org-1"},
	}
}

func newTestGateway(baseURL string, rec domain.Recorder) *Gateway {
	return New(Config{
		BaseURL:    baseURL,
		Sessions:   testSessions(),
		Recorder:   rec,
		RetryDelay: time.Millisecond,
	})
}

func TestGateway_HeaderInjection(t *testing.T) {
	var gotAuth, gotUser, gotOrg string
	var orgPresent bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUser = r.Header.Get("X-User-ID")
		gotOrg = r.Header.Get("X-Org-ID")
		_, orgPresent = r.Header["X-Org-Id"]
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL, nil)

	if _, err := g.Get(context.Background(), domain.RoleOwner, "/x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-ow" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
	if gotUser != "ow-1" {
		t.Errorf("expected user id, got %q", gotUser)
	}
	if gotOrg != "org-1" {
		t.Errorf("expected org id, got %q", gotOrg)
	}

	// SAFETY_MANAGER без организации: заголовок есть, значение пустое
	if _, err := g.Get(context.Background(), domain.RoleSafetyManager, "/x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !orgPresent {
		t.Error("X-Org-ID header should be present even when empty")
	}
	if gotOrg != "" {
		t.Errorf("expected empty org id, got %q", gotOrg)
	}
}

func TestGateway_SystemActorNoHeaders(t *testing.T) {
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL, nil)
	if _, err := g.Get(context.Background(), domain.RoleSystem, "/health"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasAuth {
		t.Error("SYSTEM requests should not carry credentials")
	}
}

func TestGateway_MissingCredentials(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	rec := &memoryRecorder{}
	g := newTestGateway(srv.URL, rec)

	_, err := g.Get(context.Background(), domain.RoleDriver, "/x")
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}

	// Без retry и без обращения к бэкенду
	if calls != 0 {
		t.Errorf("expected no backend calls, got %d", calls)
	}
	if len(rec.byType(domain.LogError)) != 1 {
		t.Errorf("expected exactly one error entry, got %d", len(rec.byType(domain.LogError)))
	}
	if len(rec.byType(domain.LogRequest)) != 0 {
		t.Error("no request entry expected for a precondition failure")
	}
}

func TestGateway_RetryThenSuccess(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id":"ok"}`))
	}))
	defer srv.Close()

	rec := &memoryRecorder{}
	g := newTestGateway(srv.URL, rec)

	res, err := g.Get(context.Background(), domain.RoleOwner, "/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if res.Status != http.StatusOK {
		t.Errorf("expected 200, got %d", res.Status)
	}

	// Один request, две ошибки попыток, один response
	if n := len(rec.byType(domain.LogRequest)); n != 1 {
		t.Errorf("expected 1 request entry, got %d", n)
	}
	if n := len(rec.byType(domain.LogError)); n != 2 {
		t.Errorf("expected 2 error entries, got %d", n)
	}
	if n := len(rec.byType(domain.LogResponse)); n != 1 {
		t.Errorf("expected 1 response entry, got %d", n)
	}
}

func TestGateway_RetryExhausted(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail":{"message":"already assigned","assignment_id":"as-7"}}`))
	}))
	defer srv.Close()

	rec := &memoryRecorder{}
	g := newTestGateway(srv.URL, rec)

	_, err := g.Post(context.Background(), domain.RoleOwner, "/x", map[string]string{"k": "v"})
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("expected ErrRetryExhausted in chain, got %v", err)
	}

	// Последний ответ доступен вызывающему для разбора
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %T", err)
	}
	if reqErr.Status != http.StatusConflict {
		t.Errorf("expected 409, got %d", reqErr.Status)
	}
	if reqErr.Attempts != 3 {
		t.Errorf("expected 3 attempts recorded, got %d", reqErr.Attempts)
	}
	if len(reqErr.Body) == 0 {
		t.Error("expected last response body to be kept")
	}

	if n := len(rec.byType(domain.LogError)); n != 3 {
		t.Errorf("expected 3 error entries (one per attempt), got %d", n)
	}
}

func TestGateway_ContextCancelDuringRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := New(Config{
		BaseURL:    srv.URL,
		Sessions:   testSessions(),
		RetryDelay: time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := g.Get(ctx, domain.RoleOwner, "/x")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGateway_DecodeMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL, nil)
	res, err := g.Get(context.Background(), domain.RoleOwner, "/x")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var v map[string]any
	if err := res.Decode(&v); !errors.Is(err, ErrUnexpectedResponse) {
		t.Errorf("expected ErrUnexpectedResponse, got %v", err)
	}
}
