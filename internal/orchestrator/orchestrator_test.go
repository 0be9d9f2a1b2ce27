package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Craneguard/internal/domain"
)

// backendState — управляемое состояние фейкового бэкенда.
type backendState struct {
	mu          sync.Mutex
	calls       []string // пути в порядке обращения
	failDriver  bool     // /assignments/driver отвечает 500
	stepDelay   time.Duration
	byRoleDown  bool // /users/by-role отвечает 404
	resetCalled int
	loginCalled int
}

func (b *backendState) record(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, path)
}

func (b *backendState) callCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, p := range b.calls {
		if p == path {
			n++
		}
	}
	return n
}

// fullBackend поднимает фейковый бэкенд со всеми endpoint'ами сценария.
func fullBackend() (*httptest.Server, *backendState) {
	state := &backendState{}

	writeJSON := func(w http.ResponseWriter, v any) {
		json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/by-role", func(w http.ResponseWriter, r *http.Request) {
		state.record("/users/by-role")
		if state.byRoleDown {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]domain.Session{
			"SAFETY_MANAGER": {ID: "sm-1", Token: "tok-sm"},
			"MANUFACTURER":   {ID: "mf-1", Token: "tok-mf"},
			"OWNER":          {ID: "ow-1", Token: "tok-ow", OrgID: "org-owner-01"},
			"DRIVER":         {ID: "dr-1", Token: "tok-dr"},
		})
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		state.record("/auth/login")
		state.mu.Lock()
		state.loginCalled++
		state.mu.Unlock()

		var body struct {
			Email string `json:"email"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, map[string]any{
			"access_token": "tok-" + body.Email,
			"user":         map[string]any{"id": "id-" + body.Email, "email": body.Email},
		})
	})
	mux.HandleFunc("POST /health/reset-transactional", func(w http.ResponseWriter, r *http.Request) {
		state.record("/health/reset-transactional")
		state.mu.Lock()
		state.resetCalled++
		state.mu.Unlock()
		writeJSON(w, map[string]string{"status": "ok"})
	})

	step := func(path string, handler func(w http.ResponseWriter, r *http.Request)) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			state.record(r.URL.Path)
			if state.stepDelay > 0 {
				time.Sleep(state.stepDelay)
			}
			handler(w, r)
		})
	}

	step("POST /sites/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"id": "site-1"})
	})
	step("POST /sites/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{})
	})
	step("GET /owners/{org}/cranes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]string{{"id": "crane-1"}})
	})
	step("POST /assignments/crane", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"assignment_id": "as-1"})
	})
	step("POST /assignments/driver", func(w http.ResponseWriter, r *http.Request) {
		state.mu.Lock()
		fail := state.failDriver
		state.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]string{"driver_assignment_id": "da-1"})
	})
	step("POST /assignments/attendance", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{})
	})
	step("POST /docs/requests", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"request_id": "dr-1"})
	})
	step("POST /docs/items/submit", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"item_id": "di-1"})
	})
	step("POST /docs/items/review", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{})
	})

	return httptest.NewServer(mux), state
}

// fakeNotifier — приёмник событий для тестов.
type fakeNotifier struct {
	mu    sync.Mutex
	steps []string
	runs  []domain.RunStatus
}

func (n *fakeNotifier) StepFinished(_ context.Context, _ string, code string, status domain.StepStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.steps = append(n.steps, code+":"+string(status))
}

func (n *fakeNotifier) RunFinished(_ context.Context, _ string, status domain.RunStatus, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.runs = append(n.runs, status)
}

// fakeArchiver — архив для тестов.
type fakeArchiver struct {
	mu    sync.Mutex
	snaps []RunSnapshot
}

func (a *fakeArchiver) SaveRun(_ context.Context, snap RunSnapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snaps = append(a.snaps, snap)
	return nil
}

func newTestOrchestrator(baseURL string, notifier Notifier, archiver Archiver) *Orchestrator {
	return New(Config{
		BaseURL:     baseURL,
		RetryDelay:  time.Millisecond,
		MaxAttempts: 2,
		Notifier:    notifier,
		Archiver:    archiver,
	})
}

func bootstrap(t *testing.T, o *Orchestrator) {
	t.Helper()
	if err := o.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
}

func TestOrchestrator_FullRun(t *testing.T) {
	srv, state := fullBackend()
	defer srv.Close()

	notifier := &fakeNotifier{}
	archiver := &fakeArchiver{}
	o := newTestOrchestrator(srv.URL, notifier, archiver)
	bootstrap(t, o)

	runID, err := o.RunAll(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	st := o.State()
	if st.Status != domain.RunStatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s (%s)", st.Status, st.Error)
	}
	for _, s := range st.Steps {
		if s.Status != domain.StepStatusSuccess {
			t.Errorf("step %s: expected SUCCESS, got %s", s.Code, s.Status)
		}
	}

	// Контекст собрал все шесть идентификаторов
	ids := st.Context.Identifiers()
	if len(ids) != 6 {
		t.Errorf("expected 6 identifiers, got %d: %v", len(ids), ids)
	}

	// Шаги шли строго по порядку сценария
	wantOrder := []string{
		"/sites/",
		"/sites/site-1/approve",
		"/owners/org-owner-01/cranes",
		"/assignments/crane",
		"/assignments/driver",
		"/assignments/attendance",
		"/docs/requests",
		"/docs/items/submit",
		"/docs/items/review",
	}
	var stepCalls []string
	for _, p := range state.calls {
		if p != "/users/by-role" {
			stepCalls = append(stepCalls, p)
		}
	}
	if len(stepCalls) != len(wantOrder) {
		t.Fatalf("expected %d backend calls, got %d: %v", len(wantOrder), len(stepCalls), stepCalls)
	}
	for i := range wantOrder {
		if stepCalls[i] != wantOrder[i] {
			t.Errorf("call %d: expected %s, got %s", i, wantOrder[i], stepCalls[i])
		}
	}

	// События и архив
	if len(notifier.runs) != 1 || notifier.runs[0] != domain.RunStatusSucceeded {
		t.Errorf("expected one SUCCEEDED run event, got %v", notifier.runs)
	}
	if len(notifier.steps) != 10 {
		t.Errorf("expected 10 step events, got %d", len(notifier.steps))
	}
	if len(archiver.snaps) != 1 {
		t.Fatalf("expected one archived snapshot, got %d", len(archiver.snaps))
	}
	snap := archiver.snaps[0]
	if snap.ID.String() != runID.String() || snap.Status != domain.RunStatusSucceeded {
		t.Errorf("unexpected snapshot: %s %s", snap.ID, snap.Status)
	}
}

func TestOrchestrator_HaltOnFailure(t *testing.T) {
	srv, state := fullBackend()
	defer srv.Close()
	state.failDriver = true

	o := newTestOrchestrator(srv.URL, nil, nil)
	bootstrap(t, o)

	if _, err := o.RunAll(context.Background()); err == nil {
		t.Fatal("expected run error")
	}

	st := o.State()
	if st.Status != domain.RunStatusFailed {
		t.Fatalf("expected FAILED, got %s", st.Status)
	}

	statuses := make(map[string]domain.StepStatus)
	for _, s := range st.Steps {
		statuses[s.Code] = s.Status
	}
	if statuses["D1"] != domain.StepStatusError {
		t.Errorf("D1: expected ERROR, got %s", statuses["D1"])
	}
	// Шаги после упавшего не запускались
	for _, code := range []string{"D2", "E1", "E2", "E3", "F1"} {
		if statuses[code] != domain.StepStatusPending {
			t.Errorf("%s: expected PENDING, got %s", code, statuses[code])
		}
	}
	if state.callCount("/assignments/attendance") != 0 {
		t.Error("steps after the failed one must not reach the backend")
	}
}

func TestOrchestrator_NotBootstrapped(t *testing.T) {
	srv, _ := fullBackend()
	defer srv.Close()

	o := newTestOrchestrator(srv.URL, nil, nil)
	if _, err := o.StartAll(); !errors.Is(err, ErrNotBootstrapped) {
		t.Fatalf("expected ErrNotBootstrapped, got %v", err)
	}
}

func TestOrchestrator_RunMutualExclusion(t *testing.T) {
	srv, state := fullBackend()
	defer srv.Close()
	state.stepDelay = 50 * time.Millisecond

	o := newTestOrchestrator(srv.URL, nil, nil)
	bootstrap(t, o)

	if _, err := o.StartAll(); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := o.StartAll(); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("expected ErrRunInProgress for second start, got %v", err)
	}
	if err := o.StartStep("B1"); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("expected ErrRunInProgress for manual step, got %v", err)
	}

	o.Wait()
	if o.State().Status != domain.RunStatusSucceeded {
		t.Errorf("run should still finish: %s", o.State().Status)
	}
}

func TestOrchestrator_BootstrapDevLoginFallback(t *testing.T) {
	srv, state := fullBackend()
	defer srv.Close()
	state.byRoleDown = true

	o := newTestOrchestrator(srv.URL, nil, nil)
	bootstrap(t, o)

	if state.loginCalled != 4 {
		t.Errorf("expected 4 dev logins, got %d", state.loginCalled)
	}

	// Владелец без организации получает фикстурную
	st := o.State()
	owner := st.Context.Users[domain.RoleOwner]
	if owner.OrgID != "org-owner-01" {
		t.Errorf("expected fixture org for owner, got %q", owner.OrgID)
	}
}

func TestOrchestrator_ManualStepRerun(t *testing.T) {
	srv, state := fullBackend()
	defer srv.Close()
	state.failDriver = true

	o := newTestOrchestrator(srv.URL, nil, nil)
	bootstrap(t, o)
	o.RunAll(context.Background())

	// Пока шаг не перезапущен, статус ERROR
	if o.State().Steps[4].Status != domain.StepStatusError {
		t.Fatalf("expected D1 ERROR, got %s", o.State().Steps[4].Status)
	}

	// Бэкенд починился, ручной перезапуск шага проходит
	state.mu.Lock()
	state.failDriver = false
	state.mu.Unlock()

	if err := o.RunStep(context.Background(), "D1"); err != nil {
		t.Fatalf("manual rerun: %v", err)
	}
	if o.State().Steps[4].Status != domain.StepStatusSuccess {
		t.Errorf("expected D1 SUCCESS after rerun, got %s", o.State().Steps[4].Status)
	}
	// Контекст пополнился результатом шага
	if o.State().Context.DriverAssignmentID != "da-1" {
		t.Error("rerun result should be merged into the context")
	}

	if err := o.StartStep("Z9"); err == nil {
		t.Error("unknown step must be rejected")
	}
}

func TestOrchestrator_ResetKeepUsers(t *testing.T) {
	srv, _ := fullBackend()
	defer srv.Close()

	o := newTestOrchestrator(srv.URL, nil, nil)
	bootstrap(t, o)
	o.RunAll(context.Background())

	if err := o.Reset(context.Background(), true); err != nil {
		t.Fatalf("reset: %v", err)
	}

	st := o.State()
	if st.Status != "" || st.RunID != "" || st.Error != "" {
		t.Errorf("run state should be cleared: %+v", st)
	}
	for _, s := range st.Steps {
		if s.Status != domain.StepStatusPending {
			t.Errorf("step %s: expected PENDING, got %s", s.Code, s.Status)
		}
	}
	if len(st.Context.Identifiers()) != 0 {
		t.Error("identifiers should be cleared")
	}
	if len(st.Context.Users) != 4 {
		t.Error("sessions should survive keep-users reset")
	}
	if len(o.Logs()) != 0 {
		t.Error("log should be cleared by reset")
	}
}

func TestOrchestrator_FullReset(t *testing.T) {
	srv, state := fullBackend()
	defer srv.Close()

	o := newTestOrchestrator(srv.URL, nil, nil)
	bootstrap(t, o)
	o.RunAll(context.Background())

	if err := o.Reset(context.Background(), false); err != nil {
		t.Fatalf("full reset: %v", err)
	}

	if state.resetCalled != 1 {
		t.Errorf("expected one backend reset call, got %d", state.resetCalled)
	}
	// Bootstrap выполнен заново, сессии на месте
	if len(o.State().Context.Users) != 4 {
		t.Error("sessions should be rebuilt by full reset")
	}
}

func TestOrchestrator_Cancel(t *testing.T) {
	srv, state := fullBackend()
	defer srv.Close()
	state.stepDelay = 50 * time.Millisecond

	o := newTestOrchestrator(srv.URL, nil, nil)
	bootstrap(t, o)

	if _, err := o.StartAll(); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := o.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	o.Wait()

	st := o.State()
	if st.Status != domain.RunStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", st.Status)
	}
	if state.callCount("/docs/items/review") != 0 {
		t.Error("cancelled run must not reach the final steps")
	}

	if err := o.Cancel(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning after finish, got %v", err)
	}
}

func TestOrchestrator_LogsSince(t *testing.T) {
	srv, _ := fullBackend()
	defer srv.Close()

	o := newTestOrchestrator(srv.URL, nil, nil)
	bootstrap(t, o)

	all := o.Logs()
	if len(all) == 0 {
		t.Fatal("bootstrap should produce log entries")
	}

	rest := o.LogsSince(len(all))
	if len(rest) != 0 {
		t.Errorf("expected no new entries, got %d", len(rest))
	}

	// Слишком большой offset не паникует
	if got := o.LogsSince(len(all) + 100); len(got) != 0 {
		t.Errorf("expected empty slice for out-of-range offset, got %d", len(got))
	}
}
