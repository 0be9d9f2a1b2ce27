package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/Craneguard/internal/domain"
	"github.com/shaiso/Craneguard/internal/orchestrator"
)

// fakeBackend — минимальный бэкенд, на котором полный прогон успешен.
func fakeBackend() *httptest.Server {
	writeJSON := func(w http.ResponseWriter, v any) {
		json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/by-role", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]domain.Session{
			"SAFETY_MANAGER": {ID: "sm-1", Token: "tok-sm"},
			"MANUFACTURER":   {ID: "mf-1", Token: "tok-mf"},
			"OWNER":          {ID: "ow-1", Token: "tok-ow", OrgID: "org-owner-01"},
			"DRIVER":         {ID: "dr-1", Token: "tok-dr"},
		})
	})
	mux.HandleFunc("POST /sites/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"id": "site-1"})
	})
	mux.HandleFunc("POST /sites/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{})
	})
	mux.HandleFunc("GET /owners/{org}/cranes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]string{{"id": "crane-1"}})
	})
	mux.HandleFunc("GET /owners/with-stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"id": "ow-org", "name": "Owner Org", "total_cranes": 2, "available_cranes": 1}})
	})
	mux.HandleFunc("POST /assignments/crane", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"assignment_id": "as-1"})
	})
	mux.HandleFunc("POST /assignments/driver", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"driver_assignment_id": "da-1"})
	})
	mux.HandleFunc("POST /assignments/attendance", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{})
	})
	mux.HandleFunc("POST /docs/requests", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"request_id": "dr-1"})
	})
	mux.HandleFunc("POST /docs/items/submit", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"item_id": "di-1"})
	})
	mux.HandleFunc("POST /docs/items/review", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{})
	})

	return httptest.NewServer(mux)
}

// newTestConsole поднимает консоль поверх фейкового бэкенда.
func newTestConsole(t *testing.T) (*httptest.Server, *orchestrator.Orchestrator) {
	t.Helper()

	backend := fakeBackend()
	t.Cleanup(backend.Close)

	orch := orchestrator.New(orchestrator.Config{
		BaseURL:    backend.URL,
		RetryDelay: time.Millisecond,
	})
	if err := orch.Bootstrap(t.Context()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	handler := NewHandler(Config{Orchestrator: orch})
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, orch
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

func post(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeData(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()

	var dr struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if v != nil {
		if err := json.Unmarshal(dr.Data, v); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func TestAPI_GetDefinition(t *testing.T) {
	srv, _ := newTestConsole(t)

	resp := get(t, srv.URL+"/api/v1/workflow/definition")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var defs []StepDefinitionDTO
	decodeData(t, resp, &defs)
	if len(defs) != 10 {
		t.Fatalf("expected 10 step definitions, got %d", len(defs))
	}
	if defs[0].Code != "B1" || defs[9].Code != "F1" {
		t.Errorf("unexpected order: %s .. %s", defs[0].Code, defs[9].Code)
	}
}

func TestAPI_StateHidesTokens(t *testing.T) {
	srv, _ := newTestConsole(t)

	resp := get(t, srv.URL+"/api/v1/workflow/state")
	defer resp.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)

	if strings.Contains(buf.String(), "tok-") {
		t.Error("session tokens must not leak through the API")
	}
	if !strings.Contains(buf.String(), "sm-1") {
		t.Error("user ids should be visible in the state")
	}
}

func TestAPI_RunLifecycle(t *testing.T) {
	srv, orch := newTestConsole(t)

	resp := post(t, srv.URL+"/api/v1/workflow/run", "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var started struct {
		RunID string `json:"run_id"`
	}
	decodeData(t, resp, &started)
	if started.RunID == "" {
		t.Fatal("expected run_id in response")
	}

	orch.Wait()

	var st StateDTO
	resp = get(t, srv.URL+"/api/v1/workflow/state")
	decodeData(t, resp, &st)
	if st.Status != domain.RunStatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s (%s)", st.Status, st.Error)
	}
	if len(st.Context.Identifiers) != 6 {
		t.Errorf("expected 6 identifiers, got %d", len(st.Context.Identifiers))
	}

	// Журнал читается порциями
	resp = get(t, srv.URL+"/api/v1/workflow/logs")
	var logs LogsDTO
	decodeData(t, resp, &logs)
	if len(logs.Entries) == 0 {
		t.Fatal("expected log entries after a run")
	}

	resp = get(t, srv.URL+"/api/v1/workflow/logs?offset="+strconv.Itoa(logs.NextOffset))
	var tail LogsDTO
	decodeData(t, resp, &tail)
	if len(tail.Entries) != 0 {
		t.Errorf("expected no new entries, got %d", len(tail.Entries))
	}
}

func TestAPI_Validation(t *testing.T) {
	srv, _ := newTestConsole(t)

	resp := get(t, srv.URL+"/api/v1/workflow/logs?offset=abc")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad offset, got %d", resp.StatusCode)
	}

	resp = post(t, srv.URL+"/api/v1/workflow/steps/Z9/run", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown step, got %d", resp.StatusCode)
	}

	resp = post(t, srv.URL+"/api/v1/workflow/cancel", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for cancel without a run, got %d", resp.StatusCode)
	}

	// Архив не настроен
	resp = get(t, srv.URL+"/api/v1/workflow/runs")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 without archive, got %d", resp.StatusCode)
	}
}

func TestAPI_Reset(t *testing.T) {
	srv, orch := newTestConsole(t)

	post(t, srv.URL+"/api/v1/workflow/run", "").Body.Close()
	orch.Wait()

	resp := post(t, srv.URL+"/api/v1/workflow/reset", `{"keep_users": true}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	var st StateDTO
	decodeData(t, get(t, srv.URL+"/api/v1/workflow/state"), &st)
	if st.Status != "" || len(st.Context.Identifiers) != 0 {
		t.Errorf("state should be cleared after reset: %+v", st)
	}
	if len(st.Context.Users) != 4 {
		t.Error("sessions should survive keep-users reset")
	}
}

func TestAPI_CatalogOwners(t *testing.T) {
	srv, _ := newTestConsole(t)

	resp := get(t, srv.URL+"/api/v1/catalog/owners")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var owners []map[string]any
	decodeData(t, resp, &owners)
	if len(owners) != 1 {
		t.Fatalf("expected 1 owner, got %d", len(owners))
	}
}
