package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// GetDefinition обрабатывает GET /api/v1/workflow/definition.
func (h *Handler) GetDefinition(w http.ResponseWriter, r *http.Request) {
	Success(w, toDefinitionDTOs(h.orch.Definitions()))
}

// GetState обрабатывает GET /api/v1/workflow/state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	Success(w, toStateDTO(h.orch.State()))
}

// GetLogs обрабатывает GET /api/v1/workflow/logs.
//
// Журнал append-only; offset из предыдущего ответа позволяет
// консоли дочитывать только новые записи. step_code ограничивает
// выдачу одним шагом, limit — числом записей. NextOffset считается
// до фильтрации и остаётся валидной позицией в полном журнале.
func (h *Handler) GetLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	offset := 0
	if raw := query.Get("offset"); raw != "" {
		n, err := parseNonNegativeInt(raw)
		if err != nil {
			BadRequest(w, "offset must be a non-negative integer")
			return
		}
		offset = n
	}

	limit := -1
	if raw := query.Get("limit"); raw != "" {
		n, err := parseNonNegativeInt(raw)
		if err != nil {
			BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries := h.orch.LogsSince(offset)
	next := offset + len(entries)

	if code := query.Get("step_code"); code != "" {
		filtered := entries[:0:0]
		for _, e := range entries {
			if e.StepCode == code {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	Success(w, LogsDTO{
		Entries:    entries,
		NextOffset: next,
	})
}

// Bootstrap обрабатывает POST /api/v1/workflow/bootstrap.
func (h *Handler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.Bootstrap(r.Context()); err != nil {
		HandleError(w, h.logger, err)
		return
	}
	Success(w, toStateDTO(h.orch.State()))
}

// StartRun обрабатывает POST /api/v1/workflow/run.
// Прогон запускается в фоне, ответ 202 с id прогона.
func (h *Handler) StartRun(w http.ResponseWriter, r *http.Request) {
	runID, err := h.orch.StartAll()
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}
	Accepted(w, map[string]string{"run_id": runID.String()})
}

// RunStep обрабатывает POST /api/v1/workflow/steps/{code}/run.
func (h *Handler) RunStep(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if err := h.orch.StartStep(code); err != nil {
		HandleError(w, h.logger, err)
		return
	}
	Accepted(w, map[string]string{"step": code})
}

// resetRequest — тело POST /api/v1/workflow/reset.
type resetRequest struct {
	// KeepUsers — сбросить только идентификаторы и журнал,
	// сохранив сессии. false означает полный reset с очисткой
	// транзакционного состояния бэкенда.
	KeepUsers bool `json:"keep_users"`
}

// Reset обрабатывает POST /api/v1/workflow/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			BadRequest(w, "invalid JSON body: "+err.Error())
			return
		}
	}

	if err := h.orch.Reset(r.Context(), req.KeepUsers); err != nil {
		HandleError(w, h.logger, err)
		return
	}
	NoContent(w)
}

// Cancel обрабатывает POST /api/v1/workflow/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.Cancel(); err != nil {
		HandleError(w, h.logger, err)
		return
	}
	Accepted(w, map[string]string{"status": "cancelling"})
}

// ListRuns обрабатывает GET /api/v1/workflow/runs.
// Доступно только при настроенном архиве.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		NotFound(w, "run archive is not configured")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := parseNonNegativeInt(raw)
		if err != nil {
			BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := h.archive.ListRecent(r.Context(), limit)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}
	Success(w, records)
}

// GetRunLogs обрабатывает GET /api/v1/workflow/runs/{id}/logs.
func (h *Handler) GetRunLogs(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		NotFound(w, "run archive is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	logs, err := h.archive.GetLogs(r.Context(), id)
	if err != nil {
		NotFound(w, "run not found")
		return
	}
	Success(w, logs)
}

// parseNonNegativeInt разбирает неотрицательное целое из query.
func parseNonNegativeInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}
