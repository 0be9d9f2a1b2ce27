package api

import (
	"encoding/json"
	"net/http"
)

// ListOwners обрабатывает GET /api/v1/catalog/owners.
func (h *Handler) ListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := h.orch.Gateway().ListOwners(r.Context())
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}
	Success(w, owners)
}

// ListOwnerCranes обрабатывает GET /api/v1/catalog/owners/{id}/cranes.
func (h *Handler) ListOwnerCranes(w http.ResponseWriter, r *http.Request) {
	cranes, err := h.orch.Gateway().ListCranes(r.Context(),
		r.PathValue("id"),
		r.URL.Query().Get("status"),
	)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}
	Success(w, cranes)
}

// ListCraneModels обрабатывает GET /api/v1/catalog/crane-models.
func (h *Handler) ListCraneModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.orch.Gateway().ListCraneModels(r.Context())
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}
	Success(w, models)
}

// ListDeployRequests обрабатывает GET /api/v1/catalog/deploy-requests.
// Требует сессию владельца, то есть выполненный bootstrap.
func (h *Handler) ListDeployRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.orch.Gateway().ListDeployRequests(r.Context(),
		r.URL.Query().Get("status"),
	)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}
	Success(w, requests)
}

// respondRequest — тело POST /api/v1/catalog/deploy-requests/{id}/respond.
type respondRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

// RespondDeployRequest обрабатывает ответ владельца на запрос размещения.
func (h *Handler) RespondDeployRequest(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	err := h.orch.Gateway().RespondDeployRequest(r.Context(), r.PathValue("id"), req.Approve, req.Notes)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}
	NoContent(w)
}
