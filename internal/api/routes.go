package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Workflow
	mux.Handle("GET /api/v1/workflow/definition", chain(http.HandlerFunc(h.GetDefinition)))
	mux.Handle("GET /api/v1/workflow/state", chain(http.HandlerFunc(h.GetState)))
	mux.Handle("GET /api/v1/workflow/logs", chain(http.HandlerFunc(h.GetLogs)))
	mux.Handle("POST /api/v1/workflow/bootstrap", chain(http.HandlerFunc(h.Bootstrap)))
	mux.Handle("POST /api/v1/workflow/run", chain(http.HandlerFunc(h.StartRun)))
	mux.Handle("POST /api/v1/workflow/steps/{code}/run", chain(http.HandlerFunc(h.RunStep)))
	mux.Handle("POST /api/v1/workflow/reset", chain(http.HandlerFunc(h.Reset)))
	mux.Handle("POST /api/v1/workflow/cancel", chain(http.HandlerFunc(h.Cancel)))

	// История прогонов (архив)
	mux.Handle("GET /api/v1/workflow/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("GET /api/v1/workflow/runs/{id}/logs", chain(http.HandlerFunc(h.GetRunLogs)))

	// Каталог
	mux.Handle("GET /api/v1/catalog/owners", chain(http.HandlerFunc(h.ListOwners)))
	mux.Handle("GET /api/v1/catalog/owners/{id}/cranes", chain(http.HandlerFunc(h.ListOwnerCranes)))
	mux.Handle("GET /api/v1/catalog/crane-models", chain(http.HandlerFunc(h.ListCraneModels)))
	mux.Handle("GET /api/v1/catalog/deploy-requests", chain(http.HandlerFunc(h.ListDeployRequests)))
	mux.Handle("POST /api/v1/catalog/deploy-requests/{id}/respond", chain(http.HandlerFunc(h.RespondDeployRequest)))
}
