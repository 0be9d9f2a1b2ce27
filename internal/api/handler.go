package api

import (
	"log/slog"

	"github.com/shaiso/Craneguard/internal/archive"
	"github.com/shaiso/Craneguard/internal/orchestrator"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	orch    *orchestrator.Orchestrator
	archive *archive.Archive
	logger  *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Orchestrator *orchestrator.Orchestrator

	// Archive — история прогонов (опционально).
	Archive *archive.Archive

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		orch:    cfg.Orchestrator,
		archive: cfg.Archive,
		logger:  logger,
	}
}
