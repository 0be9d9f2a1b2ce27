package orchestrator

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Craneguard/internal/domain"
	"github.com/shaiso/Craneguard/internal/gateway"
	"github.com/shaiso/Craneguard/internal/workflow"
)

// Default configuration values.
const (
	defaultOwnerOrg = "org-owner-01"
)

// Notifier получает уведомления о смене статусов.
// Реализуется events.Publisher; вызовы best-effort.
type Notifier interface {
	StepFinished(ctx context.Context, runID string, code string, status domain.StepStatus)
	RunFinished(ctx context.Context, runID string, status domain.RunStatus, errMsg string)
}

// Archiver сохраняет снимок завершённого прогона.
// Реализуется archive.Archive.
type Archiver interface {
	SaveRun(ctx context.Context, snap RunSnapshot) error
}

// RunSnapshot — снимок завершённого прогона для архива.
type RunSnapshot struct {
	ID         uuid.UUID
	Status     domain.RunStatus
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
	Context    workflow.Values
	Statuses   map[string]domain.StepStatus
	Logs       []domain.LogEntry
}

// Orchestrator выполняет сценарий и хранит состояние прогона.
//
// Состояние одно на процесс: консоль работает с единственным
// «текущим прогоном», история уходит в архив. Все публичные методы
// потокобезопасны.
type Orchestrator struct {
	registry *workflow.Registry
	context  *workflow.Context
	gateway  *gateway.Gateway

	mu         sync.RWMutex
	runID      uuid.UUID
	runStatus  domain.RunStatus
	runErr     string
	statuses   map[string]domain.StepStatus
	logs       []domain.LogEntry
	startedAt  time.Time
	finishedAt time.Time
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}

	notifier Notifier
	archiver Archiver
	ownerOrg string

	logger *slog.Logger
	now    func() time.Time
}

// Config — конфигурация Orchestrator.
type Config struct {
	// BaseURL — адрес бэкенда, передаётся в Gateway.
	BaseURL string

	// HTTPClient — клиент для Gateway (опционально).
	HTTPClient *http.Client

	// MaxAttempts и RetryDelay — настройки retry Gateway (опционально).
	MaxAttempts int
	RetryDelay  time.Duration

	// Registry — реестр шагов (default: стандартный сценарий).
	Registry *workflow.Registry

	// Notifier — издатель событий (опционально).
	Notifier Notifier

	// Archiver — архив завершённых прогонов (опционально).
	Archiver Archiver

	// OwnerOrg — организация владельца для dev-login
	// (default: "org-owner-01").
	OwnerOrg string

	// Logger
	Logger *slog.Logger

	// Now — источник времени (default: time.Now). Для тестов.
	Now func() time.Time
}

// New создаёт новый Orchestrator.
//
// Общий контекст и Gateway создаются внутри: контекст служит
// источником сессий для Gateway, оркестратор — приёмником журнала.
func New(cfg Config) *Orchestrator {
	registry := cfg.Registry
	if registry == nil {
		registry = workflow.NewRegistry()
	}

	ownerOrg := cfg.OwnerOrg
	if ownerOrg == "" {
		ownerOrg = defaultOwnerOrg
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	o := &Orchestrator{
		registry: registry,
		context:  workflow.NewContext(),
		statuses: make(map[string]domain.StepStatus),
		notifier: cfg.Notifier,
		archiver: cfg.Archiver,
		ownerOrg: ownerOrg,
		logger:   logger,
		now:      now,
	}

	o.gateway = gateway.New(gateway.Config{
		BaseURL:     cfg.BaseURL,
		Sessions:    o.context,
		Recorder:    o,
		HTTPClient:  cfg.HTTPClient,
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		Logger:      logger,
	})

	for _, code := range registry.Codes() {
		o.statuses[code] = domain.StepStatusPending
	}

	return o
}

// Gateway возвращает транспортный адаптер.
// Используется каталожными endpoint'ами консоли.
func (o *Orchestrator) Gateway() *gateway.Gateway {
	return o.gateway
}

// Definitions возвращает определения шагов в порядке исполнения.
func (o *Orchestrator) Definitions() []domain.StepDefinition {
	return o.registry.Definitions()
}

// Append добавляет запись в журнал прогона.
// Реализует domain.Recorder; время проставляется, если не задано.
func (o *Orchestrator) Append(entry domain.LogEntry) {
	if entry.Time.IsZero() {
		entry.Time = o.now()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.logs = append(o.logs, entry)
}

// StepState — статус одного шага для отчёта консоли.
type StepState struct {
	Code   string            `json:"code"`
	Status domain.StepStatus `json:"status"`
}

// State — снимок состояния прогона.
type State struct {
	RunID      string           `json:"run_id,omitempty"`
	Status     domain.RunStatus `json:"status,omitempty"`
	Running    bool             `json:"running"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at,omitzero"`
	FinishedAt time.Time        `json:"finished_at,omitzero"`
	Steps      []StepState      `json:"steps"`
	Context    workflow.Values  `json:"context"`
}

// State возвращает снимок текущего состояния.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st := State{
		Status:     o.runStatus,
		Running:    o.running,
		Error:      o.runErr,
		StartedAt:  o.startedAt,
		FinishedAt: o.finishedAt,
		Context:    o.context.Snapshot(),
	}
	if o.runID != uuid.Nil {
		st.RunID = o.runID.String()
	}
	for _, code := range o.registry.Codes() {
		st.Steps = append(st.Steps, StepState{Code: code, Status: o.statuses[code]})
	}
	return st
}

// Logs возвращает копию журнала прогона.
func (o *Orchestrator) Logs() []domain.LogEntry {
	return o.LogsSince(0)
}

// LogsSince возвращает записи журнала начиная с индекса offset.
// Журнал append-only, индексы стабильны до следующего reset.
func (o *Orchestrator) LogsSince(offset int) []domain.LogEntry {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if offset < 0 || offset > len(o.logs) {
		offset = len(o.logs)
	}
	out := make([]domain.LogEntry, len(o.logs)-offset)
	copy(out, o.logs[offset:])
	return out
}

// Wait блокирует до завершения активного прогона.
// Возвращает сразу, если прогон не выполняется. Для тестов и CLI.
func (o *Orchestrator) Wait() {
	o.mu.RLock()
	done := o.done
	o.mu.RUnlock()

	if done != nil {
		<-done
	}
}

// IsRunning возвращает true, пока выполняется прогон или шаг.
func (o *Orchestrator) IsRunning() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.running
}
