package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Craneguard/internal/domain"
	"github.com/shaiso/Craneguard/internal/orchestrator"
)

// NewPool создаёт пул соединений к базе архива.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 5
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// Archive — хранилище снимков завершённых прогонов.
// Реализует orchestrator.Archiver.
type Archive struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New создаёт Archive.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Archive {
	return &Archive{pool: pool, logger: logger}
}

// Init создаёт таблицу архива, если её нет.
// Схема одна, миграции не требуются.
func (a *Archive) Init(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS craneguard_runs (
			id          uuid PRIMARY KEY,
			status      text NOT NULL,
			error       text,
			started_at  timestamptz NOT NULL,
			finished_at timestamptz NOT NULL,
			context     jsonb NOT NULL,
			statuses    jsonb NOT NULL,
			logs        jsonb NOT NULL
		)
	`
	if _, err := a.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create archive table: %w", err)
	}
	return nil
}

// SaveRun сохраняет снимок завершённого прогона.
// Токены сессий в снимок не попадают.
func (a *Archive) SaveRun(ctx context.Context, snap orchestrator.RunSnapshot) error {
	values := snap.Context
	for role, s := range values.Users {
		s.Token = ""
		values.Users[role] = s
	}

	contextJSON, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}
	statusesJSON, err := json.Marshal(snap.Statuses)
	if err != nil {
		return fmt.Errorf("marshal statuses: %w", err)
	}
	logsJSON, err := json.Marshal(snap.Logs)
	if err != nil {
		return fmt.Errorf("marshal logs: %w", err)
	}

	query := `
		INSERT INTO craneguard_runs (id, status, error, started_at, finished_at, context, statuses, logs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, error = EXCLUDED.error,
		    finished_at = EXCLUDED.finished_at, context = EXCLUDED.context,
		    statuses = EXCLUDED.statuses, logs = EXCLUDED.logs
	`
	_, err = a.pool.Exec(ctx, query,
		snap.ID,
		string(snap.Status),
		nullString(snap.Error),
		snap.StartedAt,
		snap.FinishedAt,
		contextJSON,
		statusesJSON,
		logsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert run snapshot: %w", err)
	}

	a.logger.Info("run archived", "run_id", snap.ID, "status", snap.Status)
	return nil
}

// RunRecord — строка архива для списков консоли.
type RunRecord struct {
	ID         uuid.UUID        `json:"id"`
	Status     domain.RunStatus `json:"status"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// ListRecent возвращает последние завершённые прогоны.
func (a *Archive) ListRecent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, status, COALESCE(error, ''), started_at, finished_at
		FROM craneguard_runs
		ORDER BY finished_at DESC
		LIMIT $1
	`
	rows, err := a.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var status string
		if err := rows.Scan(&rec.ID, &status, &rec.Error, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Status = domain.RunStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetLogs возвращает журнал архивированного прогона.
func (a *Archive) GetLogs(ctx context.Context, id uuid.UUID) ([]domain.LogEntry, error) {
	var logsJSON []byte
	query := `SELECT logs FROM craneguard_runs WHERE id = $1`
	if err := a.pool.QueryRow(ctx, query, id).Scan(&logsJSON); err != nil {
		return nil, fmt.Errorf("get run logs: %w", err)
	}

	var logs []domain.LogEntry
	if err := json.Unmarshal(logsJSON, &logs); err != nil {
		return nil, fmt.Errorf("unmarshal logs: %w", err)
	}
	return logs, nil
}

// nullString возвращает nil для пустой строки.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
