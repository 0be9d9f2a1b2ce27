package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shaiso/Craneguard/internal/orchestrator"
)

// Scheduler запускает smoke-прогоны по cron-расписанию.
type Scheduler struct {
	orch     *orchestrator.Orchestrator
	cronExpr string
	logger   *slog.Logger
	now      func() time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	// Orchestrator — исполнитель прогонов.
	Orchestrator *orchestrator.Orchestrator

	// CronExpr — расписание smoke-прогонов, 5 полей.
	CronExpr string

	// Logger
	Logger *slog.Logger

	// Now — источник времени (default: time.Now). Для тестов.
	Now func() time.Time
}

// New создаёт Scheduler. Расписание валидируется сразу.
func New(cfg Config) (*Scheduler, error) {
	if err := ValidateCronExpr(cfg.CronExpr); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		orch:     cfg.Orchestrator,
		cronExpr: cfg.CronExpr,
		logger:   logger,
		now:      now,
	}, nil
}

// Start блокирует и запускает прогоны по расписанию до отмены ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("smoke scheduler started", "cron", s.cronExpr)

	for {
		next, err := NextAfter(s.cronExpr, s.now())
		if err != nil {
			return err
		}

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("smoke scheduler stopped")
			return ctx.Err()
		case <-timer.C:
		}

		s.tick(ctx)
	}
}

// tick запускает один smoke-прогон.
// Занятая консоль и упавший прогон логируются, но не прерывают цикл.
func (s *Scheduler) tick(ctx context.Context) {
	runID, err := s.orch.RunAll(ctx)
	switch {
	case errors.Is(err, orchestrator.ErrRunInProgress):
		s.logger.Info("smoke run skipped: console busy")
	case errors.Is(err, orchestrator.ErrNotBootstrapped):
		s.logger.Warn("smoke run skipped: sessions not bootstrapped")
	case err != nil:
		s.logger.Error("smoke run failed", "run_id", runID, "error", err)
	default:
		s.logger.Info("smoke run succeeded", "run_id", runID)
	}
}
