package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Craneguard/internal/domain"
	"github.com/shaiso/Craneguard/internal/telemetry"
	"github.com/shaiso/Craneguard/internal/workflow"
)

// devPassword принимается dev-бэкендом для любого пользователя.
const devPassword = "password"

// devEmails — фикстуры dev-login по ролям. Бэкенд назначает роль
// по префиксу email.
var devEmails = map[domain.Role]string{
	domain.RoleSafetyManager: "safety@example.com",
	domain.RoleManufacturer:  "manufacturer@example.com",
	domain.RoleOwner:         "owner@example.com",
	domain.RoleDriver:        "driver@example.com",
}

// Bootstrap подготавливает сессии всех бизнес-ролей.
//
// Основной путь — GET /users/by-role; если endpoint недоступен,
// выполняется dev-login для каждой роли по фикстурным email.
// Владельцу без организации назначается фикстурная организация.
func (o *Orchestrator) Bootstrap(ctx context.Context) error {
	sessions, err := o.gateway.SessionsByRole(ctx)
	if err != nil {
		o.logger.Info("role lookup unavailable, falling back to dev login", "error", err)
		sessions, err = o.devLogin(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBootstrap, err)
		}
	}

	for _, role := range domain.Roles() {
		if _, ok := sessions[role]; !ok {
			return fmt.Errorf("%w: no session for role %s", ErrBootstrap, role)
		}
	}

	if owner := sessions[domain.RoleOwner]; owner.OrgID == "" {
		owner.OrgID = o.ownerOrg
		sessions[domain.RoleOwner] = owner
	}

	o.context.SetUsers(sessions)
	o.Append(domain.LogEntry{
		Actor:    domain.RoleSystem,
		StepCode: "BOOT",
		Summary:  fmt.Sprintf("bootstrap: %d sessions ready", len(sessions)),
		Type:     domain.LogInfo,
	})
	o.logger.Info("sessions bootstrapped", "roles", len(sessions))
	return nil
}

// devLogin логинит каждую роль по фикстурным email.
func (o *Orchestrator) devLogin(ctx context.Context) (map[domain.Role]domain.Session, error) {
	sessions := make(map[domain.Role]domain.Session, len(devEmails))
	for _, role := range domain.Roles() {
		s, err := o.gateway.Login(ctx, devEmails[role], devPassword)
		if err != nil {
			return nil, fmt.Errorf("login %s: %w", role, err)
		}
		sessions[role] = s
	}
	return sessions, nil
}

// StartAll запускает полный прогон в фоне.
//
// Возвращает id прогона сразу; прогресс наблюдается через State и
// Logs. ErrRunInProgress, если прогон или шаг уже выполняется.
func (o *Orchestrator) StartAll() (uuid.UUID, error) {
	o.mu.Lock()

	if o.running {
		o.mu.Unlock()
		return uuid.Nil, ErrRunInProgress
	}
	if !o.hasSessions() {
		o.mu.Unlock()
		return uuid.Nil, ErrNotBootstrapped
	}

	// Свежий прогон: журнал, статусы и ошибка очищаются,
	// идентификаторы прошлого прогона убираются из контекста.
	o.runID = uuid.New()
	o.runStatus = domain.RunStatusRunning
	o.runErr = ""
	o.logs = nil
	o.startedAt = o.now()
	o.finishedAt = time.Time{}
	for _, code := range o.registry.Codes() {
		o.statuses[code] = domain.StepStatusPending
	}
	o.context.ResetKeepingUsers()

	// Прогон живёт дольше HTTP-запроса, который его запустил.
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.done = make(chan struct{})
	o.running = true

	runID := o.runID
	done := o.done
	o.mu.Unlock()

	go func() {
		defer close(done)
		o.runAll(ctx, runID)
	}()

	return runID, nil
}

// RunAll выполняет полный прогон синхронно. Для CLI и планировщика.
func (o *Orchestrator) RunAll(ctx context.Context) (uuid.UUID, error) {
	runID, err := o.StartAll()
	if err != nil {
		return uuid.Nil, err
	}
	o.Wait()

	st := o.State()
	if st.Status != domain.RunStatusSucceeded {
		return runID, fmt.Errorf("run %s: %s: %s", runID, st.Status, st.Error)
	}
	return runID, nil
}

// runAll — тело полного прогона: шаги строго по порядку,
// ошибка шага останавливает прогон.
func (o *Orchestrator) runAll(ctx context.Context, runID uuid.UUID) {
	logger := telemetry.WithRunID(o.logger, runID.String())
	logger.Info("run started", "steps", len(o.registry.Codes()))

	for _, code := range o.registry.Codes() {
		select {
		case <-ctx.Done():
			o.finishRun(runID, domain.RunStatusCancelled, "run cancelled")
			return
		default:
		}

		if err := o.executeStep(ctx, code); err != nil {
			if ctx.Err() != nil {
				o.finishRun(runID, domain.RunStatusCancelled, "run cancelled")
				return
			}
			o.finishRun(runID, domain.RunStatusFailed, fmt.Sprintf("step %s: %v", code, err))
			return
		}
	}

	o.finishRun(runID, domain.RunStatusSucceeded, "")
}

// StartStep запускает один шаг в фоне. Ручной перезапуск:
// журнал и глобальная ошибка прогона не очищаются.
func (o *Orchestrator) StartStep(code string) error {
	if _, err := o.registry.Func(code); err != nil {
		return err
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return ErrRunInProgress
	}
	if !o.hasSessions() {
		o.mu.Unlock()
		return ErrNotBootstrapped
	}
	if !o.statuses[code].CanTransition(domain.StepStatusRunning) {
		o.mu.Unlock()
		return fmt.Errorf("%w: step %s is %s", ErrInvalidTransition, code, o.statuses[code])
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.done = make(chan struct{})
	o.running = true
	done := o.done
	o.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			o.mu.Lock()
			o.running = false
			o.cancel = nil
			o.mu.Unlock()
		}()
		_ = o.executeStep(ctx, code)
	}()

	return nil
}

// RunStep выполняет один шаг синхронно.
func (o *Orchestrator) RunStep(ctx context.Context, code string) error {
	if err := o.StartStep(code); err != nil {
		return err
	}
	o.Wait()

	o.mu.RLock()
	status := o.statuses[code]
	o.mu.RUnlock()

	if status != domain.StepStatusSuccess {
		return fmt.Errorf("step %s finished with status %s", code, status)
	}
	return nil
}

// executeStep выполняет один шаг: снимок контекста на входе,
// merge результата на выходе.
func (o *Orchestrator) executeStep(ctx context.Context, code string) error {
	def, err := o.registry.Definition(code)
	if err != nil {
		return err
	}
	fn, err := o.registry.Func(code)
	if err != nil {
		return err
	}

	if err := o.setStepStatus(code, domain.StepStatusRunning); err != nil {
		return err
	}

	o.Append(domain.LogEntry{
		Actor:    def.Actor,
		StepCode: code,
		Summary:  fmt.Sprintf("-- %s %s", code, def.Title),
		Type:     domain.LogInfo,
	})

	logger := telemetry.WithStep(o.logger, code)
	logger.Info("step started", "actor", def.Actor)

	partial, err := fn(ctx, &workflow.Request{
		Context:  o.context.Snapshot(),
		Gateway:  o.gateway,
		Recorder: o,
		Now:      o.now(),
	})
	if err != nil {
		_ = o.setStepStatus(code, domain.StepStatusError)
		o.Append(domain.LogEntry{
			Actor:    def.Actor,
			StepCode: code,
			Summary:  fmt.Sprintf("step %s failed: %v", code, err),
			Type:     domain.LogError,
		})
		telemetry.StepRuns.WithLabelValues(code, string(domain.StepStatusError)).Inc()
		o.notifyStep(code, domain.StepStatusError)
		logger.Error("step failed", "error", err)
		return err
	}

	o.context.Merge(partial)
	_ = o.setStepStatus(code, domain.StepStatusSuccess)

	entry := domain.LogEntry{
		Actor:    def.Actor,
		StepCode: code,
		Summary:  fmt.Sprintf("step %s done", code),
		Type:     domain.LogSuccess,
	}
	if forwarded := partial.Identifiers(); len(forwarded) > 0 {
		entry.Forwarded = make(map[string]any, len(forwarded))
		for k, v := range forwarded {
			entry.Forwarded[k] = v
		}
	}
	o.Append(entry)

	telemetry.StepRuns.WithLabelValues(code, string(domain.StepStatusSuccess)).Inc()
	o.notifyStep(code, domain.StepStatusSuccess)
	logger.Info("step done")
	return nil
}

// setStepStatus меняет статус шага с проверкой перехода.
func (o *Orchestrator) setStepStatus(code string, to domain.StepStatus) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	from := o.statuses[code]
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s → %s for step %s", ErrInvalidTransition, from, to, code)
	}
	o.statuses[code] = to
	return nil
}

// finishRun переводит прогон в финальный статус.
func (o *Orchestrator) finishRun(runID uuid.UUID, status domain.RunStatus, errMsg string) {
	o.mu.Lock()
	o.runStatus = status
	o.runErr = errMsg
	o.finishedAt = o.now()
	o.running = false
	o.cancel = nil
	o.mu.Unlock()

	logType := domain.LogSuccess
	if status != domain.RunStatusSucceeded {
		logType = domain.LogError
	}
	summary := fmt.Sprintf("run %s", status)
	if errMsg != "" {
		summary += ": " + errMsg
	}
	o.Append(domain.LogEntry{
		Actor:    domain.RoleSystem,
		StepCode: "RUN",
		Summary:  summary,
		Type:     logType,
	})

	telemetry.WorkflowRuns.WithLabelValues(string(status)).Inc()
	o.logger.Info("run finished", "run_id", runID, "status", status, "error", errMsg)

	if o.notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		o.notifier.RunFinished(ctx, runID.String(), status, errMsg)
		cancel()
	}
	o.archiveRun(runID)
}

// archiveRun сохраняет снимок завершённого прогона, если архив настроен.
func (o *Orchestrator) archiveRun(runID uuid.UUID) {
	if o.archiver == nil {
		return
	}

	o.mu.RLock()
	snap := RunSnapshot{
		ID:         runID,
		Status:     o.runStatus,
		Error:      o.runErr,
		StartedAt:  o.startedAt,
		FinishedAt: o.finishedAt,
		Context:    o.context.Snapshot(),
		Statuses:   make(map[string]domain.StepStatus, len(o.statuses)),
		Logs:       make([]domain.LogEntry, len(o.logs)),
	}
	for code, st := range o.statuses {
		snap.Statuses[code] = st
	}
	copy(snap.Logs, o.logs)
	o.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := o.archiver.SaveRun(ctx, snap); err != nil {
		o.logger.Error("failed to archive run", "run_id", runID, "error", err)
	}
}

// notifyStep отправляет событие о завершении шага, если издатель настроен.
func (o *Orchestrator) notifyStep(code string, status domain.StepStatus) {
	if o.notifier == nil {
		return
	}

	o.mu.RLock()
	runID := o.runID.String()
	o.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	o.notifier.StepFinished(ctx, runID, code, status)
}

// Cancel останавливает активный прогон между шагами.
// Текущий запрос к бэкенду прерывается через context.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running || o.cancel == nil {
		return ErrNotRunning
	}
	o.cancel()
	return nil
}

// Reset возвращает прогон в исходное состояние.
//
// При keepUsers сбрасываются только идентификаторы, статусы и журнал;
// сессии сохраняются. Полный reset дополнительно очищает
// транзакционное состояние бэкенда и выполняет bootstrap заново.
func (o *Orchestrator) Reset(ctx context.Context, keepUsers bool) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return ErrRunInProgress
	}

	o.runID = uuid.Nil
	o.runStatus = ""
	o.runErr = ""
	o.logs = nil
	o.startedAt = time.Time{}
	o.finishedAt = time.Time{}
	for _, code := range o.registry.Codes() {
		o.statuses[code] = domain.StepStatusPending
	}
	o.mu.Unlock()

	if keepUsers {
		o.context.ResetKeepingUsers()
		o.logger.Info("reset: identifiers cleared, sessions kept")
		return nil
	}

	o.context.ResetAll()
	if err := o.gateway.ResetTransactional(ctx); err != nil {
		return fmt.Errorf("reset backend: %w", err)
	}
	if err := o.Bootstrap(ctx); err != nil {
		return err
	}
	o.logger.Info("reset: backend state cleared, sessions rebuilt")
	return nil
}

// hasSessions проверяет наличие сессий всех бизнес-ролей.
// Вызывается под o.mu.
func (o *Orchestrator) hasSessions() bool {
	for _, role := range domain.Roles() {
		if s, ok := o.context.Session(role); !ok || s.Token == "" {
			return false
		}
	}
	return true
}
