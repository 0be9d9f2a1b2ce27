package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shaiso/Craneguard/internal/domain"
	"github.com/shaiso/Craneguard/internal/telemetry"
)

// Default configuration values.
const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
	defaultHTTPTimeout = 30 * time.Second
)

// SessionSource отдаёт сессию актора для подстановки учётных данных.
// Реализуется workflow-контекстом.
type SessionSource interface {
	Session(role domain.Role) (domain.Session, bool)
}

// Gateway — транспортный адаптер к бэкенду.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	sessions   SessionSource
	recorder   domain.Recorder

	maxAttempts int
	retryDelay  time.Duration

	logger *slog.Logger
}

// Config — конфигурация Gateway.
type Config struct {
	// BaseURL — базовый адрес бэкенда без завершающего слэша,
	// например "http://localhost:8000/api".
	BaseURL string

	// Sessions — источник сессий акторов.
	Sessions SessionSource

	// Recorder — приёмник записей журнала (опционально).
	Recorder domain.Recorder

	// HTTPClient — клиент для запросов (опционально).
	HTTPClient *http.Client

	// MaxAttempts — максимум попыток на вызов (default: 3).
	MaxAttempts int

	// RetryDelay — пауза между попытками (default: 1s).
	RetryDelay time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Gateway.
func New(cfg Config) *Gateway {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		baseURL:     cfg.BaseURL,
		httpClient:  httpClient,
		sessions:    cfg.Sessions,
		recorder:    cfg.Recorder,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		logger:      logger,
	}
}

// Result — ответ бэкенда на успешный вызов.
type Result struct {
	// Status — HTTP-статус (2xx).
	Status int

	// Body — сырое тело ответа.
	Body []byte
}

// Decode разбирает тело ответа в v.
func (r *Result) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}

// Get выполняет GET-запрос от имени актора.
func (g *Gateway) Get(ctx context.Context, actor domain.Role, path string) (*Result, error) {
	return g.Do(ctx, actor, http.MethodGet, path, nil)
}

// Post выполняет POST-запрос от имени актора.
func (g *Gateway) Post(ctx context.Context, actor domain.Role, path string, body any) (*Result, error) {
	return g.Do(ctx, actor, http.MethodPost, path, body)
}

// Do выполняет HTTP-вызов от имени актора с retry.
//
// Для актора, отличного от SYSTEM, в заголовки подставляются
// bearer-токен, X-User-ID и X-Org-ID (пустая строка без организации).
// Отсутствие сессии — ошибка предусловия, без retry.
//
// Повторяется любая неудача, включая 4xx/5xx. После исчерпания
// попыток возвращается *RequestError с числом попыток и последним
// ответом.
func (g *Gateway) Do(ctx context.Context, actor domain.Role, method, path string, body any) (*Result, error) {
	var session domain.Session
	if actor != domain.RoleSystem {
		s, ok := g.sessions.Session(actor)
		if !ok || s.Token == "" {
			err := fmt.Errorf("%w: no token for actor %s", ErrMissingCredentials, actor)
			g.record(domain.LogEntry{
				Actor:    actor,
				StepCode: logStepCode,
				Summary:  err.Error(),
				Type:     domain.LogError,
			})
			return nil, err
		}
		session = s
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		payload = b
	}

	g.record(domain.LogEntry{
		Actor:    actor,
		StepCode: logStepCode,
		Summary:  fmt.Sprintf("=> %s %s", method, path),
		Type:     domain.LogRequest,
	})

	var lastStatus int
	var lastBody []byte
	var lastErr error

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		status, respBody, err := g.attempt(ctx, actor, session, method, path, payload)

		if err == nil && status >= 200 && status < 300 {
			telemetry.GatewayAttempts.WithLabelValues(string(actor), "success").Inc()
			g.record(domain.LogEntry{
				Actor:    actor,
				StepCode: logStepCode,
				Summary:  fmt.Sprintf("<= %d %s", status, path),
				Type:     domain.LogResponse,
			})
			return &Result{Status: status, Body: respBody}, nil
		}

		lastStatus, lastBody, lastErr = status, respBody, err
		telemetry.GatewayAttempts.WithLabelValues(string(actor), "error").Inc()

		summary := fmt.Sprintf("ERROR %d on %s (attempt %d/%d)", status, path, attempt, g.maxAttempts)
		if err != nil {
			summary = fmt.Sprintf("ERROR on %s (attempt %d/%d): %v", path, attempt, g.maxAttempts, err)
		}
		g.record(domain.LogEntry{
			Actor:    actor,
			StepCode: logStepCode,
			Summary:  summary,
			Type:     domain.LogError,
		})

		if attempt == g.maxAttempts {
			break
		}

		telemetry.GatewayRetries.Inc()

		select {
		case <-time.After(g.retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	reqErr := &RequestError{
		Method:   method,
		Path:     path,
		Status:   lastStatus,
		Body:     lastBody,
		Attempts: g.maxAttempts,
		Cause:    lastErr,
	}

	g.logger.Warn("backend call failed",
		"method", method,
		"path", path,
		"status", lastStatus,
		"attempts", g.maxAttempts,
	)

	return nil, reqErr
}

// attempt выполняет одну попытку запроса.
// Возвращает статус 0 при сетевой ошибке.
func (g *Gateway) attempt(ctx context.Context, actor domain.Role, session domain.Session, method, path string, payload []byte) (int, []byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if actor != domain.RoleSystem {
		req.Header.Set("Authorization", "Bearer "+session.Token)
		req.Header.Set("X-User-ID", session.ID)
		// Пустая строка обязательна: бэкенд различает
		// «нет заголовка» и «нет организации».
		req.Header.Set("X-Org-ID", session.OrgID)
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	telemetry.GatewayDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

// logStepCode — код для записей адаптера в журнале.
// Конкретный шаг определяется по соседним записям журнала.
const logStepCode = "API"

// record добавляет запись в журнал, если приёмник задан.
func (g *Gateway) record(entry domain.LogEntry) {
	if g.recorder == nil {
		return
	}
	g.recorder.Append(entry)
}
