package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// StepDefinitionResponse — определение шага из API.
type StepDefinitionResponse struct {
	Code        string   `json:"code"`
	Title       string   `json:"title"`
	Actor       string   `json:"actor"`
	Description string   `json:"description"`
	DataFlow    struct {
		In  []string `json:"in"`
		Out []string `json:"out"`
	} `json:"data_flow"`
}

// StepStateResponse — статус шага из API.
type StepStateResponse struct {
	Code   string `json:"code"`
	Status string `json:"status"`
}

// UserResponse — сессия актора из API (без токена).
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	OrgID string `json:"org_id,omitempty"`
}

// StateResponse — состояние прогона из API.
type StateResponse struct {
	RunID      string              `json:"run_id,omitempty"`
	Status     string              `json:"status,omitempty"`
	Running    bool                `json:"running"`
	Error      string              `json:"error,omitempty"`
	StartedAt  string              `json:"started_at,omitempty"`
	FinishedAt string              `json:"finished_at,omitempty"`
	Steps      []StepStateResponse `json:"steps"`
	Context    struct {
		Users       map[string]UserResponse `json:"users"`
		Identifiers map[string]string       `json:"identifiers"`
	} `json:"context"`
}

// LogEntryResponse — запись журнала из API.
type LogEntryResponse struct {
	Time      string         `json:"time"`
	Actor     string         `json:"actor"`
	StepCode  string         `json:"step_code"`
	Summary   string         `json:"summary"`
	Type      string         `json:"type"`
	Extracted map[string]any `json:"extracted,omitempty"`
	Forwarded map[string]any `json:"forwarded,omitempty"`
}

// LogsResponse — порция журнала из API.
type LogsResponse struct {
	Entries    []LogEntryResponse `json:"entries"`
	NextOffset int                `json:"next_offset"`
}

// RunRecordResponse — строка архива прогонов из API.
type RunRecordResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

// OwnerResponse — владелец кранов из каталога.
type OwnerResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TotalCranes     int    `json:"total_cranes"`
	AvailableCranes int    `json:"available_cranes"`
}

// CraneResponse — кран владельца из каталога.
type CraneResponse struct {
	ID        string `json:"id"`
	ModelName string `json:"model_name"`
	SerialNo  string `json:"serial_no"`
	Status    string `json:"status"`
}

// CraneModelResponse — модель крана из каталога.
type CraneModelResponse struct {
	ID                     string   `json:"id"`
	ModelName              string   `json:"model_name"`
	MaxLiftingCapacityTonM *float64 `json:"max_lifting_capacity_ton_m,omitempty"`
	MaxWorkingHeightM      *float64 `json:"max_working_height_m,omitempty"`
	MaxWorkingRadiusM      *float64 `json:"max_working_radius_m,omitempty"`
}

// DeployRequestResponse — запрос размещения крана из каталога.
type DeployRequestResponse struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	RequesterID     string `json:"requester_id"`
	TargetEntityID  string `json:"target_entity_id"`
	RelatedEntityID string `json:"related_entity_id"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для API консоли.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API консоли.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Workflow ---

// Definition возвращает определение сценария.
func (c *Client) Definition() ([]StepDefinitionResponse, error) {
	var defs []StepDefinitionResponse
	err := c.get("/api/v1/workflow/definition", &defs)
	return defs, err
}

// State возвращает состояние текущего прогона.
func (c *Client) State() (*StateResponse, error) {
	var st StateResponse
	err := c.get("/api/v1/workflow/state", &st)
	return &st, err
}

// Logs возвращает записи журнала начиная с offset.
func (c *Client) Logs(offset int) (*LogsResponse, error) {
	var logs LogsResponse
	err := c.get("/api/v1/workflow/logs?offset="+strconv.Itoa(offset), &logs)
	return &logs, err
}

// Bootstrap подготавливает сессии акторов.
func (c *Client) Bootstrap() (*StateResponse, error) {
	var st StateResponse
	err := c.post("/api/v1/workflow/bootstrap", nil, &st)
	return &st, err
}

// StartRun запускает полный прогон. Возвращает id прогона.
func (c *Client) StartRun() (string, error) {
	var resp struct {
		RunID string `json:"run_id"`
	}
	if err := c.post("/api/v1/workflow/run", nil, &resp); err != nil {
		return "", err
	}
	return resp.RunID, nil
}

// RunStep запускает один шаг.
func (c *Client) RunStep(code string) error {
	return c.post("/api/v1/workflow/steps/"+url.PathEscape(code)+"/run", nil, nil)
}

// Reset сбрасывает состояние прогона.
func (c *Client) Reset(keepUsers bool) error {
	return c.post("/api/v1/workflow/reset", map[string]bool{"keep_users": keepUsers}, nil)
}

// Cancel отменяет активный прогон.
func (c *Client) Cancel() error {
	return c.post("/api/v1/workflow/cancel", nil, nil)
}

// ListRuns возвращает историю прогонов из архива.
func (c *Client) ListRuns(limit int) ([]RunRecordResponse, error) {
	path := "/api/v1/workflow/runs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var records []RunRecordResponse
	err := c.get(path, &records)
	return records, err
}

// RunLogs возвращает журнал архивированного прогона.
func (c *Client) RunLogs(id string) ([]LogEntryResponse, error) {
	var logs []LogEntryResponse
	err := c.get("/api/v1/workflow/runs/"+url.PathEscape(id)+"/logs", &logs)
	return logs, err
}

// --- Catalog ---

// ListOwners возвращает владельцев со статистикой кранов.
func (c *Client) ListOwners() ([]OwnerResponse, error) {
	var owners []OwnerResponse
	err := c.get("/api/v1/catalog/owners", &owners)
	return owners, err
}

// ListCranes возвращает краны владельца.
func (c *Client) ListCranes(ownerID, status string) ([]CraneResponse, error) {
	path := "/api/v1/catalog/owners/" + url.PathEscape(ownerID) + "/cranes"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var cranes []CraneResponse
	err := c.get(path, &cranes)
	return cranes, err
}

// ListCraneModels возвращает каталог моделей кранов.
func (c *Client) ListCraneModels() ([]CraneModelResponse, error) {
	var models []CraneModelResponse
	err := c.get("/api/v1/catalog/crane-models", &models)
	return models, err
}

// ListDeployRequests возвращает запросы размещения для владельца.
func (c *Client) ListDeployRequests(status string) ([]DeployRequestResponse, error) {
	path := "/api/v1/catalog/deploy-requests"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var requests []DeployRequestResponse
	err := c.get(path, &requests)
	return requests, err
}

// RespondDeployRequest отвечает на запрос размещения.
func (c *Client) RespondDeployRequest(id string, approve bool, notes string) error {
	return c.post("/api/v1/catalog/deploy-requests/"+url.PathEscape(id)+"/respond", map[string]any{
		"approve": approve,
		"notes":   notes,
	}, nil)
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
