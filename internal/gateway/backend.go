package gateway

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shaiso/Craneguard/internal/domain"
)

// --- Auth и служебные операции ---

// loginResponse — ответ POST /auth/login.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID    string   `json:"id"`
		Email string   `json:"email"`
		Name  string   `json:"name"`
		Roles []string `json:"roles"`
		OrgID string   `json:"org_id"`
	} `json:"user"`
}

// Login аутентифицирует пользователя и возвращает сессию.
// В dev-режиме бэкенд назначает роли по префиксу email и
// не проверяет пароль.
func (g *Gateway) Login(ctx context.Context, email, password string) (domain.Session, error) {
	res, err := g.Post(ctx, domain.RoleSystem, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return domain.Session{}, err
	}

	var resp loginResponse
	if err := res.Decode(&resp); err != nil {
		return domain.Session{}, err
	}
	if resp.AccessToken == "" || resp.User.ID == "" {
		return domain.Session{}, fmt.Errorf("%w: login response has no token or user", ErrUnexpectedResponse)
	}

	return domain.Session{
		ID:    resp.User.ID,
		Token: resp.AccessToken,
		OrgID: resp.User.OrgID,
		Email: resp.User.Email,
		Name:  resp.User.Name,
	}, nil
}

// SessionsByRole возвращает подготовленные сервером сессии по ролям
// (GET /users/by-role). Используется как основной путь bootstrap;
// при отсутствии endpoint'а оркестратор переходит на dev-login.
func (g *Gateway) SessionsByRole(ctx context.Context) (map[domain.Role]domain.Session, error) {
	res, err := g.Get(ctx, domain.RoleSystem, "/users/by-role")
	if err != nil {
		return nil, err
	}

	var sessions map[domain.Role]domain.Session
	if err := res.Decode(&sessions); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("%w: empty role lookup", ErrUnexpectedResponse)
	}
	return sessions, nil
}

// ResetTransactional сбрасывает транзакционное состояние бэкенда
// (POST /health/reset-transactional). Часть полного reset сценария.
func (g *Gateway) ResetTransactional(ctx context.Context) error {
	_, err := g.Post(ctx, domain.RoleSystem, "/health/reset-transactional", nil)
	return err
}

// --- Каталог: простые списки для страниц консоли ---

// Owner — владелец кранов со статистикой (/owners/with-stats).
type Owner struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TotalCranes     int    `json:"total_cranes"`
	AvailableCranes int    `json:"available_cranes"`
}

// Crane — кран владельца.
type Crane struct {
	ID        string `json:"id"`
	ModelName string `json:"model_name"`
	SerialNo  string `json:"serial_no"`
	Status    string `json:"status"`
}

// DeployRequest — входящий запрос на размещение крана.
type DeployRequest struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	RequesterID     string `json:"requester_id"`
	TargetEntityID  string `json:"target_entity_id"`
	RelatedEntityID string `json:"related_entity_id"`
}

// CraneModel — модель крана из каталога.
type CraneModel struct {
	ID                     string   `json:"id"`
	ModelName              string   `json:"model_name"`
	MaxLiftingCapacityTonM *float64 `json:"max_lifting_capacity_ton_m,omitempty"`
	MaxWorkingHeightM      *float64 `json:"max_working_height_m,omitempty"`
	MaxWorkingRadiusM      *float64 `json:"max_working_radius_m,omitempty"`
}

// ListOwners возвращает владельцев со статистикой кранов.
func (g *Gateway) ListOwners(ctx context.Context) ([]Owner, error) {
	res, err := g.Get(ctx, domain.RoleSystem, "/owners/with-stats")
	if err != nil {
		return nil, err
	}

	var owners []Owner
	if err := res.Decode(&owners); err != nil {
		return nil, err
	}
	return owners, nil
}

// ListCranes возвращает краны владельца, опционально по статусу.
func (g *Gateway) ListCranes(ctx context.Context, ownerID, status string) ([]Crane, error) {
	path := "/owners/" + url.PathEscape(ownerID) + "/cranes"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	res, err := g.Get(ctx, domain.RoleSystem, path)
	if err != nil {
		return nil, err
	}

	var cranes []Crane
	if err := res.Decode(&cranes); err != nil {
		return nil, err
	}
	return cranes, nil
}

// ListDeployRequests возвращает запросы размещения для владельца.
// Требует сессию OWNER.
func (g *Gateway) ListDeployRequests(ctx context.Context, status string) ([]DeployRequest, error) {
	path := "/owners/me/requests?type=CRANE_DEPLOY"
	if status != "" {
		path += "&status=" + url.QueryEscape(status)
	}

	res, err := g.Get(ctx, domain.RoleOwner, path)
	if err != nil {
		return nil, err
	}

	var requests []DeployRequest
	if err := res.Decode(&requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// RespondDeployRequest отвечает на запрос размещения от имени владельца.
func (g *Gateway) RespondDeployRequest(ctx context.Context, requestID string, approve bool, notes string) error {
	owner, ok := g.sessions.Session(domain.RoleOwner)
	if !ok {
		return fmt.Errorf("%w: no token for actor %s", ErrMissingCredentials, domain.RoleOwner)
	}

	status := "REJECTED"
	if approve {
		status = "APPROVED"
	}

	_, err := g.Post(ctx, domain.RoleOwner, "/requests/"+url.PathEscape(requestID)+"/respond", map[string]any{
		"status":      status,
		"approver_id": owner.ID,
		"notes":       notes,
	})
	return err
}

// ListCraneModels возвращает каталог моделей кранов.
func (g *Gateway) ListCraneModels(ctx context.Context) ([]CraneModel, error) {
	res, err := g.Get(ctx, domain.RoleSystem, "/catalog/crane-models")
	if err != nil {
		return nil, err
	}

	var models []CraneModel
	if err := res.Decode(&models); err != nil {
		return nil, err
	}
	return models, nil
}
