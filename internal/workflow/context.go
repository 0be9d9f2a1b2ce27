package workflow

import (
	"sync"

	"github.com/shaiso/Craneguard/internal/domain"
)

// Values — содержимое общего контекста прогона.
//
// users заполняется на bootstrap, остальные поля — каждое ровно
// одним шагом. Пустая строка означает «ещё не записано».
type Values struct {
	// Users — сессии акторов по ролям.
	Users map[domain.Role]domain.Session `json:"users,omitempty"`

	// Идентификаторы, извлечённые шагами.
	SiteID             string `json:"site_id,omitempty"`
	CraneID            string `json:"crane_id,omitempty"`
	AssignmentID       string `json:"assignment_id,omitempty"`
	DriverAssignmentID string `json:"driver_assignment_id,omitempty"`
	DocRequestID       string `json:"doc_request_id,omitempty"`
	DocItemID          string `json:"doc_item_id,omitempty"`
}

// Identifiers возвращает заполненные идентификаторы шагов.
func (v Values) Identifiers() map[string]string {
	ids := make(map[string]string)
	for key, val := range map[string]string{
		"site_id":              v.SiteID,
		"crane_id":             v.CraneID,
		"assignment_id":        v.AssignmentID,
		"driver_assignment_id": v.DriverAssignmentID,
		"doc_request_id":       v.DocRequestID,
		"doc_item_id":          v.DocItemID,
	} {
		if val != "" {
			ids[key] = val
		}
	}
	return ids
}

// Context — общий изменяемый контекст одного прогона сценария.
//
// Во время прогона контекст только растёт: Merge добавляет и
// перезаписывает, но не удаляет. Уменьшение возможно только
// через явный reset.
type Context struct {
	mu     sync.RWMutex
	values Values
}

// NewContext создаёт пустой контекст.
func NewContext() *Context {
	return &Context{
		values: Values{Users: make(map[domain.Role]domain.Session)},
	}
}

// Snapshot возвращает копию текущих значений.
func (c *Context) Snapshot() Values {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := c.values
	out.Users = make(map[domain.Role]domain.Session, len(c.values.Users))
	for role, s := range c.values.Users {
		out.Users[role] = s
	}
	return out
}

// Session возвращает сессию роли. Реализует gateway.SessionSource.
func (c *Context) Session(role domain.Role) (domain.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.values.Users[role]
	return s, ok
}

// Merge вливает непустые поля partial в контекст.
// Сессии сливаются по ролям, позже пришедшие перезаписывают.
func (c *Context) Merge(partial Values) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for role, s := range partial.Users {
		c.values.Users[role] = s
	}
	if partial.SiteID != "" {
		c.values.SiteID = partial.SiteID
	}
	if partial.CraneID != "" {
		c.values.CraneID = partial.CraneID
	}
	if partial.AssignmentID != "" {
		c.values.AssignmentID = partial.AssignmentID
	}
	if partial.DriverAssignmentID != "" {
		c.values.DriverAssignmentID = partial.DriverAssignmentID
	}
	if partial.DocRequestID != "" {
		c.values.DocRequestID = partial.DocRequestID
	}
	if partial.DocItemID != "" {
		c.values.DocItemID = partial.DocItemID
	}
}

// SetUsers заменяет весь набор сессий (bootstrap/reset).
func (c *Context) SetUsers(users map[domain.Role]domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values.Users = make(map[domain.Role]domain.Session, len(users))
	for role, s := range users {
		c.values.Users[role] = s
	}
}

// ResetAll очищает контекст полностью, включая сессии.
func (c *Context) ResetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values = Values{Users: make(map[domain.Role]domain.Session)}
}

// ResetKeepingUsers очищает идентификаторы шагов, сохраняя сессии.
func (c *Context) ResetKeepingUsers() {
	c.mu.Lock()
	defer c.mu.Unlock()

	users := c.values.Users
	c.values = Values{Users: users}
}
