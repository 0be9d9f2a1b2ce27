package api

import (
	"time"

	"github.com/shaiso/Craneguard/internal/domain"
	"github.com/shaiso/Craneguard/internal/orchestrator"
	"github.com/shaiso/Craneguard/internal/workflow"
)

// StepDefinitionDTO — определение шага для консоли.
type StepDefinitionDTO struct {
	Code        string          `json:"code"`
	Title       string          `json:"title"`
	Actor       domain.Role     `json:"actor"`
	Description string          `json:"description"`
	DataFlow    domain.DataFlow `json:"data_flow"`
	API         *domain.APISpec `json:"api,omitempty"`
}

// UserDTO — сессия актора без токена.
type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	OrgID string `json:"org_id,omitempty"`
}

// ContextDTO — общий контекст прогона для консоли.
type ContextDTO struct {
	Users       map[domain.Role]UserDTO `json:"users"`
	Identifiers map[string]string       `json:"identifiers"`
}

// StateDTO — состояние прогона для консоли.
type StateDTO struct {
	RunID      string                  `json:"run_id,omitempty"`
	Status     domain.RunStatus        `json:"status,omitempty"`
	Running    bool                    `json:"running"`
	Error      string                  `json:"error,omitempty"`
	StartedAt  *time.Time              `json:"started_at,omitempty"`
	FinishedAt *time.Time              `json:"finished_at,omitempty"`
	Steps      []orchestrator.StepState `json:"steps"`
	Context    ContextDTO              `json:"context"`
}

// LogsDTO — порция журнала с позицией для следующего запроса.
type LogsDTO struct {
	Entries    []domain.LogEntry `json:"entries"`
	NextOffset int               `json:"next_offset"`
}

// toDefinitionDTOs конвертирует определения шагов.
func toDefinitionDTOs(defs []domain.StepDefinition) []StepDefinitionDTO {
	out := make([]StepDefinitionDTO, 0, len(defs))
	for _, def := range defs {
		out = append(out, StepDefinitionDTO{
			Code:        def.Code,
			Title:       def.Title,
			Actor:       def.Actor,
			Description: def.Description,
			DataFlow:    def.DataFlow,
			API:         def.API,
		})
	}
	return out
}

// toContextDTO конвертирует контекст, отбрасывая токены сессий.
func toContextDTO(values workflow.Values) ContextDTO {
	users := make(map[domain.Role]UserDTO, len(values.Users))
	for role, s := range values.Users {
		users[role] = UserDTO{
			ID:    s.ID,
			Email: s.Email,
			Name:  s.Name,
			OrgID: s.OrgID,
		}
	}
	return ContextDTO{
		Users:       users,
		Identifiers: values.Identifiers(),
	}
}

// toStateDTO конвертирует снимок состояния оркестратора.
func toStateDTO(st orchestrator.State) StateDTO {
	dto := StateDTO{
		RunID:   st.RunID,
		Status:  st.Status,
		Running: st.Running,
		Error:   st.Error,
		Steps:   st.Steps,
		Context: toContextDTO(st.Context),
	}
	if !st.StartedAt.IsZero() {
		t := st.StartedAt
		dto.StartedAt = &t
	}
	if !st.FinishedAt.IsZero() {
		t := st.FinishedAt
		dto.FinishedAt = &t
	}
	return dto
}
