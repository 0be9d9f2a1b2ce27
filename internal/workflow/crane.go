package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shaiso/Craneguard/internal/domain"
	"github.com/shaiso/Craneguard/internal/gateway"
)

// ListOwnerCranes — шаг C1: владелец просматривает свои доступные краны.
// Первый кран со статусом NORMAL становится кандидатом на размещение;
// пустой список — ошибка сценария, а не пустой успех.
func ListOwnerCranes(ctx context.Context, req *Request) (Values, error) {
	owner, err := req.session(domain.RoleOwner)
	if err != nil {
		return Values{}, err
	}
	if err := require("owner org_id", owner.OrgID); err != nil {
		return Values{}, err
	}

	res, err := req.Gateway.Get(ctx, domain.RoleOwner,
		"/owners/"+owner.OrgID+"/cranes?status=NORMAL")
	if err != nil {
		return Values{}, err
	}

	var cranes []struct {
		ID string `json:"id"`
	}
	if err := res.Decode(&cranes); err != nil {
		return Values{}, err
	}
	if len(cranes) == 0 {
		return Values{}, fmt.Errorf("%w: org %s", ErrNoCranes, owner.OrgID)
	}

	return Values{CraneID: cranes[0].ID}, nil
}

// RequestCraneAssignment — шаг C3: менеджер запрашивает размещение
// крана на площадке. Записывает assignmentId.
//
// 409 — восстановимый исход: предыдущий незавершённый прогон мог
// уже создать assignment, тогда его идентификатор берётся из тела
// конфликта (detail.assignment_id) и шаг считается успешным.
func RequestCraneAssignment(ctx context.Context, req *Request) (Values, error) {
	manager, err := req.session(domain.RoleSafetyManager)
	if err != nil {
		return Values{}, err
	}
	if err := require("site_id", req.Context.SiteID); err != nil {
		return Values{}, err
	}
	if err := require("crane_id", req.Context.CraneID); err != nil {
		return Values{}, err
	}

	start, end := dateWindow(req.Now)
	payload := map[string]any{
		"site_id":           req.Context.SiteID,
		"crane_id":          req.Context.CraneID,
		"safety_manager_id": manager.ID,
		"start_date":        start,
		"end_date":          end,
	}

	res, err := req.Gateway.Post(ctx, domain.RoleSafetyManager, "/assignments/crane", payload)
	if err != nil {
		existing := conflictAssignmentID(err)
		if existing == "" {
			return Values{}, err
		}

		req.log(domain.LogEntry{
			Actor:     domain.RoleSafetyManager,
			StepCode:  "C3",
			Summary:   "assignment already exists, recovered id from 409 conflict",
			Type:      domain.LogInfo,
			Extracted: map[string]any{"assignment_id": existing},
		})
		return Values{AssignmentID: existing}, nil
	}

	var assignment struct {
		AssignmentID string `json:"assignment_id"`
	}
	if err := res.Decode(&assignment); err != nil {
		return Values{}, err
	}
	if assignment.AssignmentID == "" {
		return Values{}, fmt.Errorf("%w: assignment_id (crane assignment)", ErrMissingField)
	}

	return Values{AssignmentID: assignment.AssignmentID}, nil
}

// conflictAssignmentID извлекает идентификатор существующего
// assignment из терминальной 409-ошибки адаптера.
// Возвращает пустую строку, если ошибка не конфликт или тело
// не содержит detail.assignment_id.
func conflictAssignmentID(err error) string {
	var reqErr *gateway.RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != http.StatusConflict {
		return ""
	}

	var body struct {
		Detail struct {
			AssignmentID string `json:"assignment_id"`
		} `json:"detail"`
	}
	if json.Unmarshal(reqErr.Body, &body) != nil {
		return ""
	}
	return body.Detail.AssignmentID
}
