package workflow

import (
	"context"
	"fmt"

	"github.com/shaiso/Craneguard/internal/domain"
)

// RequestDocument — шаг E1: менеджер запрашивает у машиниста документ
// по площадке. Записывает docRequestId.
func RequestDocument(ctx context.Context, req *Request) (Values, error) {
	manager, err := req.session(domain.RoleSafetyManager)
	if err != nil {
		return Values{}, err
	}
	driver, err := req.session(domain.RoleDriver)
	if err != nil {
		return Values{}, err
	}
	if err := require("site_id", req.Context.SiteID); err != nil {
		return Values{}, err
	}

	dueDate := req.Now.AddDate(0, 0, 90).UTC().Format(dateLayout)
	payload := map[string]any{
		"site_id":         req.Context.SiteID,
		"driver_id":       driver.ID,
		"requested_by_id": manager.ID,
		"due_date":        dueDate,
	}

	res, err := req.Gateway.Post(ctx, domain.RoleSafetyManager, "/docs/requests", payload)
	if err != nil {
		return Values{}, err
	}

	var request struct {
		RequestID string `json:"request_id"`
	}
	if err := res.Decode(&request); err != nil {
		return Values{}, err
	}
	if request.RequestID == "" {
		return Values{}, fmt.Errorf("%w: request_id (document request)", ErrMissingField)
	}

	return Values{DocRequestID: request.RequestID}, nil
}

// SubmitDocument — шаг E2: машинист подаёт запрошенный документ.
// Записывает docItemId.
func SubmitDocument(ctx context.Context, req *Request) (Values, error) {
	if _, err := req.session(domain.RoleDriver); err != nil {
		return Values{}, err
	}
	if err := require("doc_request_id", req.Context.DocRequestID); err != nil {
		return Values{}, err
	}

	req.log(domain.LogEntry{
		Actor:    domain.RoleDriver,
		StepCode: "E2",
		Summary:  "submitting document for request " + req.Context.DocRequestID,
		Type:     domain.LogInfo,
	})

	payload := map[string]any{
		"request_id": req.Context.DocRequestID,
		"doc_type":   "Safety Certificate",
		"file_url":   "https://example.com/safety-cert.pdf",
	}

	res, err := req.Gateway.Post(ctx, domain.RoleDriver, "/docs/items/submit", payload)
	if err != nil {
		return Values{}, err
	}

	var item struct {
		ItemID string `json:"item_id"`
	}
	if err := res.Decode(&item); err != nil {
		return Values{}, err
	}
	if item.ItemID == "" {
		return Values{}, fmt.Errorf("%w: item_id (document submit)", ErrMissingField)
	}

	return Values{DocItemID: item.ItemID}, nil
}

// ReviewDocument — шаг E3: менеджер проверяет и одобряет документ.
func ReviewDocument(ctx context.Context, req *Request) (Values, error) {
	manager, err := req.session(domain.RoleSafetyManager)
	if err != nil {
		return Values{}, err
	}
	if err := require("doc_item_id", req.Context.DocItemID); err != nil {
		return Values{}, err
	}

	payload := map[string]any{
		"item_id":     req.Context.DocItemID,
		"reviewer_id": manager.ID,
		"approve":     true,
	}

	if _, err := req.Gateway.Post(ctx, domain.RoleSafetyManager, "/docs/items/review", payload); err != nil {
		return Values{}, err
	}

	return Values{}, nil
}
