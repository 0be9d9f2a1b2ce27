package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Craneguard/internal/domain"
)

// CreateSite — шаг B1: менеджер по безопасности создаёт площадку.
// Записывает в контекст siteId.
func CreateSite(ctx context.Context, req *Request) (Values, error) {
	manager, err := req.session(domain.RoleSafetyManager)
	if err != nil {
		return Values{}, err
	}

	start, end := dateWindow(req.Now)
	payload := map[string]any{
		"name":            fmt.Sprintf("E2E Test Site - %s", req.Now.UTC().Format(time.RFC3339)),
		"address":         "123 Test Street, Test City",
		"start_date":      start,
		"end_date":        end,
		"requested_by_id": manager.ID,
	}

	res, err := req.Gateway.Post(ctx, domain.RoleSafetyManager, "/sites/", payload)
	if err != nil {
		return Values{}, err
	}

	var site struct {
		ID string `json:"id"`
	}
	if err := res.Decode(&site); err != nil {
		return Values{}, err
	}
	if site.ID == "" {
		return Values{}, fmt.Errorf("%w: id (create site)", ErrMissingField)
	}

	return Values{SiteID: site.ID}, nil
}

// ApproveSite — шаг B2: производитель утверждает площадку.
func ApproveSite(ctx context.Context, req *Request) (Values, error) {
	manufacturer, err := req.session(domain.RoleManufacturer)
	if err != nil {
		return Values{}, err
	}
	if err := require("site_id", req.Context.SiteID); err != nil {
		return Values{}, err
	}

	_, err = req.Gateway.Post(ctx, domain.RoleManufacturer,
		"/sites/"+req.Context.SiteID+"/approve",
		map[string]any{"approved_by_id": manufacturer.ID},
	)
	if err != nil {
		return Values{}, err
	}

	return Values{}, nil
}
