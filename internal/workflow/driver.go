package workflow

import (
	"context"
	"fmt"

	"github.com/shaiso/Craneguard/internal/domain"
)

// AssignDriver — шаг D1: владелец назначает машиниста на assignment.
// Записывает driverAssignmentId.
func AssignDriver(ctx context.Context, req *Request) (Values, error) {
	if _, err := req.session(domain.RoleOwner); err != nil {
		return Values{}, err
	}
	driver, err := req.session(domain.RoleDriver)
	if err != nil {
		return Values{}, err
	}
	if err := require("assignment_id", req.Context.AssignmentID); err != nil {
		return Values{}, err
	}

	start, end := dateWindow(req.Now)
	payload := map[string]any{
		"site_crane_id": req.Context.AssignmentID,
		"driver_id":     driver.ID,
		"start_date":    start,
		"end_date":      end,
	}

	res, err := req.Gateway.Post(ctx, domain.RoleOwner, "/assignments/driver", payload)
	if err != nil {
		return Values{}, err
	}

	var assignment struct {
		DriverAssignmentID string `json:"driver_assignment_id"`
	}
	if err := res.Decode(&assignment); err != nil {
		return Values{}, err
	}
	if assignment.DriverAssignmentID == "" {
		return Values{}, fmt.Errorf("%w: driver_assignment_id (driver assignment)", ErrMissingField)
	}

	return Values{DriverAssignmentID: assignment.DriverAssignmentID}, nil
}

// RecordAttendance — шаг D2: машинист отмечает явку на первый
// рабочий день assignment'а (08:00–17:00 UTC).
func RecordAttendance(ctx context.Context, req *Request) (Values, error) {
	if _, err := req.session(domain.RoleDriver); err != nil {
		return Values{}, err
	}
	if err := require("driver_assignment_id", req.Context.DriverAssignmentID); err != nil {
		return Values{}, err
	}

	workDate, _ := dateWindow(req.Now)
	payload := map[string]any{
		"driver_assignment_id": req.Context.DriverAssignmentID,
		"work_date":            workDate,
		"check_in_at":          workDate + "T08:00:00Z",
		"check_out_at":         workDate + "T17:00:00Z",
	}

	if _, err := req.Gateway.Post(ctx, domain.RoleDriver, "/assignments/attendance", payload); err != nil {
		return Values{}, err
	}

	return Values{}, nil
}
