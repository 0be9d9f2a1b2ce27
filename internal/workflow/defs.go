package workflow

import "github.com/shaiso/Craneguard/internal/domain"

// definitions — статический упорядоченный список шагов сценария.
//
// dataFlow описывает зависимости для консоли и документации;
// фактические проверки предусловий живут в функциях шагов.
// Список создаётся при загрузке пакета и не изменяется.
var definitions = []domain.StepDefinition{
	{
		Code:        "B1",
		Title:       "Create site",
		Actor:       domain.RoleSafetyManager,
		Description: "Safety manager submits a new construction site with a future work window.",
		DataFlow: domain.DataFlow{
			In:  []string{"users.SAFETY_MANAGER"},
			Out: []string{"site_id"},
		},
		API: &domain.APISpec{
			Method: "POST",
			Path:   "/sites/",
			SampleBody: map[string]any{
				"name":            "E2E Test Site - <timestamp>",
				"address":         "123 Test Street, Test City",
				"start_date":      "<today+30d>",
				"end_date":        "<today+120d>",
				"requested_by_id": "<safety_manager.id>",
			},
		},
	},
	{
		Code:        "B2",
		Title:       "Approve site",
		Actor:       domain.RoleManufacturer,
		Description: "Manufacturer approves the submitted site.",
		DataFlow: domain.DataFlow{
			In:  []string{"site_id", "users.MANUFACTURER"},
			Out: []string{},
		},
		API: &domain.APISpec{
			Method: "POST",
			Path:   "/sites/{site_id}/approve",
			SampleBody: map[string]any{
				"approved_by_id": "<manufacturer.id>",
			},
		},
	},
	{
		Code:        "C1",
		Title:       "List owner cranes",
		Actor:       domain.RoleOwner,
		Description: "Owner lists cranes in NORMAL status; the first one becomes the deployment candidate.",
		DataFlow: domain.DataFlow{
			In:  []string{"users.OWNER"},
			Out: []string{"crane_id"},
		},
		API: &domain.APISpec{
			Method: "GET",
			Path:   "/owners/{org_id}/cranes?status=NORMAL",
		},
	},
	{
		Code:        "C3",
		Title:       "Request crane assignment",
		Actor:       domain.RoleSafetyManager,
		Description: "Safety manager requests deployment of the selected crane to the site. An HTTP 409 is recovered by reusing the existing assignment id.",
		DataFlow: domain.DataFlow{
			In:  []string{"site_id", "crane_id", "users.SAFETY_MANAGER"},
			Out: []string{"assignment_id"},
		},
		API: &domain.APISpec{
			Method: "POST",
			Path:   "/assignments/crane",
			SampleBody: map[string]any{
				"site_id":           "<site_id>",
				"crane_id":          "<crane_id>",
				"safety_manager_id": "<safety_manager.id>",
				"start_date":        "<today+30d>",
				"end_date":          "<today+120d>",
			},
		},
	},
	{
		Code:        "D1",
		Title:       "Assign driver",
		Actor:       domain.RoleOwner,
		Description: "Owner assigns a driver to the crane assignment.",
		DataFlow: domain.DataFlow{
			In:  []string{"assignment_id", "users.OWNER", "users.DRIVER"},
			Out: []string{"driver_assignment_id"},
		},
		API: &domain.APISpec{
			Method: "POST",
			Path:   "/assignments/driver",
			SampleBody: map[string]any{
				"site_crane_id": "<assignment_id>",
				"driver_id":     "<driver.id>",
				"start_date":    "<today+30d>",
				"end_date":      "<today+120d>",
			},
		},
	},
	{
		Code:        "D2",
		Title:       "Record attendance",
		Actor:       domain.RoleDriver,
		Description: "Driver checks in for the first work day of the assignment.",
		DataFlow: domain.DataFlow{
			In:  []string{"driver_assignment_id", "users.DRIVER"},
			Out: []string{},
		},
		API: &domain.APISpec{
			Method: "POST",
			Path:   "/assignments/attendance",
			SampleBody: map[string]any{
				"driver_assignment_id": "<driver_assignment_id>",
				"work_date":            "<today+30d>",
				"check_in_at":          "<today+30d>T08:00:00Z",
				"check_out_at":         "<today+30d>T17:00:00Z",
			},
		},
	},
	{
		Code:        "E1",
		Title:       "Request document",
		Actor:       domain.RoleSafetyManager,
		Description: "Safety manager requests a safety document from the driver.",
		DataFlow: domain.DataFlow{
			In:  []string{"site_id", "users.DRIVER", "users.SAFETY_MANAGER"},
			Out: []string{"doc_request_id"},
		},
		API: &domain.APISpec{
			Method: "POST",
			Path:   "/docs/requests",
			SampleBody: map[string]any{
				"site_id":         "<site_id>",
				"driver_id":       "<driver.id>",
				"requested_by_id": "<safety_manager.id>",
				"due_date":        "<today+90d>",
			},
		},
	},
	{
		Code:        "E2",
		Title:       "Submit document",
		Actor:       domain.RoleDriver,
		Description: "Driver submits the requested safety certificate.",
		DataFlow: domain.DataFlow{
			In:  []string{"doc_request_id", "users.DRIVER"},
			Out: []string{"doc_item_id"},
		},
		API: &domain.APISpec{
			Method: "POST",
			Path:   "/docs/items/submit",
			SampleBody: map[string]any{
				"request_id": "<doc_request_id>",
				"doc_type":   "Safety Certificate",
				"file_url":   "https://example.com/safety-cert.pdf",
			},
		},
	},
	{
		Code:        "E3",
		Title:       "Review document",
		Actor:       domain.RoleSafetyManager,
		Description: "Safety manager reviews and approves the submitted document.",
		DataFlow: domain.DataFlow{
			In:  []string{"doc_item_id", "users.SAFETY_MANAGER"},
			Out: []string{},
		},
		API: &domain.APISpec{
			Method: "POST",
			Path:   "/docs/items/review",
			SampleBody: map[string]any{
				"item_id":     "<doc_item_id>",
				"reviewer_id": "<safety_manager.id>",
				"approve":     true,
			},
		},
	},
	{
		Code:        "F1",
		Title:       "Aggregate snapshot",
		Actor:       domain.RoleSystem,
		Description: "Verifies that every step identifier was collected and records the final snapshot.",
		DataFlow: domain.DataFlow{
			In:  []string{"site_id", "crane_id", "assignment_id", "driver_assignment_id", "doc_request_id", "doc_item_id"},
			Out: []string{},
		},
	},
}
