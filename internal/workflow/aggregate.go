package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shaiso/Craneguard/internal/domain"
)

// requiredIdentifiers — идентификаторы, которые успешный прогон
// обязан собрать до шага агрегации.
var requiredIdentifiers = []string{
	"site_id",
	"crane_id",
	"assignment_id",
	"driver_assignment_id",
	"doc_request_id",
	"doc_item_id",
}

// AggregateSnapshot — шаг F1: итоговая сверка прогона.
//
// Проверяет, что каждый из шести идентификаторов записан ровно
// один раз, и фиксирует итоговый снимок в журнале. Сетевых
// вызовов не делает.
func AggregateSnapshot(ctx context.Context, req *Request) (Values, error) {
	ids := req.Context.Identifiers()

	var missing []string
	for _, name := range requiredIdentifiers {
		if ids[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Values{}, fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}

	extracted := make(map[string]any, len(ids))
	for name, val := range ids {
		extracted[name] = val
	}

	req.log(domain.LogEntry{
		Actor:     domain.RoleSystem,
		StepCode:  "F1",
		Summary:   "workflow snapshot complete: all identifiers collected",
		Type:      domain.LogSuccess,
		Extracted: extracted,
	})

	return Values{}, nil
}
