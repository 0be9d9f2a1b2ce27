package workflow

import (
	"fmt"

	"github.com/shaiso/Craneguard/internal/domain"
)

// Registry хранит упорядоченный набор шагов сценария:
// определения для консоли и функции для исполнителя.
type Registry struct {
	order []string
	defs  map[string]domain.StepDefinition
	funcs map[string]Func
}

// NewRegistry собирает реестр стандартного сценария развёртывания крана.
func NewRegistry() *Registry {
	r := &Registry{
		defs:  make(map[string]domain.StepDefinition, len(definitions)),
		funcs: make(map[string]Func, len(definitions)),
	}

	impls := map[string]Func{
		"B1": CreateSite,
		"B2": ApproveSite,
		"C1": ListOwnerCranes,
		"C3": RequestCraneAssignment,
		"D1": AssignDriver,
		"D2": RecordAttendance,
		"E1": RequestDocument,
		"E2": SubmitDocument,
		"E3": ReviewDocument,
		"F1": AggregateSnapshot,
	}

	for _, def := range definitions {
		fn, ok := impls[def.Code]
		if !ok {
			panic(fmt.Sprintf("workflow: no implementation for step %s", def.Code))
		}
		r.order = append(r.order, def.Code)
		r.defs[def.Code] = def
		r.funcs[def.Code] = fn
	}
	return r
}

// Codes возвращает коды шагов в порядке исполнения.
func (r *Registry) Codes() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Definitions возвращает определения шагов в порядке исполнения.
func (r *Registry) Definitions() []domain.StepDefinition {
	out := make([]domain.StepDefinition, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.defs[code])
	}
	return out
}

// Definition возвращает определение шага по коду.
func (r *Registry) Definition(code string) (domain.StepDefinition, error) {
	def, ok := r.defs[code]
	if !ok {
		return domain.StepDefinition{}, fmt.Errorf("step %s: %w", code, ErrUnknownStep)
	}
	return def, nil
}

// Func возвращает функцию шага по коду.
func (r *Registry) Func(code string) (Func, error) {
	fn, ok := r.funcs[code]
	if !ok {
		return nil, fmt.Errorf("step %s: %w", code, ErrUnknownStep)
	}
	return fn, nil
}
