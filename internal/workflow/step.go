package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Craneguard/internal/domain"
	"github.com/shaiso/Craneguard/internal/gateway"
)

// Request — входные данные для функции шага.
//
// Context — снимок общего контекста на момент запуска шага;
// результат шага оркестратор вливает обратно через Context.Merge.
type Request struct {
	// Context — снимок общего контекста.
	Context Values

	// Gateway — транспортный адаптер к бэкенду.
	Gateway *gateway.Gateway

	// Recorder — журнал прогона (опционально).
	Recorder domain.Recorder

	// Now — «сегодня» для вычисления окон дат.
	// Оркестратор передаёт time.Now(), тесты — фиксированное время.
	Now time.Time
}

// Func — функция одного шага сценария.
//
// Возвращает фрагмент контекста, который шаг производит;
// пустой фрагмент допустим для шагов без извлекаемых данных.
type Func func(ctx context.Context, req *Request) (Values, error)

// session возвращает сессию требуемого актора или ошибку предусловия.
func (r *Request) session(role domain.Role) (domain.Session, error) {
	s, ok := r.Context.Users[role]
	if !ok || s.Token == "" {
		return domain.Session{}, fmt.Errorf("%w: %s", ErrMissingSession, role)
	}
	return s, nil
}

// require проверяет, что идентификатор предыдущего шага заполнен.
func require(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", ErrMissingInput, name)
	}
	return nil
}

// log добавляет запись в журнал, если приёмник задан.
func (r *Request) log(entry domain.LogEntry) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.Append(entry)
}

// dateWindow возвращает окно дат создаваемых сущностей:
// начало через 30 дней от «сегодня», конец через 90 дней от начала.
// Даты в будущем исключают пересечение с уже существующими
// assignment'ами тестовой базы.
func dateWindow(now time.Time) (start, end string) {
	s := now.AddDate(0, 0, 30)
	e := s.AddDate(0, 0, 90)
	return s.UTC().Format(dateLayout), e.UTC().Format(dateLayout)
}

// dateLayout — формат дат бэкенда (ISO, только дата).
const dateLayout = "2006-01-02"
