package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Craneguard/internal/domain"
)

// Топология: один topic-exchange, аудиторская очередь на все события.
const (
	// ExchangeEvents — topic-exchange событий прогона.
	ExchangeEvents = "craneguard.events"

	// QueueAudit — очередь аудита, получает все события.
	QueueAudit = "craneguard.audit"

	// Routing keys.
	routingStepFinished = "step.finished"
	routingRunFinished  = "run.finished"
)

// Event — конверт публикуемого события.
type Event struct {
	// ID — уникальный идентификатор события.
	ID string `json:"id"`

	// Kind — routing key события.
	Kind string `json:"kind"`

	// RunID — идентификатор прогона.
	RunID string `json:"run_id"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// StepFinishedPayload — payload события о завершении шага.
type StepFinishedPayload struct {
	Code   string            `json:"code"`
	Status domain.StepStatus `json:"status"`
}

// RunFinishedPayload — payload события о завершении прогона.
type RunFinishedPayload struct {
	Status domain.RunStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

// Publisher публикует события прогона.
// Реализует orchestrator.Notifier; ошибки публикации логируются
// и не возвращаются наружу.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher и объявляет топологию.
func NewPublisher(conn *Connection, logger *slog.Logger) (*Publisher, error) {
	if err := declareTopology(conn); err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, logger: logger}, nil
}

// declareTopology объявляет exchange и аудиторскую очередь.
func declareTopology(conn *Connection) error {
	return conn.WithChannel(func(ch *amqp.Channel) error {
		if err := ch.ExchangeDeclare(
			ExchangeEvents,
			"topic",
			true,  // durable
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeEvents, err)
		}

		if _, err := ch.QueueDeclare(
			QueueAudit,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueAudit, err)
		}

		if err := ch.QueueBind(QueueAudit, "#", ExchangeEvents, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", QueueAudit, err)
		}
		return nil
	})
}

// StepFinished публикует событие о завершении шага.
func (p *Publisher) StepFinished(ctx context.Context, runID, code string, status domain.StepStatus) {
	p.publish(ctx, routingStepFinished, runID, StepFinishedPayload{
		Code:   code,
		Status: status,
	})
}

// RunFinished публикует событие о завершении прогона.
func (p *Publisher) RunFinished(ctx context.Context, runID string, status domain.RunStatus, errMsg string) {
	p.publish(ctx, routingRunFinished, runID, RunFinishedPayload{
		Status: status,
		Error:  errMsg,
	})
}

// publish сериализует и отправляет событие. Best-effort.
func (p *Publisher) publish(ctx context.Context, kind, runID string, payload any) {
	event := Event{
		ID:        uuid.New().String(),
		Kind:      kind,
		RunID:     runID,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", "kind", kind, "error", err)
		return
	}

	err = p.conn.WithChannel(func(ch *amqp.Channel) error {
		return ch.PublishWithContext(
			ctx,
			ExchangeEvents,
			kind,
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    event.ID,
				Timestamp:    event.Timestamp,
				Body:         body,
			},
		)
	})
	if err != nil {
		p.logger.Warn("failed to publish event", "kind", kind, "run_id", runID, "error", err)
		return
	}

	p.logger.Debug("published event", "kind", kind, "run_id", runID, "event_id", event.ID)
}
