package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/scauto/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeFlowcellPending   MessageType = "flowcell.pending"
	MessageTypeFlowcellCompleted MessageType = "flowcell.completed"
	MessageTypeSampleCompleted   MessageType = "sample.completed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — конверт сообщения.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage заворачивает payload в конверт с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// FlowcellPendingPayload — запрос на обработку flowcell.
type FlowcellPendingPayload struct {
	Flowcell string `json:"flowcell"`

	// RunSheet — путь к run sheet; пустой означает <run_sheet_dir>/<flowcell>-run_sheet.csv.
	RunSheet string `json:"run_sheet,omitempty"`
}

// FlowcellCompletedPayload — итог обработки flowcell.
type FlowcellCompletedPayload struct {
	RunID            uuid.UUID             `json:"run_id"`
	Flowcell         string                `json:"flowcell"`
	Status           domain.FlowcellStatus `json:"status"`
	Samples          int                   `json:"samples"`
	Processed        int                   `json:"processed"`
	Failed           int                   `json:"failed"`
	Skipped          int                   `json:"skipped"`
	Annotated        int                   `json:"annotated"`
	AnnotationFailed int                   `json:"annotation_failed"`
	DurationSeconds  float64               `json:"duration_seconds"`
	Error            string                `json:"error,omitempty"`
}

// SampleCompletedPayload — финальный статус одного образца.
type SampleCompletedPayload struct {
	RunID      uuid.UUID           `json:"run_id"`
	Flowcell   string              `json:"flowcell"`
	SampleID   string              `json:"sample_id"`
	Chemistry  domain.Chemistry    `json:"chemistry"`
	Status     domain.SampleStatus `json:"status"`
	ExitCode   *int                `json:"exit_code,omitempty"`
	RemotePath string              `json:"remote_path,omitempty"`
	Annotated  *bool               `json:"annotated,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishFlowcellPending ставит flowcell в очередь на обработку.
// Потребитель: orchestrator daemon.
func (p *Publisher) PublishFlowcellPending(ctx context.Context, flowcell, runSheet string) error {
	msg := NewMessage(MessageTypeFlowcellPending, FlowcellPendingPayload{
		Flowcell: flowcell,
		RunSheet: runSheet,
	})
	return p.Publish(ctx, ExchangeFlowcells, RoutingKeyPending, msg)
}
