package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает одно сообщение. Судьбу сообщения по ошибке решает Decide.
type Handler func(ctx context.Context, msg *Delivery) error

// Delivery — доставленное сообщение.
type Delivery struct {
	Message Message

	// Redelivered — брокер уже отдавал это сообщение какому-то consumer.
	Redelivered bool
}

// Verdict — как поступить с доставкой после обработки.
type Verdict int

const (
	// VerdictAck — сообщение обработано.
	VerdictAck Verdict = iota

	// VerdictRequeue — вернуть сообщение в очередь.
	VerdictRequeue

	// VerdictReject — отклонить без requeue, сообщение уходит в DLQ очереди.
	VerdictReject
)

func (v Verdict) String() string {
	switch v {
	case VerdictAck:
		return "ack"
	case VerdictRequeue:
		return "requeue"
	default:
		return "reject"
	}
}

// Decide выбирает судьбу сообщения по ошибке обработчика.
//
// Остановка consumer всегда возвращает сообщение в очередь. Прочие ошибки
// дают одну повторную попытку: вторая неудача отправляет сообщение в DLQ.
func Decide(err error, redelivered bool) Verdict {
	switch {
	case err == nil:
		return VerdictAck
	case errors.Is(err, ErrReject):
		return VerdictReject
	case errors.Is(err, context.Canceled):
		return VerdictRequeue
	case redelivered:
		return VerdictReject
	default:
		return VerdictRequeue
	}
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	Queue Queue

	// Tag — consumer tag в management UI (пустой — сгенерирует брокер).
	Tag string

	Handler Handler

	// Prefetch — сколько неподтверждённых сообщений держит consumer (default: 1).
	Prefetch int
}

// Consumer читает очередь и переподписывается после разрыва соединения.
type Consumer struct {
	conn   *Connection
	logger *slog.Logger
	cfg    ConsumerConfig

	cancelFunc context.CancelFunc
}

// NewConsumer создаёт Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}

	return &Consumer{
		conn:   conn,
		logger: logger.With("queue", cfg.Queue),
		cfg:    cfg,
	}
}

// Start читает очередь до отмены ctx или Stop. Возвращает ошибку контекста.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
		} else {
			c.logger.Info("consumer started", "prefetch", c.cfg.Prefetch)
			err = c.drain(ctx, deliveries)
			if ctx.Err() == nil {
				c.logger.Warn("consumer interrupted, waiting for reconnect", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
			c.logger.Info("reconnected, resubscribing")
		}
	}
}

// Stop останавливает consumer. Текущее сообщение дообрабатывается с отменённым ctx.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		string(c.cfg.Queue), // queue
		c.cfg.Tag,           // consumer tag
		false,               // auto-ack
		false,               // exclusive
		false,               // no-local
		false,               // no-wait
		nil,                 // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", c.cfg.Queue, err)
	}
	return deliveries, nil
}

func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.handle(ctx, raw)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, raw amqp.Delivery) {
	logger := c.logger.With("message_id", raw.MessageId)

	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		logger.Error("malformed message", "error", err, "body", string(raw.Body))
		c.settle(raw, VerdictReject, logger)
		return
	}

	logger.Debug("received message", "type", msg.Type, "redelivered", raw.Redelivered)

	err := c.cfg.Handler(ctx, &Delivery{Message: msg, Redelivered: raw.Redelivered})
	verdict := Decide(err, raw.Redelivered)
	if err != nil {
		logger.Error("handler failed",
			"type", msg.Type,
			"verdict", verdict.String(),
			"redelivered", raw.Redelivered,
			"error", err,
		)
	}
	c.settle(raw, verdict, logger)
}

func (c *Consumer) settle(raw amqp.Delivery, verdict Verdict, logger *slog.Logger) {
	var err error
	switch verdict {
	case VerdictAck:
		err = raw.Ack(false)
	case VerdictRequeue:
		err = raw.Nack(false, true)
	default:
		err = raw.Nack(false, false)
	}
	if err != nil {
		logger.Warn("failed to settle delivery", "verdict", verdict.String(), "error", err)
	}
}

// ParsePayload декодирует Payload конверта в T.
// После разбора конверта Payload — map[string]any, поэтому идём через JSON ещё раз.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}
	return result, nil
}
