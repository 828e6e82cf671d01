package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeFlowcells Exchange = "scauto.flowcells"
	ExchangeSamples   Exchange = "scauto.samples"
	ExchangeDLQ       Exchange = "scauto.dlq"
)

// Queues — имена очередей.
const (
	QueueFlowcellsPending   Queue = "flowcells.pending"
	QueueFlowcellsCompleted Queue = "flowcells.completed"
	QueueSamplesCompleted   Queue = "samples.completed"
	QueueDLQFlowcells       Queue = "dlq.flowcells"
)

// Routing keys.
const (
	RoutingKeyPending      RoutingKey = "pending"
	RoutingKeyCompleted    RoutingKey = "completed"
	RoutingKeyDLQFlowcells RoutingKey = "flowcells"
)

// SetupTopology объявляет exchanges, queues и bindings.
// Операция идемпотентна: повторный вызов с теми же параметрами ничего не меняет.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

func declareExchanges(ch *amqp.Channel) error {
	for _, ex := range []Exchange{ExchangeFlowcells, ExchangeSamples, ExchangeDLQ} {
		err := ch.ExchangeDeclare(
			string(ex), // name
			"direct",   // type
			true,       // durable
			false,      // auto-deleted
			false,      // internal
			false,      // no-wait
			nil,        // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// flowcells.pending уходит в DLQ, если обработка отклонена без requeue
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQFlowcells),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		{QueueFlowcellsPending, dlqArgs},
		{QueueFlowcellsCompleted, nil},
		{QueueSamplesCompleted, nil},
		{QueueDLQFlowcells, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	for _, b := range bindings() {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

type binding struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

func bindings() []binding {
	return []binding{
		{QueueFlowcellsPending, RoutingKeyPending, ExchangeFlowcells},
		{QueueFlowcellsCompleted, RoutingKeyCompleted, ExchangeFlowcells},
		{QueueSamplesCompleted, RoutingKeyCompleted, ExchangeSamples},
		{QueueDLQFlowcells, RoutingKeyDLQFlowcells, ExchangeDLQ},
	}
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  scauto RabbitMQ Topology:

    scauto.flowcells (direct)
    ├── flowcells.pending [routing: pending]
    │       Consumer: Orchestrator daemon
    │       DLQ: dlq.flowcells
    └── flowcells.completed [routing: completed]
            Consumer: external

    scauto.samples (direct)
    └── samples.completed [routing: completed]
            Consumer: external

    scauto.dlq (direct)
    └── dlq.flowcells [routing: flowcells]
            Manual processing
  `
}
