// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление сообщений из очередей
//   - notifier.go   — события завершения образцов и flowcell
//
// Типы сообщений:
//   - flowcell.pending    — flowcell готов к обработке (scheduler, API → daemon)
//   - flowcell.completed  — обработка flowcell завершена
//   - sample.completed    — образец получил финальный статус
//
// Exchanges:
//   - scauto.flowcells — события flowcell
//   - scauto.samples   — события образцов
//   - scauto.dlq       — dead letter queue
package mq
