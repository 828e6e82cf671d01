package mq

import "errors"

var (
	// ErrNoChannel — канал AMQP не открыт (соединение ещё не установлено).
	ErrNoChannel = errors.New("no channel available")

	// ErrDeliveriesClosed — брокер закрыл канал доставки.
	ErrDeliveriesClosed = errors.New("deliveries channel closed")

	// ErrReject — обработчик отказывается от сообщения окончательно.
	// Такое сообщение уходит в DLQ, а не обратно в очередь.
	ErrReject = errors.New("message rejected")
)
