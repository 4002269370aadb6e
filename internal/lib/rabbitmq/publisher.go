package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/pi-premium/internal/models"
)

// Channel часть *amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage сериализует message в JSON и публикует его в RabbitMQ.
func PublishMessage(ch Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует события платежей. Канал AMQP не потокобезопасен,
// поэтому публикации сериализуются.
type Publisher struct {
	mu      sync.Mutex
	ch      Channel
	closers []io.Closer
}

// NewPublisher создаёт издателя поверх канала. closers закрываются в Close
// в обратном порядке.
func NewPublisher(ch Channel, closers ...io.Closer) *Publisher {
	return &Publisher{ch: ch, closers: closers}
}

// Dial подключается к брокеру, объявляет очереди и возвращает готового издателя.
func Dial(url string, retries int, delay time.Duration) (*Publisher, error) {
	const op = "rabbitmq.Dial"
	conn, err := Connect(url, retries, delay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := SetupChannel(conn, GetPaymentQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewPublisher(ch, conn, ch), nil
}

// PublishPaymentCompleted публикует событие о завершённом платеже.
func (p *Publisher) PublishPaymentCompleted(ctx context.Context, event models.PaymentCompletedEvent) error {
	const op = "rabbitmq.PublishPaymentCompleted"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := PublishMessage(p.ch, PaymentsExchange, PaymentCompletedKey, event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает канал и соединение.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}
