// Package queue wraps the RabbitMQ click-event pipeline shared by the API
// service (producer) and the analytics worker (consumer).
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"github.com/shortlyhq/shortly/internal"
)

const consumerPrefetch = 100

type ClickQueue struct {
	conn *amqp091.Connection
	ch   *amqp091.Channel
	name string
}

func Dial(url, queueName string) (*ClickQueue, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queueName, err)
	}
	return &ClickQueue{conn: conn, ch: ch, name: queueName}, nil
}

func (q *ClickQueue) Close() {
	q.ch.Close()
	q.conn.Close()
}

func (q *ClickQueue) PublishClick(ctx context.Context, event internal.ClickEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal click event: %w", err)
	}
	return q.ch.PublishWithContext(ctx,
		"", q.name, false, false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Consume registers a manual-ack consumer with a bounded prefetch.
func (q *ClickQueue) Consume() (<-chan amqp091.Delivery, error) {
	if err := q.ch.Qos(consumerPrefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	msgs, err := q.ch.Consume(q.name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("register consumer: %w", err)
	}
	return msgs, nil
}
