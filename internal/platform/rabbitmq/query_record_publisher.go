package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"manualhub/internal/model"
)

// QueryRecordPublisher sends answered queries to the persistence queue so the
// request path never waits on MySQL.
type QueryRecordPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewQueryRecordPublisher(conn *amqp.Connection, queueName string) *QueryRecordPublisher {
	return &QueryRecordPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *QueryRecordPublisher) Publish(ctx context.Context, record model.QueryRecord) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal query record payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish query record failed: %w", err)
	}
	return nil
}
