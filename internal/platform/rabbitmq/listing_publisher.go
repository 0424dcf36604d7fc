package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"studykwork/internal/model"
)

type ListingEventPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewListingEventPublisher(conn *amqp.Connection, queueName string) *ListingEventPublisher {
	return &ListingEventPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *ListingEventPublisher) Publish(ctx context.Context, event model.ListingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal listing event failed: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish listing event failed: %w", err)
	}
	return nil
}
