package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"yyss-assistant/internal/model"
)

// ArchivePublisher sends finished turns to the archive queue. It keeps one
// channel open and reopens it after a failure.
type ArchivePublisher struct {
	conn      *amqp.Connection
	queueName string

	mu sync.Mutex
	ch *amqp.Channel
}

func NewArchivePublisher(conn *amqp.Connection, queueName string) *ArchivePublisher {
	return &ArchivePublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *ArchivePublisher) Publish(ctx context.Context, turns ...model.ArchivedTurn) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	for _, turn := range turns {
		payload, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("marshal archived turn failed: %w", err)
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
			_ = ch.Close()
			p.ch = nil
			return fmt.Errorf("publish archived turn failed: %w", err)
		}
	}
	return nil
}

func (p *ArchivePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}

func (p *ArchivePublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	if err := DeclareQueue(ch, p.queueName); err != nil {
		_ = ch.Close()
		return nil, err
	}
	p.ch = ch
	return ch, nil
}
