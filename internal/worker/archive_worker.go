package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"yyss-assistant/internal/model"
	"yyss-assistant/internal/platform/logger"
	"yyss-assistant/internal/platform/rabbitmq"
)

// TurnStore is where consumed turns end up.
type TurnStore interface {
	Create(ctx context.Context, turn *model.ArchivedTurn) error
}

// ArchiveWorker drains the archive queue into the database.
type ArchiveWorker struct {
	conn      *amqp.Connection
	store     TurnStore
	queueName string
	log       *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewArchiveWorker(conn *amqp.Connection, store TurnStore, queueName string, log *logger.Logger) *ArchiveWorker {
	return &ArchiveWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		log:       log.With("component", "archive_worker", "queue", queueName),
	}
}

func (w *ArchiveWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.log.Warn("delivery channel closed")
					return
				}
				w.process(workerCtx, d.Body, d)
			}
		}
	}()

	return nil
}

// Acknowledger is the part of amqp.Delivery the worker needs.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// process stores one payload; anything that cannot be decoded or stored is
// dropped so a poison message never blocks the queue.
func (w *ArchiveWorker) process(ctx context.Context, body []byte, ack Acknowledger) {
	var turn model.ArchivedTurn
	if err := json.Unmarshal(body, &turn); err != nil {
		w.log.Error("decode archived turn failed", "error", err)
		_ = ack.Nack(false, false)
		return
	}
	turn.ID = 0

	if err := w.store.Create(ctx, &turn); err != nil {
		w.log.Error("persist archived turn failed", "error", err, "session_id", turn.SessionID)
		_ = ack.Nack(false, false)
		return
	}
	_ = ack.Ack(false)
}

func (w *ArchiveWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
