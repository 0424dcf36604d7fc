package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"studykwork/internal/model"
	"studykwork/internal/platform/rabbitmq"
	"studykwork/internal/storage"
)

var errUndecodable = errors.New("undecodable listing event")

type ImageRemover interface {
	Remove(url string) error
}

// ImageCleanupWorker consumes listing events and deletes uploaded files of removed listings.
type ImageCleanupWorker struct {
	conn      *amqp.Connection
	images    ImageRemover
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewImageCleanupWorker(conn *amqp.Connection, images ImageRemover, queueName string) *ImageCleanupWorker {
	return &ImageCleanupWorker{
		conn:      conn,
		images:    images,
		queueName: queueName,
	}
}

func (w *ImageCleanupWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	if err := rabbitmq.DeclareQueue(w.conn, w.queueName); err != nil {
		return err
	}

	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
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
		return fmt.Errorf("consume queue failed: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

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
					return
				}
				if err := w.Handle(workerCtx, d.Body); err != nil {
					slog.ErrorContext(workerCtx, "image cleanup failed", "error", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	slog.Info("image cleanup worker started", "queue", w.queueName)
	return nil
}

// Handle processes one event payload. Only listing.deleted events remove files,
// and only files served from the local upload dir.
func (w *ImageCleanupWorker) Handle(ctx context.Context, body []byte) error {
	var event model.ListingEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", errUndecodable, err)
	}
	if event.Type != model.ListingEventDeleted {
		return nil
	}

	var errs []error
	removed := 0
	for _, url := range event.ImageURLs {
		if !strings.HasPrefix(url, storage.URLPrefix) {
			continue
		}
		if err := w.images.Remove(url); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	slog.InfoContext(ctx, "listing images cleaned up", "listing_id", event.ListingID, "removed", removed)
	return errors.Join(errs...)
}

func (w *ImageCleanupWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
