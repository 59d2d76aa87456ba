package notification

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/repairshop/backend/internal/application/notification"
	"go.uber.org/zap"
)

// Sender delivers a message to the client, e.g. over WhatsApp
type Sender interface {
	Send(ctx context.Context, msg notification.Message) error
}

// LogSender writes messages to the log instead of sending them
type LogSender struct {
	Logger *zap.Logger
}

// Send implements Sender
func (s LogSender) Send(_ context.Context, msg notification.Message) error {
	s.Logger.Info("client notification",
		zap.String("kind", string(msg.Kind)),
		zap.String("client_id", msg.ClientID.String()),
		zap.String("invoice_id", msg.InvoiceID.String()),
		zap.String("amount", msg.Amount.String()),
		zap.String("location", msg.LocationName),
	)
	return nil
}

// PaymentTaskHandler returns the asynq handler for TaskTypePayment
func PaymentTaskHandler(sender Sender) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var msg notification.Message
		if err := json.Unmarshal(t.Payload(), &msg); err != nil {
			return errors.Join(err, asynq.SkipRetry)
		}
		return sender.Send(ctx, msg)
	}
}

// Worker consumes the notification queue
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewWorker creates a worker for queue
func NewWorker(redis asynq.RedisClientOpt, queue string, sender Sender, logger *zap.Logger) *Worker {
	if queue == "" {
		queue = DefaultQueue
	}
	srv := asynq.NewServer(redis, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{queue: 1},
		Logger:      logger.Sugar(),
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypePayment, PaymentTaskHandler(sender))
	return &Worker{server: srv, mux: mux, logger: logger}
}

// Run processes tasks until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	w.logger.Info("notification worker started")
	<-ctx.Done()
	w.server.Shutdown()
	w.logger.Info("notification worker stopped")
	return nil
}
