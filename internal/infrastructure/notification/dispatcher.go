// Package notification delivers client notifications through an asynq queue.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/repairshop/backend/internal/application/notification"
	"github.com/repairshop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// TaskTypePayment is the asynq task type for payment notifications
const TaskTypePayment = "notification:payment"

// DefaultQueue is used when the config names no queue
const DefaultQueue = "notifications"

// NewPaymentTask builds the asynq task for msg
func NewPaymentTask(msg notification.Message) (*asynq.Task, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePayment, data), nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqDispatcher enqueues notifications. The task id is the ledger event id, so an event
// delivered twice is enqueued once.
type AsynqDispatcher struct {
	client   enqueuer
	queue    string
	maxRetry int
	logger   *zap.Logger
}

// NewAsynqDispatcher creates a dispatcher on client
func NewAsynqDispatcher(client *asynq.Client, cfg config.NotificationConfig, logger *zap.Logger) *AsynqDispatcher {
	return newAsynqDispatcher(client, cfg, logger)
}

func newAsynqDispatcher(client enqueuer, cfg config.NotificationConfig, logger *zap.Logger) *AsynqDispatcher {
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	return &AsynqDispatcher{client: client, queue: queue, maxRetry: cfg.MaxRetry, logger: logger}
}

// RedisOpt converts the redis config into asynq connection options
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr(), Password: cfg.Password, DB: cfg.DB}
}

// Dispatch implements notification.Dispatcher
func (d *AsynqDispatcher) Dispatch(ctx context.Context, msg notification.Message) error {
	task, err := NewPaymentTask(msg)
	if err != nil {
		return err
	}

	opts := []asynq.Option{asynq.Queue(d.queue), asynq.TaskID(msg.EventID.String())}
	if d.maxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(d.maxRetry))
	}

	info, err := d.client.EnqueueContext(ctx, task, opts...)
	switch {
	case errors.Is(err, asynq.ErrTaskIDConflict):
		d.logger.Debug("notification already enqueued", zap.String("event_id", msg.EventID.String()))
		return nil
	case err != nil:
		return fmt.Errorf("enqueue %s: %w", TaskTypePayment, err)
	}
	d.logger.Debug("notification enqueued",
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
	)
	return nil
}

// LogDispatcher only logs; it stands in when notifications are disabled
type LogDispatcher struct {
	logger *zap.Logger
}

// NewLogDispatcher creates a new LogDispatcher
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Dispatch implements notification.Dispatcher
func (d *LogDispatcher) Dispatch(_ context.Context, msg notification.Message) error {
	d.logger.Info("notification not sent, dispatch disabled",
		zap.String("kind", string(msg.Kind)),
		zap.String("invoice_id", msg.InvoiceID.String()),
	)
	return nil
}

var (
	_ notification.Dispatcher = (*AsynqDispatcher)(nil)
	_ notification.Dispatcher = (*LogDispatcher)(nil)
)
