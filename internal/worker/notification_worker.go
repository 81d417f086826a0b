// Package worker consumes queued notifications and delivers them by e-mail.
package worker

import (
	"context"
	"errors"
	"time"

	"pennywise/internal/amqp"
	"pennywise/internal/log"
)

// Sender delivers one rendered notification.
type Sender interface {
	SendNotification(msg *amqp.NotificationMessage) error
}

// Consumer is the broker surface the worker drives.
type Consumer interface {
	ConsumeNotifications(ctx context.Context, prefetch int, handler func(*amqp.NotificationMessage) error) error
	Reconnect(ctx context.Context) error
}

type NotificationWorker struct {
	consumer  Consumer
	sender    Sender
	logger    *log.Logger
	prefetch  int
	retryWait time.Duration
}

func NewNotificationWorker(consumer Consumer, sender Sender, logger *log.Logger, prefetch int, retryWait time.Duration) *NotificationWorker {
	return &NotificationWorker{
		consumer:  consumer,
		sender:    sender,
		logger:    logger.WithComponent(log.ComponentWorker),
		prefetch:  prefetch,
		retryWait: retryWait,
	}
}

// Run consumes until the context is cancelled, reconnecting to the broker
// when the consume loop drops.
func (w *NotificationWorker) Run(ctx context.Context) error {
	for {
		err := w.consumer.ConsumeNotifications(ctx, w.prefetch, w.Handle)
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return err
		}

		w.logger.WarnContext(ctx, "Consume loop ended, reconnecting",
			log.FieldError, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.retryWait):
		}

		if err := w.consumer.Reconnect(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.ErrorContext(ctx, "Reconnect failed", log.FieldError, err)
		}
	}
}

// Handle delivers a single notification. Without a configured sender the
// message is dropped after logging, so queues drain in mail-less setups.
func (w *NotificationWorker) Handle(msg *amqp.NotificationMessage) error {
	if w.sender == nil {
		w.logger.Warn("No mail sender configured, dropping notification",
			log.FieldEvent, msg.Event,
			log.FieldRecipient, msg.Recipient)
		return nil
	}
	return w.sender.SendNotification(msg)
}
