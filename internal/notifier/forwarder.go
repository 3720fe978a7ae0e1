package notifier

import (
	"context"
	"errors"
	"log"

	"NinetyDays/internal/model"
)

// ErrQueueFull is returned by Forwarder.Publish when Run has fallen behind.
var ErrQueueFull = errors.New("notification queue full")

// Sender delivers one message, retrying up to maxRetries times.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Forwarder posts ledger events to chat without blocking the ledger.
// DaysAdvanced is too chatty to forward and is dropped.
type Forwarder struct {
	sender  Sender
	queue   chan string
	retries int
}

func NewForwarder(sender Sender, queueSize int) *Forwarder {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Forwarder{sender: sender, queue: make(chan string, queueSize), retries: 3}
}

// Publish queues one message for the events of a ledger operation.
func (f *Forwarder) Publish(events []model.Event, summary model.Summary) error {
	var kept []model.Event
	for _, ev := range events {
		if ev.Kind() == model.KindDaysAdvanced {
			continue
		}
		kept = append(kept, ev)
	}
	if len(kept) == 0 {
		return nil
	}

	select {
	case f.queue <- FormatEvents(kept, summary):
		return nil
	default:
		return ErrQueueFull
	}
}

// Notify queues a free-form message.
func (f *Forwarder) Notify(text string) error {
	select {
	case f.queue <- text:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run sends queued messages until ctx is cancelled.
func (f *Forwarder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n := len(f.queue); n > 0 {
				log.Printf("[WARN] notifier stopping with %d unsent messages", n)
			}
			return
		case msg := <-f.queue:
			if err := f.sender.SendWithRetry(ctx, msg, f.retries); err != nil {
				log.Printf("[ERROR] forward notification: %v", err)
			}
		}
	}
}
