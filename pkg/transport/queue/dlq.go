package queue

import (
	"context"
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/dispatcher"
	"github.com/madbomber/smart-message-sub002/pkg/logger"
	"github.com/madbomber/smart-message-sub002/pkg/message"
)

// DeadLetterRecord is the durable record pushed onto a DLQ list when a
// handler fails for a message originating from this transport.
type DeadLetterRecord struct {
	OriginalPayload  []byte
	Queue            string
	ErrorClass       string
	ErrorMessage     string
	RetryCount       int
	FirstFailureAt   time.Time
	LastFailureAt    time.Time
}

// HandleDeadLetter implements dispatcher.DeadLetterFunc: wire it into
// the shared dispatcher's Config.DeadLetter so handler failures for
// subscriptions bound through this transport land on
// `<dead_letter_prefix>.<queue>`. Per the resolved open question, there
// is no transport-level redelivery — a handler failure is dead-lettered
// on first failure; RetryCount is always 0 here and exists for parity
// with the dead-letter record shape.
func (t *Transport) HandleDeadLetter(ctx context.Context, herr *dispatcher.HandlerError, envelope message.Envelope) {
	if !t.cfg.DeadLetterQueue {
		return
	}

	t.mu.Lock()
	queue, ok := t.handlerQueue[herr.Class+"|"+herr.HandlerID]
	t.mu.Unlock()
	if !ok {
		return
	}

	payload, err := t.codec.Encode(envelope)
	if err != nil {
		logger.L().ErrorContext(ctx, "dead-letter re-encode failed", "queue", queue, "error", err)
		return
	}

	t.pushDeadLetter(ctx, queue, payload, "HandlerError", herr.Error())
}

func (t *Transport) pushDeadLetter(ctx context.Context, queue string, payload []byte, errClass, errMessage string) {
	now := time.Now()
	rec := DeadLetterRecord{
		OriginalPayload: payload,
		Queue:           queue,
		ErrorClass:      errClass,
		ErrorMessage:    errMessage,
		FirstFailureAt:  now,
		LastFailureAt:   now,
	}

	dlqName := t.cfg.DeadLetterPrefix + "." + queue
	data, err := encodeDeadLetter(rec)
	if err != nil {
		logger.L().ErrorContext(ctx, "dead-letter encode failed", "queue", queue, "error", err)
		return
	}

	if _, err := t.base.Broker.LPush(ctx, dlqName, data); err != nil {
		logger.L().ErrorContext(ctx, "dead-letter push failed", "dlq", dlqName, "error", err)
	}
}
