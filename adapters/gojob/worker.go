package gojob

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"

	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
)

type ClassifyService interface {
	ClassifyByID(ctx context.Context, messageID string) (core.ClassificationResult, error)
}

// Worker drains classification jobs and runs them against the service.
type Worker struct {
	dequeuer queue.Dequeuer
	service  ClassifyService
	policy   RetryPolicy
	hook     worker.Hook
	now      func() time.Time

	mu       sync.Mutex
	attempts map[string]int
}

type WorkerOption func(*Worker)

func WithRetryPolicy(policy RetryPolicy) WorkerOption {
	return func(w *Worker) {
		w.policy = policy
	}
}

func WithHook(hook worker.Hook) WorkerOption {
	return func(w *Worker) {
		if hook != nil {
			w.hook = hook
		}
	}
}

func NewWorker(dequeuer queue.Dequeuer, service ClassifyService, opts ...WorkerOption) (*Worker, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is required")
	}
	if service == nil {
		return nil, fmt.Errorf("gojob: classification service is required")
	}
	w := &Worker{
		dequeuer: dequeuer,
		service:  service,
		policy:   DefaultRetryPolicy(),
		hook:     NewLoggingHook(nil),
		now:      time.Now,
		attempts: map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Run processes deliveries until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		delivery, err := w.dequeuer.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := w.Process(ctx, delivery); err != nil && ctx.Err() != nil {
			return nil
		}
	}
}

// Process runs one delivery. Missing messages and malformed jobs are dead
// lettered; other failures are retried with backoff.
func (w *Worker) Process(ctx context.Context, delivery queue.Delivery) error {
	if delivery == nil {
		return fmt.Errorf("gojob: delivery is required")
	}
	msg := delivery.Message()
	key := ""
	if msg != nil {
		key = msg.IdempotencyKey
	}
	attempt := w.nextAttempt(key)
	started := w.now()
	event := worker.Event{Message: msg, Delivery: delivery, Attempt: attempt, StartedAt: started}
	w.hook.OnStart(ctx, event)

	messageID, err := MessageIDFrom(msg)
	if err != nil {
		err = fmt.Errorf("%w: %w", errMalformedJob, err)
	} else {
		_, err = w.service.ClassifyByID(ctx, messageID)
	}
	event.Duration = w.now().Sub(started)

	if err == nil {
		w.forget(key)
		w.hook.OnSuccess(ctx, event)
		return delivery.Ack(ctx)
	}

	event.Err = err
	opts := queue.NackOptions{
		Disposition: queue.NackDispositionRetry,
		Delay:       w.policy.Backoff(attempt),
		Reason:      err.Error(),
	}
	if permanentFailure(err) {
		opts.Disposition = queue.NackDispositionDeadLetter
	}
	opts = w.policy.NormalizeAttempt(opts, attempt)
	event.Delay = opts.Delay
	if opts.Disposition == queue.NackDispositionRetry {
		w.hook.OnRetry(ctx, event)
	} else {
		w.forget(key)
		w.hook.OnFailure(ctx, event)
	}
	if nackErr := delivery.Nack(ctx, opts); nackErr != nil {
		return errors.Join(err, nackErr)
	}
	return err
}

func (w *Worker) nextAttempt(key string) int {
	if key == "" {
		return 1
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts[key]++
	return w.attempts[key]
}

func (w *Worker) forget(key string) {
	if key == "" {
		return
	}
	w.mu.Lock()
	delete(w.attempts, key)
	w.mu.Unlock()
}

var errMalformedJob = errors.New("gojob: malformed classification job")

func permanentFailure(err error) bool {
	return errors.Is(err, errMalformedJob) || errors.Is(err, core.ErrMessageNotFound)
}

// LoggingHook reports worker lifecycle events through glog.
type LoggingHook struct {
	logger glog.Logger
}

func NewLoggingHook(logger glog.Logger) *LoggingHook {
	if logger == nil {
		logger = glog.Nop()
	}
	return &LoggingHook{logger: logger}
}

func (h *LoggingHook) OnStart(ctx context.Context, event worker.Event) {
	h.logger.WithContext(ctx).Debug("classification job started", eventFields(event)...)
}

func (h *LoggingHook) OnSuccess(ctx context.Context, event worker.Event) {
	h.logger.WithContext(ctx).Info("classification job completed", eventFields(event)...)
}

func (h *LoggingHook) OnFailure(ctx context.Context, event worker.Event) {
	h.logger.WithContext(ctx).Error("classification job failed", eventFields(event)...)
}

func (h *LoggingHook) OnRetry(ctx context.Context, event worker.Event) {
	h.logger.WithContext(ctx).Warn("classification job retrying", eventFields(event)...)
}

func eventFields(event worker.Event) []any {
	fields := []any{"attempt", event.Attempt, "duration_ms", event.Duration.Milliseconds()}
	if event.Message != nil {
		fields = append(fields, "job_id", event.Message.JobID, "idempotency_key", event.Message.IdempotencyKey)
	}
	if event.Delay > 0 {
		fields = append(fields, "retry_delay_ms", event.Delay.Milliseconds())
	}
	if event.Err != nil {
		fields = append(fields, "error", event.Err.Error())
	}
	return fields
}

var _ worker.Hook = (*LoggingHook)(nil)
