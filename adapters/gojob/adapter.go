package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

const (
	JobIDClassifyMessage = "normalizer.classify_message"

	ParamMessageID = "message_id"
)

// RetryPolicy bounds how often a failing classification is redelivered.
type RetryPolicy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		BaseDelay:       time.Second,
		MaxDelay:        30 * time.Second,
		DeadLetterOnMax: true,
	}
}

// Backoff doubles BaseDelay per attempt, capped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 || attempt <= 0 {
		return 0
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// NormalizeAttempt enforces bounded retry behavior for a nack operation. An
// empty disposition means retry. Once MaxAttempts is reached a retry becomes
// dead_letter, or failed when DeadLetterOnMax is off.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.Disposition == "" {
		out.Disposition = queue.NackDispositionRetry
	}
	if out.Disposition == queue.NackDispositionRetry && p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Disposition = queue.NackDispositionFailed
		if p.DeadLetterOnMax {
			out.Disposition = queue.NackDispositionDeadLetter
		}
	}
	if out.Disposition != queue.NackDispositionRetry {
		out.Delay = 0
	}
	return out
}

// ClassifyMessage builds the execution message for one classification.
// Repeated schedules for the same message share an idempotency key.
func ClassifyMessage(messageID string) *job.ExecutionMessage {
	id := strings.TrimSpace(messageID)
	return &job.ExecutionMessage{
		JobID:          JobIDClassifyMessage,
		ScriptPath:     JobIDClassifyMessage,
		Parameters:     map[string]any{ParamMessageID: id},
		IdempotencyKey: IdempotencyKey(id),
		DedupPolicy:    job.DedupPolicyDrop,
	}
}

func IdempotencyKey(messageID string) string {
	return "classify:" + strings.TrimSpace(messageID)
}

// MessageIDFrom reads the message id parameter of a classification job.
func MessageIDFrom(msg *job.ExecutionMessage) (string, error) {
	if msg == nil {
		return "", fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDClassifyMessage {
		return "", fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}
	raw, ok := msg.Parameters[ParamMessageID]
	if !ok {
		return "", fmt.Errorf("gojob: %s parameter is required", ParamMessageID)
	}
	id, ok := raw.(string)
	if !ok || strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("gojob: %s parameter must be a non-empty string", ParamMessageID)
	}
	return strings.TrimSpace(id), nil
}

// Scheduler enqueues classification jobs on a go-job queue.
type Scheduler struct {
	enqueuer queue.Enqueuer
}

func NewScheduler(enqueuer queue.Enqueuer) *Scheduler {
	return &Scheduler{enqueuer: enqueuer}
}

func (s *Scheduler) ScheduleClassification(ctx context.Context, messageID string) error {
	if s == nil || s.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if strings.TrimSpace(messageID) == "" {
		return fmt.Errorf("gojob: message id is required")
	}
	_, err := s.enqueuer.Enqueue(ctx, ClassifyMessage(messageID))
	return err
}

var _ core.ClassificationScheduler = (*Scheduler)(nil)
