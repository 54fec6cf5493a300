package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Adapter translates one provider's webhook payload into the canonical shape.
type Adapter interface {
	Provider() ProviderID
	// Identify sniffs an untyped payload. It must not panic on malformed input.
	Identify(payload map[string]any) bool
	// Validate checks the payload against the provider schema and returns a
	// typed payload consumed by Normalize.
	Validate(payload map[string]any) (any, error)
	// Normalize is a pure mapping from the validated payload to a draft.
	Normalize(validated any) (MessageDraft, error)
}

type MessageRepository interface {
	// Save persists a draft. A unique (provider, external id) collision must be
	// reported as ErrDuplicateMessage.
	Save(ctx context.Context, draft MessageDraft) (Message, error)
	FindByID(ctx context.Context, id string) (Message, error)
	FindByProviderAndExternalID(ctx context.Context, provider ProviderID, externalID string) (Message, error)
	// UpdateClassification writes only when no classification is stored and
	// returns the stored row either way.
	UpdateClassification(ctx context.Context, id string, classification Classification) (Message, error)
}

type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

type ClassifierFunc func(ctx context.Context, text string) (Classification, error)

func (f ClassifierFunc) Classify(ctx context.Context, text string) (Classification, error) {
	return f(ctx, text)
}

// ClassificationScheduler hands a persisted message to an out-of-band
// classification worker.
type ClassificationScheduler interface {
	ScheduleClassification(ctx context.Context, messageID string) error
}

type MessageEvent struct {
	Name       string
	MessageID  string
	Provider   ProviderID
	ExternalID string
	Phone      string
	OccurredAt time.Time
	Metadata   map[string]any
}

type EventPublisher interface {
	PublishMessageEvent(ctx context.Context, event MessageEvent) error
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Registry interface {
	Register(adapter Adapter) error
	Resolve(providerID ProviderID) (Adapter, error)
	ResolvePayload(payload map[string]any) (Adapter, bool)
	Providers() []ProviderID
}

type ProcessResult struct {
	Message     Message
	IsDuplicate bool
}

type ClassificationResult struct {
	Message        Message
	Classification Classification
}

type IngestResult struct {
	Message        Message
	Duplicate      bool
	Classification *Classification
	Scheduled      bool
}

type IngestionService interface {
	Process(ctx context.Context, providerID ProviderID, payload map[string]any) (ProcessResult, error)
	Ingest(ctx context.Context, providerID ProviderID, payload map[string]any) (IngestResult, error)
	IngestDetected(ctx context.Context, payload map[string]any) (IngestResult, error)
}

type ClassificationService interface {
	ClassifyByID(ctx context.Context, messageID string) (ClassificationResult, error)
	ClassifyText(ctx context.Context, text string) (Classification, error)
}

type MessageReader interface {
	GetMessage(ctx context.Context, messageID string) (Message, error)
}

type SubscriptionVerifier interface {
	VerifySubscription(ctx context.Context, providerID ProviderID, req SubscriptionChallenge) (string, error)
}

type SubscriptionChallenge struct {
	Mode      string
	Token     string
	Challenge string
}

type InboundRequest struct {
	ProviderID string
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type InboundResult struct {
	Accepted   bool
	StatusCode int
	Body       map[string]any
	Metadata   map[string]any
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
