package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// testAdapter accepts payloads shaped like {"id": "...", "from": "...", "body": "..."}.
type testAdapter struct {
	id           ProviderID
	identifyKey  string
	normalizeErr error
}

type testPayload struct {
	ID   string
	From string
	Body string
}

func (a testAdapter) Provider() ProviderID { return a.id }

func (a testAdapter) Identify(payload map[string]any) bool {
	key := a.identifyKey
	if key == "" {
		key = "id"
	}
	_, ok := payload[key].(string)
	return ok
}

func (a testAdapter) Validate(payload map[string]any) (any, error) {
	violations := []FieldViolation{}
	id, _ := payload["id"].(string)
	if strings.TrimSpace(id) == "" {
		violations = append(violations, FieldViolation{Path: "id", Reason: "required string"})
	}
	from, _ := payload["from"].(string)
	if strings.TrimSpace(from) == "" {
		violations = append(violations, FieldViolation{Path: "from", Reason: "required string"})
	}
	if len(violations) > 0 {
		return nil, NewValidationError(a.id, violations...)
	}
	body, _ := payload["body"].(string)
	return testPayload{ID: id, From: from, Body: body}, nil
}

func (a testAdapter) Normalize(validated any) (MessageDraft, error) {
	if a.normalizeErr != nil {
		return MessageDraft{}, a.normalizeErr
	}
	payload, ok := validated.(testPayload)
	if !ok {
		return MessageDraft{}, fmt.Errorf("test adapter: unexpected payload %T", validated)
	}
	return MessageDraft{
		ExternalID: payload.ID,
		Provider:   a.id,
		Contact:    Contact{Phone: DigitsOnly(payload.From)},
		Content:    Content{Type: ContentTypeText, Text: FirstText(payload.Body)},
		Timestamp:  FromEpochMillis(1700000000000),
	}, nil
}

type memoryRepository struct {
	mu        sync.Mutex
	next      int
	byID      map[string]Message
	saveErr   error
	updateErr error
	findErr   error
	// racing makes the first lookup miss so Save hits the unique index.
	racing  bool
	saves   int
	updates int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{byID: map[string]Message{}}
}

func (r *memoryRepository) Save(_ context.Context, draft MessageDraft) (Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return Message{}, r.saveErr
	}
	for _, existing := range r.byID {
		if existing.Provider == draft.Provider && existing.ExternalID == draft.ExternalID {
			return Message{}, ErrDuplicateMessage
		}
	}
	r.next++
	message := Message{
		ID:         fmt.Sprintf("msg_%d", r.next),
		ExternalID: draft.ExternalID,
		Provider:   draft.Provider,
		Contact:    draft.Contact,
		Content:    draft.Content,
		Timestamp:  draft.Timestamp,
		ReceivedAt: time.Now().UTC(),
		IsFromMe:   draft.IsFromMe,
	}
	r.byID[message.ID] = message
	return message, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return Message{}, r.findErr
	}
	message, ok := r.byID[id]
	if !ok {
		return Message{}, ErrMessageNotFound
	}
	return message, nil
}

func (r *memoryRepository) FindByProviderAndExternalID(_ context.Context, provider ProviderID, externalID string) (Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.racing {
		r.racing = false
		return Message{}, ErrMessageNotFound
	}
	for _, message := range r.byID {
		if message.Provider == provider && message.ExternalID == externalID {
			return message, nil
		}
	}
	return Message{}, ErrMessageNotFound
}

func (r *memoryRepository) UpdateClassification(_ context.Context, id string, classification Classification) (Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.updateErr != nil {
		return Message{}, r.updateErr
	}
	message, ok := r.byID[id]
	if !ok {
		return Message{}, ErrMessageNotFound
	}
	if message.Classification == nil {
		stored := classification
		message.Classification = &stored
		r.byID[id] = message
	}
	return message, nil
}

func (r *memoryRepository) put(message Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[message.ID] = message
}

func (r *memoryRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type countingClassifier struct {
	mu     sync.Mutex
	calls  int
	result Classification
	err    error
}

func (c *countingClassifier) Classify(context.Context, string) (Classification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return Classification{}, c.err
	}
	return c.result, nil
}

func (c *countingClassifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type recordingScheduler struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (s *recordingScheduler) ScheduleClassification(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.ids = append(s.ids, messageID)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []MessageEvent
	err    error
}

func (p *recordingPublisher) PublishMessageEvent(_ context.Context, event MessageEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type serviceFixture struct {
	service    *Service
	repository *memoryRepository
	classifier *countingClassifier
	registry   *AdapterRegistry
}

func newServiceFixture(t interface {
	Fatalf(format string, args ...any)
}, cfg Config, opts ...Option) serviceFixture {
	registry, err := NewAdapterRegistry(testAdapter{id: "p1"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	repository := newMemoryRepository()
	classifier := &countingClassifier{result: Classification{Intent: IntentGreeting, Confidence: 0.9}}
	options := append([]Option{
		WithRegistry(registry),
		WithRepository(repository),
		WithClassifier(classifier),
		WithLogger(stubLogger{}),
		WithLoggerProvider(stubLoggerProvider{logger: stubLogger{}}),
	}, opts...)
	svc, err := NewService(cfg, options...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return serviceFixture{
		service:    svc,
		repository: repository,
		classifier: classifier,
		registry:   registry,
	}
}
