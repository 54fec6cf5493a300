package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type stubMessageRepository struct {
	mu          sync.Mutex
	message     core.Message
	findCalls   int
	updateCalls int
	findErr     error
	updateErr   error
}

func (s *stubMessageRepository) Save(_ context.Context, draft core.MessageDraft) (core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = core.Message{
		ID:         "msg-1",
		ExternalID: draft.ExternalID,
		Provider:   draft.Provider,
		Content:    draft.Content,
	}
	return cloneMessage(s.message), nil
}

func (s *stubMessageRepository) FindByID(_ context.Context, id string) (core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if s.findErr != nil {
		return core.Message{}, s.findErr
	}
	if s.message.ID != id {
		return core.Message{}, core.ErrMessageNotFound
	}
	return cloneMessage(s.message), nil
}

func (s *stubMessageRepository) FindByProviderAndExternalID(_ context.Context, provider core.ProviderID, externalID string) (core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.message.Provider != provider || s.message.ExternalID != externalID {
		return core.Message{}, core.ErrMessageNotFound
	}
	return cloneMessage(s.message), nil
}

func (s *stubMessageRepository) UpdateClassification(_ context.Context, id string, classification core.Classification) (core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.updateErr != nil {
		return core.Message{}, s.updateErr
	}
	if s.message.ID != id {
		return core.Message{}, core.ErrMessageNotFound
	}
	if s.message.Classification == nil {
		value := classification
		s.message.Classification = &value
	}
	return cloneMessage(s.message), nil
}

func classifiedStub() *stubMessageRepository {
	return &stubMessageRepository{message: core.Message{
		ID:             "msg-1",
		Provider:       core.ProviderZAPI,
		Classification: &core.Classification{Intent: core.IntentGreeting, Confidence: 0.9},
	}}
}

func TestCachedMessageStore_FindByID_MissFetchThenHit(t *testing.T) {
	base := classifiedStub()
	store, err := NewCachedMessageStore(base, newTestMessageCacheService(t))
	if err != nil {
		t.Fatalf("new cached message store: %v", err)
	}

	ctx := context.Background()
	if _, err := store.FindByID(ctx, "msg-1"); err != nil {
		t.Fatalf("first find: %v", err)
	}
	if base.findCalls != 1 {
		t.Fatalf("expected first find to reach the base store once, got %d", base.findCalls)
	}
	if _, err := store.FindByID(ctx, "msg-1"); err != nil {
		t.Fatalf("second find: %v", err)
	}
	if base.findCalls != 1 {
		t.Fatalf("expected second find to be a cache hit, base find calls=%d", base.findCalls)
	}
}

func TestCachedMessageStore_UpdateClassificationEvictsEntry(t *testing.T) {
	base := &stubMessageRepository{message: core.Message{ID: "msg-1", Provider: core.ProviderZAPI}}
	store, err := NewCachedMessageStore(base, newTestMessageCacheService(t))
	if err != nil {
		t.Fatalf("new cached message store: %v", err)
	}
	ctx := context.Background()

	cached, err := store.FindByID(ctx, "msg-1")
	if err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if cached.Classified() {
		t.Fatalf("expected unclassified message before update")
	}

	updated, err := store.UpdateClassification(ctx, "msg-1", core.Classification{Intent: core.IntentGreeting, Confidence: 0.9})
	if err != nil {
		t.Fatalf("update classification: %v", err)
	}
	if !updated.Classified() || updated.Classification.Intent != core.IntentGreeting {
		t.Fatalf("expected classified message from update, got %+v", updated.Classification)
	}

	reloaded, err := store.FindByID(ctx, "msg-1")
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if !reloaded.Classified() {
		t.Fatalf("expected eviction to expose the stored classification")
	}
	if base.findCalls != 2 {
		t.Fatalf("expected a refetch after eviction, base find calls=%d", base.findCalls)
	}
}

func TestCachedMessageStore_UnclassifiedRowsAreNotCached(t *testing.T) {
	base := &stubMessageRepository{message: core.Message{ID: "msg-1", Provider: core.ProviderZAPI}}
	store, err := NewCachedMessageStore(base, newTestMessageCacheService(t))
	if err != nil {
		t.Fatalf("new cached message store: %v", err)
	}
	ctx := context.Background()
	for range 2 {
		message, err := store.FindByID(ctx, "msg-1")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if message.ID != "msg-1" || message.Classified() {
			t.Fatalf("unexpected message %+v", message)
		}
	}
	if base.findCalls != 2 {
		t.Fatalf("expected unclassified reads to reach the base store, got %d", base.findCalls)
	}
}

// writeDuringFindRepository classifies the row after the first FindByID has
// read it but before the read returns.
type writeDuringFindRepository struct {
	*stubMessageRepository
	once    sync.Once
	onFirst func()
}

func (r *writeDuringFindRepository) FindByID(ctx context.Context, id string) (core.Message, error) {
	message, err := r.stubMessageRepository.FindByID(ctx, id)
	r.once.Do(r.onFirst)
	return message, err
}

func TestCachedMessageStore_ConcurrentClassificationDoesNotCacheStaleRow(t *testing.T) {
	base := &writeDuringFindRepository{
		stubMessageRepository: &stubMessageRepository{message: core.Message{ID: "msg-1", Provider: core.ProviderZAPI}},
	}
	store, err := NewCachedMessageStore(base, newTestMessageCacheService(t))
	if err != nil {
		t.Fatalf("new cached message store: %v", err)
	}
	ctx := context.Background()
	base.onFirst = func() {
		if _, err := store.UpdateClassification(ctx, "msg-1", core.Classification{Intent: core.IntentGreeting, Confidence: 0.9}); err != nil {
			t.Errorf("concurrent update: %v", err)
		}
	}

	stale, err := store.FindByID(ctx, "msg-1")
	if err != nil {
		t.Fatalf("racing find: %v", err)
	}
	if stale.Classified() {
		t.Fatalf("expected the racing read to see the pre-write row")
	}

	fresh, err := store.FindByID(ctx, "msg-1")
	if err != nil {
		t.Fatalf("find after write: %v", err)
	}
	if !fresh.Classified() || fresh.Classification.Intent != core.IntentGreeting {
		t.Fatalf("expected stored classification after the write, got %+v", fresh.Classification)
	}
}

func TestCachedMessageStore_FindErrorsAreNotCached(t *testing.T) {
	base := &stubMessageRepository{findErr: core.ErrMessageNotFound}
	store, err := NewCachedMessageStore(base, newTestMessageCacheService(t))
	if err != nil {
		t.Fatalf("new cached message store: %v", err)
	}
	ctx := context.Background()
	for range 2 {
		if _, err := store.FindByID(ctx, "missing"); !errors.Is(err, core.ErrMessageNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if base.findCalls != 2 {
		t.Fatalf("expected each miss to reach the base store, got %d", base.findCalls)
	}
}

func TestCachedMessageStore_UpdateErrorSkipsEviction(t *testing.T) {
	base := classifiedStub()
	base.updateErr = errors.New("write failed")
	store, err := NewCachedMessageStore(base, newTestMessageCacheService(t))
	if err != nil {
		t.Fatalf("new cached message store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.FindByID(ctx, "msg-1"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if _, err := store.UpdateClassification(ctx, "msg-1", core.Classification{Intent: core.IntentOther, Confidence: 0.1}); err == nil {
		t.Fatalf("expected update error")
	}
	if _, err := store.FindByID(ctx, "msg-1"); err != nil {
		t.Fatalf("find after failed update: %v", err)
	}
	if base.findCalls != 1 {
		t.Fatalf("expected cached entry to survive a failed update, base find calls=%d", base.findCalls)
	}
}

func TestMessageCacheKey(t *testing.T) {
	key, err := MessageCacheKey(" a/b ")
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if key != "normalizer::message::v1::a%2Fb" {
		t.Fatalf("unexpected cache key %q", key)
	}
	if _, err := MessageCacheKey("  "); err == nil {
		t.Fatalf("expected error for blank id")
	}
}

func TestNewCachedMessageStore_RequiresDependencies(t *testing.T) {
	if _, err := NewCachedMessageStore(nil, newTestMessageCacheService(t)); err == nil {
		t.Fatalf("expected error without base store")
	}
	if _, err := NewCachedMessageStore(&stubMessageRepository{}, nil); err == nil {
		t.Fatalf("expected error without cache service")
	}
}

func newTestMessageCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
