package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const messageCacheKeyPrefix = "normalizer::message::v1"

// CachedMessageStore serves FindByID through a read-through cache. Only
// classified rows are cached: a classification is written once, so those rows
// never change. Unclassified rows always come from the base store, which keeps
// a read racing a classification write from caching the stale row.
type CachedMessageStore struct {
	base  core.MessageRepository
	cache repositorycache.CacheService
}

func NewCachedMessageStore(
	base core.MessageRepository,
	cacheService repositorycache.CacheService,
) (*CachedMessageStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base message repository is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: message cache service is required")
	}
	return &CachedMessageStore{base: base, cache: cacheService}, nil
}

// MessageCacheKey returns normalizer::message::v1::<id> with the id path escaped.
func MessageCacheKey(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", fmt.Errorf("sqlstore: message id is required")
	}
	return messageCacheKeyPrefix + "::" + url.PathEscape(trimmed), nil
}

func (s *CachedMessageStore) Save(ctx context.Context, draft core.MessageDraft) (core.Message, error) {
	if s == nil || s.base == nil {
		return core.Message{}, fmt.Errorf("sqlstore: cached message store is not configured")
	}
	return s.base.Save(ctx, draft)
}

func (s *CachedMessageStore) FindByID(ctx context.Context, id string) (core.Message, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Message{}, fmt.Errorf("sqlstore: cached message store is not configured")
	}
	cacheKey, err := MessageCacheKey(id)
	if err != nil {
		return core.Message{}, core.ErrMessageNotFound
	}
	message, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Message, error) {
		fetched, fetchErr := s.base.FindByID(ctx, id)
		if fetchErr != nil {
			return core.Message{}, fetchErr
		}
		if !fetched.Classified() {
			// Fetch errors are never cached.
			return core.Message{}, &uncachedMessage{message: cloneMessage(fetched)}
		}
		return cloneMessage(fetched), nil
	})
	var pending *uncachedMessage
	if errors.As(err, &pending) {
		return cloneMessage(pending.message), nil
	}
	if err != nil {
		return core.Message{}, err
	}
	return cloneMessage(message), nil
}

// uncachedMessage carries an unclassified row out of the fetch function so
// the cache does not store it.
type uncachedMessage struct {
	message core.Message
}

func (e *uncachedMessage) Error() string {
	return "sqlstore: message " + e.message.ID + " is not classified"
}

func (s *CachedMessageStore) FindByProviderAndExternalID(
	ctx context.Context,
	provider core.ProviderID,
	externalID string,
) (core.Message, error) {
	if s == nil || s.base == nil {
		return core.Message{}, fmt.Errorf("sqlstore: cached message store is not configured")
	}
	return s.base.FindByProviderAndExternalID(ctx, provider, externalID)
}

func (s *CachedMessageStore) UpdateClassification(
	ctx context.Context,
	id string,
	classification core.Classification,
) (core.Message, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Message{}, fmt.Errorf("sqlstore: cached message store is not configured")
	}
	updated, err := s.base.UpdateClassification(ctx, id, classification)
	if err != nil {
		return core.Message{}, err
	}
	cacheKey, err := MessageCacheKey(id)
	if err != nil {
		return core.Message{}, err
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		return core.Message{}, err
	}
	return updated, nil
}

func cloneMessage(message core.Message) core.Message {
	cloned := message
	if message.Classification != nil {
		value := *message.Classification
		cloned.Classification = &value
	}
	return cloned
}
