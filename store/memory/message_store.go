// Package memorystore keeps messages in process memory. It honors the same
// uniqueness and classify-once rules as the SQL store and is meant for tests
// and single-process development runs.
package memorystore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/google/uuid"
)

type MessageStore struct {
	mu         sync.RWMutex
	byID       map[string]core.Message
	byExternal map[string]string
	now        func() time.Time
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		byID:       map[string]core.Message{},
		byExternal: map[string]string{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MessageStore) Save(_ context.Context, draft core.MessageDraft) (core.Message, error) {
	if s == nil {
		return core.Message{}, fmt.Errorf("memorystore: message store is nil")
	}
	if err := draft.Validate(); err != nil {
		return core.Message{}, err
	}
	contentType := draft.Content.Type
	if contentType == "" {
		contentType = core.ContentTypeText
	}
	message := core.Message{
		ID:         uuid.NewString(),
		ExternalID: draft.ExternalID,
		Provider:   draft.Provider,
		Contact:    draft.Contact,
		Content:    core.Content{Type: contentType, Text: draft.Content.Text},
		Timestamp:  draft.Timestamp.UTC(),
		ReceivedAt: s.now(),
		IsFromMe:   draft.IsFromMe,
	}
	key := externalKey(draft.Provider, draft.ExternalID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byExternal[key]; exists {
		return core.Message{}, fmt.Errorf(
			"%w: provider %q external id %q",
			core.ErrDuplicateMessage,
			draft.Provider,
			draft.ExternalID,
		)
	}
	s.byID[message.ID] = message
	s.byExternal[key] = message.ID
	return clone(message), nil
}

func (s *MessageStore) FindByID(_ context.Context, id string) (core.Message, error) {
	if s == nil {
		return core.Message{}, fmt.Errorf("memorystore: message store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	message, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return core.Message{}, core.ErrMessageNotFound
	}
	return clone(message), nil
}

func (s *MessageStore) FindByProviderAndExternalID(
	_ context.Context,
	provider core.ProviderID,
	externalID string,
) (core.Message, error) {
	if s == nil {
		return core.Message{}, fmt.Errorf("memorystore: message store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byExternal[externalKey(provider, externalID)]
	if !ok {
		return core.Message{}, core.ErrMessageNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *MessageStore) UpdateClassification(
	_ context.Context,
	id string,
	classification core.Classification,
) (core.Message, error) {
	if s == nil {
		return core.Message{}, fmt.Errorf("memorystore: message store is nil")
	}
	if err := classification.Validate(); err != nil {
		return core.Message{}, err
	}
	trimmedID := strings.TrimSpace(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	message, ok := s.byID[trimmedID]
	if !ok {
		return core.Message{}, core.ErrMessageNotFound
	}
	if message.Classification == nil {
		value := classification
		message.Classification = &value
		s.byID[trimmedID] = message
	}
	return clone(message), nil
}

// Len reports the number of stored messages.
func (s *MessageStore) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func externalKey(provider core.ProviderID, externalID string) string {
	return strings.TrimSpace(string(provider)) + "|" + strings.TrimSpace(externalID)
}

func clone(message core.Message) core.Message {
	cloned := message
	if message.Classification != nil {
		value := *message.Classification
		cloned.Classification = &value
	}
	return cloned
}

var _ core.MessageRepository = (*MessageStore)(nil)
