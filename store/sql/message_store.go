package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type MessageStore struct {
	db   *bun.DB
	repo repository.Repository[*messageRecord]
	now  func() time.Time
}

func NewMessageStore(db *bun.DB) (*MessageStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*messageRecord](db, messageHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid message repository wiring: %w", err)
		}
	}
	return &MessageStore{
		db:   db,
		repo: repo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// Save inserts a new row. A collision on (provider, external_id) is reported
// as core.ErrDuplicateMessage so callers can reload the winner.
func (s *MessageStore) Save(ctx context.Context, draft core.MessageDraft) (core.Message, error) {
	if s == nil || s.db == nil {
		return core.Message{}, fmt.Errorf("sqlstore: message store is not configured")
	}
	if err := draft.Validate(); err != nil {
		return core.Message{}, err
	}
	record := newMessageRecord(uuid.NewString(), draft, s.now())
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return core.Message{}, fmt.Errorf(
				"%w: provider %q external id %q",
				core.ErrDuplicateMessage,
				draft.Provider,
				draft.ExternalID,
			)
		}
		return core.Message{}, err
	}
	return record.toDomain(), nil
}

func (s *MessageStore) FindByID(ctx context.Context, id string) (core.Message, error) {
	if s == nil || s.repo == nil {
		return core.Message{}, fmt.Errorf("sqlstore: message store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return core.Message{}, core.ErrMessageNotFound
	}
	return s.findOne(ctx, repository.SelectBy("id", "=", trimmedID))
}

func (s *MessageStore) FindByProviderAndExternalID(
	ctx context.Context,
	provider core.ProviderID,
	externalID string,
) (core.Message, error) {
	if s == nil || s.repo == nil {
		return core.Message{}, fmt.Errorf("sqlstore: message store is not configured")
	}
	return s.findOne(ctx,
		repository.SelectBy("provider", "=", strings.TrimSpace(string(provider))),
		repository.SelectBy("external_id", "=", strings.TrimSpace(externalID)),
	)
}

// UpdateClassification only writes when the row has no classification yet. The
// stored row is returned either way, so a losing writer sees the winner.
func (s *MessageStore) UpdateClassification(
	ctx context.Context,
	id string,
	classification core.Classification,
) (core.Message, error) {
	if s == nil || s.db == nil {
		return core.Message{}, fmt.Errorf("sqlstore: message store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return core.Message{}, core.ErrMessageNotFound
	}
	if err := classification.Validate(); err != nil {
		return core.Message{}, err
	}
	_, err := s.db.NewUpdate().
		Model((*messageRecord)(nil)).
		Set("classification_intent = ?", string(classification.Intent)).
		Set("classification_confidence = ?", classification.Confidence).
		Set("classified_at = ?", s.now()).
		Where("id = ?", trimmedID).
		Where("classification_intent IS NULL").
		Exec(ctx)
	if err != nil {
		return core.Message{}, err
	}
	return s.FindByID(ctx, trimmedID)
}

func (s *MessageStore) findOne(ctx context.Context, selectors ...repository.SelectCriteria) (core.Message, error) {
	selectors = append(selectors, repository.SelectPaginate(1, 0))
	records, _, err := s.repo.List(ctx, selectors...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Message{}, core.ErrMessageNotFound
		}
		return core.Message{}, err
	}
	if len(records) == 0 {
		return core.Message{}, core.ErrMessageNotFound
	}
	return records[0].toDomain(), nil
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
