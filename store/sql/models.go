package sqlstore

import (
	"time"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/uptrace/bun"
)

type messageRecord struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	ID                       string     `bun:"id,pk"`
	ExternalID               string     `bun:"external_id,notnull"`
	Provider                 string     `bun:"provider,notnull"`
	ContactPhone             string     `bun:"contact_phone,notnull"`
	ContactName              string     `bun:"contact_name,notnull"`
	ContentType              string     `bun:"content_type,notnull"`
	ContentText              string     `bun:"content_text,notnull"`
	Timestamp                time.Time  `bun:"timestamp,notnull"`
	ReceivedAt               time.Time  `bun:"received_at,nullzero,notnull,default:current_timestamp"`
	IsFromMe                 bool       `bun:"is_from_me,notnull"`
	ClassificationIntent     *string    `bun:"classification_intent"`
	ClassificationConfidence *float64   `bun:"classification_confidence"`
	ClassifiedAt             *time.Time `bun:"classified_at,nullzero"`
}

func newMessageRecord(id string, draft core.MessageDraft, receivedAt time.Time) *messageRecord {
	contentType := draft.Content.Type
	if contentType == "" {
		contentType = core.ContentTypeText
	}
	return &messageRecord{
		ID:           id,
		ExternalID:   draft.ExternalID,
		Provider:     string(draft.Provider),
		ContactPhone: draft.Contact.Phone,
		ContactName:  draft.Contact.Name,
		ContentType:  string(contentType),
		ContentText:  draft.Content.Text,
		Timestamp:    draft.Timestamp.UTC(),
		ReceivedAt:   receivedAt.UTC(),
		IsFromMe:     draft.IsFromMe,
	}
}

func (r *messageRecord) toDomain() core.Message {
	if r == nil {
		return core.Message{}
	}
	out := core.Message{
		ID:         r.ID,
		ExternalID: r.ExternalID,
		Provider:   core.ProviderID(r.Provider),
		Contact: core.Contact{
			Phone: r.ContactPhone,
			Name:  r.ContactName,
		},
		Content: core.Content{
			Type: core.ContentType(r.ContentType),
			Text: r.ContentText,
		},
		Timestamp:  r.Timestamp.UTC(),
		ReceivedAt: r.ReceivedAt.UTC(),
		IsFromMe:   r.IsFromMe,
	}
	// Intent and confidence are written together; a half-populated row is
	// treated as unclassified.
	if r.ClassificationIntent != nil && r.ClassificationConfidence != nil {
		out.Classification = &core.Classification{
			Intent:     core.Intent(*r.ClassificationIntent),
			Confidence: *r.ClassificationConfidence,
		}
	}
	return out
}
