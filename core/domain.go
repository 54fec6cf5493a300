package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

var (
	ErrMessageNotFound   = errors.New("core: message not found")
	ErrDuplicateMessage  = errors.New("core: duplicate message")
	ErrInvalidConfidence = errors.New("core: classification confidence out of range")
)

// EmptyTextPlaceholder is stored when a provider payload carries no renderable text.
const EmptyTextPlaceholder = "[mensagem sem texto]"

type ProviderID string

const (
	ProviderZAPI         ProviderID = "zapi"
	ProviderMetaWhatsApp ProviderID = "meta_whatsapp"
)

var knownProviders = []ProviderID{ProviderZAPI, ProviderMetaWhatsApp}

// KnownProviders lists every provider concept the system recognizes, whether or
// not an adapter is registered for it.
func KnownProviders() []ProviderID {
	return append([]ProviderID(nil), knownProviders...)
}

// ParseProvider maps a route token to a known provider. Unknown tokens fail with
// an UnknownProvider error, which is distinct from a missing adapter.
func ParseProvider(token string) (ProviderID, error) {
	normalized := ProviderID(strings.TrimSpace(strings.ToLower(token)))
	for _, known := range knownProviders {
		if normalized == known {
			return known, nil
		}
	}
	return "", unknownProviderError(token)
}

func (p ProviderID) String() string {
	return string(p)
}

type ContentType string

const ContentTypeText ContentType = "text"

type Intent string

const (
	IntentPurchase  Intent = "purchase_intent"
	IntentQuestion  Intent = "question"
	IntentSupport   Intent = "support"
	IntentComplaint Intent = "complaint"
	IntentGreeting  Intent = "greeting"
	IntentOther     Intent = "other"
)

var knownIntents = []Intent{
	IntentPurchase,
	IntentQuestion,
	IntentSupport,
	IntentComplaint,
	IntentGreeting,
	IntentOther,
}

// KnownIntents returns the fixed intent set in declaration order.
func KnownIntents() []Intent {
	return append([]Intent(nil), knownIntents...)
}

// NormalizeIntent coerces model output into the known set, falling back to
// IntentOther for anything unrecognized.
func NormalizeIntent(raw string) Intent {
	candidate := Intent(strings.TrimSpace(strings.ToLower(raw)))
	for _, known := range knownIntents {
		if candidate == known {
			return known
		}
	}
	return IntentOther
}

type Contact struct {
	Phone string
	Name  string
}

type Content struct {
	Type ContentType
	Text string
}

type Classification struct {
	Intent     Intent
	Confidence float64
}

func (c Classification) Validate() error {
	if c.Confidence < 0 || c.Confidence > 1 || c.Confidence != c.Confidence {
		return fmt.Errorf("%w: %v", ErrInvalidConfidence, c.Confidence)
	}
	return nil
}

// MessageDraft is the create projection produced by adapters. It carries no
// identity, receive time or classification; persistence assigns those.
type MessageDraft struct {
	ExternalID string
	Provider   ProviderID
	Contact    Contact
	Content    Content
	Timestamp  time.Time
	IsFromMe   bool
}

func (d MessageDraft) Validate() error {
	if strings.TrimSpace(d.ExternalID) == "" {
		return fmt.Errorf("core: message external id is required")
	}
	if strings.TrimSpace(string(d.Provider)) == "" {
		return fmt.Errorf("core: message provider is required")
	}
	if strings.TrimSpace(d.Content.Text) == "" {
		return fmt.Errorf("core: message text is required")
	}
	return nil
}

type Message struct {
	ID             string
	ExternalID     string
	Provider       ProviderID
	Contact        Contact
	Content        Content
	Timestamp      time.Time
	ReceivedAt     time.Time
	IsFromMe       bool
	Classification *Classification
}

func (m Message) Classified() bool {
	return m.Classification != nil
}

// DigitsOnly strips every non-digit rune from a phone number.
func DigitsOnly(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FromEpochMillis converts a provider timestamp in milliseconds to UTC.
func FromEpochMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FromEpochSeconds converts a provider timestamp in seconds to UTC.
func FromEpochSeconds(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// FirstText returns the first candidate with visible text, or the placeholder.
func FirstText(candidates ...string) string {
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return EmptyTextPlaceholder
}
