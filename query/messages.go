package query

import "strings"

const (
	TypeGetMessage   = "normalizer.query.message.get"
	TypeClassifyText = "normalizer.query.text.classify"
)

type GetMessageMessage struct {
	MessageID string
}

func (GetMessageMessage) Type() string { return TypeGetMessage }

func (m GetMessageMessage) Validate() error {
	if strings.TrimSpace(m.MessageID) == "" {
		return queryValidationError("message_id", "message id is required")
	}
	return nil
}

// ClassifyTextMessage classifies free text without touching storage.
type ClassifyTextMessage struct {
	Text string
}

func (ClassifyTextMessage) Type() string { return TypeClassifyText }

func (m ClassifyTextMessage) Validate() error {
	if strings.TrimSpace(m.Text) == "" {
		return queryValidationError("text", "text is required")
	}
	return nil
}
