package command

import (
	"strings"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
)

const (
	TypeIngestWebhook   = "normalizer.command.webhook.ingest"
	TypeClassifyMessage = "normalizer.command.message.classify"
)

// IngestWebhookMessage carries a decoded webhook body. An empty ProviderID
// asks the registry to detect the provider from the payload.
type IngestWebhookMessage struct {
	ProviderID core.ProviderID
	Payload    map[string]any
}

func (IngestWebhookMessage) Type() string { return TypeIngestWebhook }

func (m IngestWebhookMessage) Validate() error {
	if m.Payload == nil {
		return commandValidationError("payload", "payload is required")
	}
	return nil
}

type ClassifyMessageMessage struct {
	MessageID string
}

func (ClassifyMessageMessage) Type() string { return TypeClassifyMessage }

func (m ClassifyMessageMessage) Validate() error {
	if strings.TrimSpace(m.MessageID) == "" {
		return commandValidationError("message_id", "message id is required")
	}
	return nil
}
