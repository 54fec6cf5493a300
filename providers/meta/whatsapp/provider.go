// Package whatsapp adapts WhatsApp Cloud API webhooks. Deliveries nest
// entry[].changes[].value.messages[]; only the first element at each level is
// read.
package whatsapp

import (
	"fmt"
	"strings"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/providers"
)

const (
	ProviderID = core.ProviderMetaWhatsApp

	// ObjectBusinessAccount is the "object" discriminator of WhatsApp deliveries.
	ObjectBusinessAccount = "whatsapp_business_account"
)

// Payload is the first message of a validated delivery.
type Payload struct {
	MessageID       string
	From            string
	TimestampSecs   int64
	Type            string
	ContactName     string
	TextBody        string
	ImageCaption    string
	VideoCaption    string
	DocumentCaption string
}

type Adapter struct{}

func New() Adapter {
	return Adapter{}
}

func (Adapter) Provider() core.ProviderID {
	return ProviderID
}

func (Adapter) Identify(payload map[string]any) bool {
	if payload == nil {
		return false
	}
	object, _ := payload["object"].(string)
	if object != ObjectBusinessAccount {
		return false
	}
	_, ok := payload["entry"].([]any)
	return ok
}

func (Adapter) Validate(payload map[string]any) (any, error) {
	if payload == nil {
		return nil, core.NewValidationError(ProviderID, core.FieldViolation{Path: "$", Reason: "payload must be an object"})
	}
	var inspect providers.Inspector
	inspect.Literal(payload, "object", "object", ObjectBusinessAccount, true)

	entries := inspect.Array(payload, "entry", "entry", 1)
	entry := inspect.FirstObject(entries, "entry")
	if entry == nil {
		return nil, inspect.Err(ProviderID)
	}
	changes := inspect.Array(entry, "changes", "entry[0].changes", 1)
	change := inspect.FirstObject(changes, "entry[0].changes")
	if change == nil {
		return nil, inspect.Err(ProviderID)
	}
	value := inspect.Object(change, "value", "entry[0].changes[0].value", true)
	if value == nil {
		return nil, inspect.Err(ProviderID)
	}
	const messagesPath = "entry[0].changes[0].value.messages"
	messages := inspect.Array(value, "messages", messagesPath, 1)
	message := inspect.FirstObject(messages, messagesPath)
	if message == nil {
		return nil, inspect.Err(ProviderID)
	}

	prefix := messagesPath + "[0]."
	validated := Payload{
		MessageID:     inspect.String(message, "id", prefix+"id", true),
		From:          inspect.String(message, "from", prefix+"from", true),
		TimestampSecs: inspect.NumericString(message, "timestamp", prefix+"timestamp", true),
		Type:          inspect.String(message, "type", prefix+"type", true),
	}
	textRequired := validated.Type == "text"
	if text := inspect.Object(message, "text", prefix+"text", textRequired); text != nil {
		validated.TextBody = inspect.String(text, "body", prefix+"text.body", true)
	}
	validated.ImageCaption = providers.Caption(message, "image")
	validated.VideoCaption = providers.Caption(message, "video")
	validated.DocumentCaption = providers.Caption(message, "document")
	validated.ContactName = contactName(value)

	if err := inspect.Err(ProviderID); err != nil {
		return nil, err
	}
	return validated, nil
}

func (Adapter) Normalize(validated any) (core.MessageDraft, error) {
	payload, err := asPayload(validated)
	if err != nil {
		return core.MessageDraft{}, err
	}
	return core.MessageDraft{
		ExternalID: strings.TrimSpace(payload.MessageID),
		Provider:   ProviderID,
		Contact: core.Contact{
			Phone: core.DigitsOnly(payload.From),
			Name:  strings.TrimSpace(payload.ContactName),
		},
		Content: core.Content{
			Type: core.ContentTypeText,
			Text: core.FirstText(payload.TextBody, payload.ImageCaption, payload.VideoCaption, payload.DocumentCaption),
		},
		Timestamp: core.FromEpochSeconds(payload.TimestampSecs),
		// The Cloud API only delivers inbound messages on this hook.
		IsFromMe: false,
	}, nil
}

func contactName(value map[string]any) string {
	contacts, ok := value["contacts"].([]any)
	if !ok || len(contacts) == 0 {
		return ""
	}
	first, ok := contacts[0].(map[string]any)
	if !ok {
		return ""
	}
	name, ok := providers.Lookup(first, "profile", "name")
	if !ok {
		return ""
	}
	text, _ := name.(string)
	return text
}

func asPayload(validated any) (Payload, error) {
	switch payload := validated.(type) {
	case Payload:
		return payload, nil
	case *Payload:
		if payload != nil {
			return *payload, nil
		}
	}
	return Payload{}, fmt.Errorf("providers/meta/whatsapp: unexpected validated payload %T", validated)
}

var _ core.Adapter = Adapter{}
