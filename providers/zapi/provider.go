// Package zapi adapts Z-API "ReceivedCallback" webhooks. The payload is flat:
// one message per call, epoch milliseconds in the misspelled "momment" field.
package zapi

import (
	"fmt"
	"strings"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/providers"
)

const (
	ProviderID = core.ProviderZAPI

	// CallbackType is the only "type" value accepted when the field is sent.
	CallbackType = "ReceivedCallback"
)

// Payload is the validated subset of a Z-API callback.
type Payload struct {
	MessageID       string
	Phone           string
	MomentMillis    int64
	FromMe          bool
	SenderName      string
	ChatName        string
	Text            string
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
	if _, ok := payload["messageId"].(string); !ok {
		return false
	}
	if _, ok := payload["phone"].(string); !ok {
		return false
	}
	_, ok := payload["momment"]
	return ok
}

func (Adapter) Validate(payload map[string]any) (any, error) {
	if payload == nil {
		return nil, core.NewValidationError(ProviderID, core.FieldViolation{Path: "$", Reason: "payload must be an object"})
	}
	var inspect providers.Inspector
	validated := Payload{
		MessageID:    inspect.String(payload, "messageId", "messageId", true),
		Phone:        inspect.String(payload, "phone", "phone", true),
		MomentMillis: inspect.Int64(payload, "momment", "momment", true),
		FromMe:       inspect.Bool(payload, "fromMe", "fromMe", true),
		SenderName:   inspect.String(payload, "senderName", "senderName", false),
		ChatName:     inspect.String(payload, "chatName", "chatName", false),
	}
	inspect.Literal(payload, "type", "type", CallbackType, false)

	// A text object without its message is malformed, not media-only.
	if text := inspect.Object(payload, "text", "text", false); text != nil {
		validated.Text = inspect.String(text, "message", "text.message", true)
	}
	for _, media := range []string{"image", "video", "document"} {
		obj := inspect.Object(payload, media, media, false)
		if obj == nil {
			continue
		}
		caption := inspect.String(obj, "caption", media+".caption", false)
		switch media {
		case "image":
			validated.ImageCaption = caption
		case "video":
			validated.VideoCaption = caption
		case "document":
			validated.DocumentCaption = caption
		}
	}

	if err := inspect.Err(ProviderID); err != nil {
		return nil, err
	}
	if digits := core.DigitsOnly(validated.Phone); digits == "" {
		return nil, core.NewValidationError(ProviderID, core.FieldViolation{Path: "phone", Reason: "must contain digits"})
	}
	return validated, nil
}

func (Adapter) Normalize(validated any) (core.MessageDraft, error) {
	payload, err := asPayload(validated)
	if err != nil {
		return core.MessageDraft{}, err
	}
	name := strings.TrimSpace(payload.SenderName)
	if name == "" {
		name = strings.TrimSpace(payload.ChatName)
	}
	return core.MessageDraft{
		ExternalID: strings.TrimSpace(payload.MessageID),
		Provider:   ProviderID,
		Contact: core.Contact{
			Phone: core.DigitsOnly(payload.Phone),
			Name:  name,
		},
		Content: core.Content{
			Type: core.ContentTypeText,
			Text: core.FirstText(payload.Text, payload.ImageCaption, payload.VideoCaption, payload.DocumentCaption),
		},
		Timestamp: core.FromEpochMillis(payload.MomentMillis),
		IsFromMe:  payload.FromMe,
	}, nil
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
	return Payload{}, fmt.Errorf("providers/zapi: unexpected validated payload %T", validated)
}

var _ core.Adapter = Adapter{}
