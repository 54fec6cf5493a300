package devkit

import (
	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
)

// ZAPITextFixture is a plain text callback from a contact with senderName set.
func ZAPITextFixture() AdapterFixture {
	return AdapterFixture{
		Name:     "zapi_text",
		Provider: core.ProviderZAPI,
		Payload: map[string]any{
			"messageId":  "m1",
			"phone":      "+55 (11) 98888-8888",
			"text":       map[string]any{"message": "hello"},
			"momment":    float64(1700000000000),
			"fromMe":     false,
			"senderName": "Ana",
			"chatName":   "Ana Chat",
		},
		Expected: core.MessageDraft{
			ExternalID: "m1",
			Provider:   core.ProviderZAPI,
			Contact:    core.Contact{Phone: "5511988888888", Name: "Ana"},
			Content:    core.Content{Type: core.ContentTypeText, Text: "hello"},
			Timestamp:  core.FromEpochMillis(1700000000000),
		},
	}
}

// ZAPIImageFixture has no text, only an image caption, and falls back to
// chatName for the contact.
func ZAPIImageFixture() AdapterFixture {
	return AdapterFixture{
		Name:     "zapi_image_caption",
		Provider: core.ProviderZAPI,
		Payload: map[string]any{
			"messageId": "m2",
			"phone":     "5521977776666",
			"momment":   float64(1700000123456),
			"fromMe":    true,
			"chatName":  "Loja Centro",
			"type":      "ReceivedCallback",
			"image":     map[string]any{"caption": "segue o comprovante", "imageUrl": "https://example.com/i.jpg"},
		},
		Expected: core.MessageDraft{
			ExternalID: "m2",
			Provider:   core.ProviderZAPI,
			Contact:    core.Contact{Phone: "5521977776666", Name: "Loja Centro"},
			Content:    core.Content{Type: core.ContentTypeText, Text: "segue o comprovante"},
			Timestamp:  core.FromEpochMillis(1700000123456),
			IsFromMe:   true,
		},
	}
}

// ZAPIAudioFixture carries no renderable text at all.
func ZAPIAudioFixture() AdapterFixture {
	return AdapterFixture{
		Name:     "zapi_audio",
		Provider: core.ProviderZAPI,
		Payload: map[string]any{
			"messageId":  "m3",
			"phone":      "5511900000000",
			"momment":    float64(1700000000000),
			"fromMe":     false,
			"senderName": "Bia",
			"audio":      map[string]any{"audioUrl": "https://example.com/a.ogg"},
		},
		Expected: core.MessageDraft{
			ExternalID: "m3",
			Provider:   core.ProviderZAPI,
			Contact:    core.Contact{Phone: "5511900000000", Name: "Bia"},
			Content:    core.Content{Type: core.ContentTypeText, Text: core.EmptyTextPlaceholder},
			Timestamp:  core.FromEpochMillis(1700000000000),
		},
	}
}

func metaEnvelope(value map[string]any) map[string]any {
	return map[string]any{
		"object": "whatsapp_business_account",
		"entry": []any{
			map[string]any{
				"id": "102290129340398",
				"changes": []any{
					map[string]any{
						"field": "messages",
						"value": value,
					},
				},
			},
		},
	}
}

// MetaWhatsAppTextFixture holds two messages; only the first is normalized.
func MetaWhatsAppTextFixture() AdapterFixture {
	return AdapterFixture{
		Name:     "meta_whatsapp_text",
		Provider: core.ProviderMetaWhatsApp,
		Payload: metaEnvelope(map[string]any{
			"messaging_product": "whatsapp",
			"metadata": map[string]any{
				"display_phone_number": "15550783881",
				"phone_number_id":      "106540352242922",
			},
			"contacts": []any{
				map[string]any{"profile": map[string]any{"name": "Carlos"}, "wa_id": "5511977775555"},
			},
			"messages": []any{
				map[string]any{
					"from":      "5511977775555",
					"id":        "wamid.HBgLMTY0NjcwNDM1OTUVAgASGBQzQTRBNjU5OUFFRTAzODEwMTQ0RgA=",
					"timestamp": "1700000000",
					"type":      "text",
					"text":      map[string]any{"body": "quanto custa o plano anual?"},
				},
				map[string]any{
					"from":      "5511977775555",
					"id":        "wamid.second",
					"timestamp": "1700000005",
					"type":      "text",
					"text":      map[string]any{"body": "ignored"},
				},
			},
		}),
		Expected: core.MessageDraft{
			ExternalID: "wamid.HBgLMTY0NjcwNDM1OTUVAgASGBQzQTRBNjU5OUFFRTAzODEwMTQ0RgA=",
			Provider:   core.ProviderMetaWhatsApp,
			Contact:    core.Contact{Phone: "5511977775555", Name: "Carlos"},
			Content:    core.Content{Type: core.ContentTypeText, Text: "quanto custa o plano anual?"},
			Timestamp:  core.FromEpochSeconds(1700000000),
		},
	}
}

// MetaWhatsAppDocumentFixture has a captioned document and no contacts block.
func MetaWhatsAppDocumentFixture() AdapterFixture {
	return AdapterFixture{
		Name:     "meta_whatsapp_document",
		Provider: core.ProviderMetaWhatsApp,
		Payload: metaEnvelope(map[string]any{
			"messaging_product": "whatsapp",
			"messages": []any{
				map[string]any{
					"from":      "+1 555 010 9999",
					"id":        "wamid.doc",
					"timestamp": "1700000100",
					"type":      "document",
					"document":  map[string]any{"caption": "nota fiscal", "mime_type": "application/pdf"},
				},
			},
		}),
		Expected: core.MessageDraft{
			ExternalID: "wamid.doc",
			Provider:   core.ProviderMetaWhatsApp,
			Contact:    core.Contact{Phone: "15550109999"},
			Content:    core.Content{Type: core.ContentTypeText, Text: "nota fiscal"},
			Timestamp:  core.FromEpochSeconds(1700000100),
		},
	}
}

// MetaWhatsAppEmptyMessagesFixture is a status-only delivery with no messages.
func MetaWhatsAppEmptyMessagesFixture() InvalidFixture {
	return InvalidFixture{
		Name:     "meta_whatsapp_empty_messages",
		Provider: core.ProviderMetaWhatsApp,
		Payload: metaEnvelope(map[string]any{
			"messaging_product": "whatsapp",
			"messages":          []any{},
		}),
		Path: "entry[0].changes[0].value.messages",
	}
}

// MetaWhatsAppEmptyEntryFixture has an empty entry list.
func MetaWhatsAppEmptyEntryFixture() InvalidFixture {
	return InvalidFixture{
		Name:     "meta_whatsapp_empty_entry",
		Provider: core.ProviderMetaWhatsApp,
		Payload: map[string]any{
			"object": "whatsapp_business_account",
			"entry":  []any{},
		},
		Path: "entry",
	}
}

// ZAPIMissingMessageIDFixture lacks the provider message id.
func ZAPIMissingMessageIDFixture() InvalidFixture {
	return InvalidFixture{
		Name:     "zapi_missing_message_id",
		Provider: core.ProviderZAPI,
		Payload: map[string]any{
			"phone":   "5511988888888",
			"momment": float64(1700000000000),
			"fromMe":  false,
			"text":    map[string]any{"message": "oi"},
		},
		Path: "messageId",
	}
}

// ZAPIMissingTextMessageFixture has a text object without its message.
func ZAPIMissingTextMessageFixture() InvalidFixture {
	return InvalidFixture{
		Name:     "zapi_missing_text_message",
		Provider: core.ProviderZAPI,
		Payload: map[string]any{
			"messageId": "m4",
			"phone":     "5511988888888",
			"momment":   float64(1700000000000),
			"fromMe":    false,
			"text":      map[string]any{},
		},
		Path: "text.message",
	}
}

// MetaWhatsAppMissingTextBodyFixture is a text message whose text object has
// no body.
func MetaWhatsAppMissingTextBodyFixture() InvalidFixture {
	return InvalidFixture{
		Name:     "meta_whatsapp_missing_text_body",
		Provider: core.ProviderMetaWhatsApp,
		Payload: metaEnvelope(map[string]any{
			"messaging_product": "whatsapp",
			"messages": []any{
				map[string]any{
					"from":      "5511977775555",
					"id":        "wamid.nobody",
					"timestamp": "1700000000",
					"type":      "text",
					"text":      map[string]any{},
				},
			},
		}),
		Path: "entry[0].changes[0].value.messages[0].text.body",
	}
}

// MetaWhatsAppMissingTextFixture declares type text but carries no text object.
func MetaWhatsAppMissingTextFixture() InvalidFixture {
	return InvalidFixture{
		Name:     "meta_whatsapp_missing_text",
		Provider: core.ProviderMetaWhatsApp,
		Payload: metaEnvelope(map[string]any{
			"messaging_product": "whatsapp",
			"messages": []any{
				map[string]any{
					"from":      "5511977775555",
					"id":        "wamid.notext",
					"timestamp": "1700000000",
					"type":      "text",
				},
			},
		}),
		Path: "entry[0].changes[0].value.messages[0].text",
	}
}

func AdapterFixtures() []AdapterFixture {
	return []AdapterFixture{
		ZAPITextFixture(),
		ZAPIImageFixture(),
		ZAPIAudioFixture(),
		MetaWhatsAppTextFixture(),
		MetaWhatsAppDocumentFixture(),
	}
}

func InvalidFixtures() []InvalidFixture {
	return []InvalidFixture{
		ZAPIMissingMessageIDFixture(),
		ZAPIMissingTextMessageFixture(),
		MetaWhatsAppEmptyMessagesFixture(),
		MetaWhatsAppEmptyEntryFixture(),
		MetaWhatsAppMissingTextBodyFixture(),
		MetaWhatsAppMissingTextFixture(),
	}
}
