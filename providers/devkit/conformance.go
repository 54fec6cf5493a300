// Package devkit offers fixtures and conformance checks for webhook adapters.
package devkit

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
)

// AdapterFixture pairs a raw payload with the draft its adapter must produce.
type AdapterFixture struct {
	Name     string
	Provider core.ProviderID
	Payload  map[string]any
	Expected core.MessageDraft
}

// InvalidFixture is a payload that must fail validation on Path.
type InvalidFixture struct {
	Name     string
	Provider core.ProviderID
	Payload  map[string]any
	Path     string
}

// ValidateAdapterConformance runs identify, validate and normalize over the
// fixture and checks the adapter contract: deterministic output, digits-only
// phone, non-empty text and no receive-time fields.
func ValidateAdapterConformance(adapter core.Adapter, fixture AdapterFixture) error {
	if adapter == nil {
		return fmt.Errorf("devkit: adapter is required")
	}
	if adapter.Provider() != fixture.Provider {
		return fmt.Errorf("devkit: adapter provider %q does not match fixture %q", adapter.Provider(), fixture.Provider)
	}
	if !adapter.Identify(fixture.Payload) {
		return fmt.Errorf("devkit: %s: adapter did not identify its own payload", fixture.Name)
	}
	for _, malformed := range malformedPayloads() {
		if identifyPanics(adapter, malformed) {
			return fmt.Errorf("devkit: %s: identify panicked on malformed payload", fixture.Name)
		}
	}

	validated, err := adapter.Validate(fixture.Payload)
	if err != nil {
		return fmt.Errorf("devkit: %s: validate: %w", fixture.Name, err)
	}
	first, err := adapter.Normalize(validated)
	if err != nil {
		return fmt.Errorf("devkit: %s: normalize: %w", fixture.Name, err)
	}
	second, err := adapter.Normalize(validated)
	if err != nil {
		return fmt.Errorf("devkit: %s: normalize twice: %w", fixture.Name, err)
	}
	if !reflect.DeepEqual(first, second) {
		return fmt.Errorf("devkit: %s: normalize is not deterministic", fixture.Name)
	}
	if first.Contact.Phone != core.DigitsOnly(first.Contact.Phone) {
		return fmt.Errorf("devkit: %s: phone %q is not digits-only", fixture.Name, first.Contact.Phone)
	}
	if strings.TrimSpace(first.Content.Text) == "" {
		return fmt.Errorf("devkit: %s: content text is empty", fixture.Name)
	}
	if !first.Timestamp.Equal(fixture.Expected.Timestamp) {
		return fmt.Errorf("devkit: %s: timestamp %s, want %s", fixture.Name, first.Timestamp, fixture.Expected.Timestamp)
	}
	first.Timestamp = fixture.Expected.Timestamp
	if !reflect.DeepEqual(first, fixture.Expected) {
		return fmt.Errorf("devkit: %s: normalized %+v, want %+v", fixture.Name, first, fixture.Expected)
	}
	return nil
}

// ValidateRejection checks the adapter rejects the fixture with a validation
// error naming the expected path.
func ValidateRejection(adapter core.Adapter, fixture InvalidFixture) error {
	if adapter == nil {
		return fmt.Errorf("devkit: adapter is required")
	}
	_, err := adapter.Validate(fixture.Payload)
	if err == nil {
		return fmt.Errorf("devkit: %s: expected validation error", fixture.Name)
	}
	if !core.IsValidationError(err) {
		return fmt.Errorf("devkit: %s: expected validation error, got %v", fixture.Name, err)
	}
	for _, field := range core.ValidationFields(err) {
		if field.Path == fixture.Path {
			return nil
		}
	}
	return fmt.Errorf("devkit: %s: no violation on %q in %+v", fixture.Name, fixture.Path, core.ValidationFields(err))
}

func malformedPayloads() []map[string]any {
	return []map[string]any{
		nil,
		{},
		{"entry": "not-an-array", "object": 42},
		{"messageId": 7, "phone": []any{}, "momment": nil},
		{"entry": []any{nil, 3}, "object": "whatsapp_business_account"},
	}
}

func identifyPanics(adapter core.Adapter, payload map[string]any) (panicked bool) {
	defer func() {
		if recover() != nil {
			panicked = true
		}
	}()
	adapter.Identify(payload)
	return false
}
