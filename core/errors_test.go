package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestParseProvider(t *testing.T) {
	got, err := ParseProvider(" ZAPI ")
	if err != nil || got != ProviderZAPI {
		t.Fatalf("expected zapi, got %q (%v)", got, err)
	}
	_, err = ParseProvider("telegram")
	if !IsUnknownProvider(err) {
		t.Fatalf("expected unknown provider, got %v", err)
	}
	if IsAdapterNotFound(err) {
		t.Fatalf("unknown provider must differ from adapter not found")
	}
}

func TestMapError_TaxonomyStatuses(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		textCode string
	}{
		{"validation", NewValidationError(ProviderZAPI, FieldViolation{Path: "phone", Reason: "required"}), http.StatusBadRequest, ErrorValidationFailed},
		{"unknown provider", unknownProviderError("x"), http.StatusBadRequest, ErrorUnknownProvider},
		{"adapter not found", adapterNotFoundError("x"), http.StatusNotImplemented, ErrorAdapterNotFound},
		{"processing", NewProcessingError(StepSaveMessage, errors.New("boom"), nil), http.StatusInternalServerError, ErrorProcessingFailed},
		{"verification", NewVerificationError(ProviderMetaWhatsApp, nil), http.StatusForbidden, ErrorVerificationFailed},
		{"not found", fmt.Errorf("store: %w", ErrMessageNotFound), http.StatusNotFound, ErrorMessageNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := MapError(tc.err)
			if mapped == nil {
				t.Fatalf("expected mapped error")
			}
			if mapped.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, mapped.Code)
			}
			if mapped.TextCode != tc.textCode {
				t.Fatalf("expected text code %q, got %q", tc.textCode, mapped.TextCode)
			}
		})
	}
}

func TestNewProcessingError_KeepsStepAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewProcessingError(StepUpdateClassification, cause, map[string]any{"message_id": "msg_1"})
	if ProcessingStep(err) != StepUpdateClassification {
		t.Fatalf("expected step metadata")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause reachable")
	}
	if ProcessingStep(cause) != "" {
		t.Fatalf("plain errors carry no step")
	}
}

func TestNewProcessingError_OverridesRichCauseCategory(t *testing.T) {
	cause := goerrors.New("classifier upstream returned 503", goerrors.CategoryExternal).
		WithCode(http.StatusBadGateway).
		WithTextCode("UPSTREAM_UNAVAILABLE")
	err := NewProcessingError(StepClassifyMessage, cause, nil)

	mapped := MapError(err)
	if mapped.Category != goerrors.CategoryOperation {
		t.Fatalf("expected operation category, got %s", mapped.Category)
	}
	if mapped.Code != http.StatusInternalServerError || mapped.TextCode != ErrorProcessingFailed {
		t.Fatalf("unexpected envelope %d %s", mapped.Code, mapped.TextCode)
	}
	if ProcessingStep(err) != StepClassifyMessage {
		t.Fatalf("expected step metadata")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected rich cause reachable")
	}
	var outer *goerrors.Error
	if !errors.As(err, &outer) || outer.Source != cause {
		t.Fatalf("expected cause as a separate link, got %+v", outer)
	}
	if cause.Category != goerrors.CategoryExternal || cause.TextCode != "UPSTREAM_UNAVAILABLE" {
		t.Fatalf("cause must not be mutated, got %s %s", cause.Category, cause.TextCode)
	}
}

func TestNewVerificationError_OverridesRichCauseCategory(t *testing.T) {
	cause := goerrors.New("bad signature", goerrors.CategoryBadInput)
	err := NewVerificationError(ProviderZAPI, cause)
	if !IsVerificationError(err) {
		t.Fatalf("expected verification error, got %v", err)
	}
	if mapped := MapError(err); mapped.Category != goerrors.CategoryAuth || mapped.Code != http.StatusForbidden {
		t.Fatalf("unexpected envelope %s %d", mapped.Category, mapped.Code)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause reachable")
	}
}

func TestValidationFields_PreservesEveryViolation(t *testing.T) {
	err := NewValidationError(ProviderMetaWhatsApp,
		FieldViolation{Path: "entry", Reason: "must contain at least 1 item"},
		FieldViolation{Path: "object", Reason: "must equal whatsapp_business_account"},
	)
	fields := ValidationFields(err)
	if len(fields) != 2 {
		t.Fatalf("expected two violations, got %+v", fields)
	}
	if fields[0].Path != "entry" || fields[1].Path != "object" {
		t.Fatalf("unexpected order %+v", fields)
	}
}
