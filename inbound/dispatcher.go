package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
)

const StatusAlreadyProcessed = "already_processed"

type Verifier interface {
	Verify(ctx context.Context, req core.InboundRequest) error
}

type Ingestor interface {
	Ingest(ctx context.Context, providerID core.ProviderID, payload map[string]any) (core.IngestResult, error)
}

type Dispatcher struct {
	Verifier Verifier
	Service  Ingestor
}

func NewDispatcher(verifier Verifier, service Ingestor) *Dispatcher {
	return &Dispatcher{Verifier: verifier, Service: service}
}

// Dispatch handles one webhook delivery. Errors carry the go-errors envelope
// of the failing step; the returned result is only meaningful on success or
// on a verification rejection.
func (d *Dispatcher) Dispatch(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if d == nil || d.Service == nil {
		return core.InboundResult{}, inboundInternal("inbound: dispatcher is not configured", nil)
	}
	providerID, err := core.ParseProvider(req.ProviderID)
	if err != nil {
		return core.InboundResult{}, err
	}
	req.ProviderID = string(providerID)

	if d.Verifier != nil {
		if err := d.Verifier.Verify(ctx, req); err != nil {
			if !core.IsVerificationError(err) {
				err = core.NewVerificationError(providerID, err)
			}
			return core.InboundResult{
				Accepted:   false,
				StatusCode: http.StatusForbidden,
				Metadata: map[string]any{
					"provider_id": req.ProviderID,
					"rejected":    true,
				},
			}, err
		}
	}

	payload, err := DecodePayload(providerID, req.Body)
	if err != nil {
		return core.InboundResult{}, err
	}
	ingested, err := d.Service.Ingest(ctx, providerID, payload)
	if err != nil {
		return core.InboundResult{}, err
	}

	result := core.InboundResult{
		Accepted:   true,
		StatusCode: AckStatus(ingested),
		Body:       AckBody(ingested),
		Metadata:   ensureMetadata(req.Metadata),
	}
	result.Metadata["provider_id"] = req.ProviderID
	result.Metadata["message_id"] = ingested.Message.ID
	result.Metadata["duplicate"] = ingested.Duplicate
	return result, nil
}

// DecodePayload parses a webhook body. Anything other than a single JSON object
// is a validation error on the document root. Numbers keep their literal form
// so epoch timestamps survive without float rounding.
func DecodePayload(providerID core.ProviderID, body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, core.NewValidationError(providerID, core.FieldViolation{Path: "$", Reason: "body is empty"})
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var decoded any
	if err := decoder.Decode(&decoded); err != nil {
		return nil, core.NewValidationError(providerID, core.FieldViolation{Path: "$", Reason: "malformed json: " + err.Error()})
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, core.NewValidationError(providerID, core.FieldViolation{Path: "$", Reason: "unexpected data after json document"})
	}
	payload, ok := decoded.(map[string]any)
	if !ok {
		return nil, core.NewValidationError(providerID, core.FieldViolation{Path: "$", Reason: "expected a json object"})
	}
	return payload, nil
}

// AckStatus is 200 for duplicates, 202 when classification was deferred and
// 201 otherwise.
func AckStatus(result core.IngestResult) int {
	switch {
	case result.Duplicate:
		return http.StatusOK
	case result.Scheduled:
		return http.StatusAccepted
	default:
		return http.StatusCreated
	}
}

func AckBody(result core.IngestResult) map[string]any {
	body := map[string]any{
		"id":        result.Message.ID,
		"provider":  string(result.Message.Provider),
		"duplicate": result.Duplicate,
	}
	if result.Duplicate {
		body["status"] = StatusAlreadyProcessed
		return body
	}
	if result.Classification != nil {
		body["classification"] = map[string]any{
			"intent":     string(result.Classification.Intent),
			"confidence": result.Classification.Confidence,
		}
	}
	if result.Scheduled {
		body["classification_status"] = "scheduled"
	}
	return body
}

// HeadersFromHTTP flattens request headers, keeping the first value of each.
func HeadersFromHTTP(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for key, values := range header {
		if len(values) == 0 {
			continue
		}
		out[strings.ToLower(key)] = values[0]
	}
	return out
}

func ensureMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata)+3)
	for key, value := range metadata {
		out[key] = value
	}
	return out
}
