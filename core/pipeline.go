package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const EventMessageReceived = "message.received"

// Process runs one webhook payload through resolve, validate, normalize,
// duplicate check and persist. A duplicate is a successful outcome.
func (s *Service) Process(ctx context.Context, providerID ProviderID, payload map[string]any) (result ProcessResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"provider_id": string(providerID)}
	defer func() {
		s.observeOperation(ctx, startedAt, "process_webhook", err, fields)
	}()

	adapter, err := s.registry.Resolve(providerID)
	if err != nil {
		return ProcessResult{}, err
	}
	result, err = s.processWith(ctx, adapter, payload, fields)
	return result, err
}

func (s *Service) processWith(ctx context.Context, adapter Adapter, payload map[string]any, fields map[string]any) (ProcessResult, error) {
	providerID := adapter.Provider()

	validated, err := adapter.Validate(payload)
	if err != nil {
		if IsValidationError(err) {
			return ProcessResult{}, err
		}
		return ProcessResult{}, NewValidationError(providerID, FieldViolation{Path: "$", Reason: err.Error()})
	}

	draft, err := adapter.Normalize(validated)
	if err == nil {
		err = draft.Validate()
	}
	if err != nil {
		return ProcessResult{}, NewProcessingError(StepNormalizeMessage, err, map[string]any{
			"provider_id": string(providerID),
		})
	}
	fields["external_id"] = draft.ExternalID

	existing, err := s.repository.FindByProviderAndExternalID(ctx, draft.Provider, draft.ExternalID)
	switch {
	case err == nil:
		fields["message_id"] = existing.ID
		fields["duplicate"] = true
		return ProcessResult{Message: existing, IsDuplicate: true}, nil
	case !errors.Is(err, ErrMessageNotFound):
		return ProcessResult{}, NewProcessingError(StepFindDuplicate, err, map[string]any{
			"provider_id": string(providerID),
			"external_id": draft.ExternalID,
		})
	}

	saved, err := s.repository.Save(ctx, draft)
	if errors.Is(err, ErrDuplicateMessage) {
		// Lost an insert race; the row written by the other request wins.
		existing, findErr := s.repository.FindByProviderAndExternalID(ctx, draft.Provider, draft.ExternalID)
		if findErr != nil {
			return ProcessResult{}, NewProcessingError(StepSaveMessage, errors.Join(err, findErr), map[string]any{
				"provider_id": string(providerID),
				"external_id": draft.ExternalID,
			})
		}
		fields["message_id"] = existing.ID
		fields["duplicate"] = true
		return ProcessResult{Message: existing, IsDuplicate: true}, nil
	}
	if err != nil {
		return ProcessResult{}, NewProcessingError(StepSaveMessage, err, map[string]any{
			"provider_id": string(providerID),
			"external_id": draft.ExternalID,
		})
	}
	fields["message_id"] = saved.ID
	fields["duplicate"] = false
	return ProcessResult{Message: saved}, nil
}

// Ingest processes a payload and, for new messages, classifies it inline or
// schedules classification depending on the configured mode. Duplicates never
// trigger classification.
func (s *Service) Ingest(ctx context.Context, providerID ProviderID, payload map[string]any) (result IngestResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider_id": string(providerID),
		"mode":        s.config.ClassificationMode(),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "ingest_webhook", err, fields)
	}()

	adapter, err := s.registry.Resolve(providerID)
	if err != nil {
		return IngestResult{}, err
	}
	return s.ingestWith(ctx, adapter, payload, fields)
}

// IngestDetected is Ingest for callers that do not know the provider; the
// adapter is picked by payload sniffing.
func (s *Service) IngestDetected(ctx context.Context, payload map[string]any) (result IngestResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"mode": s.config.ClassificationMode()}
	defer func() {
		s.observeOperation(ctx, startedAt, "ingest_detected", err, fields)
	}()

	adapter, ok := s.registry.ResolvePayload(payload)
	if !ok {
		err = NewValidationError("", FieldViolation{Path: "$", Reason: "payload does not match any registered provider"})
		return IngestResult{}, err
	}
	fields["provider_id"] = string(adapter.Provider())
	return s.ingestWith(ctx, adapter, payload, fields)
}

func (s *Service) ingestWith(ctx context.Context, adapter Adapter, payload map[string]any, fields map[string]any) (IngestResult, error) {
	processed, err := s.processWith(ctx, adapter, payload, fields)
	if err != nil {
		return IngestResult{}, err
	}
	result := IngestResult{Message: processed.Message, Duplicate: processed.IsDuplicate}
	if processed.IsDuplicate {
		if processed.Message.Classification != nil {
			existing := *processed.Message.Classification
			result.Classification = &existing
		}
		return result, nil
	}

	s.publishReceived(ctx, processed.Message)

	if s.config.ClassificationMode() == ClassificationModeAsync {
		if err := s.scheduler.ScheduleClassification(ctx, processed.Message.ID); err != nil {
			return IngestResult{}, NewProcessingError(StepScheduleClassification, err, map[string]any{
				"message_id": processed.Message.ID,
			})
		}
		result.Scheduled = true
		return result, nil
	}

	classification, err := s.classifyGuarded(ctx, processed.Message.Content.Text, StepClassifyContent)
	if err != nil {
		return s.recoverInlineClassification(ctx, result, err)
	}
	stored, err := s.repository.UpdateClassification(ctx, processed.Message.ID, classification)
	if err != nil {
		return s.recoverInlineClassification(ctx, result, NewProcessingError(StepUpdateClassification, err, map[string]any{
			"message_id": processed.Message.ID,
		}))
	}
	result.Message = stored
	if stored.Classification != nil {
		classification = *stored.Classification
	}
	result.Classification = &classification
	return result, nil
}

// recoverInlineClassification handles a classification failure after the
// message was stored. Redeliveries take the duplicate path and never classify,
// so the row is handed to the scheduler when one is configured; otherwise the
// failure is logged with the message id for a later classify call.
func (s *Service) recoverInlineClassification(ctx context.Context, result IngestResult, cause error) (IngestResult, error) {
	fields := map[string]any{
		"message_id":  result.Message.ID,
		"provider_id": string(result.Message.Provider),
		"step":        ProcessingStep(cause),
		"error":       cause.Error(),
	}
	if s.scheduler == nil {
		s.logError(ctx, "inline classification failed; message stored unclassified", fields)
		return IngestResult{}, cause
	}
	if err := s.scheduler.ScheduleClassification(ctx, result.Message.ID); err != nil {
		fields["schedule_error"] = err.Error()
		s.logError(ctx, "inline classification failed and could not be scheduled; message stored unclassified", fields)
		return IngestResult{}, cause
	}
	s.logWarn(ctx, "inline classification failed; scheduled for retry", fields)
	result.Scheduled = true
	return result, nil
}

func (s *Service) publishReceived(ctx context.Context, message Message) {
	if s.publisher == nil {
		return
	}
	event := MessageEvent{
		Name:       EventMessageReceived,
		MessageID:  message.ID,
		Provider:   message.Provider,
		ExternalID: message.ExternalID,
		Phone:      message.Contact.Phone,
		OccurredAt: s.timestamp(),
		Metadata: map[string]any{
			"is_from_me": message.IsFromMe,
			"timestamp":  message.Timestamp.Format(time.RFC3339Nano),
		},
	}
	if err := s.publisher.PublishMessageEvent(ctx, event); err != nil {
		s.logWarn(ctx, fmt.Sprintf("publish %s failed", EventMessageReceived), map[string]any{
			"message_id":  message.ID,
			"provider_id": string(message.Provider),
			"error":       err.Error(),
		})
	}
}
