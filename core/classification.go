package core

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ClassifyByID classifies a persisted message once. A message that already
// carries a classification is returned as-is without calling the classifier.
func (s *Service) ClassifyByID(ctx context.Context, messageID string) (result ClassificationResult, err error) {
	startedAt := time.Now().UTC()
	messageID = strings.TrimSpace(messageID)
	fields := map[string]any{"message_id": messageID}
	defer func() {
		s.observeOperation(ctx, startedAt, "classify_by_id", err, fields)
	}()

	message, err := s.repository.FindByID(ctx, messageID)
	if err != nil {
		err = NewProcessingError(StepFindMessage, err, map[string]any{"message_id": messageID})
		return ClassificationResult{}, err
	}
	fields["provider_id"] = string(message.Provider)

	if message.Classification != nil {
		fields["already_classified"] = true
		return ClassificationResult{Message: message, Classification: *message.Classification}, nil
	}

	classification, err := s.classifyGuarded(ctx, message.Content.Text, StepClassifyMessage)
	if err != nil {
		return ClassificationResult{}, err
	}

	stored, err := s.repository.UpdateClassification(ctx, message.ID, classification)
	if err != nil {
		err = NewProcessingError(StepUpdateClassification, err, map[string]any{"message_id": message.ID})
		return ClassificationResult{}, err
	}
	if stored.Classification != nil {
		// Another writer may have classified first; its value is authoritative.
		classification = *stored.Classification
	}
	fields["intent"] = string(classification.Intent)
	return ClassificationResult{Message: stored, Classification: classification}, nil
}

// ClassifyText runs the classifier over free text without touching storage.
func (s *Service) ClassifyText(ctx context.Context, text string) (classification Classification, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"text_length": len(text)}
	defer func() {
		s.observeOperation(ctx, startedAt, "classify_text", err, fields)
	}()

	classification, err = s.classifyGuarded(ctx, text, StepClassifyContent)
	if err != nil {
		return Classification{}, err
	}
	fields["intent"] = string(classification.Intent)
	return classification, nil
}

// classifyGuarded invokes the classifier and enforces its output contract:
// confidence must sit in [0,1] and unknown intents collapse to IntentOther.
func (s *Service) classifyGuarded(ctx context.Context, text string, step string) (Classification, error) {
	if strings.TrimSpace(text) == "" {
		return Classification{}, NewProcessingError(step, errors.New("core: text to classify is empty"), nil)
	}
	classification, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return Classification{}, NewProcessingError(step, err, nil)
	}
	return GuardClassification(classification, step)
}

// GuardClassification validates raw classifier output. Out-of-range confidence
// is a processing error tagged with step; intent is coerced.
func GuardClassification(classification Classification, step string) (Classification, error) {
	if err := classification.Validate(); err != nil {
		return Classification{}, NewProcessingError(step, err, map[string]any{
			"reason": ErrorClassifierMisbehaved,
		})
	}
	classification.Intent = NormalizeIntent(string(classification.Intent))
	return classification, nil
}
