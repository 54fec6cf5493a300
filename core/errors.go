package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorValidationFailed     = "NORMALIZER_VALIDATION_FAILED"
	ErrorUnknownProvider      = "NORMALIZER_UNKNOWN_PROVIDER"
	ErrorAdapterNotFound      = "NORMALIZER_ADAPTER_NOT_FOUND"
	ErrorProcessingFailed     = "NORMALIZER_PROCESSING_FAILED"
	ErrorDuplicateMessage     = "NORMALIZER_DUPLICATE_MESSAGE"
	ErrorVerificationFailed   = "NORMALIZER_VERIFICATION_FAILED"
	ErrorMessageNotFound      = "NORMALIZER_MESSAGE_NOT_FOUND"
	ErrorBadInput             = "NORMALIZER_BAD_INPUT"
	ErrorInternal             = "NORMALIZER_INTERNAL_ERROR"
	ErrorExternalFailure      = "NORMALIZER_EXTERNAL_FAILURE"
	ErrorClassifierMisbehaved = "NORMALIZER_CLASSIFIER_INVALID_OUTPUT"
)

// Pipeline step names carried by processing errors.
const (
	StepNormalizeMessage       = "normalize_message"
	StepFindDuplicate          = "find_duplicate"
	StepSaveMessage            = "save_message"
	StepFindMessage            = "find_message"
	StepClassifyMessage        = "classify_message"
	StepClassifyContent        = "classify_content"
	StepUpdateClassification   = "update_classification"
	StepScheduleClassification = "schedule_classification"
)

// FieldViolation describes one invalid payload field.
type FieldViolation struct {
	Path   string
	Reason string
}

func (v FieldViolation) String() string {
	return v.Path + ": " + v.Reason
}

// NewValidationError builds the client-facing error for a payload that failed a
// provider schema. Every violation keeps its path and reason.
func NewValidationError(providerID ProviderID, violations ...FieldViolation) error {
	copied := append([]FieldViolation(nil), violations...)
	fields := make([]goerrors.FieldError, 0, len(copied))
	for _, violation := range copied {
		fields = append(fields, goerrors.FieldError{
			Field:   violation.Path,
			Message: violation.Reason,
		})
	}
	message := fmt.Sprintf("core: %s payload failed validation", providerID)
	if len(copied) > 0 {
		message = fmt.Sprintf("%s: %s", message, copied[0].String())
	}
	err := goerrors.NewValidation(message, fields...).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorValidationFailed).
		WithSeverity(goerrors.SeverityError)
	err.WithMetadata(map[string]any{
		"provider_id": string(providerID),
		"fields":      copied,
	})
	return err
}

func unknownProviderError(token string) error {
	return goerrors.New(
		fmt.Sprintf("core: unknown provider %q", strings.TrimSpace(token)),
		goerrors.CategoryBadInput,
	).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorUnknownProvider).
		WithMetadata(map[string]any{"provider_id": strings.TrimSpace(token)})
}

func adapterNotFoundError(providerID ProviderID) error {
	return goerrors.New(
		fmt.Sprintf("core: no adapter registered for provider %q", providerID),
		goerrors.CategoryNotFound,
	).
		WithCode(http.StatusNotImplemented).
		WithTextCode(ErrorAdapterNotFound).
		WithMetadata(map[string]any{"provider_id": string(providerID)})
}

// NewProcessingError wraps a failure during an orchestration step. The result
// is always CategoryOperation; the cause stays reachable through errors.Is and
// errors.As.
func NewProcessingError(step string, cause error, metadata map[string]any) error {
	fields := cloneFields(metadata)
	fields["step"] = step
	message := fmt.Sprintf("core: %s failed", step)
	if cause == nil {
		return goerrors.New(message, goerrors.CategoryOperation).
			WithCode(http.StatusInternalServerError).
			WithTextCode(ErrorProcessingFailed).
			WithMetadata(fields)
	}
	return chained(cause, goerrors.CategoryOperation, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorProcessingFailed).
		WithMetadata(fields)
}

// NewVerificationError reports a rejected signature or subscription handshake.
func NewVerificationError(providerID ProviderID, cause error) error {
	message := fmt.Sprintf("core: %s webhook verification failed", providerID)
	metadata := map[string]any{"provider_id": string(providerID)}
	if cause == nil {
		return goerrors.New(message, goerrors.CategoryAuth).
			WithCode(http.StatusForbidden).
			WithTextCode(ErrorVerificationFailed).
			WithMetadata(metadata)
	}
	return chained(cause, goerrors.CategoryAuth, message).
		WithCode(http.StatusForbidden).
		WithTextCode(ErrorVerificationFailed).
		WithMetadata(metadata)
}

// chained builds a fresh envelope over cause. goerrors.Wrap would clone a rich
// cause and keep its category; here the cause stays a separate link.
func chained(cause error, category goerrors.Category, message string) *goerrors.Error {
	err := goerrors.New(message, category)
	err.Source = cause
	return err
}

func IsValidationError(err error) bool {
	return hasTextCode(err, ErrorValidationFailed)
}

func IsUnknownProvider(err error) bool {
	return hasTextCode(err, ErrorUnknownProvider)
}

func IsAdapterNotFound(err error) bool {
	return hasTextCode(err, ErrorAdapterNotFound)
}

func IsProcessingError(err error) bool {
	return hasTextCode(err, ErrorProcessingFailed)
}

func IsVerificationError(err error) bool {
	return hasTextCode(err, ErrorVerificationFailed)
}

// ProcessingStep returns the failed step of a processing error, or "".
func ProcessingStep(err error) string {
	rich := richError(err)
	if rich == nil || rich.TextCode != ErrorProcessingFailed {
		return ""
	}
	step, _ := rich.Metadata["step"].(string)
	return step
}

// ValidationFields returns the field violations of a validation error.
func ValidationFields(err error) []FieldViolation {
	rich := richError(err)
	if rich == nil || rich.TextCode != ErrorValidationFailed {
		return nil
	}
	fields, _ := rich.Metadata["fields"].([]FieldViolation)
	return append([]FieldViolation(nil), fields...)
}

// MapError converts any error into an envelope suitable for a caller-visible
// response.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if rich := richError(err); rich != nil {
		return ensureErrorEnvelope(rich)
	}
	switch {
	case errors.Is(err, ErrMessageNotFound):
		return ensureErrorEnvelope(goerrors.New(err.Error(), goerrors.CategoryNotFound).
			WithTextCode(ErrorMessageNotFound))
	case errors.Is(err, ErrDuplicateMessage):
		return ensureErrorEnvelope(goerrors.New(err.Error(), goerrors.CategoryConflict).
			WithTextCode(ErrorDuplicateMessage))
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func richError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}
	return nil
}

func hasTextCode(err error, code string) bool {
	rich := richError(err)
	return rich != nil && rich.TextCode == code
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = categoryHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryValidation:
		return ErrorValidationFailed
	case goerrors.CategoryBadInput:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorMessageNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorVerificationFailed
	case goerrors.CategoryConflict:
		return ErrorDuplicateMessage
	case goerrors.CategoryOperation:
		return ErrorProcessingFailed
	case goerrors.CategoryExternal:
		return ErrorExternalFailure
	default:
		return ErrorInternal
	}
}

func categoryHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
