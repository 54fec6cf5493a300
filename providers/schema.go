package providers

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
)

// Inspector reads fields out of an untyped JSON payload and records one
// violation per invalid field instead of stopping at the first.
type Inspector struct {
	violations []core.FieldViolation
}

func (i *Inspector) Fail(path string, reason string) {
	i.violations = append(i.violations, core.FieldViolation{Path: path, Reason: reason})
}

func (i *Inspector) Violations() []core.FieldViolation {
	return append([]core.FieldViolation(nil), i.violations...)
}

// Err returns a core validation error for every recorded violation, or nil.
func (i *Inspector) Err(providerID core.ProviderID) error {
	if len(i.violations) == 0 {
		return nil
	}
	return core.NewValidationError(providerID, i.violations...)
}

func (i *Inspector) String(obj map[string]any, key string, path string, required bool) string {
	raw, ok := obj[key]
	if !ok || raw == nil {
		if required {
			i.Fail(path, "is required")
		}
		return ""
	}
	value, ok := raw.(string)
	if !ok {
		i.Fail(path, fmt.Sprintf("must be a string, got %s", kindOf(raw)))
		return ""
	}
	if required && strings.TrimSpace(value) == "" {
		i.Fail(path, "must not be empty")
	}
	return value
}

func (i *Inspector) Bool(obj map[string]any, key string, path string, required bool) bool {
	raw, ok := obj[key]
	if !ok || raw == nil {
		if required {
			i.Fail(path, "is required")
		}
		return false
	}
	value, ok := raw.(bool)
	if !ok {
		i.Fail(path, fmt.Sprintf("must be a boolean, got %s", kindOf(raw)))
		return false
	}
	return value
}

// Int64 accepts JSON numbers that hold a non-negative integer.
func (i *Inspector) Int64(obj map[string]any, key string, path string, required bool) int64 {
	raw, ok := obj[key]
	if !ok || raw == nil {
		if required {
			i.Fail(path, "is required")
		}
		return 0
	}
	value, ok := integerValue(raw)
	if !ok {
		i.Fail(path, fmt.Sprintf("must be a non-negative integer, got %s", kindOf(raw)))
		return 0
	}
	return value
}

// NumericString accepts a string holding a non-negative integer, as used by
// providers that send epoch timestamps as text.
func (i *Inspector) NumericString(obj map[string]any, key string, path string, required bool) int64 {
	text := i.String(obj, key, path, required)
	if strings.TrimSpace(text) == "" {
		return 0
	}
	value, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || value < 0 {
		i.Fail(path, "must be a numeric string")
		return 0
	}
	return value
}

func (i *Inspector) Object(obj map[string]any, key string, path string, required bool) map[string]any {
	raw, ok := obj[key]
	if !ok || raw == nil {
		if required {
			i.Fail(path, "is required")
		}
		return nil
	}
	value, ok := raw.(map[string]any)
	if !ok {
		i.Fail(path, fmt.Sprintf("must be an object, got %s", kindOf(raw)))
		return nil
	}
	return value
}

// Array reads a required array holding at least minItems entries.
func (i *Inspector) Array(obj map[string]any, key string, path string, minItems int) []any {
	raw, ok := obj[key]
	if !ok || raw == nil {
		i.Fail(path, "is required")
		return nil
	}
	value, ok := raw.([]any)
	if !ok {
		i.Fail(path, fmt.Sprintf("must be an array, got %s", kindOf(raw)))
		return nil
	}
	if len(value) < minItems {
		i.Fail(path, fmt.Sprintf("must contain at least %d item(s)", minItems))
		return nil
	}
	return value
}

// FirstObject returns items[0] when it is an object.
func (i *Inspector) FirstObject(items []any, path string) map[string]any {
	if len(items) == 0 {
		return nil
	}
	value, ok := items[0].(map[string]any)
	if !ok {
		i.Fail(path+"[0]", fmt.Sprintf("must be an object, got %s", kindOf(items[0])))
		return nil
	}
	return value
}

// Literal checks an enumerated string field. Optional literals may be absent.
func (i *Inspector) Literal(obj map[string]any, key string, path string, want string, required bool) string {
	raw, ok := obj[key]
	if !ok || raw == nil {
		if required {
			i.Fail(path, "is required")
		}
		return ""
	}
	value, ok := raw.(string)
	if !ok {
		i.Fail(path, fmt.Sprintf("must be a string, got %s", kindOf(raw)))
		return ""
	}
	if value != want {
		i.Fail(path, fmt.Sprintf("must equal %q", want))
	}
	return value
}

// Lookup walks nested objects by key without recording violations. It is meant
// for payload sniffing.
func Lookup(payload map[string]any, keys ...string) (any, bool) {
	var current any = payload
	for _, key := range keys {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Caption returns obj[media].caption when present as a string.
func Caption(obj map[string]any, media string) string {
	value, ok := Lookup(obj, media, "caption")
	if !ok {
		return ""
	}
	text, _ := value.(string)
	return text
}

func integerValue(raw any) (int64, bool) {
	switch value := raw.(type) {
	case float64:
		if value < 0 || value != math.Trunc(value) || value > math.MaxInt64 {
			return 0, false
		}
		return int64(value), true
	case int:
		return int64(value), value >= 0
	case int64:
		return value, value >= 0
	case json.Number:
		parsed, err := value.Int64()
		return parsed, err == nil && parsed >= 0
	default:
		return 0, false
	}
}

func kindOf(raw any) string {
	switch raw.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64, json.Number:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", raw)
	}
}
