package problem

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// isAbsent reports whether a raw JSON field was omitted or null.
func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// ParseNumber converts a number-like JSON value to float64. JSON numbers,
// numeric strings and booleans are accepted.
func ParseNumber(raw json.RawMessage) (float64, error) {
	if isAbsent(raw) {
		return 0, ErrInvalidNumber
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, ErrInvalidNumber
	}

	switch n := v.(type) {
	case float64:
		return n, nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, ErrInvalidNumber
		}
		return f, nil
	default:
		return 0, ErrInvalidNumber
	}
}

// ParseID converts an integer-like JSON value to a problem id. Finite
// numbers are truncated toward zero; strings must hold a base-10 integer.
func ParseID(raw json.RawMessage) (int64, error) {
	if isAbsent(raw) {
		return 0, ErrInvalidRequest
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, ErrInvalidRequest
	}

	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) >= math.MaxInt64 {
			return 0, ErrInvalidRequest
		}
		return int64(n), nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, ErrInvalidRequest
		}
		return id, nil
	default:
		return 0, ErrInvalidRequest
	}
}

// parseQuestionType returns the question type when raw is a JSON string and
// "" otherwise.
func parseQuestionType(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
