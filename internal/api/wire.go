package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// decodeList accepts either a bare JSON array or an `{key: [...]}` envelope
// keyed by any of keys; the backend is inconsistent about which it returns.
func decodeList(body []byte, keys ...string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decoding list response: %w", err)
		}
		return items, nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decoding list envelope: %w", err)
	}
	for _, key := range keys {
		raw, ok := env[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decoding %q list: %w", key, err)
		}
		return items, nil
	}
	return nil, fmt.Errorf("list envelope has none of the keys %v", keys)
}

// unwrap returns the inner object of envelopes like {"data": {...}} or
// {"incident": {...}}, or the body itself when it is not enveloped.
func unwrap(body []byte, keys ...string) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env map[string]json.RawMessage
	if json.Unmarshal(trimmed, &env) != nil {
		return trimmed
	}
	for _, key := range keys {
		if raw, ok := env[key]; ok {
			inner := bytes.TrimSpace(raw)
			if len(inner) > 0 && inner[0] == '{' {
				return inner
			}
		}
	}
	return trimmed
}

// wireTime decodes the backend's assorted timestamp spellings: RFC 3339
// with or without fractions, bare dates, and datetime-local strings.
// Absent, null, and unparseable values decode to the zero time.
type wireTime struct {
	time.Time
}

// timeLayouts are tried in order when parsing a wire timestamp.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *wireTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	// Tolerate garbage rather than failing the whole record.
	t.Time = time.Time{}
	return nil
}

// firstNonEmpty returns the first non-empty string, for wire payloads that
// spell the same field two ways.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// firstTime returns the first non-zero time.
func firstTime(values ...wireTime) time.Time {
	for _, v := range values {
		if !v.IsZero() {
			return v.Time
		}
	}
	return time.Time{}
}
