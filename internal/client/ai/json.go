package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)\\s*```")

// ExtractJSON strips markdown fences and surrounding prose from a model reply
// and returns the outermost JSON object, or "" when there is none.
func ExtractJSON(content string) string {
	if m := fencePattern.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return ""
	}
	return content[start : end+1]
}

// decodeStrict decodes raw into T, rejecting unknown fields and trailing
// data. Any mismatch, or a value that fails ok, is ErrNoContent.
func decodeStrict[T any](raw string, ok func(T) bool) (T, error) {
	var zero T
	body := ExtractJSON(raw)
	if body == "" {
		return zero, ErrNoContent
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()
	var v T
	if err := dec.Decode(&v); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrNoContent, err)
	}
	if dec.More() {
		return zero, fmt.Errorf("%w: trailing data", ErrNoContent)
	}
	if !ok(v) {
		return zero, fmt.Errorf("%w: required field missing", ErrNoContent)
	}
	return v, nil
}
