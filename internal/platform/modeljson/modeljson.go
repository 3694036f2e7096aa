// Package modeljson decodes structured JSON out of raw LLM completions.
// Models are instructed to return bare JSON, but some wrap the document in
// markdown code fences anyway; those fence lines are stripped before parsing.
package modeljson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedOutput indicates the model's text could not be parsed as JSON
// after fence stripping. No repair or re-prompt is attempted; callers decide
// how to surface this.
var ErrMalformedOutput = errors.New("malformed model output")

// Decode parses the JSON document contained in text into v.
//
// Leading/trailing whitespace is trimmed first. If the remaining text starts
// with a code fence, every line that is purely a fence marker is dropped,
// regardless of position, so both ```json ... ``` and bare JSON decode to the
// same value.
func Decode(text string, v interface{}) error {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = stripFences(trimmed)
	}
	if err := json.Unmarshal([]byte(trimmed), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

func stripFences(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
