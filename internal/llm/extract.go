package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoJSONStart   = errors.New("no JSON start bracket found")
	ErrNoJSONEnd     = errors.New("no JSON end bracket found")
	ErrMalformedJSON = errors.New("malformed JSON")
)

const fence = "```"

// ExtractJSON recovers the JSON value embedded in model output. It strips a
// markdown fence, then takes everything from the first '{' or '[' to the
// last '}' or ']' and requires that slice to parse. Nesting is not checked
// beyond the outermost brackets.
func ExtractJSON(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, fence) {
		for _, segment := range strings.Split(text, fence) {
			if strings.TrimSpace(segment) != "" {
				text = segment
				break
			}
		}
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return nil, ErrNoJSONStart
	}
	end := strings.LastIndexAny(text, "}]")
	if end < 0 {
		return nil, ErrNoJSONEnd
	}
	if end < start {
		return nil, fmt.Errorf("%w: closing bracket at %d precedes opening bracket at %d", ErrMalformedJSON, end, start)
	}

	payload := text[start : end+1]
	var probe any
	if err := json.Unmarshal([]byte(payload), &probe); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	return json.RawMessage(payload), nil
}
