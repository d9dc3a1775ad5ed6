package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"bare array", "  [1, 2]\n", `[1, 2]`},
		{"leading and trailing prose", `Here you go: {"a": [1, 2]} Hope this helps!`, `{"a": [1, 2]}`},
		{"json fence", "```json\n[{\"id\": \"A\"}]\n```", `[{"id": "A"}]`},
		{"plain fence", "```\n{\"q\": \"x\"}\n```\nsome notes", `{"q": "x"}`},
		{"array before object", `result: [{"a": 1}, {"b": 2}]`, `[{"a": 1}, {"b": 2}]`},
		{"object wraps array", `{"items": [1]} trailing`, `{"items": [1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestExtractJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrNoJSONStart},
		{"prose only", "I cannot help with that.", ErrNoJSONStart},
		{"empty fence", "```\n```", ErrNoJSONStart},
		{"unterminated", `{"a": 1`, ErrNoJSONEnd},
		{"reversed brackets", `} nothing {`, ErrMalformedJSON},
		{"bad json", `{"a": 1,}`, ErrMalformedJSON},
		{"two values", `{"a": 1} and {"b": 2}`, ErrMalformedJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractJSON(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
