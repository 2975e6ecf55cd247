package skills

import (
	"reflect"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{
			name:     "BareObject",
			response: `{"knowledge": "k"}`,
			want:     `{"knowledge": "k"}`,
		},
		{
			name:     "FencedWithLanguage",
			response: "```json\n{\"methods\": [\"讲授法\"]}\n```",
			want:     `{"methods": ["讲授法"]}`,
		},
		{
			name:     "FencedWithoutLanguage",
			response: "```\n{\"a\": 1}\n```",
			want:     `{"a": 1}`,
		},
		{
			name:     "SurroundingProse",
			response: "Here is the plan:\n{\"a\": 1}\nHope that helps!",
			want:     `{"a": 1}`,
		},
		{
			name:     "NoObject",
			response: "I cannot answer that.",
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.response)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("extractJSON = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var parsed struct {
		KeyPoints []string `json:"keyPoints"`
	}
	response := "```json\n{\"keyPoints\": [\"方程的定义\", \"等式的性质\"]}\n```"
	if err := decodeJSON(response, &parsed); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	if len(parsed.KeyPoints) != 2 {
		t.Errorf("key points = %v", parsed.KeyPoints)
	}

	if err := decodeJSON(`{"broken": `, &parsed); err == nil {
		t.Error("expected decode error for truncated JSON")
	}
}

func TestTrimLines(t *testing.T) {
	got := trimLines([]string{"  a  ", "", "b", "   "})
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("trimLines = %v", got)
	}
}
