package retrieval

import (
	"reflect"
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "EnglishWithStopWords",
			query: "How to solve the linear equation",
			want:  []string{"solve", "linear", "equation"},
		},
		{
			name:  "ChinesePunctuationSplit",
			query: "一元一次方程，解法",
			want:  []string{"一元一次方程", "解法"},
		},
		{
			name:  "ChineseStopWordTokensDropped",
			query: "方程 的 解法",
			want:  []string{"方程", "解法"},
		},
		{
			name:  "DedupePreservesFirstSeenOrder",
			query: "equation basics equation review",
			want:  []string{"equation", "basics", "review"},
		},
		{
			name:  "Lowercased",
			query: "Linear EQUATION",
			want:  []string{"linear", "equation"},
		},
		{
			name:  "OnlyStopWords",
			query: "the of 的 了",
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractKeywords(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestCountKeywordMatches(t *testing.T) {
	text := "一元一次方程是含有一个未知数的等式 Linear Equation"
	if got := countKeywordMatches(text, []string{"一元一次方程", "equation", "zzz"}); got != 2 {
		t.Errorf("matched = %d, want 2", got)
	}
	if got := countKeywordMatches(text, nil); got != 0 {
		t.Errorf("matched = %d, want 0", got)
	}
}
