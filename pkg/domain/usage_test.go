package domain

import "testing"

func TestMergeUsage(t *testing.T) {
	a := TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}
	b := TokenUsage{PromptTokens: 5, CompletionTokens: 15, TotalTokens: 20}
	c := TokenUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}

	t.Run("PointwiseSum", func(t *testing.T) {
		got := MergeUsage(a, b)
		want := TokenUsage{PromptTokens: 15, CompletionTokens: 35, TotalTokens: 50}
		if got != want {
			t.Errorf("MergeUsage(a, b) = %+v, want %+v", got, want)
		}
	})

	t.Run("Identity", func(t *testing.T) {
		if got := MergeUsage(a, TokenUsage{}); got != a {
			t.Errorf("merging with zero changed the value: %+v", got)
		}
		if got := MergeUsage(); !got.IsZero() {
			t.Errorf("empty merge should be zero, got %+v", got)
		}
	})

	t.Run("Commutative", func(t *testing.T) {
		if MergeUsage(a, b) != MergeUsage(b, a) {
			t.Error("merge order changed the total")
		}
	})

	t.Run("Associative", func(t *testing.T) {
		left := MergeUsage(MergeUsage(a, b), c)
		right := MergeUsage(a, MergeUsage(b, c))
		allAtOnce := MergeUsage(a, b, c)
		if left != right || left != allAtOnce {
			t.Errorf("grouping changed the total: %+v vs %+v vs %+v", left, right, allAtOnce)
		}
	})
}

func TestTokenUsageAdd(t *testing.T) {
	a := TokenUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}
	b := TokenUsage{PromptTokens: 4, CompletionTokens: 5, TotalTokens: 9}
	if got := a.Add(b); got != MergeUsage(a, b) {
		t.Errorf("Add disagrees with MergeUsage: %+v", got)
	}
}

func TestTokenUsageIsZero(t *testing.T) {
	if !(TokenUsage{}).IsZero() {
		t.Error("zero value should report IsZero")
	}
	if (TokenUsage{TotalTokens: 1}).IsZero() {
		t.Error("non-zero usage reported IsZero")
	}
}
