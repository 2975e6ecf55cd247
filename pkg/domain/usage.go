package domain

// TokenUsage tracks token consumption for a call or an accumulated run.
// The zero value is the identity element under MergeUsage.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// MergeUsage returns the pointwise sum of any number of usage records.
// The merge is associative and commutative, so callers may fold usage
// stage-by-stage or all at once and get an identical total.
func MergeUsage(usages ...TokenUsage) TokenUsage {
	var total TokenUsage
	for _, u := range usages {
		total.PromptTokens += u.PromptTokens
		total.CompletionTokens += u.CompletionTokens
		total.TotalTokens += u.TotalTokens
	}
	return total
}

// Add returns u merged with other. Convenience over MergeUsage for the
// two-operand case.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return MergeUsage(u, other)
}

// IsZero reports whether no tokens have been recorded.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}
