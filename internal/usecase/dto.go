package usecase

type ChatHistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatInput struct {
	Message string             `json:"message"`
	LeadID  *int64             `json:"lead_id,omitempty"`
	History []ChatHistoryEntry `json:"history,omitempty"`
}

// TokenUsage mirrors the provider's usage block. Every field is optional:
// some providers omit parts of the breakdown.
type TokenUsage struct {
	PromptTokens     *int64 `json:"prompt_tokens,omitempty"`
	CompletionTokens *int64 `json:"completion_tokens,omitempty"`
	TotalTokens      *int64 `json:"total_tokens,omitempty"`
}

type ChatOutput struct {
	Reply  string      `json:"reply"`
	LeadID *int64      `json:"lead_id,omitempty"`
	Usage  *TokenUsage `json:"usage,omitempty"`
	Model  string      `json:"model,omitempty"`
}
