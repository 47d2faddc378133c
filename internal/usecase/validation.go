package usecase

import (
	"fmt"
	"unicode/utf8"
)

const (
	maxChatMessageLen = 2000
	maxHistoryLen     = 4000
)

type ValidationError struct {
	Field   string
	Message string
}

func validHistoryRole(role string) bool {
	switch role {
	case "system", "user", "assistant":
		return true
	}
	return false
}

// ValidateChatInput enforces the request bounds before any side effect:
// message 1..2000 chars, each history entry a known role with content
// 1..4000 chars.
func ValidateChatInput(in ChatInput) []ValidationError {
	var errs []ValidationError

	if in.Message == "" {
		errs = append(errs, ValidationError{Field: "message", Message: "must not be empty"})
	} else if utf8.RuneCountInString(in.Message) > maxChatMessageLen {
		errs = append(errs, ValidationError{Field: "message", Message: fmt.Sprintf("must be at most %d characters", maxChatMessageLen)})
	}

	for i, entry := range in.History {
		field := fmt.Sprintf("history[%d]", i)
		if !validHistoryRole(entry.Role) {
			errs = append(errs, ValidationError{Field: field + ".role", Message: "must be one of system, user, assistant"})
		}
		if entry.Content == "" {
			errs = append(errs, ValidationError{Field: field + ".content", Message: "must not be empty"})
		} else if utf8.RuneCountInString(entry.Content) > maxHistoryLen {
			errs = append(errs, ValidationError{Field: field + ".content", Message: fmt.Sprintf("must be at most %d characters", maxHistoryLen)})
		}
	}

	return errs
}
