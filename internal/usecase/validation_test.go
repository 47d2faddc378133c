package usecase_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ibrakam/Sales-Machine/internal/usecase"
)

func TestValidateChatInput(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		errs := usecase.ValidateChatInput(usecase.ChatInput{
			Message: "hello",
			History: []usecase.ChatHistoryEntry{
				{Role: "user", Content: "q"},
				{Role: "assistant", Content: "a"},
				{Role: "system", Content: "s"},
			},
		})
		assert.Empty(t, errs)
	})

	t.Run("Boundary Lengths", func(t *testing.T) {
		errs := usecase.ValidateChatInput(usecase.ChatInput{
			Message: strings.Repeat("a", 2000),
			History: []usecase.ChatHistoryEntry{{Role: "user", Content: strings.Repeat("b", 4000)}},
		})
		assert.Empty(t, errs)
	})

	t.Run("Multibyte Counts Runes", func(t *testing.T) {
		// 2000 cyrillic characters are more than 2000 bytes but still valid.
		errs := usecase.ValidateChatInput(usecase.ChatInput{Message: strings.Repeat("д", 2000)})
		assert.Empty(t, errs)

		errs = usecase.ValidateChatInput(usecase.ChatInput{Message: strings.Repeat("д", 2001)})
		assert.Len(t, errs, 1)
	})

	t.Run("Empty Message", func(t *testing.T) {
		errs := usecase.ValidateChatInput(usecase.ChatInput{Message: ""})
		assert.Len(t, errs, 1)
		assert.Equal(t, "message", errs[0].Field)
	})

	t.Run("History Errors Accumulate", func(t *testing.T) {
		errs := usecase.ValidateChatInput(usecase.ChatInput{
			Message: "ok",
			History: []usecase.ChatHistoryEntry{
				{Role: "bot", Content: "x"},
				{Role: "user", Content: ""},
				{Role: "user", Content: strings.Repeat("c", 4001)},
			},
		})
		assert.Len(t, errs, 3)
		assert.Equal(t, "history[0].role", errs[0].Field)
		assert.Equal(t, "history[1].content", errs[1].Field)
		assert.Equal(t, "history[2].content", errs[2].Field)
	})
}
