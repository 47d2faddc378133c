package usecase_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
	"github.com/Ibrakam/Sales-Machine/internal/usecase"
)

type MockLeadStore struct {
	mock.Mock
}

func (m *MockLeadStore) FindByID(ctx context.Context, id int64) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadStore) RecentByLead(ctx context.Context, leadID int64, limit int) ([]entity.LeadInteraction, error) {
	args := m.Called(ctx, leadID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LeadInteraction), args.Error(1)
}

func (m *MockLeadStore) RecordExchange(ctx context.Context, leadID int64, operator, assistant *entity.LeadInteraction, contactedAt time.Time) error {
	args := m.Called(ctx, leadID, operator, assistant, contactedAt)
	return args.Error(0)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Complete(ctx context.Context, messages []usecase.ChatMessage) (*usecase.Completion, error) {
	args := m.Called(ctx, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.Completion), args.Error(1)
}

func salesRep() *entity.User {
	return &entity.User{ID: 7, Email: "sales@example.com", FullName: "Sales Person", Role: entity.RoleSalesRep}
}

func adminUser() *entity.User {
	return &entity.User{ID: 1, Email: "admin@example.com", Role: entity.RoleAdmin}
}

func TestChatWithoutLead(t *testing.T) {
	store := new(MockLeadStore)
	provider := new(MockProvider)
	uc := usecase.NewSalesAssistantChat(store, provider)

	provider.On("Complete", mock.Anything, mock.Anything).Return(&usecase.Completion{
		Content: "Happy to help.",
		Model:   "gpt-4",
	}, nil)

	out, err := uc.Execute(context.Background(), salesRep(), usecase.ChatInput{Message: "What do we offer?"})

	assert.NoError(t, err)
	assert.Equal(t, "Happy to help.", out.Reply)
	assert.Nil(t, out.LeadID)

	// No lead, no store traffic at all.
	store.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "RecordExchange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	messages := provider.Calls[0].Arguments.Get(1).([]usecase.ChatMessage)
	assert.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "What do we offer?", messages[1].Content)
}

func TestChatValidation(t *testing.T) {
	store := new(MockLeadStore)
	provider := new(MockProvider)
	uc := usecase.NewSalesAssistantChat(store, provider)

	t.Run("Empty Message", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), salesRep(), usecase.ChatInput{Message: ""})
		assert.Equal(t, usecase.CodeInvalidInput, usecase.ErrorCode(err))
	})

	t.Run("Message Too Long", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), salesRep(), usecase.ChatInput{
			Message: strings.Repeat("я", 2001),
		})
		assert.Equal(t, usecase.CodeInvalidInput, usecase.ErrorCode(err))
	})

	t.Run("Bad History Role", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), salesRep(), usecase.ChatInput{
			Message: "hi",
			History: []usecase.ChatHistoryEntry{{Role: "bot", Content: "hello"}},
		})
		assert.Equal(t, usecase.CodeInvalidInput, usecase.ErrorCode(err))
	})

	provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestChatLeadNotFound(t *testing.T) {
	store := new(MockLeadStore)
	provider := new(MockProvider)
	uc := usecase.NewSalesAssistantChat(store, provider)

	leadID := int64(99)
	store.On("FindByID", mock.Anything, leadID).Return(nil, sql.ErrNoRows)

	_, err := uc.Execute(context.Background(), salesRep(), usecase.ChatInput{Message: "hi", LeadID: &leadID})

	assert.Equal(t, usecase.CodeNotFound, usecase.ErrorCode(err))
	provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestChatLeadAccess(t *testing.T) {
	otherOwner := int64(42)

	t.Run("Assigned To Someone Else", func(t *testing.T) {
		store := new(MockLeadStore)
		provider := new(MockProvider)
		uc := usecase.NewSalesAssistantChat(store, provider)

		leadID := int64(5)
		store.On("FindByID", mock.Anything, leadID).Return(&entity.Lead{ID: leadID, Name: "Acme", AssignedTo: &otherOwner}, nil)

		_, err := uc.Execute(context.Background(), salesRep(), usecase.ChatInput{Message: "hi", LeadID: &leadID})

		assert.Equal(t, usecase.CodeForbidden, usecase.ErrorCode(err))
		provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("Admin Reaches Any Lead", func(t *testing.T) {
		store := new(MockLeadStore)
		provider := new(MockProvider)
		uc := usecase.NewSalesAssistantChat(store, provider)

		leadID := int64(5)
		store.On("FindByID", mock.Anything, leadID).Return(&entity.Lead{ID: leadID, Name: "Acme", AssignedTo: &otherOwner}, nil)
		store.On("RecentByLead", mock.Anything, leadID, 5).Return([]entity.LeadInteraction{}, nil)
		store.On("RecordExchange", mock.Anything, leadID, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		provider.On("Complete", mock.Anything, mock.Anything).Return(&usecase.Completion{Content: "ok"}, nil)

		_, err := uc.Execute(context.Background(), adminUser(), usecase.ChatInput{Message: "hi", LeadID: &leadID})
		assert.NoError(t, err)
	})

	t.Run("Unassigned Lead Is Open", func(t *testing.T) {
		store := new(MockLeadStore)
		provider := new(MockProvider)
		uc := usecase.NewSalesAssistantChat(store, provider)

		leadID := int64(6)
		store.On("FindByID", mock.Anything, leadID).Return(&entity.Lead{ID: leadID, Name: "Acme"}, nil)
		store.On("RecentByLead", mock.Anything, leadID, 5).Return([]entity.LeadInteraction{}, nil)
		store.On("RecordExchange", mock.Anything, leadID, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		provider.On("Complete", mock.Anything, mock.Anything).Return(&usecase.Completion{Content: "ok"}, nil)

		_, err := uc.Execute(context.Background(), salesRep(), usecase.ChatInput{Message: "hi", LeadID: &leadID})
		assert.NoError(t, err)
	})
}

func TestChatContextAssembly(t *testing.T) {
	store := new(MockLeadStore)
	provider := new(MockProvider)
	uc := usecase.NewSalesAssistantChat(store, provider)

	leadID := int64(10)
	lead := &entity.Lead{
		ID:     leadID,
		Name:   "Dana Smith",
		Status: entity.LeadStatusInProgress,
		Notes:  "prefers email",
	}
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	// Most recent first, the way the repository returns them.
	recent := []entity.LeadInteraction{
		{AuthorType: entity.AuthorAI, Message: "fifth", CreatedAt: base.Add(5 * time.Minute)},
		{AuthorType: entity.AuthorAdmin, Message: "fourth", CreatedAt: base.Add(4 * time.Minute)},
		{AuthorType: entity.AuthorClient, Message: "third", CreatedAt: base.Add(3 * time.Minute)},
		{AuthorType: entity.AuthorAdmin, Message: "second", CreatedAt: base.Add(2 * time.Minute)},
		{AuthorType: entity.AuthorAdmin, Message: "first", CreatedAt: base.Add(1 * time.Minute)},
	}

	store.On("FindByID", mock.Anything, leadID).Return(lead, nil)
	store.On("RecentByLead", mock.Anything, leadID, 5).Return(recent, nil)
	store.On("RecordExchange", mock.Anything, leadID, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	provider.On("Complete", mock.Anything, mock.Anything).Return(&usecase.Completion{Content: "reply"}, nil)

	in := usecase.ChatInput{
		Message: "Should we call them?",
		LeadID:  &leadID,
		History: []usecase.ChatHistoryEntry{
			{Role: "user", Content: "earlier question"},
			{Role: "assistant", Content: "earlier answer"},
		},
	}
	_, err := uc.Execute(context.Background(), adminUser(), in)
	assert.NoError(t, err)

	messages := provider.Calls[0].Arguments.Get(1).([]usecase.ChatMessage)
	assert.Len(t, messages, 6)

	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, messages[0].Content, "virtual sales manager")

	assert.Equal(t, "system", messages[1].Role)
	assert.Contains(t, messages[1].Content, "Name: Dana Smith")
	assert.Contains(t, messages[1].Content, "Email: not specified")
	assert.Contains(t, messages[1].Content, "Status: in_progress")
	assert.Contains(t, messages[1].Content, "Notes: prefers email")

	// Stored history rendered oldest-first.
	history := messages[2].Content
	assert.Equal(t, "system", messages[2].Role)
	assert.Contains(t, history, "Recent interactions with the client:")
	assert.Less(t, strings.Index(history, "first"), strings.Index(history, "second"))
	assert.Less(t, strings.Index(history, "fourth"), strings.Index(history, "fifth"))
	assert.Contains(t, history, "2025-03-01 12:01")

	assert.Equal(t, usecase.ChatMessage{Role: "user", Content: "earlier question"}, messages[3])
	assert.Equal(t, usecase.ChatMessage{Role: "assistant", Content: "earlier answer"}, messages[4])
	assert.Equal(t, usecase.ChatMessage{Role: "user", Content: "Should we call them?"}, messages[5])
}

func TestChatEmptyHistoryOmitsBlock(t *testing.T) {
	store := new(MockLeadStore)
	provider := new(MockProvider)
	uc := usecase.NewSalesAssistantChat(store, provider)

	leadID := int64(11)
	store.On("FindByID", mock.Anything, leadID).Return(&entity.Lead{ID: leadID, Name: "Acme"}, nil)
	store.On("RecentByLead", mock.Anything, leadID, 5).Return([]entity.LeadInteraction{}, nil)
	store.On("RecordExchange", mock.Anything, leadID, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	provider.On("Complete", mock.Anything, mock.Anything).Return(&usecase.Completion{Content: "reply"}, nil)

	_, err := uc.Execute(context.Background(), adminUser(), usecase.ChatInput{Message: "hi", LeadID: &leadID})
	assert.NoError(t, err)

	messages := provider.Calls[0].Arguments.Get(1).([]usecase.ChatMessage)
	// Persona, lead context, user message. No history block.
	assert.Len(t, messages, 3)
	for _, m := range messages {
		assert.NotContains(t, m.Content, "Recent interactions")
	}
}

func TestChatProviderFailure(t *testing.T) {
	store := new(MockLeadStore)
	provider := new(MockProvider)
	uc := usecase.NewSalesAssistantChat(store, provider)

	leadID := int64(12)
	store.On("FindByID", mock.Anything, leadID).Return(&entity.Lead{ID: leadID, Name: "Acme"}, nil)
	store.On("RecentByLead", mock.Anything, leadID, 5).Return([]entity.LeadInteraction{}, nil)
	provider.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("upstream timeout"))

	_, err := uc.Execute(context.Background(), adminUser(), usecase.ChatInput{Message: "hi", LeadID: &leadID})

	assert.Equal(t, usecase.CodeProviderError, usecase.ErrorCode(err))
	assert.Contains(t, err.Error(), "upstream timeout")
	store.AssertNotCalled(t, "RecordExchange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChatFallbackReply(t *testing.T) {
	store := new(MockLeadStore)
	provider := new(MockProvider)
	uc := usecase.NewSalesAssistantChat(store, provider)

	provider.On("Complete", mock.Anything, mock.Anything).Return(&usecase.Completion{Content: "   \n "}, nil)

	out, err := uc.Execute(context.Background(), salesRep(), usecase.ChatInput{Message: "hi"})

	assert.NoError(t, err)
	assert.Equal(t, "Sorry, I am unable to answer right now.", out.Reply)
}

func TestChatRecordsExchange(t *testing.T) {
	store := new(MockLeadStore)
	provider := new(MockProvider)
	uc := usecase.NewSalesAssistantChat(store, provider)
	fixed := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	uc.Now = func() time.Time { return fixed }

	leadID := int64(13)
	store.On("FindByID", mock.Anything, leadID).Return(&entity.Lead{ID: leadID, Name: "Acme"}, nil)
	store.On("RecentByLead", mock.Anything, leadID, 5).Return([]entity.LeadInteraction{}, nil)
	store.On("RecordExchange", mock.Anything, leadID, mock.Anything, mock.Anything, fixed).Return(nil)
	provider.On("Complete", mock.Anything, mock.Anything).Return(&usecase.Completion{
		Content: "We can start next week.",
		Model:   "gpt-4",
	}, nil)

	caller := salesRep()
	out, err := uc.Execute(context.Background(), caller, usecase.ChatInput{Message: "When can we start?", LeadID: &leadID})
	assert.NoError(t, err)
	assert.Equal(t, "We can start next week.", out.Reply)
	assert.Equal(t, &leadID, out.LeadID)
	assert.Equal(t, "gpt-4", out.Model)

	operator := store.Calls[2].Arguments.Get(2).(*entity.LeadInteraction)
	assistant := store.Calls[2].Arguments.Get(3).(*entity.LeadInteraction)
	assert.Equal(t, entity.AuthorAdmin, operator.AuthorType)
	assert.Equal(t, "Sales Person", operator.AuthorName)
	assert.Equal(t, "When can we start?", operator.Message)
	assert.Equal(t, entity.AuthorAI, assistant.AuthorType)
	assert.Equal(t, "AI Sales Assistant", assistant.AuthorName)
	assert.Equal(t, "We can start next week.", assistant.Message)
}

func TestChatPersistenceFailure(t *testing.T) {
	store := new(MockLeadStore)
	provider := new(MockProvider)
	uc := usecase.NewSalesAssistantChat(store, provider)

	leadID := int64(14)
	store.On("FindByID", mock.Anything, leadID).Return(&entity.Lead{ID: leadID, Name: "Acme"}, nil)
	store.On("RecentByLead", mock.Anything, leadID, 5).Return([]entity.LeadInteraction{}, nil)
	store.On("RecordExchange", mock.Anything, leadID, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("tx aborted"))
	provider.On("Complete", mock.Anything, mock.Anything).Return(&usecase.Completion{Content: "reply"}, nil)

	_, err := uc.Execute(context.Background(), adminUser(), usecase.ChatInput{Message: "hi", LeadID: &leadID})

	assert.Equal(t, usecase.CodePersistenceError, usecase.ErrorCode(err))
}

func TestChatAuthorNameFallback(t *testing.T) {
	store := new(MockLeadStore)
	provider := new(MockProvider)
	uc := usecase.NewSalesAssistantChat(store, provider)

	leadID := int64(15)
	store.On("FindByID", mock.Anything, leadID).Return(&entity.Lead{ID: leadID, Name: "Acme"}, nil)
	store.On("RecentByLead", mock.Anything, leadID, 5).Return([]entity.LeadInteraction{}, nil)
	store.On("RecordExchange", mock.Anything, leadID, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	provider.On("Complete", mock.Anything, mock.Anything).Return(&usecase.Completion{Content: "ok"}, nil)

	// No full name, fall back to email.
	caller := &entity.User{ID: 2, Email: "rep@example.com", Role: entity.RoleAdmin}
	_, err := uc.Execute(context.Background(), caller, usecase.ChatInput{Message: "hi", LeadID: &leadID})
	assert.NoError(t, err)

	operator := store.Calls[2].Arguments.Get(2).(*entity.LeadInteraction)
	assert.Equal(t, "rep@example.com", operator.AuthorName)
}
