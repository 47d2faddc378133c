package handlers_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
	"github.com/Ibrakam/Sales-Machine/internal/infra/http/handlers"
	"github.com/Ibrakam/Sales-Machine/internal/infra/http/middleware"
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

func chatRequest(t *testing.T, user *entity.User, body interface{}) *http.Request {
	var buf bytes.Buffer
	if raw, ok := body.(string); ok {
		buf.WriteString(raw)
	} else {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/chat", &buf)
	return req.WithContext(middleware.WithPrincipal(req.Context(), user))
}

func TestChatEndpoint(t *testing.T) {
	admin := &entity.User{ID: 1, Email: "admin@example.com", Role: entity.RoleAdmin, IsActive: true}

	t.Run("Success Without Lead", func(t *testing.T) {
		store := new(MockLeadStore)
		provider := new(MockProvider)
		provider.On("Complete", mock.Anything, mock.Anything).Return(&usecase.Completion{
			Content: "We offer CRM integration.",
			Model:   "gpt-4",
		}, nil)

		h := handlers.NewAIHandler(usecase.NewSalesAssistantChat(store, provider), provider, nil, "gpt-4")
		rec := httptest.NewRecorder()
		h.Chat(rec, chatRequest(t, admin, map[string]string{"message": "What do we offer?"}))

		assert.Equal(t, http.StatusOK, rec.Code)

		var out usecase.ChatOutput
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, "We offer CRM integration.", out.Reply)
		assert.Nil(t, out.LeadID)
		assert.Equal(t, "gpt-4", out.Model)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		store := new(MockLeadStore)
		provider := new(MockProvider)
		h := handlers.NewAIHandler(usecase.NewSalesAssistantChat(store, provider), provider, nil, "gpt-4")

		rec := httptest.NewRecorder()
		h.Chat(rec, chatRequest(t, admin, "{not json"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("Empty Message", func(t *testing.T) {
		store := new(MockLeadStore)
		provider := new(MockProvider)
		h := handlers.NewAIHandler(usecase.NewSalesAssistantChat(store, provider), provider, nil, "gpt-4")

		rec := httptest.NewRecorder()
		h.Chat(rec, chatRequest(t, admin, map[string]string{"message": ""}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("Lead Not Found", func(t *testing.T) {
		store := new(MockLeadStore)
		provider := new(MockProvider)
		store.On("FindByID", mock.Anything, int64(99)).Return(nil, sql.ErrNoRows)
		h := handlers.NewAIHandler(usecase.NewSalesAssistantChat(store, provider), provider, nil, "gpt-4")

		rec := httptest.NewRecorder()
		h.Chat(rec, chatRequest(t, admin, map[string]interface{}{"message": "hi", "lead_id": 99}))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Foreign Lead Forbidden", func(t *testing.T) {
		rep := &entity.User{ID: 7, Email: "sales@example.com", Role: entity.RoleSalesRep, IsActive: true}
		owner := int64(42)

		store := new(MockLeadStore)
		provider := new(MockProvider)
		store.On("FindByID", mock.Anything, int64(5)).Return(&entity.Lead{ID: 5, Name: "Acme", AssignedTo: &owner}, nil)
		h := handlers.NewAIHandler(usecase.NewSalesAssistantChat(store, provider), provider, nil, "gpt-4")

		rec := httptest.NewRecorder()
		h.Chat(rec, chatRequest(t, rep, map[string]interface{}{"message": "hi", "lead_id": 5}))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Provider Failure", func(t *testing.T) {
		store := new(MockLeadStore)
		provider := new(MockProvider)
		provider.On("Complete", mock.Anything, mock.Anything).Return(nil, assert.AnError)
		h := handlers.NewAIHandler(usecase.NewSalesAssistantChat(store, provider), provider, nil, "gpt-4")

		rec := httptest.NewRecorder()
		h.Chat(rec, chatRequest(t, admin, map[string]string{"message": "hi"}))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestModelsEndpoint(t *testing.T) {
	h := handlers.NewAIHandler(nil, nil, nil, "gpt-4-turbo")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ai/models", nil)
	rec := httptest.NewRecorder()
	h.Models(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Active string                   `json:"active"`
		Models []map[string]interface{} `json:"models"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "gpt-4-turbo", out.Active)
	assert.NotEmpty(t, out.Models)
}
