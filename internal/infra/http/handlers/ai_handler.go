package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
	"github.com/Ibrakam/Sales-Machine/internal/infra/database"
	"github.com/Ibrakam/Sales-Machine/internal/infra/http/middleware"
	"github.com/Ibrakam/Sales-Machine/internal/usecase"
)

// AIHandler fronts the assistant endpoints. Chat is the primary one; the
// others are lighter conveniences built on the same provider and lead data.
type AIHandler struct {
	chat     *usecase.SalesAssistantChat
	provider usecase.CompletionProvider
	leads    *database.LeadRepository
	model    string
}

func NewAIHandler(chat *usecase.SalesAssistantChat, provider usecase.CompletionProvider, leads *database.LeadRepository, model string) *AIHandler {
	return &AIHandler{chat: chat, provider: provider, leads: leads, model: model}
}

// Chat runs the sales-assistant reply pipeline.
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "not authenticated")
		return
	}

	var in usecase.ChatInput
	if !decodeBody(w, r, &in) {
		middleware.RecordChatRequest("invalid")
		return
	}

	out, err := h.chat.Execute(r.Context(), caller, in)
	if err != nil {
		middleware.RecordChatRequest(strings.ToLower(usecase.ErrorCode(err)))
		respondDomainError(w, err)
		return
	}

	middleware.RecordChatRequest("ok")
	if out.LeadID != nil {
		middleware.RecordInteractions(2)
	}
	respondJSON(w, http.StatusOK, out)
}

// Models lists the completion models the workspace can use. The active one
// comes from configuration.
func (h *AIHandler) Models(w http.ResponseWriter, r *http.Request) {
	catalogue := []map[string]interface{}{
		{"id": "gpt-4", "context_window": 8192},
		{"id": "gpt-4-turbo", "context_window": 128000},
		{"id": "gpt-3.5-turbo", "context_window": 16385},
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"active": h.model,
		"models": catalogue,
	})
}

type generateEmailRequest struct {
	LeadID  int64  `json:"lead_id"`
	Purpose string `json:"purpose"`
	Tone    string `json:"tone"`
}

// GenerateEmail drafts an outreach email for a lead with the completion
// provider. Nothing is persisted; the caller saves the draft as a message
// if they want to keep it.
func (h *AIHandler) GenerateEmail(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.PrincipalFrom(r.Context())

	var req generateEmailRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LeadID <= 0 {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "lead_id is required")
		return
	}

	lead, err := h.leads.FindByID(r.Context(), req.LeadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "lead not found")
			return
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to load lead")
		return
	}
	if !lead.AccessibleBy(caller) {
		respondError(w, http.StatusForbidden, usecase.CodeForbidden, "not enough permissions")
		return
	}

	tone := req.Tone
	if tone == "" {
		tone = "professional"
	}
	purpose := req.Purpose
	if purpose == "" {
		purpose = "introduce our services and propose a short call"
	}

	prompt := fmt.Sprintf(
		"Write a %s outreach email to %s", tone, lead.Name)
	if lead.Company != "" {
		prompt += fmt.Sprintf(" (%s at %s)", orUnknown(lead.Position), lead.Company)
	}
	prompt += ". Goal: " + purpose + ". Return the subject on the first line prefixed with 'Subject:', then the body."

	completion, err := h.provider.Complete(r.Context(), []usecase.ChatMessage{
		{Role: "system", Content: "You write concise b2b sales emails for an IT services company."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		log.Error().Err(err).Int64("lead_id", lead.ID).Msg("email generation failed")
		respondError(w, http.StatusInternalServerError, usecase.CodeProviderError, "email generation failed")
		return
	}

	subject, body := splitGeneratedEmail(completion.Content)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lead_id": lead.ID,
		"subject": subject,
		"body":    body,
		"model":   completion.Model,
		"usage":   completion.Usage,
	})
}

type scoreLeadRequest struct {
	LeadID int64 `json:"lead_id"`
}

// ScoreLead recomputes a lead's score from profile completeness and
// engagement signals and stores the result on the lead.
func (h *AIHandler) ScoreLead(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.PrincipalFrom(r.Context())

	var req scoreLeadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LeadID <= 0 {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "lead_id is required")
		return
	}

	lead, err := h.leads.FindByID(r.Context(), req.LeadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "lead not found")
			return
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to load lead")
		return
	}
	if !lead.AccessibleBy(caller) {
		respondError(w, http.StatusForbidden, usecase.CodeForbidden, "not enough permissions")
		return
	}

	score, category := scoreLead(lead)
	lead.Score = score
	lead.ScoreCategory = category
	if err := h.leads.Update(r.Context(), lead); err != nil {
		log.Error().Err(err).Int64("lead_id", lead.ID).Msg("score persist failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to store score")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lead_id":        lead.ID,
		"score":          score,
		"score_category": category,
	})
}

// GenerateForecast and Usage are reserved endpoints; the prediction model
// and per-user token accounting are not built yet.
func (h *AIHandler) GenerateForecast(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "forecast generation is not available yet")
}

func (h *AIHandler) Usage(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "usage reporting is not available yet")
}

func orUnknown(s string) string {
	if s == "" {
		return "contact"
	}
	return s
}

func splitGeneratedEmail(content string) (subject, body string) {
	content = strings.TrimSpace(content)
	line, rest, found := strings.Cut(content, "\n")
	if found && strings.HasPrefix(strings.ToLower(line), "subject:") {
		return strings.TrimSpace(line[len("Subject:"):]), strings.TrimSpace(rest)
	}
	return "", content
}

// scoreLead is a weighted completeness heuristic. Contactability and firm
// data dominate; recent contact adds the rest.
func scoreLead(lead *entity.Lead) (float64, string) {
	var score float64
	if lead.Email != "" {
		score += 20
	}
	if lead.Phone != "" {
		score += 15
	}
	if lead.Company != "" {
		score += 15
	}
	if lead.Position != "" {
		score += 10
	}
	if lead.Industry != "" {
		score += 10
	}
	if lead.CompanySize != "" {
		score += 10
	}
	if lead.LastContacted != nil {
		score += 20
	}

	switch {
	case score >= 70:
		return score, "hot"
	case score >= 40:
		return score, "warm"
	default:
		return score, "cold"
	}
}
