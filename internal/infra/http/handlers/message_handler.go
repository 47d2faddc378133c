package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
	"github.com/Ibrakam/Sales-Machine/internal/infra/database"
	"github.com/Ibrakam/Sales-Machine/internal/infra/http/middleware"
	"github.com/Ibrakam/Sales-Machine/internal/infra/mail"
	"github.com/Ibrakam/Sales-Machine/internal/usecase"
)

type MessageHandler struct {
	messages *database.MessageRepository
	leads    *database.LeadRepository
	mailer   *mail.EmailSender
}

func NewMessageHandler(messages *database.MessageRepository, leads *database.LeadRepository, mailer *mail.EmailSender) *MessageHandler {
	return &MessageHandler{messages: messages, leads: leads, mailer: mailer}
}

type messageRequest struct {
	LeadID      int64              `json:"lead_id"`
	MessageType entity.MessageType `json:"message_type"`
	Subject     string             `json:"subject"`
	Body        string             `json:"body"`
	Language    string             `json:"language"`
	Metadata    entity.JSONMap     `json:"metadata"`
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.PrincipalFrom(r.Context())
	limit, offset := pagination(r)

	q := r.URL.Query()
	filter := database.MessageFilter{
		MessageType: q.Get("message_type"),
		Status:      q.Get("status"),
		Skip:        offset,
		Limit:       limit,
	}
	if leadID := int64(queryInt(r, "lead_id", 0)); leadID > 0 {
		filter.LeadID = &leadID
	}
	if !caller.IsAdmin() {
		filter.CreatorID = &caller.ID
	}

	items, total, err := h.messages.List(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("message list failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to list messages")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.PrincipalFrom(r.Context())

	var req messageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LeadID <= 0 || req.Body == "" {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "lead_id and body are required")
		return
	}
	if !req.MessageType.Valid() {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "invalid message_type")
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
	if !lead.OwnedBy(caller) {
		respondError(w, http.StatusForbidden, usecase.CodeForbidden, "lead belongs to another user")
		return
	}

	msg := &entity.Message{
		LeadID:      req.LeadID,
		CreatedBy:   caller.ID,
		MessageType: req.MessageType,
		Status:      entity.MessageDraft,
		Subject:     req.Subject,
		Body:        req.Body,
		Language:    req.Language,
		Metadata:    req.Metadata,
	}
	if err := h.messages.Create(r.Context(), msg); err != nil {
		log.Error().Err(err).Msg("message insert failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to create message")
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

type updateMessageRequest struct {
	Subject *string               `json:"subject"`
	Body    *string               `json:"body"`
	Status  *entity.MessageStatus `json:"status"`
}

func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	if msg.Status != entity.MessageDraft && msg.Status != entity.MessageFailed {
		respondError(w, http.StatusConflict, usecase.CodeConflict, "only draft or failed messages can be edited")
		return
	}
	var req updateMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Subject != nil {
		msg.Subject = *req.Subject
	}
	if req.Body != nil {
		if *req.Body == "" {
			respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "body cannot be empty")
			return
		}
		msg.Body = *req.Body
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "invalid status")
			return
		}
		msg.Status = *req.Status
	}
	if err := h.messages.Update(r.Context(), msg); err != nil {
		log.Error().Err(err).Int64("message_id", msg.ID).Msg("message update failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to update message")
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

// Send delivers a draft email message to the lead's address over SMTP and
// records the outcome on the message row.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	if msg.MessageType != entity.MessageEmail {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "only email messages can be sent")
		return
	}
	if msg.Status == entity.MessageSent || msg.Status == entity.MessageDelivered {
		respondError(w, http.StatusConflict, usecase.CodeConflict, "message already sent")
		return
	}

	lead, err := h.leads.FindByID(r.Context(), msg.LeadID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to load lead")
		return
	}
	if lead.Email == "" {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "lead has no email address")
		return
	}

	if err := h.mailer.Send(lead.Email, msg.Subject, msg.Body); err != nil {
		log.Error().Err(err).Int64("message_id", msg.ID).Msg("email delivery failed")
		if markErr := h.messages.MarkFailed(r.Context(), msg.ID, err.Error()); markErr != nil {
			log.Error().Err(markErr).Int64("message_id", msg.ID).Msg("failed to record delivery failure")
		}
		respondError(w, http.StatusInternalServerError, usecase.CodeProviderError, "failed to send message")
		return
	}

	sentAt := time.Now().UTC()
	if err := h.messages.MarkSent(r.Context(), msg.ID, sentAt); err != nil {
		log.Error().Err(err).Int64("message_id", msg.ID).Msg("failed to record sent status")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "message sent but status update failed")
		return
	}
	msg.Status = entity.MessageSent
	msg.SentAt = &sentAt
	respondJSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*entity.Message, bool) {
	id, ok := pathID(w, r, "messageID")
	if !ok {
		return nil, false
	}
	msg, err := h.messages.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "message not found")
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to load message")
		return nil, false
	}
	caller, _ := middleware.PrincipalFrom(r.Context())
	if !caller.IsAdmin() && msg.CreatedBy != caller.ID {
		respondError(w, http.StatusForbidden, usecase.CodeForbidden, "message belongs to another user")
		return nil, false
	}
	return msg, true
}
