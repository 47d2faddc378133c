package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
)

const salesAssistantPrompt = "You are a virtual sales manager for an IT services company. " +
	"The company sells web project development, CRM integration, business process " +
	"automation and infrastructure support. Answer professionally and to the point, " +
	"and propose next steps and clarifying questions."

const fallbackReply = "Sorry, I am unable to answer right now."

const assistantAuthorName = "AI Sales Assistant"

// recentHistoryLimit bounds how much stored interaction history goes into
// the provider context.
const recentHistoryLimit = 5

type SalesAssistantChat struct {
	Leads    ChatLeadStore
	Provider CompletionProvider
	Now      func() time.Time
}

func NewSalesAssistantChat(leads ChatLeadStore, provider CompletionProvider) *SalesAssistantChat {
	return &SalesAssistantChat{
		Leads:    leads,
		Provider: provider,
		Now:      time.Now,
	}
}

// Execute runs the reply pipeline: validate, resolve and authorize the
// lead, assemble the provider context, call the provider, then persist
// both sides of the exchange atomically. Validation, lookup and provider
// failures leave no side effects behind.
func (uc *SalesAssistantChat) Execute(ctx context.Context, caller *entity.User, in ChatInput) (*ChatOutput, error) {
	if errs := ValidateChatInput(in); len(errs) > 0 {
		var b strings.Builder
		for i, e := range errs {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(e.Field + " " + e.Message)
		}
		return nil, NewDomainError(CodeInvalidInput, b.String())
	}

	var lead *entity.Lead
	if in.LeadID != nil {
		found, err := uc.Leads.FindByID(ctx, *in.LeadID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, NewDomainError(CodeNotFound, "lead not found")
			}
			return nil, NewDomainError(CodePersistenceError, fmt.Sprintf("load lead: %v", err))
		}
		if !found.AccessibleBy(caller) {
			return nil, NewDomainError(CodeForbidden, "not enough permissions")
		}
		lead = found
	}

	messages, err := uc.assembleContext(ctx, lead, in)
	if err != nil {
		return nil, err
	}

	completion, err := uc.Provider.Complete(ctx, messages)
	if err != nil {
		return nil, NewDomainError(CodeProviderError, err.Error())
	}

	reply := strings.TrimSpace(completion.Content)
	if reply == "" {
		reply = fallbackReply
	}

	if lead != nil {
		now := uc.Now().UTC()
		operator := &entity.LeadInteraction{
			LeadID:     lead.ID,
			AuthorType: entity.AuthorAdmin,
			AuthorName: caller.DisplayName(),
			Message:    in.Message,
		}
		assistant := &entity.LeadInteraction{
			LeadID:     lead.ID,
			AuthorType: entity.AuthorAI,
			AuthorName: assistantAuthorName,
			Message:    reply,
		}
		if err := uc.Leads.RecordExchange(ctx, lead.ID, operator, assistant, now); err != nil {
			return nil, NewDomainError(CodePersistenceError, fmt.Sprintf("record exchange: %v", err))
		}
	}

	return &ChatOutput{
		Reply:  reply,
		LeadID: in.LeadID,
		Usage:  completion.Usage,
		Model:  completion.Model,
	}, nil
}

// assembleContext builds the ordered message list: persona prompt, lead
// snapshot, recent interaction history, caller-supplied history, and the
// new message last. Order is fixed; identical inputs produce an identical
// context.
func (uc *SalesAssistantChat) assembleContext(ctx context.Context, lead *entity.Lead, in ChatInput) ([]ChatMessage, error) {
	messages := []ChatMessage{{Role: "system", Content: salesAssistantPrompt}}

	if lead != nil {
		messages = append(messages, ChatMessage{Role: "system", Content: leadContext(lead)})

		recent, err := uc.Leads.RecentByLead(ctx, lead.ID, recentHistoryLimit)
		if err != nil {
			return nil, NewDomainError(CodePersistenceError, fmt.Sprintf("load interactions: %v", err))
		}
		if len(recent) > 0 {
			messages = append(messages, ChatMessage{Role: "system", Content: historyContext(recent)})
		}
	}

	for _, entry := range in.History {
		messages = append(messages, ChatMessage{Role: entry.Role, Content: entry.Content})
	}

	return append(messages, ChatMessage{Role: "user", Content: in.Message}), nil
}

func orPlaceholder(v string) string {
	if v == "" {
		return "not specified"
	}
	return v
}

func leadContext(lead *entity.Lead) string {
	notes := lead.Notes
	if notes == "" {
		notes = "—"
	}
	return fmt.Sprintf(
		"Client context:\nName: %s\nEmail: %s\nPhone: %s\nStatus: %s\nSource: %s\nNotes: %s",
		lead.Name,
		orPlaceholder(lead.Email),
		orPlaceholder(lead.Phone),
		lead.Status,
		orPlaceholder(lead.Source),
		notes,
	)
}

// historyContext renders the recent interactions oldest-first, one line
// each. The repository hands them most-recent-first.
func historyContext(recent []entity.LeadInteraction) string {
	lines := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		it := recent[i]
		lines = append(lines, fmt.Sprintf("%s: %s — %s",
			it.CreatedAt.Format("2006-01-02 15:04"), it.AuthorType, it.Message))
	}
	return "Recent interactions with the client:\n" + strings.Join(lines, "\n")
}
