package entity

import (
	"time"
)

type InteractionAuthor string

const (
	AuthorAdmin  InteractionAuthor = "admin"
	AuthorClient InteractionAuthor = "client"
	AuthorAI     InteractionAuthor = "ai"
)

func (a InteractionAuthor) Valid() bool {
	switch a {
	case AuthorAdmin, AuthorClient, AuthorAI:
		return true
	}
	return false
}

// LeadInteraction is one immutable entry in a lead's communication log.
// Rows are only ever appended; deleting the lead cascades them away.
type LeadInteraction struct {
	ID         int64             `json:"id"`
	LeadID     int64             `json:"lead_id"`
	AuthorType InteractionAuthor `json:"author_type"`
	AuthorName string            `json:"author_name,omitempty"`
	Message    string            `json:"message"`
	Context    JSONMap           `json:"context,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
