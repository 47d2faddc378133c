package usecase

import (
	"context"
	"time"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
)

// ChatMessage is one role-tagged entry of the context sent to the
// completion provider. Roles are the provider's: system, user, assistant.
type ChatMessage struct {
	Role    string
	Content string
}

type Completion struct {
	Content string
	Model   string
	Usage   *TokenUsage
}

// CompletionProvider is the external text-generation capability. A single
// blocking round trip, no retries; cancellation rides on ctx.
type CompletionProvider interface {
	Complete(ctx context.Context, messages []ChatMessage) (*Completion, error)
}

type LeadFinder interface {
	FindByID(ctx context.Context, id int64) (*entity.Lead, error)
}

type InteractionReader interface {
	// RecentByLead returns up to limit interactions ordered by creation
	// time, most recent first.
	RecentByLead(ctx context.Context, leadID int64, limit int) ([]entity.LeadInteraction, error)
}

// ExchangeRecorder persists both sides of a chat exchange and the lead's
// last_contacted bump as one transaction: all three writes or none.
type ExchangeRecorder interface {
	RecordExchange(ctx context.Context, leadID int64, operator, assistant *entity.LeadInteraction, contactedAt time.Time) error
}

type ChatLeadStore interface {
	LeadFinder
	InteractionReader
	ExchangeRecorder
}
