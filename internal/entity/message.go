package entity

import (
	"time"
)

type MessageType string

const (
	MessageEmail    MessageType = "email"
	MessageLinkedIn MessageType = "linkedin"
	MessageWhatsApp MessageType = "whatsapp"
	MessageSMS      MessageType = "sms"
	MessageCall     MessageType = "call"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageEmail, MessageLinkedIn, MessageWhatsApp, MessageSMS, MessageCall:
		return true
	}
	return false
}

type MessageStatus string

const (
	MessageDraft     MessageStatus = "draft"
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageOpened    MessageStatus = "opened"
	MessageReplied   MessageStatus = "replied"
	MessageFailed    MessageStatus = "failed"
)

func (s MessageStatus) Valid() bool {
	switch s {
	case MessageDraft, MessageSent, MessageDelivered, MessageOpened, MessageReplied, MessageFailed:
		return true
	}
	return false
}

type Message struct {
	ID        int64 `json:"id"`
	LeadID    int64 `json:"lead_id"`
	CreatedBy int64 `json:"created_by"`

	MessageType MessageType   `json:"message_type"`
	Status      MessageStatus `json:"status"`

	Subject  string `json:"subject,omitempty"`
	Body     string `json:"body"`
	Language string `json:"language,omitempty"`

	IsAIGenerated bool   `json:"is_ai_generated"`
	AIPrompt      string `json:"ai_prompt,omitempty"`
	AIModel       string `json:"ai_model,omitempty"`
	AITokensUsed  *int64 `json:"ai_tokens_used,omitempty"`

	SentAt      *time.Time `json:"sent_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	OpenedAt    *time.Time `json:"opened_at,omitempty"`
	RepliedAt   *time.Time `json:"replied_at,omitempty"`

	ExternalID string `json:"external_id,omitempty"`
	ThreadID   string `json:"thread_id,omitempty"`

	Metadata     JSONMap `json:"metadata,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
