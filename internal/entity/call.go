package entity

import (
	"time"
)

type CallDirection string

const (
	CallInbound  CallDirection = "inbound"
	CallOutbound CallDirection = "outbound"
)

func (d CallDirection) Valid() bool {
	return d == CallInbound || d == CallOutbound
}

type CallStatus string

const (
	CallInitiated CallStatus = "initiated"
	CallRinging   CallStatus = "ringing"
	CallAnswered  CallStatus = "answered"
	CallCompleted CallStatus = "completed"
	CallFailed    CallStatus = "failed"
	CallBusy      CallStatus = "busy"
	CallNoAnswer  CallStatus = "no_answer"
)

func (s CallStatus) Valid() bool {
	switch s {
	case CallInitiated, CallRinging, CallAnswered, CallCompleted, CallFailed, CallBusy, CallNoAnswer:
		return true
	}
	return false
}

type Call struct {
	ID      int64  `json:"id"`
	LeadID  *int64 `json:"lead_id,omitempty"`
	AgentID int64  `json:"agent_id"`

	FromNumber string `json:"from_number"`
	ToNumber   string `json:"to_number"`

	Direction CallDirection `json:"direction"`
	Status    CallStatus    `json:"status"`

	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`

	RecordingURL      string `json:"recording_url,omitempty"`
	RecordingDuration *int64 `json:"recording_duration,omitempty"`
	ConsentGiven      bool   `json:"consent_given"`

	ExternalCallID string `json:"external_call_id,omitempty"`
	Provider       string `json:"provider,omitempty"`

	Metadata     JSONMap `json:"metadata,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
