package entity

import (
	"time"
)

type InstagramStatus string

const (
	InstagramPending      InstagramStatus = "pending"
	InstagramConnected    InstagramStatus = "connected"
	InstagramDisconnected InstagramStatus = "disconnected"
)

func (s InstagramStatus) Valid() bool {
	switch s {
	case InstagramPending, InstagramConnected, InstagramDisconnected:
		return true
	}
	return false
}

// InstagramAccount is a singleton row: the workspace connects at most one
// business account.
type InstagramAccount struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	BusinessAccountID string `json:"business_account_id,omitempty"`
	ProfileURL        string `json:"profile_url,omitempty"`
	FollowersCount    *int64 `json:"followers_count,omitempty"`

	AccessToken string          `json:"-"`
	Status      InstagramStatus `json:"status"`
	ConnectedAt *time.Time      `json:"connected_at,omitempty"`
	LastSyncAt  *time.Time      `json:"last_sync_at,omitempty"`

	Metadata JSONMap `json:"integration_metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
