package entity

import (
	"time"
)

type CRMConnection struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// hubspot, pipedrive, salesforce, ms_dynamics
	CRMType string `json:"crm_type"`

	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"-"`

	OrgID   string `json:"org_id,omitempty"`
	OrgName string `json:"org_name,omitempty"`

	IsActive      bool `json:"is_active"`
	SyncLeads     bool `json:"sync_leads"`
	SyncContacts  bool `json:"sync_contacts"`
	SyncDeals     bool `json:"sync_deals"`
	SyncCompanies bool `json:"sync_companies"`

	SyncDirection string `json:"sync_direction"` // push, pull, bidirectional

	FieldMapping JSONMap `json:"field_mapping,omitempty"`

	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	SyncCount  int64      `json:"sync_count"`
	ErrorCount int64      `json:"error_count"`
	LastError  string     `json:"last_error,omitempty"`

	Metadata JSONMap `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
