package entity

import (
	"time"
)

type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "new"
	LeadStatusInProgress LeadStatus = "in_progress"
	LeadStatusCompleted  LeadStatus = "completed"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusInProgress, LeadStatusCompleted:
		return true
	}
	return false
}

type Lead struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
	Position string `json:"position,omitempty"`
	Website  string `json:"website,omitempty"`

	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`

	Industry      string `json:"industry,omitempty"`
	CompanySize   string `json:"company_size,omitempty"`
	AnnualRevenue string `json:"annual_revenue,omitempty"`

	Status        LeadStatus `json:"status"`
	Score         float64    `json:"score"`
	ScoreCategory string     `json:"score_category,omitempty"`

	Source     string  `json:"source,omitempty"`
	SourceData JSONMap `json:"source_data,omitempty"`

	// Nil means the lead is unassigned.
	AssignedTo *int64 `json:"assigned_to,omitempty"`

	Tags         StringList `json:"tags,omitempty"`
	CustomFields JSONMap    `json:"custom_fields,omitempty"`
	Notes        string     `json:"notes,omitempty"`

	CRMID   string `json:"crm_id,omitempty"`
	CRMType string `json:"crm_type,omitempty"`

	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastContacted *time.Time `json:"last_contacted,omitempty"`
	NextFollowUp  *time.Time `json:"next_follow_up,omitempty"`
}

// AccessibleBy reports whether a user may use this lead in the assistant
// chat. Unassigned leads stay visible to any authenticated caller;
// assigned leads only to their owner or an admin.
func (l *Lead) AccessibleBy(u *User) bool {
	if u.IsAdmin() {
		return true
	}
	return l.AssignedTo == nil || *l.AssignedTo == u.ID
}

// OwnedBy is the stricter check used by the CRUD surface: non-admins
// only reach leads explicitly assigned to them.
func (l *Lead) OwnedBy(u *User) bool {
	if u.IsAdmin() {
		return true
	}
	return l.AssignedTo != nil && *l.AssignedTo == u.ID
}
