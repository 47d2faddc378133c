package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// SyncPayload is one CRM sync job. Trigger is either a full sync requested
// through the API or a single lead change mirrored to the CRM.
type SyncPayload struct {
	JobID        string    `json:"job_id"`
	ConnectionID int64     `json:"connection_id"`
	CRMType      string    `json:"crm_type"`
	Trigger      string    `json:"trigger"` // full_sync, lead_created, lead_updated
	LeadID       *int64    `json:"lead_id,omitempty"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

type SyncProducer interface {
	PublishSync(ctx context.Context, payload SyncPayload) error
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Conn: conn, Ch: ch}
}

func (p *RabbitMQProducer) PublishSync(ctx context.Context, payload SyncPayload) error {
	if payload.JobID == "" {
		payload.JobID = uuid.New().String()
	}
	if payload.EnqueuedAt.IsZero() {
		payload.EnqueuedAt = time.Now().UTC()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sync payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish sync job: %w", err)
	}
	return nil
}

// NoopProducer stands in when the broker is disabled; sync requests are
// accepted and dropped.
type NoopProducer struct{}

func (NoopProducer) PublishSync(ctx context.Context, payload SyncPayload) error {
	return nil
}
