package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/Ibrakam/Sales-Machine/internal/infra/http/middleware"
)

// SyncRecorder tracks per-connection sync statistics. Satisfied by
// database.CRMRepository.
type SyncRecorder interface {
	RecordSyncSuccess(ctx context.Context, connectionID int64, at time.Time) error
	RecordSyncFailure(ctx context.Context, connectionID int64, syncErr string) error
}

// CRMPusher delivers a sync job to the external CRM. The concrete
// integrations are thin; the worker only cares about success or failure.
type CRMPusher interface {
	Push(ctx context.Context, payload SyncPayload) error
}

type Worker struct {
	Channel *amqp.Channel
	Pusher  CRMPusher
	Stats   SyncRecorder
}

func NewWorker(ch *amqp.Channel, pusher CRMPusher, stats SyncRecorder) *Worker {
	return &Worker{Channel: ch, Pusher: pusher, Stats: stats}
}

// Start consumes sync jobs until the channel closes. Malformed and failed
// jobs are rejected without requeue and dead-letter.
func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("register CRM sync consumer")
	}

	log.Info().Str("queue", queueName).Msg("CRM sync worker started")

	for d := range msgs {
		var payload SyncPayload
		if err := json.Unmarshal(d.Body, &payload); err != nil {
			log.Error().Err(err).Msg("invalid sync payload")
			d.Nack(false, false)
			continue
		}

		ctx := context.Background()
		if err := w.process(ctx, payload); err != nil {
			log.Error().Err(err).
				Str("job_id", payload.JobID).
				Int64("connection_id", payload.ConnectionID).
				Msg("CRM sync failed")
			middleware.RecordCRMSyncJob("failure")
			d.Nack(false, false)
			continue
		}

		log.Info().
			Str("job_id", payload.JobID).
			Str("trigger", payload.Trigger).
			Int64("connection_id", payload.ConnectionID).
			Msg("CRM sync done")
		middleware.RecordCRMSyncJob("success")
		d.Ack(false)
	}
}

func (w *Worker) process(ctx context.Context, payload SyncPayload) error {
	if err := w.Pusher.Push(ctx, payload); err != nil {
		if recErr := w.Stats.RecordSyncFailure(ctx, payload.ConnectionID, err.Error()); recErr != nil {
			log.Error().Err(recErr).Msg("record sync failure")
		}
		return err
	}
	return w.Stats.RecordSyncSuccess(ctx, payload.ConnectionID, time.Now().UTC())
}
