package event

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/repository"
)

// Service records domain events in the outbox table. Recording is best
// effort: a failed write is logged and never fails the originating request;
// the outbox processor picks events up asynchronously.
type Service struct {
	outboxRepo repository.OutboxRepository
}

func NewService(outboxRepo repository.OutboxRepository) *Service {
	return &Service{outboxRepo: outboxRepo}
}

func (s *Service) Record(ctx context.Context, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		return
	}

	evt := &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	}
	if err := s.outboxRepo.Create(ctx, evt); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to record outbox event")
	}
}
