package services

import (
	"context"

	"github.com/quangduy772005-oss/BKT2-FullStack/events"
	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

// RefundRequester asks the wallet to return a participant's entry fee.
type RefundRequester interface {
	RequestRefund(ctx context.Context, tournament models.Tournament, participant models.Participant) error
}

// EventRefundRequester hands refunds to the wallet through the event stream.
type EventRefundRequester struct {
	publisher events.Publisher
}

func NewEventRefundRequester(publisher events.Publisher) *EventRefundRequester {
	if publisher == nil {
		publisher = events.Nop
	}
	return &EventRefundRequester{publisher: publisher}
}

func (r *EventRefundRequester) RequestRefund(ctx context.Context, t models.Tournament, p models.Participant) error {
	r.publisher.Publish(ctx, events.RefundRequested, &t.ID, events.RefundPayload{
		TournamentID:  t.ID,
		ParticipantID: p.ID,
		MemberID:      p.MemberID,
		Amount:        t.EntryFee,
	})
	return nil
}
