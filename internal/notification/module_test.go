package notification

import (
	"context"
	"errors"
	"testing"

	"carmarket_backend/internal/email"
	"carmarket_backend/internal/events"
	platformevents "carmarket_backend/platform/events"
	"carmarket_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingSender struct {
	sent []string
	fail map[string]bool
}

func (r *recordingSender) SendDemandGapEmail(_ context.Context, to string, _ email.DemandGapEmail) error {
	if r.fail[to] {
		return errors.New("smtp 550")
	}
	r.sent = append(r.sent, to)
	return nil
}

func TestDemandGapEmailsOnlyDealersWithAddress(t *testing.T) {
	sender := &recordingSender{fail: map[string]bool{"broken@example.com": true}}
	m := New(sender, logger.Discard())
	bus := platformevents.NewInMemoryBus(logger.Discard())
	m.RegisterHandlers(bus)

	err := bus.PublishSync(context.Background(), events.DemandGapDealersNotified{
		BaseEvent:   events.NewBaseEvent(),
		DemandGapID: uuid.New(),
		Dealers: []events.NotifiedDealer{
			{DealerID: uuid.New(), Email: "a@example.com"},
			{DealerID: uuid.New()},
			{DealerID: uuid.New(), Email: "broken@example.com"},
		},
	})
	if err != nil {
		t.Fatalf("email failures must not propagate, got %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "a@example.com" {
		t.Fatalf("unexpected recipients %v", sender.sent)
	}
}

func TestLeadEnrichedSkipsSupersededAndUnassigned(t *testing.T) {
	m := New(nil, logger.Discard())
	dealer := uuid.New()

	for _, e := range []events.LeadEnriched{
		{EnquiryID: uuid.New()},
		{EnquiryID: uuid.New(), DealerID: &dealer, Superseded: true},
	} {
		if err := m.handleLeadEnriched(context.Background(), e); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	}

	if err := m.handleLeadEnriched(context.Background(), events.DemandGapDealersNotified{}); err == nil {
		t.Fatal("expected error for wrong event type")
	}
}
