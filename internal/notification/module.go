// Package notification provides event handlers that tell dealers about new
// leads and demand gaps, by email and over the live feed.
// Domain modules only publish events; they never know about email or SSE.
package notification

import (
	"context"
	"fmt"

	"carmarket_backend/internal/email"
	"carmarket_backend/internal/events"
	apphttp "carmarket_backend/internal/http"
	"carmarket_backend/internal/notification/sse"
	"carmarket_backend/platform/logger"
)

// Module handles all notification-related event subscriptions.
type Module struct {
	sender email.Sender
	sse    *sse.Service
	log    *logger.Logger
}

// New creates the notification module.
func New(sender email.Sender, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{sender: sender, sse: sse.New(log), log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// SSE returns the live feed service.
func (m *Module) SSE() *sse.Service {
	return m.sse
}

// RegisterHandlers subscribes the module to the domain events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.NameDemandGapDealersNotified, events.HandlerFunc(m.handleDemandGap))
	bus.Subscribe(events.NameLeadEnriched, events.HandlerFunc(m.handleLeadEnriched))
}

// RegisterRoutes mounts the dealer live feed.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Dealer.GET("/dealer/stream", m.sse.Handler())
}

func (m *Module) handleDemandGap(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DemandGapDealersNotified)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	failed := 0
	for _, d := range e.Dealers {
		m.sse.Publish(d.DealerID, sse.Event{Type: sse.EventDemandGap, Data: map[string]any{
			"demandGapId":   e.DemandGapID,
			"priorityScore": e.PriorityScore,
			"city":          e.City,
			"budgetMax":     e.BudgetMax,
			"urgency":       e.Urgency,
			"matchScore":    d.MatchScore,
			"matchReasons":  d.MatchReasons,
		}})

		if d.Email == "" {
			continue
		}
		err := m.sender.SendDemandGapEmail(ctx, d.Email, email.DemandGapEmail{
			DealerName:    d.BusinessName,
			City:          e.City,
			BudgetMax:     e.BudgetMax,
			Urgency:       e.Urgency,
			PriorityScore: e.PriorityScore,
			MatchReasons:  d.MatchReasons,
		})
		if err != nil {
			failed++
			m.log.Error("demand gap email failed", "demand_gap_id", e.DemandGapID, "dealer_id", d.DealerID, "error", err)
		}
	}

	m.log.Info("demand gap notifications delivered",
		"demand_gap_id", e.DemandGapID, "dealers", len(e.Dealers), "email_failures", failed)
	return nil
}

func (m *Module) handleLeadEnriched(_ context.Context, event events.Event) error {
	e, ok := event.(events.LeadEnriched)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if e.DealerID == nil || e.Superseded {
		return nil
	}

	m.sse.Publish(*e.DealerID, sse.Event{Type: sse.EventLeadEnriched, Data: map[string]any{
		"enquiryId":   e.EnquiryID,
		"aiScore":     e.AIScore,
		"intentLevel": e.IntentLevel,
		"version":     e.Version,
	}})
	return nil
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
