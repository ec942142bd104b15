package scoring

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

var created = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func enquiry(t EnquiryType) Enquiry {
	return Enquiry{ID: uuid.New(), UserID: uuid.New(), Type: t, Source: "listing_page", Status: StatusNew, CreatedAt: created}
}

func events(names ...string) []UserEvent {
	out := make([]UserEvent, 0, len(names))
	for i, n := range names {
		out = append(out, UserEvent{Name: n, CreatedAt: created.Add(-time.Duration(i) * time.Minute)})
	}
	return out
}

func TestChatWithNoHistoryScoresBaselinePlusType(t *testing.T) {
	got := Compute(Input{Enquiry: enquiry(EnquiryChat)})

	if got.AIScore != 58 {
		t.Fatalf("expected ai_score 58, got %d", got.AIScore)
	}
	if got.IntentLevel != IntentWarm {
		t.Fatalf("expected warm, got %s", got.IntentLevel)
	}
	if got.BuyingTimeline != TimelineMonths {
		t.Fatalf("expected months, got %s", got.BuyingTimeline)
	}
	if got.EngagementScore != 0 {
		t.Fatalf("expected engagement 0, got %d", got.EngagementScore)
	}
	if got.ConversionProbability != 29 {
		t.Fatalf("expected conversion 29, got %v", got.ConversionProbability)
	}
}

func TestTestDriveIsImmediateEvenWithoutEvents(t *testing.T) {
	got := Compute(Input{Enquiry: enquiry(EnquiryTestDrive)})
	if got.BuyingTimeline != TimelineImmediate {
		t.Fatalf("expected immediate, got %s", got.BuyingTimeline)
	}
}

func TestBuyingTimelineRuleOrder(t *testing.T) {
	cases := []struct {
		name   string
		typ    EnquiryType
		events []UserEvent
		want   BuyingTimeline
	}{
		{"test drive beats volume", EnquiryTestDrive, events("car_view", "car_view", "car_view", "car_view", "car_view", "car_view"), TimelineImmediate},
		{"loan beats high intent", EnquiryLoan, events("contact_click", "contact_click", "contact_click"), TimelineWeeks},
		{"three high intent", EnquiryCall, events("contact_click", "loan_attempt", "test_drive_request"), TimelineDays},
		{"six interactions", EnquiryCall, events("car_view", "car_view", "car_view", "car_view", "car_view", "search"), TimelineWeeks},
		{"default", EnquiryWhatsApp, events("car_view"), TimelineMonths},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(Input{Enquiry: enquiry(tc.typ), Events: tc.events})
			if got.BuyingTimeline != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got.BuyingTimeline)
			}
		})
	}
}

func TestScoresStayInRangeForLargeHistories(t *testing.T) {
	names := make([]string, 0, 500)
	for i := 0; i < 500; i++ {
		names = append(names, "test_drive_request")
	}
	funnel := make([]FunnelStage, 0, 200)
	for i := 0; i < 200; i++ {
		funnel = append(funnel, FunnelStage{Stage: "convert", EnteredAt: created})
	}

	got := Compute(Input{Enquiry: enquiry(EnquiryTestDrive), Events: events(names...), Funnel: funnel})

	if got.AIScore < 0 || got.AIScore > 100 {
		t.Fatalf("ai_score out of range: %d", got.AIScore)
	}
	if got.EngagementScore < 0 || got.EngagementScore > 100 {
		t.Fatalf("engagement out of range: %d", got.EngagementScore)
	}
	if got.ConversionProbability < 0 || got.ConversionProbability > 100 {
		t.Fatalf("conversion out of range: %v", got.ConversionProbability)
	}
	if got.IntentLevel != IntentHot {
		t.Fatalf("expected hot, got %s", got.IntentLevel)
	}
}

func TestAIScoreComponents(t *testing.T) {
	in := Input{
		Enquiry: enquiry(EnquiryCall),
		Events:  events("car_view", "contact_click", "car_view"),
		Funnel:  []FunnelStage{{Stage: "engage", EnteredAt: created}, {Stage: "intent", EnteredAt: created}},
	}
	got := Compute(in)

	// 50 + 15 (call) + 6 (3 events) + 5 (one high intent) + 15 (intent stage)
	if got.AIScore != 91 {
		t.Fatalf("expected 91, got %d", got.AIScore)
	}
	// 3*5 + 1*10 + 2*3
	if got.EngagementScore != 31 {
		t.Fatalf("expected 31, got %d", got.EngagementScore)
	}
}

func TestUnknownEnquiryTypeUsesFallbackWeight(t *testing.T) {
	got := Compute(Input{Enquiry: enquiry(EnquiryType("email"))})
	if got.AIScore != 55 {
		t.Fatalf("expected 55, got %d", got.AIScore)
	}
}

func TestAverageViewDurationIgnoresOtherStages(t *testing.T) {
	d := func(v int) *int { return &v }
	in := Input{
		Enquiry: enquiry(EnquiryChat),
		Funnel: []FunnelStage{
			{Stage: "view", DurationSeconds: d(30)},
			{Stage: "view", DurationSeconds: d(45)},
			{Stage: "view"},
			{Stage: "engage", DurationSeconds: d(500)},
		},
	}
	if got := Compute(in).AvgViewDurationSeconds; got != 37.5 {
		t.Fatalf("expected 37.5, got %v", got)
	}
	if got := Compute(Input{Enquiry: enquiry(EnquiryChat)}).AvgViewDurationSeconds; got != 0 {
		t.Fatalf("expected 0 with no view stages, got %v", got)
	}
}

func TestContactWindowBoundaries(t *testing.T) {
	cases := map[int]ContactWindow{
		8: ContactNight, 9: ContactMorning, 11: ContactMorning, 12: ContactAfternoon,
		16: ContactAfternoon, 17: ContactEvening, 20: ContactEvening, 21: ContactNight, 0: ContactNight,
	}
	for hour, want := range cases {
		if got := contactWindow(time.Date(2026, 1, 1, hour, 0, 0, 0, time.UTC)); got != want {
			t.Fatalf("hour %d: expected %s, got %s", hour, want, got)
		}
	}
}

func TestRiskFactorsAndActions(t *testing.T) {
	e := enquiry(EnquiryLoan)
	e.Source = "exit_intent"
	got := Compute(Input{Enquiry: e})

	if len(got.RiskFactors) != 2 || got.RiskFactors[0].Type != "low_engagement" || got.RiskFactors[1].Severity != SeverityHigh {
		t.Fatalf("unexpected risk factors %+v", got.RiskFactors)
	}
	// 50 + 20 = 70, warm: no immediate follow-up.
	if len(got.RecommendedActions) != 1 || got.RecommendedActions[0].Action != "send_loan_options" {
		t.Fatalf("unexpected actions %+v", got.RecommendedActions)
	}
}

func TestBehavioralSignals(t *testing.T) {
	in := Input{
		Enquiry: enquiry(EnquiryCall),
		Events: []UserEvent{
			{Name: "compare", CreatedAt: created},
			{Name: "loan_attempt", CreatedAt: created.Add(-30 * time.Hour), Metadata: map[string]any{"user_agent": "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)"}},
		},
	}
	got := Compute(in).BehavioralSignals
	want := BehavioralSignals{ReturnVisitor: true, HighIntent: true, PriceConscious: true, ComparisonShopping: true, MobileUser: true}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	in.Enquiry.UserAgent = "Mozilla/5.0 (X11; Linux x86_64)"
	if Compute(in).BehavioralSignals.MobileUser {
		t.Fatal("enquiry user agent should take precedence over event metadata")
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	in := Input{
		Enquiry: enquiry(EnquiryWhatsApp),
		Events:  events("car_view", "contact_click", "compare"),
		Funnel:  []FunnelStage{{Stage: "view", EnteredAt: created.Add(time.Hour)}},
	}
	first, second := Compute(in), Compute(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results:\n%+v\n%+v", first, second)
	}
	if !first.InputsWatermark.Equal(created.Add(time.Hour)) {
		t.Fatalf("expected watermark from newest funnel stage, got %s", first.InputsWatermark)
	}
}
