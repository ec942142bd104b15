// Package scoring computes lead enrichments from an enquiry and the buyer's
// recent behavior. Compute is pure: equal inputs always give equal output.
package scoring

import (
	"math"
	"regexp"
	"time"
)

const (
	// EventLimit and FunnelLimit bound the history read for one enquiry.
	EventLimit  = 50
	FunnelLimit = 20

	baseScore           = 50
	fallbackTypeWeight  = 5
	maxVolumeBonus      = 20
	volumeBonusPerEvent = 2
	highIntentBonus     = 5
	funnelIntentBonus   = 15

	hotThreshold  = 75
	warmThreshold = 50
)

var typeWeights = map[EnquiryType]int{
	EnquiryTestDrive: 25,
	EnquiryLoan:      20,
	EnquiryCall:      15,
	EnquiryWhatsApp:  10,
	EnquiryChat:      8,
}

var highIntentEvents = map[string]struct{}{
	"contact_click":      {},
	"test_drive_request": {},
	"loan_attempt":       {},
}

var mobileAgent = regexp.MustCompile(`(?i)mobile|android|iphone|ipad`)

const (
	eventLoanAttempt = "loan_attempt"
	eventCompare     = "compare"
	sourceExitIntent = "exit_intent"
	stageView        = "view"
	stageIntent      = "intent"
	stageConvert     = "convert"
)

// Input is everything Compute needs. Events and Funnel are newest first.
type Input struct {
	Enquiry Enquiry
	Events  []UserEvent
	Funnel  []FunnelStage
}

// Compute derives the enrichment for in.
func Compute(in Input) Enrichment {
	interactions := len(in.Events)
	highIntent := countHighIntent(in.Events)

	aiScore := clamp(baseScore+
		typeWeight(in.Enquiry.Type)+
		min(maxVolumeBonus, interactions*volumeBonusPerEvent)+
		highIntent*highIntentBonus+
		funnelBonus(in.Funnel), 0, 100)

	engagement := min(100, interactions*5+highIntent*10+len(in.Funnel)*3)

	conversion := math.Min(100, float64(aiScore)*0.5+float64(engagement)*0.3+float64(highIntent)*5)
	conversion = math.Max(0, math.Round(conversion*10)/10)

	intent := intentLevel(aiScore)

	return Enrichment{
		EnquiryID:              in.Enquiry.ID,
		AIScore:                aiScore,
		IntentLevel:            intent,
		BuyingTimeline:         buyingTimeline(in.Enquiry.Type, interactions, highIntent),
		EngagementScore:        engagement,
		ConversionProbability:  conversion,
		AvgViewDurationSeconds: avgViewDuration(in.Funnel),
		OptimalContactTime:     contactWindow(in.Enquiry.CreatedAt),
		BehavioralSignals:      behavioralSignals(in, highIntent),
		RiskFactors:            riskFactors(in.Enquiry, interactions),
		RecommendedActions:     recommendedActions(in.Enquiry, intent, interactions),
		InputsWatermark:        watermark(in),
	}
}

func typeWeight(t EnquiryType) int {
	if w, ok := typeWeights[t]; ok {
		return w
	}
	return fallbackTypeWeight
}

func countHighIntent(events []UserEvent) int {
	n := 0
	for _, e := range events {
		if _, ok := highIntentEvents[e.Name]; ok {
			n++
		}
	}
	return n
}

func funnelBonus(stages []FunnelStage) int {
	for _, s := range stages {
		if s.Stage == stageIntent || s.Stage == stageConvert {
			return funnelIntentBonus
		}
	}
	return 0
}

func intentLevel(score int) IntentLevel {
	switch {
	case score >= hotThreshold:
		return IntentHot
	case score >= warmThreshold:
		return IntentWarm
	default:
		return IntentCold
	}
}

// buyingTimeline applies the rules in priority order; the enquiry type wins
// over volume-based rules.
func buyingTimeline(t EnquiryType, interactions, highIntent int) BuyingTimeline {
	switch {
	case t == EnquiryTestDrive:
		return TimelineImmediate
	case t == EnquiryLoan:
		return TimelineWeeks
	case highIntent > 2:
		return TimelineDays
	case interactions > 5:
		return TimelineWeeks
	default:
		return TimelineMonths
	}
}

func avgViewDuration(stages []FunnelStage) float64 {
	var total, n int
	for _, s := range stages {
		if s.Stage != stageView || s.DurationSeconds == nil {
			continue
		}
		total += *s.DurationSeconds
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(n)*10) / 10
}

// contactWindow uses the UTC hour the enquiry was created.
func contactWindow(created time.Time) ContactWindow {
	h := created.UTC().Hour()
	switch {
	case h >= 9 && h < 12:
		return ContactMorning
	case h >= 12 && h < 17:
		return ContactAfternoon
	case h >= 17 && h < 21:
		return ContactEvening
	default:
		return ContactNight
	}
}

func riskFactors(e Enquiry, interactions int) []RiskFactor {
	risks := make([]RiskFactor, 0, 2)
	if interactions < 2 {
		risks = append(risks, RiskFactor{
			Type:        "low_engagement",
			Severity:    SeverityMedium,
			Description: "Buyer has fewer than two tracked interactions",
		})
	}
	if e.Source == sourceExitIntent {
		risks = append(risks, RiskFactor{
			Type:        "exit_intent",
			Severity:    SeverityHigh,
			Description: "Enquiry was captured by an exit-intent prompt",
		})
	}
	return risks
}

func recommendedActions(e Enquiry, intent IntentLevel, interactions int) []RecommendedAction {
	actions := make([]RecommendedAction, 0, 3)
	if intent == IntentHot {
		actions = append(actions, RecommendedAction{
			Action:   "immediate_followup",
			Priority: SeverityHigh,
			Reason:   "Hot lead, contact within the hour",
		})
	}
	if e.Type == EnquiryLoan {
		actions = append(actions, RecommendedAction{
			Action:   "send_loan_options",
			Priority: SeverityMedium,
			Reason:   "Buyer asked about financing",
		})
	}
	if interactions > 5 {
		actions = append(actions, RecommendedAction{
			Action:   "schedule_test_drive",
			Priority: SeverityHigh,
			Reason:   "Buyer has engaged repeatedly with listings",
		})
	}
	return actions
}

func behavioralSignals(in Input, highIntent int) BehavioralSignals {
	days := make(map[string]struct{})
	var loan, compare bool
	for _, e := range in.Events {
		days[e.CreatedAt.UTC().Format(time.DateOnly)] = struct{}{}
		switch e.Name {
		case eventLoanAttempt:
			loan = true
		case eventCompare:
			compare = true
		}
	}

	return BehavioralSignals{
		ReturnVisitor:      len(days) >= 2,
		HighIntent:         highIntent > 0,
		PriceConscious:     loan,
		ComparisonShopping: compare,
		MobileUser:         mobileAgent.MatchString(userAgent(in)),
	}
}

// userAgent prefers the enquiry's user agent and falls back to the newest
// event that recorded one.
func userAgent(in Input) string {
	if in.Enquiry.UserAgent != "" {
		return in.Enquiry.UserAgent
	}
	for _, e := range in.Events {
		if ua, ok := e.Metadata["user_agent"].(string); ok && ua != "" {
			return ua
		}
	}
	return ""
}

func watermark(in Input) time.Time {
	w := in.Enquiry.CreatedAt
	for _, e := range in.Events {
		if e.CreatedAt.After(w) {
			w = e.CreatedAt
		}
	}
	for _, s := range in.Funnel {
		if s.EnteredAt.After(w) {
			w = s.EnteredAt
		}
	}
	return w.UTC()
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
