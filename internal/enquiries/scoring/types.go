package scoring

import (
	"time"

	"github.com/google/uuid"
)

// EnquiryType is how the buyer contacted the dealer.
type EnquiryType string

const (
	EnquiryCall      EnquiryType = "call"
	EnquiryWhatsApp  EnquiryType = "whatsapp"
	EnquiryTestDrive EnquiryType = "test_drive"
	EnquiryLoan      EnquiryType = "loan"
	EnquiryChat      EnquiryType = "chat"
)

// Known reports whether t is one of the closed set of enquiry types. Unknown
// stored values still score, with the fallback weight.
func (t EnquiryType) Known() bool {
	switch t {
	case EnquiryCall, EnquiryWhatsApp, EnquiryTestDrive, EnquiryLoan, EnquiryChat:
		return true
	}
	return false
}

// EnquiryStatus is the dealer-maintained lifecycle state of an enquiry.
type EnquiryStatus string

const (
	StatusNew       EnquiryStatus = "new"
	StatusContacted EnquiryStatus = "contacted"
	StatusQualified EnquiryStatus = "qualified"
	StatusConverted EnquiryStatus = "converted"
	StatusLost      EnquiryStatus = "lost"
)

// Enquiry is a buyer's expression of interest in a listing.
type Enquiry struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	DealerID     *uuid.UUID
	CarListingID *uuid.UUID
	Type         EnquiryType
	Source       string
	Status       EnquiryStatus
	UserAgent    string
	CreatedAt    time.Time
}

// UserEvent is one behavioral signal from client instrumentation.
type UserEvent struct {
	Name      string
	CarID     *uuid.UUID
	Metadata  map[string]any
	CreatedAt time.Time
}

// FunnelStage records a user entering a funnel stage.
type FunnelStage struct {
	Stage           string
	EnteredAt       time.Time
	DurationSeconds *int
}

// IntentLevel buckets the AI score.
type IntentLevel string

const (
	IntentHot  IntentLevel = "hot"
	IntentWarm IntentLevel = "warm"
	IntentCold IntentLevel = "cold"
)

// BuyingTimeline estimates how soon the buyer will purchase.
type BuyingTimeline string

const (
	TimelineImmediate BuyingTimeline = "immediate"
	TimelineDays      BuyingTimeline = "days"
	TimelineWeeks     BuyingTimeline = "weeks"
	TimelineMonths    BuyingTimeline = "months"
)

// Severity is shared by risk factors and recommended actions.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// ContactWindow is the preferred part of day to reach the buyer.
type ContactWindow string

const (
	ContactMorning   ContactWindow = "morning"
	ContactAfternoon ContactWindow = "afternoon"
	ContactEvening   ContactWindow = "evening"
	ContactNight     ContactWindow = "night"
)

// RiskFactor flags something that makes the lead less likely to convert.
type RiskFactor struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// RecommendedAction is a next step suggested to the dealer.
type RecommendedAction struct {
	Action   string   `json:"action"`
	Priority Severity `json:"priority"`
	Reason   string   `json:"reason"`
}

// BehavioralSignals are boolean flags derived from the event history.
type BehavioralSignals struct {
	ReturnVisitor      bool `json:"return_visitor"`
	HighIntent         bool `json:"high_intent"`
	PriceConscious     bool `json:"price_conscious"`
	ComparisonShopping bool `json:"comparison_shopping"`
	MobileUser         bool `json:"mobile_user"`
}

// Enrichment is the Lead Scorer output for one enquiry.
type Enrichment struct {
	EnquiryID              uuid.UUID           `json:"enquiry_id"`
	AIScore                int                 `json:"ai_score"`
	IntentLevel            IntentLevel         `json:"intent_level"`
	BuyingTimeline         BuyingTimeline      `json:"buying_timeline"`
	EngagementScore        int                 `json:"engagement_score"`
	ConversionProbability  float64             `json:"conversion_probability"`
	AvgViewDurationSeconds float64             `json:"avg_view_duration_seconds"`
	OptimalContactTime     ContactWindow       `json:"optimal_contact_time"`
	BehavioralSignals      BehavioralSignals   `json:"behavioral_signals"`
	RiskFactors            []RiskFactor        `json:"risk_factors"`
	RecommendedActions     []RecommendedAction `json:"recommended_actions"`
	// InputsWatermark is the newest input timestamp the computation saw.
	InputsWatermark time.Time `json:"inputs_watermark"`
}
