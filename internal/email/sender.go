package email

import (
	"context"

	"carmarket_backend/platform/config"
)

// DemandGapEmail is the content of one dealer demand-gap notification.
type DemandGapEmail struct {
	DealerName    string
	City          string
	BudgetMax     float64
	Urgency       string
	PriorityScore int
	MatchReasons  []string
}

// Sender delivers transactional email.
type Sender interface {
	SendDemandGapEmail(ctx context.Context, toEmail string, data DemandGapEmail) error
}

// NoopSender drops every email. It is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendDemandGapEmail(ctx context.Context, toEmail string, data DemandGapEmail) error {
	return nil
}

// NewSender returns an SMTP sender when email is enabled, otherwise a NoopSender.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(), cfg.GetEmailFromName())
}
