package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

type demandGapEmailData struct {
	baseEmailData
	DealerName    string
	City          string
	Budget        string
	Urgency       string
	PriorityScore int
	MatchReasons  []string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderDemandGap(d DemandGapEmail) (subject, content string, err error) {
	city := strings.TrimSpace(d.City)
	switch {
	case city == "":
		subject = subjectDemandGapNoCity
	case strings.EqualFold(d.Urgency, "hot"):
		subject = fmt.Sprintf(subjectDemandGapUrgentFmt, city)
	default:
		subject = fmt.Sprintf(subjectDemandGapFmt, city)
	}

	content, err = renderEmailTemplate("demand_gap.html", demandGapEmailData{
		baseEmailData: baseEmailData{
			Title:      "New buyer demand",
			Heading:    "A buyer is looking for a car",
			Subheading: "Reply quickly to win the lead",
		},
		DealerName:    d.DealerName,
		City:          city,
		Budget:        formatRupees(d.BudgetMax),
		Urgency:       d.Urgency,
		PriorityScore: d.PriorityScore,
		MatchReasons:  d.MatchReasons,
	})
	return subject, content, err
}

// formatRupees renders an amount in lakh notation, e.g. 1250000 -> "₹12.5 lakh".
func formatRupees(amount float64) string {
	if amount <= 0 {
		return ""
	}
	if amount >= 100_000 {
		return strings.Replace(fmt.Sprintf("₹%.1f lakh", amount/100_000), ".0 lakh", " lakh", 1)
	}
	return fmt.Sprintf("₹%.0f", amount)
}
