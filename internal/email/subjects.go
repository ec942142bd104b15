package email

const (
	subjectDemandGapFmt       = "New buyer demand in %s"
	subjectDemandGapNoCity    = "New buyer demand near you"
	subjectDemandGapUrgentFmt = "Urgent: buyer looking for a car in %s"
)
