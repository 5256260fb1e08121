package primary

import "context"

// RulePerformance summarizes one rule's outcomes over the reporting window.
type RulePerformance struct {
	RuleID      string
	Responses   int64
	Conversions int64
	CTR         float64
	Engagement  float64
}

// PerformanceReport ranks rules over a rolling window.
type PerformanceReport struct {
	WindowDays int
	Rules      []RulePerformance
	Best       string
	Worst      string
}

// Anomaly flags an abrupt day-over-day CTR regression for one rule.
type Anomaly struct {
	RuleID       string
	Day          string
	CTR          float64
	TrailingMean float64
	Deviation    float64 // fractional deviation from the trailing mean
}

// ROIReport estimates the value of automated responses against their cost.
type ROIReport struct {
	Responses        int64
	HoursSaved       float64
	LaborValue       float64
	AutomationCost   float64
	Net              float64
	SecondsPerManual float64
	HourlyRate       float64
	CostPerResponse  float64
}

// TestResult is the significance verdict for one A/B test.
type TestResult struct {
	TestID     string
	Winner     string
	RunnerUp   string
	PValue     float64
	Metric     string // "ctr" or "engagement"
	Reason     string // populated when no winner could be declared
	Suggestion string // "pause_variant:<id>", "follow_up_test", or empty
}

// ReportService is the primary port for analytics read-outs.
type ReportService interface {
	// Performance ranks rules by CTR then engagement over the window.
	Performance(ctx context.Context, windowDays int) (*PerformanceReport, error)

	// Anomalies flags rules whose latest daily CTR deviates from the 7-day
	// trailing mean beyond the configured threshold.
	Anomalies(ctx context.Context) ([]Anomaly, error)

	// ROI computes the return-on-investment estimate over the window.
	ROI(ctx context.Context, windowDays int) (*ROIReport, error)

	// Significance runs the winner calculation for one rule's tests.
	Significance(ctx context.Context, ruleID string) ([]TestResult, error)
}
