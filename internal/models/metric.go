package models

import (
	"math"
	"time"
)

// Feedback event kinds.
const (
	FeedbackImpression = "impression"
	FeedbackConversion = "conversion"
	FeedbackEngagement = "engagement"
	FeedbackApproval   = "approval"
)

// OutcomeMetric holds the per-(rule, test, variant) aggregate counters the
// significance engine reads. Counters accumulate incrementally; they are
// never decremented.
type OutcomeMetric struct {
	RuleID          string
	TestID          string
	VariantID       string
	Impressions     int64
	Conversions     int64
	EngagementSum   float64
	EngagementSqSum float64
	Samples         int64
}

// EngagementMean returns the mean of the sampled engagement values.
func (m *OutcomeMetric) EngagementMean() float64 {
	if m.Samples == 0 {
		return 0
	}
	return m.EngagementSum / float64(m.Samples)
}

// EngagementStdDev returns the population standard deviation of the
// sampled engagement values.
func (m *OutcomeMetric) EngagementStdDev() float64 {
	if m.Samples == 0 {
		return 0
	}
	mean := m.EngagementMean()
	variance := m.EngagementSqSum/float64(m.Samples) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// CTR returns conversions divided by impressions, or 0 with no impressions.
func (m *OutcomeMetric) CTR() float64 {
	if m.Impressions == 0 {
		return 0
	}
	return float64(m.Conversions) / float64(m.Impressions)
}

// FeedbackEvent is one appended conversion/engagement/approval signal.
type FeedbackEvent struct {
	ID        int64
	RuleID    string
	TestID    string
	VariantID string
	Kind      string
	Value     float64
	CreatedAt time.Time
}
