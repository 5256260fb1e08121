// Package stats implements the online A/B significance engine.
package stats

import (
	"math"
	"sort"
)

// Metric names reported in outcomes.
const (
	MetricCTR        = "ctr"
	MetricEngagement = "engagement"
)

// Significance thresholds.
const (
	// SignificanceLevel is the p-value at or below which a winner is declared.
	SignificanceLevel = 0.05
	// FollowUpCeiling is the p-value at or below which (but above
	// SignificanceLevel) a follow-up test is suggested.
	FollowUpCeiling = 0.2
)

// ReasonInsufficientData is reported when fewer than two variants meet the
// minimum sample requirement.
const ReasonInsufficientData = "insufficient_data"

// Suggestion kinds emitted alongside an outcome.
const (
	SuggestPauseVariant = "pause_variant"
	SuggestFollowUpTest = "follow_up_test"
)

// VariantStats is one variant's aggregate input to the engine.
type VariantStats struct {
	VariantID      string
	Impressions    int64
	Conversions    int64
	Samples        int64 // engagement sample count
	EngagementMean float64
	EngagementStd  float64 // population standard deviation
}

// CTR returns conversions over impressions, or 0 without impressions.
func (v VariantStats) CTR() float64 {
	if v.Impressions == 0 {
		return 0
	}
	return float64(v.Conversions) / float64(v.Impressions)
}

// Suggestion is an advisory follow-up produced by Evaluate. Pause
// suggestions name the variant to pause; follow-up suggestions do not.
type Suggestion struct {
	Kind      string
	VariantID string
	PValue    float64
}

// Outcome is the significance verdict for one test.
type Outcome struct {
	TestID      string
	Winner      string
	RunnerUp    string
	PValue      float64
	Metric      string
	Reason      string
	Suggestions []Suggestion
}

// Significant reports whether a winner was declared at the significance level.
func (o Outcome) Significant() bool {
	return o.Winner != "" && o.PValue <= SignificanceLevel
}

// Evaluate ranks a test's variants and computes significance between the
// winner and the runner-up. Variants below minSamples are excluded from
// consideration; with fewer than two eligible variants no winner is declared.
//
// The metric is CTR when any variant recorded impressions, engagement mean
// otherwise. Eligibility counts impressions for the CTR metric and
// engagement samples for the engagement metric.
func Evaluate(testID string, variants []VariantStats, minSamples int) Outcome {
	metric := MetricEngagement
	for _, v := range variants {
		if v.Impressions > 0 {
			metric = MetricCTR
			break
		}
	}

	eligible := make([]VariantStats, 0, len(variants))
	for _, v := range variants {
		if sampleCount(v, metric) >= int64(minSamples) {
			eligible = append(eligible, v)
		}
	}

	if len(eligible) < 2 {
		return Outcome{TestID: testID, Metric: metric, PValue: 1, Reason: ReasonInsufficientData}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return metricValue(eligible[i], metric) > metricValue(eligible[j], metric)
	})

	winner := eligible[0]
	runnerUp := eligible[1]
	worst := eligible[len(eligible)-1]

	p := pairP(winner, runnerUp, metric)
	out := Outcome{
		TestID:   testID,
		Winner:   winner.VariantID,
		RunnerUp: runnerUp.VariantID,
		PValue:   p,
		Metric:   metric,
	}

	// Pause the worst variant when it is significantly below the best.
	if worst.VariantID != winner.VariantID {
		if worstP := pairP(winner, worst, metric); worstP <= SignificanceLevel {
			out.Suggestions = append(out.Suggestions, Suggestion{
				Kind:      SuggestPauseVariant,
				VariantID: worst.VariantID,
				PValue:    worstP,
			})
		}
	}

	// Near-significant but inconclusive: suggest a follow-up test.
	if p > SignificanceLevel && p <= FollowUpCeiling {
		out.Suggestions = append(out.Suggestions, Suggestion{Kind: SuggestFollowUpTest, PValue: p})
	}

	return out
}

// TwoProportionP is the two-tailed two-proportion z-test: conversions x1 of
// n1 impressions against x2 of n2. Degenerate inputs return 1.
func TwoProportionP(x1, n1, x2, n2 int64) float64 {
	if n1 == 0 || n2 == 0 {
		return 1
	}

	p1 := float64(x1) / float64(n1)
	p2 := float64(x2) / float64(n2)
	pooled := float64(x1+x2) / float64(n1+n2)

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		return 1
	}

	z := math.Abs(p1-p2) / se
	return normalTwoTailedP(z)
}

// MeanDifferenceP is the Welch-style mean-difference test using sample means
// and population standard deviations. The p-value uses the same normal-tail
// formula as the z-test rather than an exact Student-t CDF; this is a
// deliberate, conservative approximation kept for parity with historical
// p-values.
func MeanDifferenceP(m1, s1 float64, n1 int64, m2, s2 float64, n2 int64) float64 {
	if n1 == 0 || n2 == 0 {
		return 1
	}

	se := math.Sqrt(s1*s1/float64(n1) + s2*s2/float64(n2))
	if se == 0 {
		return 1
	}

	t := math.Abs(m1-m2) / se
	return normalTwoTailedP(t)
}

// normalTwoTailedP is the two-tailed tail area of the standard normal
// distribution at |z|, computed with the error function.
func normalTwoTailedP(z float64) float64 {
	return math.Erfc(z / math.Sqrt2)
}

func pairP(a, b VariantStats, metric string) float64 {
	if metric == MetricCTR {
		return TwoProportionP(a.Conversions, a.Impressions, b.Conversions, b.Impressions)
	}
	return MeanDifferenceP(a.EngagementMean, a.EngagementStd, a.Samples, b.EngagementMean, b.EngagementStd, b.Samples)
}

func metricValue(v VariantStats, metric string) float64 {
	if metric == MetricCTR {
		return v.CTR()
	}
	return v.EngagementMean
}

func sampleCount(v VariantStats, metric string) int64 {
	if metric == MetricCTR {
		return v.Impressions
	}
	return v.Samples
}
