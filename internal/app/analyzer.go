package app

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/example/responder/internal/core/stats"
	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/primary"
	"github.com/example/responder/internal/ports/secondary"
)

// Trailing window for anomaly detection, in days.
const anomalyTrailingDays = 7

// AnalyzerConfig tunes the read-only analytics.
type AnalyzerConfig struct {
	// AnomalyThreshold is the fractional CTR deviation from the trailing
	// mean beyond which a day is flagged.
	AnomalyThreshold float64
	// SecondsPerManual is the manual-handling time one automated response saves.
	SecondsPerManual float64
	// HourlyRate prices the saved time.
	HourlyRate float64
	// CostPerResponse prices one automated response.
	CostPerResponse float64
	// MinSamples is the per-variant eligibility floor for significance runs.
	MinSamples int
}

// Analyzer aggregates execution outcomes into per-rule performance, anomaly
// and ROI read-outs, and runs the significance engine on demand.
type Analyzer struct {
	execLog secondary.ExecutionLogRepository
	metrics secondary.MetricRepository
	cfg     AnalyzerConfig
	now     func() time.Time
}

// NewAnalyzer creates an analyzer with injected dependencies.
func NewAnalyzer(execLog secondary.ExecutionLogRepository, metrics secondary.MetricRepository, cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{
		execLog: execLog,
		metrics: metrics,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Performance ranks rules by CTR then engagement over the window. CTR here is
// windowed conversions over windowed responses; engagement comes from the
// rule's lifetime aggregates.
func (a *Analyzer) Performance(ctx context.Context, windowDays int) (*primary.PerformanceReport, error) {
	since := a.since(windowDays)

	responses, err := a.execLog.DailyResponseCounts(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate responses: %w", err)
	}
	conversions, err := a.metrics.DailyFeedbackCounts(ctx, models.FeedbackConversion, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate conversions: %w", err)
	}

	respByRule := map[string]int64{}
	for _, c := range responses {
		respByRule[c.RuleID] += c.Count
	}
	convByRule := map[string]int64{}
	for _, c := range conversions {
		convByRule[c.RuleID] += c.Count
	}

	report := &primary.PerformanceReport{WindowDays: windowDays}
	for ruleID, resp := range respByRule {
		perf := primary.RulePerformance{
			RuleID:      ruleID,
			Responses:   resp,
			Conversions: convByRule[ruleID],
		}
		if resp > 0 {
			perf.CTR = float64(perf.Conversions) / float64(resp)
		}
		perf.Engagement = a.ruleEngagement(ctx, ruleID)
		report.Rules = append(report.Rules, perf)
	}

	sort.SliceStable(report.Rules, func(i, j int) bool {
		if report.Rules[i].CTR != report.Rules[j].CTR {
			return report.Rules[i].CTR > report.Rules[j].CTR
		}
		if report.Rules[i].Engagement != report.Rules[j].Engagement {
			return report.Rules[i].Engagement > report.Rules[j].Engagement
		}
		return report.Rules[i].RuleID < report.Rules[j].RuleID
	})

	if len(report.Rules) > 0 {
		report.Best = report.Rules[0].RuleID
		report.Worst = report.Rules[len(report.Rules)-1].RuleID
	}

	return report, nil
}

// Anomalies flags rules whose latest daily CTR deviates from the 7-day
// trailing mean by more than the configured fraction.
func (a *Analyzer) Anomalies(ctx context.Context) ([]primary.Anomaly, error) {
	since := a.since(anomalyTrailingDays + 1)

	responses, err := a.execLog.DailyResponseCounts(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate responses: %w", err)
	}
	conversions, err := a.metrics.DailyFeedbackCounts(ctx, models.FeedbackConversion, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate conversions: %w", err)
	}

	type dayKey struct{ rule, day string }
	convByDay := map[dayKey]int64{}
	for _, c := range conversions {
		convByDay[dayKey{c.RuleID, c.Day}] = c.Count
	}

	// Daily CTR series per rule, days ascending.
	series := map[string][]primary.Anomaly{}
	for _, r := range responses {
		if r.Count == 0 {
			continue
		}
		ctr := float64(convByDay[dayKey{r.RuleID, r.Day}]) / float64(r.Count)
		series[r.RuleID] = append(series[r.RuleID], primary.Anomaly{RuleID: r.RuleID, Day: r.Day, CTR: ctr})
	}

	var anomalies []primary.Anomaly
	for _, days := range series {
		if len(days) < 2 {
			continue
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })

		latest := days[len(days)-1]
		trailing := days[:len(days)-1]
		if len(trailing) > anomalyTrailingDays {
			trailing = trailing[len(trailing)-anomalyTrailingDays:]
		}

		sum := 0.0
		for _, d := range trailing {
			sum += d.CTR
		}
		mean := sum / float64(len(trailing))
		if mean == 0 {
			continue
		}

		deviation := math.Abs(latest.CTR-mean) / mean
		if deviation > a.cfg.AnomalyThreshold {
			latest.TrailingMean = mean
			latest.Deviation = deviation
			anomalies = append(anomalies, latest)
		}
	}

	sort.Slice(anomalies, func(i, j int) bool { return anomalies[i].RuleID < anomalies[j].RuleID })
	return anomalies, nil
}

// ROI estimates the value of automated responses over the window:
// saved labor minus automation cost.
func (a *Analyzer) ROI(ctx context.Context, windowDays int) (*primary.ROIReport, error) {
	responses, err := a.execLog.DailyResponseCounts(ctx, a.since(windowDays))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate responses: %w", err)
	}

	var total int64
	for _, c := range responses {
		total += c.Count
	}

	hoursSaved := float64(total) * a.cfg.SecondsPerManual / 3600
	laborValue := hoursSaved * a.cfg.HourlyRate
	cost := float64(total) * a.cfg.CostPerResponse

	return &primary.ROIReport{
		Responses:        total,
		HoursSaved:       hoursSaved,
		LaborValue:       laborValue,
		AutomationCost:   cost,
		Net:              laborValue - cost,
		SecondsPerManual: a.cfg.SecondsPerManual,
		HourlyRate:       a.cfg.HourlyRate,
		CostPerResponse:  a.cfg.CostPerResponse,
	}, nil
}

// Significance runs the winner calculation across a rule's tests.
func (a *Analyzer) Significance(ctx context.Context, ruleID string) ([]primary.TestResult, error) {
	aggregates, err := a.metrics.GetByRule(ctx, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics: %w", err)
	}

	byTest := map[string][]stats.VariantStats{}
	for _, m := range aggregates {
		byTest[m.TestID] = append(byTest[m.TestID], stats.VariantStats{
			VariantID:      m.VariantID,
			Impressions:    m.Impressions,
			Conversions:    m.Conversions,
			Samples:        m.Samples,
			EngagementMean: m.EngagementMean(),
			EngagementStd:  m.EngagementStdDev(),
		})
	}

	testIDs := make([]string, 0, len(byTest))
	for id := range byTest {
		testIDs = append(testIDs, id)
	}
	sort.Strings(testIDs)

	results := make([]primary.TestResult, 0, len(testIDs))
	for _, testID := range testIDs {
		outcome := stats.Evaluate(testID, byTest[testID], a.cfg.MinSamples)
		results = append(results, toTestResult(outcome))
	}
	return results, nil
}

func (a *Analyzer) ruleEngagement(ctx context.Context, ruleID string) float64 {
	aggregates, err := a.metrics.GetByRule(ctx, ruleID)
	if err != nil {
		return 0
	}
	var sum float64
	var n int64
	for _, m := range aggregates {
		sum += m.EngagementSum
		n += m.Samples
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (a *Analyzer) since(windowDays int) time.Time {
	if windowDays <= 0 {
		windowDays = anomalyTrailingDays
	}
	return a.now().AddDate(0, 0, -windowDays)
}

func toTestResult(outcome stats.Outcome) primary.TestResult {
	result := primary.TestResult{
		TestID:   outcome.TestID,
		Winner:   outcome.Winner,
		RunnerUp: outcome.RunnerUp,
		PValue:   outcome.PValue,
		Metric:   outcome.Metric,
		Reason:   outcome.Reason,
	}
	for _, s := range outcome.Suggestions {
		switch s.Kind {
		case stats.SuggestPauseVariant:
			result.Suggestion = fmt.Sprintf("%s:%s", stats.SuggestPauseVariant, s.VariantID)
		case stats.SuggestFollowUpTest:
			if result.Suggestion == "" {
				result.Suggestion = stats.SuggestFollowUpTest
			}
		}
	}
	return result
}

// Ensure Analyzer implements the interface
var _ primary.ReportService = (*Analyzer)(nil)
