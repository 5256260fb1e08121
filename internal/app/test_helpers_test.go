package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/secondary"
)

// Ensure the mocks implement their interfaces
var (
	_ secondary.ChannelRepository      = (*mockChannelRepo)(nil)
	_ secondary.QueueRepository        = (*mockQueueRepo)(nil)
	_ secondary.RuleRepository         = (*mockRuleRepo)(nil)
	_ secondary.ApprovalRepository     = (*mockApprovalRepo)(nil)
	_ secondary.ExecutionLogRepository = (*mockExecLog)(nil)
	_ secondary.MetricRepository       = (*mockMetricRepo)(nil)
	_ secondary.SourceConnector        = (*mockConnector)(nil)
	_ secondary.Classifier             = (*mockClassifier)(nil)
	_ secondary.TemplateRenderer       = (*mockRenderer)(nil)
	_ secondary.SafetyModeration       = (*mockModeration)(nil)
	_ secondary.NotificationSink       = (*mockNotifier)(nil)
)

// mockChannelRepo implements secondary.ChannelRepository for testing.
type mockChannelRepo struct {
	channels   []*models.Channel
	lastPolled map[string]time.Time
	listErr    error
}

func newMockChannelRepo(channels ...*models.Channel) *mockChannelRepo {
	return &mockChannelRepo{channels: channels, lastPolled: make(map[string]time.Time)}
}

func (m *mockChannelRepo) Create(ctx context.Context, channel *models.Channel) error {
	m.channels = append(m.channels, channel)
	return nil
}

func (m *mockChannelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	for _, ch := range m.channels {
		if ch.ID == id {
			return ch, nil
		}
	}
	return nil, fmt.Errorf("channel not found: %s", id)
}

func (m *mockChannelRepo) List(ctx context.Context, pollingOnly bool) ([]*models.Channel, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Channel
	for _, ch := range m.channels {
		if pollingOnly && !ch.PollingEnabled {
			continue
		}
		out = append(out, ch)
	}
	return out, nil
}

func (m *mockChannelRepo) ListWithEnabledRules(ctx context.Context) ([]*models.Channel, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.channels, nil
}

func (m *mockChannelRepo) SetLastPolled(ctx context.Context, id string, at time.Time) error {
	m.lastPolled[id] = at
	for _, ch := range m.channels {
		if ch.ID == id {
			t := at
			ch.LastPolledAt = &t
		}
	}
	return nil
}

func (m *mockChannelRepo) GetNextID(ctx context.Context) (string, error) {
	return fmt.Sprintf("CHAN-%03d", len(m.channels)+1), nil
}

// mockQueueRepo implements secondary.QueueRepository for testing. Inserts and
// transitions mirror the SQLite adapter's conditional semantics.
type mockQueueRepo struct {
	items         map[int64]*models.QueueItem
	nextID        int64
	insertErr     error
	transitionErr error
	transitions   []string
}

func newMockQueueRepo() *mockQueueRepo {
	return &mockQueueRepo{items: make(map[int64]*models.QueueItem)}
}

func (m *mockQueueRepo) add(item *models.QueueItem) *models.QueueItem {
	m.nextID++
	item.ID = m.nextID
	if item.Status == "" {
		item.Status = models.ItemStatusPending
	}
	m.items[item.ID] = item
	return item
}

func (m *mockQueueRepo) InsertIfNew(ctx context.Context, item *models.QueueItem) (bool, error) {
	if m.insertErr != nil {
		return false, m.insertErr
	}
	for _, existing := range m.items {
		if existing.ChannelID == item.ChannelID && existing.ExternalID == item.ExternalID {
			return false, nil
		}
	}
	m.add(item)
	return true, nil
}

func (m *mockQueueRepo) GetByID(ctx context.Context, id int64) (*models.QueueItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("item not found: %d", id)
	}
	return item, nil
}

func (m *mockQueueRepo) ListPending(ctx context.Context, channelID string, limit int) ([]*models.QueueItem, error) {
	var out []*models.QueueItem
	for _, item := range m.items {
		if item.ChannelID == channelID && item.Status == models.ItemStatusPending {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockQueueRepo) List(ctx context.Context, filters secondary.QueueFilters) ([]*models.QueueItem, error) {
	var out []*models.QueueItem
	for _, item := range m.items {
		if filters.ChannelID != "" && item.ChannelID != filters.ChannelID {
			continue
		}
		if filters.Status != "" && item.Status != filters.Status {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockQueueRepo) TransitionStatus(ctx context.Context, id int64, from, to string) (bool, error) {
	if m.transitionErr != nil {
		return false, m.transitionErr
	}
	item, ok := m.items[id]
	if !ok || item.Status != from {
		return false, nil
	}
	item.Status = to
	m.transitions = append(m.transitions, fmt.Sprintf("%d:%s->%s", id, from, to))
	return true, nil
}

// mockRuleRepo implements secondary.RuleRepository for testing.
type mockRuleRepo struct {
	rules        []*models.Rule
	updatedTests map[string]map[string][]models.Variant
}

func newMockRuleRepo(rules ...*models.Rule) *mockRuleRepo {
	return &mockRuleRepo{rules: rules, updatedTests: make(map[string]map[string][]models.Variant)}
}

func (m *mockRuleRepo) Create(ctx context.Context, rule *models.Rule) error {
	m.rules = append(m.rules, rule)
	return nil
}

func (m *mockRuleRepo) GetByID(ctx context.Context, id string) (*models.Rule, error) {
	for _, r := range m.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("rule not found: %s", id)
}

func (m *mockRuleRepo) ListEnabled(ctx context.Context, channelID string) ([]*models.Rule, error) {
	var out []*models.Rule
	for _, r := range m.rules {
		if r.ChannelID == channelID && r.Enabled {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

func (m *mockRuleRepo) List(ctx context.Context, filters secondary.RuleFilters) ([]*models.Rule, error) {
	var out []*models.Rule
	for _, r := range m.rules {
		if filters.ChannelID != "" && r.ChannelID != filters.ChannelID {
			continue
		}
		if filters.Enabled != nil && r.Enabled != *filters.Enabled {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRuleRepo) SetEnabled(ctx context.Context, id string, enabled bool) error {
	for _, r := range m.rules {
		if r.ID == id {
			r.Enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("rule not found: %s", id)
}

func (m *mockRuleRepo) UpdateABTests(ctx context.Context, id string, tests map[string][]models.Variant) error {
	m.updatedTests[id] = tests
	for _, r := range m.rules {
		if r.ID == id {
			r.ABTests = tests
			return nil
		}
	}
	return fmt.Errorf("rule not found: %s", id)
}

func (m *mockRuleRepo) GetNextID(ctx context.Context) (string, error) {
	return fmt.Sprintf("RULE-%03d", len(m.rules)+1), nil
}

// mockApprovalRepo implements secondary.ApprovalRepository for testing.
type mockApprovalRepo struct {
	entries   map[string]*models.ApprovalEntry
	createErr error
}

func newMockApprovalRepo() *mockApprovalRepo {
	return &mockApprovalRepo{entries: make(map[string]*models.ApprovalEntry)}
}

func (m *mockApprovalRepo) Create(ctx context.Context, entry *models.ApprovalEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockApprovalRepo) GetByID(ctx context.Context, id string) (*models.ApprovalEntry, error) {
	entry, ok := m.entries[id]
	if !ok {
		return nil, fmt.Errorf("approval not found: %s", id)
	}
	return entry, nil
}

func (m *mockApprovalRepo) ListPending(ctx context.Context, channelID string, limit int) ([]*models.ApprovalEntry, error) {
	var out []*models.ApprovalEntry
	for _, e := range m.entries {
		if e.Status != models.ApprovalStatusPending {
			continue
		}
		if channelID != "" && e.ChannelID != channelID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockApprovalRepo) BulkApprove(ctx context.Context, ids []string, approvedBy, reason string) ([]string, error) {
	var approved []string
	now := time.Now()
	for _, id := range ids {
		e, ok := m.entries[id]
		if !ok || e.Status != models.ApprovalStatusPending {
			continue
		}
		e.Status = models.ApprovalStatusApproved
		e.ApprovedBy = approvedBy
		e.ApprovedAt = &now
		e.Reason = reason
		approved = append(approved, id)
	}
	return approved, nil
}

func (m *mockApprovalRepo) Reject(ctx context.Context, id, rejectedBy, reason string) (bool, error) {
	e, ok := m.entries[id]
	if !ok || e.Status != models.ApprovalStatusPending {
		return false, nil
	}
	e.Status = models.ApprovalStatusRejected
	e.ApprovedBy = rejectedBy
	e.Reason = reason
	return true, nil
}

func (m *mockApprovalRepo) AutoApproveExpired(ctx context.Context, now time.Time) ([]string, error) {
	var swept []string
	for id, e := range m.entries {
		if e.Status != models.ApprovalStatusPending || e.AutoApproveAt == nil {
			continue
		}
		if e.AutoApproveAt.After(now) {
			continue
		}
		e.Status = models.ApprovalStatusAutoApproved
		swept = append(swept, id)
	}
	sort.Strings(swept)
	return swept, nil
}

func (m *mockApprovalRepo) GetNextID(ctx context.Context) (string, error) {
	return fmt.Sprintf("APPR-%03d", len(m.entries)+1), nil
}

// mockExecLog implements secondary.ExecutionLogRepository for testing.
type mockExecLog struct {
	records     []*models.ExecutionRecord
	dailyCounts []secondary.DailyCount
	appendErr   error
}

func newMockExecLog() *mockExecLog {
	return &mockExecLog{}
}

func (m *mockExecLog) Append(ctx context.Context, record *models.ExecutionRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	record.ID = int64(len(m.records) + 1)
	m.records = append(m.records, record)
	return nil
}

func (m *mockExecLog) List(ctx context.Context, filters secondary.ExecutionFilters) ([]*models.ExecutionRecord, error) {
	return m.records, nil
}

func (m *mockExecLog) DailyResponseCounts(ctx context.Context, since time.Time) ([]secondary.DailyCount, error) {
	return m.dailyCounts, nil
}

func (m *mockExecLog) CountByOutcome(ctx context.Context, since time.Time) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, r := range m.records {
		counts[r.Outcome]++
	}
	return counts, nil
}

// outcomes returns the outcome of every appended record, in order.
func (m *mockExecLog) outcomes() []string {
	out := make([]string, len(m.records))
	for i, r := range m.records {
		out[i] = r.Outcome
	}
	return out
}

// mockMetricRepo implements secondary.MetricRepository for testing.
type mockMetricRepo struct {
	impressions map[string]int
	conversions map[string]int
	feedback    []*models.FeedbackEvent
	byRule      map[string][]*models.OutcomeMetric
	dailyCounts map[string][]secondary.DailyCount
	appendErr   error
}

func newMockMetricRepo() *mockMetricRepo {
	return &mockMetricRepo{
		impressions: make(map[string]int),
		conversions: make(map[string]int),
		byRule:      make(map[string][]*models.OutcomeMetric),
		dailyCounts: make(map[string][]secondary.DailyCount),
	}
}

func metricKey(ruleID, testID, variantID string) string {
	return ruleID + "/" + testID + "/" + variantID
}

func (m *mockMetricRepo) RecordImpression(ctx context.Context, ruleID, testID, variantID string) error {
	m.impressions[metricKey(ruleID, testID, variantID)]++
	return nil
}

func (m *mockMetricRepo) RecordConversion(ctx context.Context, ruleID, testID, variantID string) error {
	m.conversions[metricKey(ruleID, testID, variantID)]++
	return nil
}

func (m *mockMetricRepo) RecordEngagement(ctx context.Context, ruleID, testID, variantID string, value float64) error {
	return nil
}

func (m *mockMetricRepo) AppendFeedback(ctx context.Context, event *models.FeedbackEvent) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.feedback = append(m.feedback, event)
	return nil
}

func (m *mockMetricRepo) GetByRule(ctx context.Context, ruleID string) ([]*models.OutcomeMetric, error) {
	return m.byRule[ruleID], nil
}

func (m *mockMetricRepo) DailyFeedbackCounts(ctx context.Context, kind string, since time.Time) ([]secondary.DailyCount, error) {
	return m.dailyCounts[kind], nil
}

// mockConnector implements secondary.SourceConnector for testing.
type mockConnector struct {
	contents    []secondary.ContentRef
	itemsByRef  map[string][]secondary.RawItem
	itemErrs    map[string]error
	listErr     error
	deleteErr   error
	deletedIDs  []string
	postResults []string
}

func newMockConnector() *mockConnector {
	return &mockConnector{
		itemsByRef: make(map[string][]secondary.RawItem),
		itemErrs:   make(map[string]error),
	}
}

func (m *mockConnector) ListNewParentContent(ctx context.Context, channelID string, since time.Time) ([]secondary.ContentRef, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.contents, nil
}

func (m *mockConnector) ListNewChildItems(ctx context.Context, channelID string, content secondary.ContentRef) ([]secondary.RawItem, error) {
	if err := m.itemErrs[content.ID]; err != nil {
		return nil, err
	}
	return m.itemsByRef[content.ID], nil
}

func (m *mockConnector) PostResponse(ctx context.Context, channelID, externalID, text string) (secondary.PostResult, error) {
	m.postResults = append(m.postResults, externalID)
	return secondary.PostResult{Success: true, ExternalID: "posted-" + externalID}, nil
}

func (m *mockConnector) DeleteItem(ctx context.Context, channelID, externalID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedIDs = append(m.deletedIDs, externalID)
	return nil
}

// mockClassifier implements secondary.Classifier for testing.
type mockClassifier struct {
	label string
	err   error
}

func (m *mockClassifier) Classify(ctx context.Context, text string) (secondary.Classification, error) {
	if m.err != nil {
		return secondary.Classification{}, m.err
	}
	return secondary.Classification{Label: m.label}, nil
}

// mockRenderer implements secondary.TemplateRenderer for testing.
type mockRenderer struct {
	err      error
	rendered []string
}

func (m *mockRenderer) Render(ctx context.Context, templateRef string, item *models.QueueItem) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.rendered = append(m.rendered, templateRef)
	return "rendered:" + templateRef, nil
}

// mockModeration implements secondary.SafetyModeration for testing.
type mockModeration struct {
	decision secondary.DeleteDecision
	err      error
}

func (m *mockModeration) EvaluateDeleteCriteria(ctx context.Context, item *models.QueueItem, criteria *models.DeleteConfig) (secondary.DeleteDecision, error) {
	if m.err != nil {
		return secondary.DeleteDecision{}, m.err
	}
	return m.decision, nil
}

// mockNotifier implements secondary.NotificationSink for testing.
type mockNotifier struct {
	notified [][]*models.ApprovalEntry
	err      error
}

func (m *mockNotifier) NotifyUrgent(ctx context.Context, entries []*models.ApprovalEntry) error {
	if m.err != nil {
		return m.err
	}
	m.notified = append(m.notified, entries)
	return nil
}
