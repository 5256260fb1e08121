package db

// SchemaSQL is the complete schema for fresh responder installs.
// This schema reflects the current state after all migrations.
//
// This is the single source of truth for the database schema. All repository
// tests load it via GetSchemaSQL(), so a column referenced by repository code
// but missing here fails immediately with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in internal/db/migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Channels (per-tenant interaction sources)
CREATE TABLE IF NOT EXISTS channels (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	platform TEXT NOT NULL DEFAULT 'generic',
	polling_enabled INTEGER NOT NULL DEFAULT 1,
	poll_interval_minutes INTEGER NOT NULL DEFAULT 15,
	last_polled_at DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Queue items (ingested comments/mentions awaiting automation)
CREATE TABLE IF NOT EXISTS queue_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	channel_id TEXT NOT NULL,
	external_id TEXT NOT NULL,
	content_ref TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL,
	classification TEXT,
	author_id TEXT,
	author_status TEXT,
	status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'processing', 'needs_review', 'done')),
	priority INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (channel_id) REFERENCES channels(id) ON DELETE CASCADE,
	UNIQUE(channel_id, external_id)
);

CREATE INDEX IF NOT EXISTS idx_queue_items_pending ON queue_items(channel_id, status, priority DESC, created_at ASC);

-- Rules (per-channel automation policies)
CREATE TABLE IF NOT EXISTS rules (
	id TEXT PRIMARY KEY,
	channel_id TEXT NOT NULL,
	name TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	enabled INTEGER NOT NULL DEFAULT 1,
	conditions TEXT NOT NULL DEFAULT '{}',
	action_type TEXT NOT NULL CHECK(action_type IN ('respond', 'delete', 'flag')),
	action_config TEXT NOT NULL DEFAULT '{}',
	response_limit_per_run INTEGER NOT NULL DEFAULT 0,
	require_approval INTEGER NOT NULL DEFAULT 1,
	ab_tests TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (channel_id) REFERENCES channels(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_rules_channel ON rules(channel_id, enabled, priority DESC);

-- Approvals (pending human decisions over proposed actions)
CREATE TABLE IF NOT EXISTS approvals (
	id TEXT PRIMARY KEY,
	channel_id TEXT NOT NULL,
	action_ref TEXT NOT NULL DEFAULT '',
	payload TEXT NOT NULL DEFAULT '{}',
	priority INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'approved', 'auto_approved', 'rejected')),
	urgent INTEGER NOT NULL DEFAULT 0,
	auto_approve_at DATETIME,
	approved_by TEXT,
	approved_at DATETIME,
	reason TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_approvals_pending ON approvals(status, priority DESC, created_at ASC);

-- Execution log (append-only record of every executor invocation)
CREATE TABLE IF NOT EXISTS execution_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	rule_id TEXT,
	item_id INTEGER,
	channel_id TEXT NOT NULL,
	action_type TEXT NOT NULL,
	variant_key TEXT,
	outcome TEXT NOT NULL CHECK(outcome IN ('executed', 'queued', 'declined', 'rate_limited', 'failed')),
	detail TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_execution_log_rule_day ON execution_log(rule_id, created_at);

-- Outcome metrics (per-variant aggregate counters for A/B testing)
CREATE TABLE IF NOT EXISTS outcome_metrics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	rule_id TEXT NOT NULL,
	test_id TEXT NOT NULL,
	variant_id TEXT NOT NULL,
	impressions INTEGER NOT NULL DEFAULT 0,
	conversions INTEGER NOT NULL DEFAULT 0,
	engagement_sum REAL NOT NULL DEFAULT 0,
	engagement_sq_sum REAL NOT NULL DEFAULT 0,
	samples INTEGER NOT NULL DEFAULT 0,
	UNIQUE(rule_id, test_id, variant_id)
);

-- Feedback events (impression/conversion/engagement/approval signals, append-only)
CREATE TABLE IF NOT EXISTS feedback_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	rule_id TEXT NOT NULL,
	test_id TEXT NOT NULL DEFAULT '',
	variant_id TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL CHECK(kind IN ('impression', 'conversion', 'engagement', 'approval')),
	value REAL NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_feedback_events_rule_day ON feedback_events(rule_id, kind, created_at);

-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// GetSchemaSQL returns the authoritative schema for fresh installs and tests.
func GetSchemaSQL() string {
	return SchemaSQL
}
