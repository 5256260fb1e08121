// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/secondary"
)

// ChannelRepository implements secondary.ChannelRepository with SQLite.
type ChannelRepository struct {
	db *sql.DB
}

// NewChannelRepository creates a new SQLite channel repository.
func NewChannelRepository(db *sql.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// Create persists a new channel.
func (r *ChannelRepository) Create(ctx context.Context, channel *models.Channel) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO channels (id, name, platform, polling_enabled, poll_interval_minutes) VALUES (?, ?, ?, ?, ?)`,
		channel.ID,
		channel.Name,
		channel.Platform,
		channel.PollingEnabled,
		channel.PollIntervalMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	return nil
}

// GetByID retrieves a channel by its ID.
func (r *ChannelRepository) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, platform, polling_enabled, poll_interval_minutes, last_polled_at, created_at FROM channels WHERE id = ?`,
		id,
	)

	channel, err := scanChannel(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("channel %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return channel, nil
}

// List retrieves all channels, optionally only those with polling enabled.
func (r *ChannelRepository) List(ctx context.Context, pollingOnly bool) ([]*models.Channel, error) {
	query := `SELECT id, name, platform, polling_enabled, poll_interval_minutes, last_polled_at, created_at FROM channels`
	if pollingOnly {
		query += ` WHERE polling_enabled = 1`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	return collectChannels(rows)
}

// ListWithEnabledRules retrieves channels that have at least one enabled rule.
func (r *ChannelRepository) ListWithEnabledRules(ctx context.Context) ([]*models.Channel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.platform, c.polling_enabled, c.poll_interval_minutes, c.last_polled_at, c.created_at
		 FROM channels c
		 WHERE EXISTS (SELECT 1 FROM rules r WHERE r.channel_id = c.id AND r.enabled = 1)
		 ORDER BY c.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels with enabled rules: %w", err)
	}
	defer rows.Close()

	return collectChannels(rows)
}

// SetLastPolled records when a channel was last polled.
func (r *ChannelRepository) SetLastPolled(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE channels SET last_polled_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set last polled: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("channel %s not found", id)
	}
	return nil
}

// GetNextID returns the next available channel ID.
func (r *ChannelRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	prefixLen := len("CHAN-") + 1
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(CAST(SUBSTR(id, %d) AS INTEGER)), 0) FROM channels", prefixLen),
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next channel ID: %w", err)
	}
	return fmt.Sprintf("CHAN-%03d", maxID+1), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(row rowScanner) (*models.Channel, error) {
	var (
		channel    models.Channel
		lastPolled sql.NullTime
	)
	err := row.Scan(
		&channel.ID,
		&channel.Name,
		&channel.Platform,
		&channel.PollingEnabled,
		&channel.PollIntervalMinutes,
		&lastPolled,
		&channel.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastPolled.Valid {
		t := lastPolled.Time
		channel.LastPolledAt = &t
	}
	return &channel, nil
}

func collectChannels(rows *sql.Rows) ([]*models.Channel, error) {
	var channels []*models.Channel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

// Ensure ChannelRepository implements the interface
var _ secondary.ChannelRepository = (*ChannelRepository)(nil)
