package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/secondary"
)

// QueueRepository implements secondary.QueueRepository with SQLite.
type QueueRepository struct {
	db *sql.DB
}

// NewQueueRepository creates a new SQLite queue repository.
func NewQueueRepository(db *sql.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

const queueColumns = `id, channel_id, external_id, content_ref, body, classification, author_id, author_status, status, priority, created_at`

// InsertIfNew inserts the item unless one with the same (channel, external id)
// already exists. The UNIQUE constraint makes repeated polling idempotent.
func (r *QueueRepository) InsertIfNew(ctx context.Context, item *models.QueueItem) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO queue_items (channel_id, external_id, content_ref, body, classification, author_id, author_status, status, priority)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ChannelID,
		item.ExternalID,
		item.ContentRef,
		item.Body,
		nullString(item.Classification),
		nullString(item.AuthorID),
		nullString(item.AuthorStatus),
		models.ItemStatusPending,
		item.Priority,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert queue item: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to read inserted id: %w", err)
	}
	item.ID = id
	item.Status = models.ItemStatusPending
	return true, nil
}

// GetByID retrieves a queue item by its ID.
func (r *QueueRepository) GetByID(ctx context.Context, id int64) (*models.QueueItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+queueColumns+` FROM queue_items WHERE id = ?`, id)

	item, err := scanQueueItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("queue item %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue item: %w", err)
	}
	return item, nil
}

// ListPending retrieves up to limit pending items for a channel ordered by
// priority descending then creation time ascending. The ordering is
// load-bearing: the engine depends on strict deterministic processing order.
func (r *QueueRepository) ListPending(ctx context.Context, channelID string, limit int) ([]*models.QueueItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+queueColumns+` FROM queue_items
		 WHERE channel_id = ? AND status = ?
		 ORDER BY priority DESC, created_at ASC, id ASC
		 LIMIT ?`,
		channelID, models.ItemStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending items: %w", err)
	}
	defer rows.Close()

	return collectQueueItems(rows)
}

// List retrieves items matching the given filters.
func (r *QueueRepository) List(ctx context.Context, filters secondary.QueueFilters) ([]*models.QueueItem, error) {
	builder := sq.Select(queueColumns).
		From("queue_items").
		OrderBy("created_at DESC")

	if filters.ChannelID != "" {
		builder = builder.Where(sq.Eq{"channel_id": filters.ChannelID})
	}
	if filters.Status != "" {
		builder = builder.Where(sq.Eq{"status": filters.Status})
	}
	if filters.Limit > 0 {
		builder = builder.Limit(uint64(filters.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build queue query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}
	defer rows.Close()

	return collectQueueItems(rows)
}

// TransitionStatus atomically moves an item from one status to another.
// Returns false when the item is not in the expected status: a racing worker
// already claimed it, which is not an error condition.
func (r *QueueRepository) TransitionStatus(ctx context.Context, id int64, from, to string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE queue_items SET status = ? WHERE id = ? AND status = ?`,
		to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition queue item %d: %w", id, err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

func scanQueueItem(row rowScanner) (*models.QueueItem, error) {
	var (
		item           models.QueueItem
		classification sql.NullString
		authorID       sql.NullString
		authorStatus   sql.NullString
	)
	err := row.Scan(
		&item.ID,
		&item.ChannelID,
		&item.ExternalID,
		&item.ContentRef,
		&item.Body,
		&classification,
		&authorID,
		&authorStatus,
		&item.Status,
		&item.Priority,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Classification = classification.String
	item.AuthorID = authorID.String
	item.AuthorStatus = authorStatus.String
	return &item, nil
}

func collectQueueItems(rows *sql.Rows) ([]*models.QueueItem, error) {
	var items []*models.QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Ensure QueueRepository implements the interface
var _ secondary.QueueRepository = (*QueueRepository)(nil)
