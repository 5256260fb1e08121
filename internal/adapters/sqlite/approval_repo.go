package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/secondary"
)

// ApprovalRepository implements secondary.ApprovalRepository with SQLite.
// All status transitions are conditional on status = 'pending' so that
// racing approvers and sweeps cannot both win an entry.
type ApprovalRepository struct {
	db *sql.DB
}

// NewApprovalRepository creates a new SQLite approval repository.
func NewApprovalRepository(db *sql.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

const approvalColumns = `id, channel_id, action_ref, payload, priority, status, urgent, auto_approve_at, approved_by, approved_at, reason, created_at`

// Create persists a new approval entry.
func (r *ApprovalRepository) Create(ctx context.Context, entry *models.ApprovalEntry) error {
	var autoApproveAt any
	if entry.AutoApproveAt != nil {
		autoApproveAt = entry.AutoApproveAt.UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO approvals (id, channel_id, action_ref, payload, priority, status, urgent, auto_approve_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ChannelID,
		entry.ActionRef,
		entry.Payload,
		entry.Priority,
		models.ApprovalStatusPending,
		entry.Urgent,
		autoApproveAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create approval: %w", err)
	}
	entry.Status = models.ApprovalStatusPending
	return nil
}

// GetByID retrieves an approval entry by its ID.
func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*models.ApprovalEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+approvalColumns+` FROM approvals WHERE id = ?`, id)

	entry, err := scanApproval(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("approval %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return entry, nil
}

// ListPending retrieves pending entries ordered by priority descending then
// age ascending. Urgent items surface first; older low-priority items are
// not starved within their tier.
func (r *ApprovalRepository) ListPending(ctx context.Context, channelID string, limit int) ([]*models.ApprovalEntry, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE status = ?`
	args := []any{models.ApprovalStatusPending}

	if channelID != "" {
		query += ` AND channel_id = ?`
		args = append(args, channelID)
	}

	query += ` ORDER BY priority DESC, created_at ASC, id ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	defer rows.Close()

	return collectApprovals(rows)
}

// BulkApprove atomically transitions the given pending entries to approved.
// Entries that are not pending are skipped; the returned IDs are the ones
// that actually transitioned.
func (r *ApprovalRepository) BulkApprove(ctx context.Context, ids []string, approvedBy, reason string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin approval transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := []any{models.ApprovalStatusPending}
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM approvals WHERE status = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending approvals: %w", err)
	}
	var approved []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan approval id: %w", err)
		}
		approved = append(approved, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending approvals: %w", err)
	}

	updateArgs := []any{models.ApprovalStatusApproved, approvedBy, nullString(reason), models.ApprovalStatusPending}
	for _, id := range ids {
		updateArgs = append(updateArgs, id)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE approvals SET status = ?, approved_by = ?, approved_at = CURRENT_TIMESTAMP, reason = ?
		 WHERE status = ? AND id IN (`+placeholders+`)`, updateArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk approve: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bulk approve: %w", err)
	}
	return approved, nil
}

// Reject atomically transitions a pending entry to rejected. Returns false
// when the entry was not pending.
func (r *ApprovalRepository) Reject(ctx context.Context, id, rejectedBy, reason string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE approvals SET status = ?, approved_by = ?, approved_at = CURRENT_TIMESTAMP, reason = ?
		 WHERE id = ? AND status = ?`,
		models.ApprovalStatusRejected, rejectedBy, nullString(reason), id, models.ApprovalStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to reject approval: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// AutoApproveExpired transitions every pending entry whose deadline has
// passed to auto_approved. Repeated sweeps are idempotent because only
// pending entries are selected.
func (r *ApprovalRepository) AutoApproveExpired(ctx context.Context, now time.Time) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin sweep transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM approvals WHERE status = ? AND auto_approve_at IS NOT NULL AND auto_approve_at <= ?`,
		models.ApprovalStatusPending, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to select expired approvals: %w", err)
	}
	var expired []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan approval id: %w", err)
		}
		expired = append(expired, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expired approvals: %w", err)
	}

	if len(expired) == 0 {
		return nil, tx.Commit()
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE approvals SET status = ?, approved_at = CURRENT_TIMESTAMP
		 WHERE status = ? AND auto_approve_at IS NOT NULL AND auto_approve_at <= ?`,
		models.ApprovalStatusAutoApproved, models.ApprovalStatusPending, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to auto-approve expired: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sweep: %w", err)
	}
	return expired, nil
}

// GetNextID returns the next available approval ID.
func (r *ApprovalRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	prefixLen := len("APPR-") + 1
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(CAST(SUBSTR(id, %d) AS INTEGER)), 0) FROM approvals", prefixLen),
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next approval ID: %w", err)
	}
	return fmt.Sprintf("APPR-%03d", maxID+1), nil
}

func scanApproval(row rowScanner) (*models.ApprovalEntry, error) {
	var (
		entry         models.ApprovalEntry
		autoApproveAt sql.NullTime
		approvedBy    sql.NullString
		approvedAt    sql.NullTime
		reason        sql.NullString
	)
	err := row.Scan(
		&entry.ID,
		&entry.ChannelID,
		&entry.ActionRef,
		&entry.Payload,
		&entry.Priority,
		&entry.Status,
		&entry.Urgent,
		&autoApproveAt,
		&approvedBy,
		&approvedAt,
		&reason,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if autoApproveAt.Valid {
		t := autoApproveAt.Time
		entry.AutoApproveAt = &t
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		entry.ApprovedAt = &t
	}
	entry.ApprovedBy = approvedBy.String
	entry.Reason = reason.String
	return &entry, nil
}

func collectApprovals(rows *sql.Rows) ([]*models.ApprovalEntry, error) {
	var entries []*models.ApprovalEntry
	for rows.Next() {
		entry, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Ensure ApprovalRepository implements the interface
var _ secondary.ApprovalRepository = (*ApprovalRepository)(nil)
