// internal/repository/journal_repository.go
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"serial-service/internal/database"
	"serial-service/internal/model"
	"serial-service/internal/utils"
)

// journalRepository implements JournalRepository on postgres
type journalRepository struct {
	db     *database.DB
	logger *utils.ServiceLogger
}

// NewJournalRepository creates a postgres backed journal
func NewJournalRepository(db *database.DB, logger *zap.Logger) JournalRepository {
	return &journalRepository{
		db:     db,
		logger: utils.NewServiceLogger(logger, "journal-repository"),
	}
}

// Record inserts a journal entry
func (r *journalRepository) Record(ctx context.Context, entry *model.JournalEntry) error {
	query := `
		INSERT INTO serial_journal (
			id, event_type, connection_id, path, severity, data, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	data := entry.Data
	if data == nil {
		data = model.JSONObject{}
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.EventType, entry.ConnectionID, entry.Path,
		entry.Severity, data, entry.RecordedAt,
	)
	if err != nil {
		r.logger.Error("Failed to record journal entry", zap.Error(err))
		return fmt.Errorf("failed to record journal entry: %w", err)
	}

	return nil
}

// ListRecent returns the most recent entries
func (r *journalRepository) ListRecent(ctx context.Context, filter *JournalFilter) ([]*model.JournalEntry, error) {
	var conditions []string
	var args []interface{}

	if filter != nil && filter.ConnectionID != nil {
		args = append(args, *filter.ConnectionID)
		conditions = append(conditions, fmt.Sprintf("connection_id = $%d", len(args)))
	}
	if filter != nil && filter.EventType != nil {
		args = append(args, *filter.EventType)
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", len(args)))
	}

	query := `
		SELECT id, event_type, connection_id, path, severity, data, recorded_at
		FROM serial_journal
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, filter.EffectiveLimit())
	query += fmt.Sprintf(" ORDER BY recorded_at DESC LIMIT $%d", len(args))

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	r.logger.LogDatabaseQuery(query, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	entries := []*model.JournalEntry{}
	for rows.Next() {
		entry := &model.JournalEntry{}
		if err := rows.Scan(
			&entry.ID, &entry.EventType, &entry.ConnectionID, &entry.Path,
			&entry.Severity, &entry.Data, &entry.RecordedAt,
		); err != nil {
			r.logger.Error("Failed to scan journal entry", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal entries: %w", err)
	}

	return entries, nil
}

// Prune deletes entries older than the cutoff
func (r *journalRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM serial_journal WHERE recorded_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
