package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// PostgresReviewLogStore implements store.ReviewLogStore.
type PostgresReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewLogStore creates a review log store over db.
func NewPostgresReviewLogStore(db store.DBTX, logger *slog.Logger) *PostgresReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

var _ store.ReviewLogStore = (*PostgresReviewLogStore)(nil)

// WithTx returns a store bound to tx.
func (s *PostgresReviewLogStore) WithTx(tx *sql.Tx) *PostgresReviewLogStore {
	return &PostgresReviewLogStore{db: tx, logger: s.logger}
}

// Append implements store.ReviewLogStore.Append.
func (s *PostgresReviewLogStore) Append(ctx context.Context, entry *domain.ReviewLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO review_logs (
			id, card_id, user_id, user_answer, expected_answer,
			score, validation_method, rating, scheduled_days, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.CardID,
		entry.UserID,
		entry.UserAnswer,
		entry.ExpectedAnswer,
		entry.Score,
		string(entry.Method),
		int(entry.Rating),
		entry.ScheduledDays,
		entry.CreatedAt,
	)
	if err != nil {
		log.Error("failed to append review log",
			slog.String("error", err.Error()),
			slog.String("card_id", entry.CardID.String()))
		return MapError(err)
	}
	return nil
}

// ListByCard implements store.ReviewLogStore.ListByCard.
func (s *PostgresReviewLogStore) ListByCard(ctx context.Context, cardID uuid.UUID, limit int) ([]*domain.ReviewLog, error) {
	query := `
		SELECT id, card_id, user_id, user_answer, expected_answer,
		       score, validation_method, rating, scheduled_days, created_at
		FROM review_logs
		WHERE card_id = $1
		ORDER BY created_at DESC, id
	`
	args := []any{cardID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var logs []*domain.ReviewLog
	for rows.Next() {
		var (
			entry  domain.ReviewLog
			method string
			rating int
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.CardID,
			&entry.UserID,
			&entry.UserAnswer,
			&entry.ExpectedAnswer,
			&entry.Score,
			&method,
			&rating,
			&entry.ScheduledDays,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.Method = domain.ValidationMethod(method)
		entry.Rating = domain.Rating(rating)
		logs = append(logs, &entry)
	}
	return logs, rows.Err()
}
