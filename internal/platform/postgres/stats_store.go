package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// PostgresStatsStore implements store.StatsStore with upserts, so concurrent
// reviews never lose an increment. A study day is counted only when a review
// lands on a date later than the last active one; late deliveries for an
// earlier date add nothing.
type PostgresStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStatsStore creates a statistics store over db.
func NewPostgresStatsStore(db store.DBTX, logger *slog.Logger) *PostgresStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "stats_store")),
	}
}

var _ store.StatsStore = (*PostgresStatsStore)(nil)

// WithTx returns a store bound to tx.
func (s *PostgresStatsStore) WithTx(tx *sql.Tx) *PostgresStatsStore {
	return &PostgresStatsStore{db: tx, logger: s.logger}
}

// RecordUserReview implements store.StatsStore.RecordUserReview.
func (s *PostgresStatsStore) RecordUserReview(ctx context.Context, userID uuid.UUID, correct bool, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_stats (user_id, total_reviews, correct_reviews, days_studied, last_active_date, updated_at)
		VALUES ($1, 1, $2, 1, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			total_reviews = user_stats.total_reviews + 1,
			correct_reviews = user_stats.correct_reviews + EXCLUDED.correct_reviews,
			days_studied = user_stats.days_studied +
				CASE WHEN user_stats.last_active_date IS NULL
					OR EXCLUDED.last_active_date > user_stats.last_active_date THEN 1 ELSE 0 END,
			last_active_date = GREATEST(user_stats.last_active_date, EXCLUDED.last_active_date),
			updated_at = EXCLUDED.updated_at`,
		userID, boolToInt(correct), domain.StudyDay(at), time.Now().UTC(),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to record user review",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}
	return nil
}

// RecordDeckReview implements store.StatsStore.RecordDeckReview.
func (s *PostgresStatsStore) RecordDeckReview(ctx context.Context, deckID, userID uuid.UUID, correct bool, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deck_stats (deck_id, user_id, total_reviews, correct_reviews, days_studied, last_active_date, updated_at)
		VALUES ($1, $2, 1, $3, 1, $4, $5)
		ON CONFLICT (deck_id) DO UPDATE SET
			total_reviews = deck_stats.total_reviews + 1,
			correct_reviews = deck_stats.correct_reviews + EXCLUDED.correct_reviews,
			days_studied = deck_stats.days_studied +
				CASE WHEN deck_stats.last_active_date IS NULL
					OR EXCLUDED.last_active_date > deck_stats.last_active_date THEN 1 ELSE 0 END,
			last_active_date = GREATEST(deck_stats.last_active_date, EXCLUDED.last_active_date),
			updated_at = EXCLUDED.updated_at`,
		deckID, userID, boolToInt(correct), domain.StudyDay(at), time.Now().UTC(),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to record deck review",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return MapError(err)
	}
	return nil
}

// AddDeckCards implements store.StatsStore.AddDeckCards.
func (s *PostgresStatsStore) AddDeckCards(ctx context.Context, deckID, userID uuid.UUID, n int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deck_stats (deck_id, user_id, total_cards, updated_at)
		VALUES ($1, $2, GREATEST($3, 0), $4)
		ON CONFLICT (deck_id) DO UPDATE SET
			total_cards = GREATEST(deck_stats.total_cards + $3, 0),
			updated_at = EXCLUDED.updated_at`,
		deckID, userID, n, time.Now().UTC(),
	)
	return MapError(err)
}

// GetUserStats implements store.StatsStore.GetUserStats.
func (s *PostgresStatsStore) GetUserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	stats := &domain.UserStats{UserID: userID}
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT total_reviews, correct_reviews, days_studied, last_active_date, updated_at
		FROM user_stats WHERE user_id = $1`, userID,
	).Scan(&stats.TotalReviews, &stats.CorrectReviews, &stats.DaysStudied, &last, &stats.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return stats, nil
	}
	if err != nil {
		return nil, MapError(err)
	}
	stats.LastActiveDate = dateOrNil(last)
	return stats, nil
}

// GetDeckStats implements store.StatsStore.GetDeckStats.
func (s *PostgresStatsStore) GetDeckStats(ctx context.Context, deckID uuid.UUID) (*domain.DeckStats, error) {
	stats := &domain.DeckStats{DeckID: deckID}
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, total_cards, total_reviews, correct_reviews, days_studied, last_active_date, updated_at
		FROM deck_stats WHERE deck_id = $1`, deckID,
	).Scan(&stats.UserID, &stats.TotalCards, &stats.TotalReviews, &stats.CorrectReviews,
		&stats.DaysStudied, &last, &stats.UpdatedAt)
	if err == nil {
		stats.LastActiveDate = dateOrNil(last)
		return stats, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, MapError(err)
	}

	// No activity yet: report zeros for an existing deck.
	err = s.db.QueryRowContext(ctx, `SELECT user_id FROM decks WHERE id = $1`, deckID).Scan(&stats.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrDeckNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	return stats, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func dateOrNil(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	day := domain.StudyDay(t.Time)
	return &day
}
