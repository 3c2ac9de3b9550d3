package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/store"
)

const cardColumns = `id, user_id, deck_id, question, answer, answer_embedding, fsrs_state, version, created_at, updated_at`

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTx returns a store bound to tx.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) *PostgresCardStore {
	return &PostgresCardStore{db: tx, logger: s.logger}
}

// Create implements store.CardStore.Create.
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	if err := s.insert(ctx, card); err != nil {
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	log.Debug("card created", slog.String("card_id", card.ID.String()))
	return nil
}

// CreateMany implements store.CardStore.CreateMany. Atomicity comes from the
// enclosing transaction.
func (s *PostgresCardStore) CreateMany(ctx context.Context, cards []*domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}
	}
	for _, card := range cards {
		if err := s.insert(ctx, card); err != nil {
			log.Error("failed to create card batch",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()),
				slog.Int("batch_size", len(cards)))
			return err
		}
	}

	log.Debug("card batch created", slog.Int("count", len(cards)))
	return nil
}

func (s *PostgresCardStore) insert(ctx context.Context, card *domain.Card) error {
	state, err := json.Marshal(card.State)
	if err != nil {
		return fmt.Errorf("%w: encode fsrs_state: %w", store.ErrSerialization, err)
	}

	query := `
		INSERT INTO cards (` + cardColumns + `, next_review_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		card.ID,
		card.UserID,
		nullDeckID(card.DeckID),
		card.Question,
		card.Answer,
		embeddingValue(card.AnswerEmbedding),
		state,
		card.Version,
		card.CreatedAt,
		card.UpdatedAt,
		card.State.NextReviewAt(),
	)
	return MapError(err)
}

// GetByID implements store.CardStore.GetByID.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card by ID",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, err
	}
	return card, nil
}

// ListByUser implements store.CardStore.ListByUser.
func (s *PostgresCardStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE user_id = $1 ORDER BY created_at, id`
	return s.list(ctx, query, userID)
}

// ListByDeck implements store.CardStore.ListByDeck.
func (s *PostgresCardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE deck_id = $1 ORDER BY created_at, id`
	return s.list(ctx, query, deckID)
}

func (s *PostgresCardStore) list(ctx context.Context, query string, arg uuid.UUID) ([]*domain.Card, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// UpdateState implements store.CardStore.UpdateState as a compare-and-swap on
// the version column.
func (s *PostgresCardStore) UpdateState(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion int64,
	state domain.SchedulingState,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		return 0, store.NewStoreError("card", "update_state", "invalid scheduling state",
			fmt.Errorf("%w: %w", store.ErrSerialization, err))
	}
	encoded, err := json.Marshal(state)
	if err != nil {
		return 0, fmt.Errorf("%w: encode fsrs_state: %w", store.ErrSerialization, err)
	}

	query := `
		UPDATE cards
		SET fsrs_state = $3, next_review_at = $4, version = version + 1, updated_at = $5
		WHERE id = $1 AND version = $2
		RETURNING version
	`
	var newVersion int64
	err = s.db.QueryRowContext(ctx, query,
		id, expectedVersion, encoded, state.NextReviewAt(), time.Now().UTC(),
	).Scan(&newVersion)
	if err == nil {
		log.Debug("card state updated",
			slog.String("card_id", id.String()),
			slog.Int64("version", newVersion))
		return newVersion, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Error("failed to update card state",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return 0, MapError(err)
	}

	// No row matched: either the card is gone or the version moved on.
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM cards WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, MapError(err)
	}
	if !exists {
		return 0, store.ErrCardNotFound
	}
	log.Debug("card version conflict",
		slog.String("card_id", id.String()),
		slog.Int64("expected_version", expectedVersion))
	return 0, store.ErrVersionConflict
}

// Delete implements store.CardStore.Delete. Review logs go with the card
// through ON DELETE CASCADE.
func (s *PostgresCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "card"); err != nil {
		return store.ErrCardNotFound
	}
	return nil
}

// SetEmbedding implements store.CardStore.SetEmbedding.
func (s *PostgresCardStore) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE cards SET answer_embedding = $2 WHERE id = $1`,
		id, embeddingValue(embedding))
	if err != nil {
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "card"); err != nil {
		return store.ErrCardNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card      domain.Card
		deckID    uuid.NullUUID
		embedding sql.Null[pgvector.Vector]
		state     []byte
	)
	err := row.Scan(
		&card.ID,
		&card.UserID,
		&deckID,
		&card.Question,
		&card.Answer,
		&embedding,
		&state,
		&card.Version,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if deckID.Valid {
		card.DeckID = &deckID.UUID
	}
	if embedding.Valid {
		card.AnswerEmbedding = embedding.V.Slice()
	}
	if err := json.Unmarshal(state, &card.State); err != nil {
		return nil, store.NewStoreError("card", "scan", "malformed fsrs_state",
			fmt.Errorf("%w: %w", store.ErrSerialization, err))
	}
	if err := card.State.Validate(); err != nil {
		return nil, store.NewStoreError("card", "scan", "invalid fsrs_state",
			fmt.Errorf("%w: %w", store.ErrSerialization, err))
	}
	return &card, nil
}

func nullDeckID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func embeddingValue(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}
