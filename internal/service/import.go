package service

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// Import limits shared by every import format.
const (
	MaxImportBytes = 10 << 20
	MaxImportCards = 2000
)

// ImportResult reports the outcome of a TSV import.
type ImportResult struct {
	DeckID        uuid.UUID `json:"deck_id"`
	CardsImported int       `json:"cards_imported"`
	CardsSkipped  int       `json:"cards_skipped"`
}

// AnkiImportResult reports the outcome of an Anki package import.
type AnkiImportResult struct {
	DeckID        uuid.UUID `json:"deck_id"`
	DeckName      string    `json:"deck_name"`
	CardsImported int       `json:"cards_imported"`
	CardsSkipped  int       `json:"cards_skipped"`
}

// notePair is one front/back pair extracted from an import file.
type notePair struct {
	Front string
	Back  string
}

// parseTSV extracts front/back pairs from tab-separated text. Blank lines are
// ignored. Lines missing either side, and lines past MaxImportCards, are
// counted as skipped.
func parseTSV(data []byte) ([]notePair, int, error) {
	if !utf8.Valid(data) {
		return nil, 0, fmt.Errorf("%w: file is not valid UTF-8", ErrInvalidImport)
	}

	var (
		pairs   []notePair
		skipped int
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxImportBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		front, back, _ := strings.Cut(line, "\t")
		front, back = strings.TrimSpace(front), strings.TrimSpace(back)
		if front == "" || back == "" {
			skipped++
			continue
		}
		if len(pairs) >= MaxImportCards {
			skipped++
			continue
		}
		pairs = append(pairs, notePair{Front: front, Back: back})
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	return pairs, skipped, nil
}

// ImportTSV implements CardService.ImportTSV
func (s *cardServiceImpl) ImportTSV(ctx context.Context, deckID uuid.UUID, data []byte) (*ImportResult, error) {
	if len(data) > MaxImportBytes {
		return nil, NewCardServiceError("import_tsv", "file exceeds the 10 MiB limit", ErrImportTooLarge)
	}

	deck, err := s.stores.Decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, NewCardServiceError("import_tsv", "failed to load deck", s.mapStoreError(err))
	}

	pairs, skipped, err := parseTSV(data)
	if err != nil {
		return nil, NewCardServiceError("import_tsv", "failed to parse file", err)
	}

	cards, err := s.importCards(ctx, deck, pairs, nil)
	if err != nil {
		return nil, NewCardServiceError("import_tsv", "failed to save cards", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).InfoContext(ctx, "tsv import finished",
		slog.String("deck_id", deck.ID.String()),
		slog.Int("imported", len(cards)),
		slog.Int("skipped", skipped))

	return &ImportResult{
		DeckID:        deck.ID,
		CardsImported: len(cards),
		CardsSkipped:  skipped,
	}, nil
}

// ImportAnki implements CardService.ImportAnki
func (s *cardServiceImpl) ImportAnki(ctx context.Context, userID uuid.UUID, data []byte) (*AnkiImportResult, error) {
	if len(data) > MaxImportBytes {
		return nil, NewCardServiceError("import_anki", "file exceeds the 10 MiB limit", ErrImportTooLarge)
	}

	pkg, err := readAnkiPackage(ctx, data)
	if err != nil {
		return nil, NewCardServiceError("import_anki", "failed to read package", err)
	}

	deck, err := domain.NewDeck(userID, pkg.DeckName, nil)
	if err != nil {
		return nil, NewCardServiceError("import_anki", "invalid deck", fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}

	cards, err := s.importCards(ctx, deck, pkg.Notes, func(ctx context.Context, st store.Stores) error {
		return st.Decks.Create(ctx, deck)
	})
	if err != nil {
		return nil, NewCardServiceError("import_anki", "failed to save deck", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).InfoContext(ctx, "anki import finished",
		slog.String("deck_id", deck.ID.String()),
		slog.String("deck_name", deck.Name),
		slog.Int("imported", len(cards)),
		slog.Int("skipped", pkg.Skipped))

	return &AnkiImportResult{
		DeckID:        deck.ID,
		DeckName:      deck.Name,
		CardsImported: len(cards),
		CardsSkipped:  pkg.Skipped,
	}, nil
}

// importCards stores one card per pair in deck, in a single transaction
// after the optional before step. New cards are stored without embeddings
// and queued for backfill, then announced.
func (s *cardServiceImpl) importCards(
	ctx context.Context,
	deck *domain.Deck,
	pairs []notePair,
	before func(ctx context.Context, st store.Stores) error,
) ([]*domain.Card, error) {
	deckID := deck.ID
	cards := make([]*domain.Card, 0, len(pairs))
	for _, p := range pairs {
		card, err := domain.NewCard(deck.UserID, &deckID, p.Front, p.Back)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		cards = append(cards, card)
	}

	if before == nil && len(cards) == 0 {
		return cards, nil
	}

	err := s.transactor.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if before != nil {
			if err := before(ctx, st); err != nil {
				return err
			}
		}
		if len(cards) == 0 {
			return nil
		}
		return st.Cards.CreateMany(ctx, cards)
	})
	if err != nil {
		return nil, s.mapStoreError(err)
	}

	if len(cards) > 0 {
		s.scheduleBackfill(ctx, cards)
		s.publishCreated(ctx, deck.UserID, &deckID, cards)
	}
	return cards, nil
}
