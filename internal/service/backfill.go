package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/scoring"
	"github.com/phrazzld/scry-tutor/internal/store"
	"github.com/phrazzld/scry-tutor/internal/task"
)

// backfillBatchSize caps the number of answers sent in one embedding call.
const backfillBatchSize = 100

// backfillItem is a card whose answer still needs an embedding.
type backfillItem struct {
	CardID uuid.UUID
	Answer string
}

// embeddingBackfill computes and stores missing answer embeddings.
type embeddingBackfill struct {
	embedder scoring.Embedder
	cards    store.CardStore
	logger   *slog.Logger
}

// newTask returns a background task that embeds items in batches. A failed
// batch is logged and skipped; the next batch still runs.
func (b *embeddingBackfill) newTask(items []backfillItem) task.Task {
	pending := append([]backfillItem(nil), items...)
	return task.NewFuncTask(task.TaskTypeEmbeddingBackfill, func(ctx context.Context) error {
		return b.run(ctx, pending)
	})
}

func (b *embeddingBackfill) run(ctx context.Context, items []backfillItem) error {
	log := logger.FromContextOrDefault(ctx, b.logger)

	stored, failed := 0, 0
	for start := 0; start < len(items); start += backfillBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+backfillBatchSize, len(items))
		batch := items[start:end]

		texts := make([]string, len(batch))
		for i, item := range batch {
			texts[i] = item.Answer
		}

		vectors, err := b.embedder.Embed(ctx, texts...)
		if err != nil {
			failed += len(batch)
			log.WarnContext(ctx, "embedding backfill batch failed",
				slog.Int("batch_size", len(batch)),
				slog.String("error", err.Error()))
			continue
		}

		for i, item := range batch {
			if err := b.cards.SetEmbedding(ctx, item.CardID, vectors[i]); err != nil {
				failed++
				log.WarnContext(ctx, "failed to store backfilled embedding",
					slog.String("card_id", item.CardID.String()),
					slog.String("error", err.Error()))
				continue
			}
			stored++
		}
	}

	log.InfoContext(ctx, "embedding backfill finished",
		slog.Int("stored", stored),
		slog.Int("failed", failed))
	if stored == 0 && failed > 0 {
		return fmt.Errorf("embedding backfill stored none of %d embeddings", failed)
	}
	return nil
}
