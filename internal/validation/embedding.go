package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/scoring"
)

// Default thresholds for the embedding tier.
const (
	DefaultEmbeddingThreshold  = 0.85
	DefaultBorderlineThreshold = 0.6
)

// EmbeddingTierConfig configures an EmbeddingTier.
type EmbeddingTierConfig struct {
	Threshold           float64
	BorderlineThreshold float64
	CacheSize           int
	// CallTimeout bounds an embed call shared by concurrent callers.
	CallTimeout time.Duration
}

// EmbeddingTier accepts answers whose embedding is close enough to the
// expected answer's embedding.
type EmbeddingTier struct {
	embedder   scoring.Embedder
	cache      *embeddingCache
	threshold  float64
	borderline float64
	logger     *slog.Logger
}

var _ Scorer = (*EmbeddingTier)(nil)

// NewEmbeddingTier creates an EmbeddingTier. Zero config values fall back to
// the package defaults.
func NewEmbeddingTier(embedder scoring.Embedder, cfg EmbeddingTierConfig, log *slog.Logger) (*EmbeddingTier, error) {
	if embedder == nil {
		return nil, errors.New("embedder cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultEmbeddingThreshold
	}
	if cfg.BorderlineThreshold <= 0 {
		cfg.BorderlineThreshold = DefaultBorderlineThreshold
	}
	if cfg.Threshold > 1 || cfg.BorderlineThreshold > cfg.Threshold {
		return nil, fmt.Errorf("%w: thresholds must satisfy borderline <= threshold <= 1",
			scoring.ErrInvalidConfig)
	}

	cache, err := newEmbeddingCache(embedder, cfg.CacheSize, cfg.CallTimeout)
	if err != nil {
		return nil, err
	}

	return &EmbeddingTier{
		embedder:   embedder,
		cache:      cache,
		threshold:  cfg.Threshold,
		borderline: cfg.BorderlineThreshold,
		logger:     log.With(slog.String("component", "embedding_tier")),
	}, nil
}

// Method implements Scorer.
func (t *EmbeddingTier) Method() domain.ValidationMethod {
	return domain.MethodEmbedding
}

// Score implements Scorer. It reuses the stored expected-answer embedding and
// embeds both texts in one call when none is stored.
func (t *EmbeddingTier) Score(ctx context.Context, in Input) (domain.ValidationOutcome, bool, error) {
	log := logger.FromContextOrDefault(ctx, t.logger)
	rejected := domain.ValidationOutcome{Score: 0, Method: domain.MethodEmbedding}

	if strings.TrimSpace(in.Submitted) == "" {
		return rejected, false, nil
	}

	expectedVec, submittedVec, err := t.vectors(ctx, in)
	if err != nil {
		return rejected, false, err
	}

	similarity := scoring.ClampScore(Cosine(expectedVec, submittedVec))
	outcome := domain.ValidationOutcome{Score: similarity, Method: domain.MethodEmbedding}

	switch {
	case similarity >= t.threshold:
		log.DebugContext(ctx, "embedding similarity accepted",
			slog.Float64("similarity", similarity))
		return outcome, true, nil
	case similarity >= t.borderline:
		log.InfoContext(ctx, "borderline embedding similarity, escalating",
			slog.Float64("similarity", similarity),
			slog.Float64("threshold", t.threshold))
	}
	return outcome, false, nil
}

func (t *EmbeddingTier) vectors(ctx context.Context, in Input) ([]float32, []float32, error) {
	if len(in.ExpectedEmbedding) > 0 {
		submitted, err := t.cache.get(ctx, in.Submitted)
		if err != nil {
			return nil, nil, err
		}
		return in.ExpectedEmbedding, submitted, nil
	}

	vecs, err := t.embedder.Embed(ctx, in.Expected, in.Submitted)
	if err != nil {
		return nil, nil, err
	}
	if len(vecs) != 2 {
		return nil, nil, fmt.Errorf("%w: expected 2 embeddings, got %d", scoring.ErrInvalidResponse, len(vecs))
	}
	t.cache.put(in.Submitted, vecs[1])
	return vecs[0], vecs[1], nil
}
