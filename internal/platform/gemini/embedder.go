package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/scoring"
	"google.golang.org/genai"
)

// contentEmbedder is the part of *genai.Models the embedder needs.
type contentEmbedder interface {
	EmbedContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.EmbedContentConfig,
	) (*genai.EmbedContentResponse, error)
}

// Embedder implements scoring.Embedder with the Gemini embedding API.
type Embedder struct {
	models contentEmbedder
	model  string
	retry  retryPolicy
	logger *slog.Logger
}

var _ scoring.Embedder = (*Embedder)(nil)

// NewEmbedder creates an Embedder. Pass client.Models as models.
func NewEmbedder(models contentEmbedder, cfg config.LLMConfig, logger *slog.Logger) (*Embedder, error) {
	if models == nil {
		return nil, ErrNilModels
	}
	if cfg.EmbeddingModel == "" {
		return nil, fmt.Errorf("%w: embedding model cannot be empty", scoring.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{
		models: models,
		model:  cfg.EmbeddingModel,
		retry:  newRetryPolicy(cfg.MaxRetries, cfg.BaseDelay),
		logger: logger.With(slog.String("component", "gemini_embedder")),
	}, nil
}

// Embed returns one vector per text, in order, from a single API call.
func (e *Embedder) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, scoring.ErrEmptyInput
	}
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, scoring.ErrEmptyInput
		}
		contents = append(contents, genai.Text(text)...)
	}

	var vectors [][]float32
	err := e.retry.do(ctx, e.logger, "embed", func(ctx context.Context) error {
		resp, err := e.models.EmbedContent(ctx, e.model, contents, nil)
		if err != nil {
			return wrapAPIError(err)
		}
		if resp == nil || len(resp.Embeddings) != len(texts) {
			return fmt.Errorf("%w: expected %d embeddings", scoring.ErrInvalidResponse, len(texts))
		}

		out := make([][]float32, len(resp.Embeddings))
		for i, emb := range resp.Embeddings {
			if emb == nil || len(emb.Values) == 0 {
				return fmt.Errorf("%w: empty embedding at index %d", scoring.ErrInvalidResponse, i)
			}
			out[i] = emb.Values
		}
		vectors = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.DebugContext(ctx, "embedded texts",
		slog.Int("count", len(texts)),
		slog.Int("dimensions", len(vectors[0])))
	return vectors, nil
}
