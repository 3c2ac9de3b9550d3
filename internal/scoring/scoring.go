package scoring

import (
	"context"
	"strings"
	"unicode"
)

// Embedder computes semantic embeddings. The returned slice has one vector per
// input text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts ...string) ([][]float32, error)
}

// Judge scores how well a submitted answer matches the expected answer for a
// question. Scores are in [0, 1].
type Judge interface {
	Judge(ctx context.Context, question, expected, submitted string) (float64, error)
}

// NormalizeAnswer applies the fixed answer normalization rule: trim, lowercase,
// and collapse every run of punctuation or whitespace into one space. Symbols
// such as < > + = $ are kept since they change what an answer means.
func NormalizeAnswer(s string) string {
	return strings.Join(Words(s), " ")
}

// Words splits s into lowercase words, treating punctuation and whitespace as
// separators.
func Words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(strings.TrimSpace(s)), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}

// ClampScore forces a score into [0, 1].
func ClampScore(score float64) float64 {
	if score != score || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
