package scoring

import "context"

// HeuristicJudge scores answers by Jaccard similarity of their word sets. It
// makes no external calls.
type HeuristicJudge struct{}

var _ Judge = HeuristicJudge{}

// NewHeuristicJudge creates a HeuristicJudge.
func NewHeuristicJudge() HeuristicJudge {
	return HeuristicJudge{}
}

// Judge implements Judge. The question is ignored.
func (HeuristicJudge) Judge(ctx context.Context, _, expected, submitted string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return Jaccard(Words(expected), Words(submitted)), nil
}

// Jaccard returns |A∩B| / |A∪B| over the distinct words of a and b.
// Two empty sets are identical (1); one empty set shares nothing (0).
func Jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
