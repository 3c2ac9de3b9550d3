// Package validation decides whether a submitted free-text answer is correct
// enough, escalating through increasingly expensive scoring tiers.
//
// Each tier implements Scorer. A Cascade runs tiers strictly in order and stops
// at the first tier that accepts; the final tier's score is always accepted.
// The default tiers are ExactTier (no I/O), EmbeddingTier (one embedding call)
// and GenerativeTier (one judge call).
package validation
