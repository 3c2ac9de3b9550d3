// Package scoring defines the ports the answer validator uses to reach
// external scoring capabilities: an Embedder that turns text into vectors and
// a Judge that rates a submitted answer against the expected one.
//
// Concrete adapters live under internal/platform (Gemini). HeuristicJudge is a
// dependency-free Judge used when no LLM credentials are configured.
package scoring
