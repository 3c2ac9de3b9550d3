// Package gemini adapts Google's Gemini API to the scoring ports.
//
// Embedder turns answers into embedding vectors for the similarity tier, and
// Judge asks a generative model to grade a submitted answer against the
// expected one. Both retry transient API failures with exponential backoff
// and jitter, and return the scoring package's sentinel errors so the
// validation cascade can classify failures without knowing about genai.
package gemini
