// Package service contains the application use cases around cards: creating
// them with their answer embeddings, organizing them into decks, bulk imports
// from TSV and Anki packages, and the statistics kept from review events.
//
// Reviewing a card lives in the card_review subpackage.
//
// Services receive their stores and ports through constructor injection and
// never depend on a concrete storage engine. Store errors are translated into
// the sentinel errors in errors.go, wrapped in CardServiceError.
package service
