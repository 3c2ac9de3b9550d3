// Package postgres provides PostgreSQL implementations of the store
// interfaces, plus the embedded goose migrations that create their schema.
// Answer embeddings are kept in a pgvector column next to the card row.
package postgres
