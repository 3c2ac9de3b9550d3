// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, .env and config files). It
// provides type-safe access to application settings needed by different
// components while keeping configuration details separate from business logic.
//
// Every key can be set through an environment variable named SCRY_ plus the
// upper-cased key path, e.g. SCRY_VALIDATION_EMBEDDING_THRESHOLD.
package config
