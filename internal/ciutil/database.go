package ciutil

import (
	"log/slog"

	"github.com/phrazzld/scry-tutor/internal/redact"
)

// GetTestDatabaseURL returns the database URL integration tests should use,
// or "" when none is configured. DATABASE_URL wins over SCRY_TEST_DB_URL,
// which wins over SCRY_DATABASE_URL.
func GetTestDatabaseURL(logger *slog.Logger) string {
	dbURL := GetEnvWithFallbacks([]string{EnvDatabaseURL, EnvScryTestDBURL, EnvScryDatabaseURL}, "", logger)
	if logger != nil {
		if dbURL == "" {
			logger.Info("no database URL environment variables found", slog.Bool("ci", IsCI()))
		} else {
			logger.Info("using test database", slog.String("url", redact.String(dbURL)))
		}
	}
	return dbURL
}
