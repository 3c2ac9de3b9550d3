// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels. Loggers travel through context.Context so that
// request-scoped fields, such as the trace ID, reach every component.
package logger
