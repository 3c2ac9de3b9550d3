// Package api handles incoming HTTP requests, request validation and
// response formatting. Handlers are thin adapters over the review
// orchestrator and the card and stats services; errors are mapped to
// status codes with errors.Is and only sanitized messages reach clients.
package api
