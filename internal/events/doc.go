// Package events defines the domain events published by the review and card
// services, and a synchronous in-memory emitter that fans them out to
// handlers such as the statistics aggregator.
package events
