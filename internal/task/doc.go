// Package task runs best-effort background work on a fixed pool of workers
// draining a bounded in-memory queue. It carries asynchronous event delivery
// and embedding backfills so that neither blocks a request. Tasks are not
// persisted; work still queued at shutdown is drained until the shutdown
// deadline and then abandoned.
package task
