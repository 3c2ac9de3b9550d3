// Package ciutil detects the execution environment and locates the
// database used by integration tests.
package ciutil
