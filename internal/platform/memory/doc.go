// Package memory provides in-process implementations of the store interfaces.
// It backs tests and the dev server when no database URL is configured.
//
// A single mutex guards all data. WithinTx holds it for the whole unit of work
// and undoes every write on failure, which gives the same all-or-nothing
// behaviour as the Postgres transactor.
package memory
