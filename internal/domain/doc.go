// Package domain contains the core entities of the tutor: cards with their
// scheduling state, decks, review audit records and aggregate statistics.
//
// Types here carry their own validation but never perform I/O. Scheduling
// arithmetic lives in the srs subpackage.
package domain
