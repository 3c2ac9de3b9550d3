// Package srs implements the closed-form spaced-repetition scheduler and the
// translation from validation scores to ratings.
//
// Everything in this package is pure: no I/O, no clocks, no locks. Callers own
// time and persistence.
package srs
