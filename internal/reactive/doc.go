// Package reactive provides a small observable value cell and a derived
// value that is recomputed whenever its source cell changes.
//
// Subscribers are called synchronously in the writer's goroutine, after
// internal locks are released, so a subscriber may read the cell it
// observes without deadlocking.
package reactive
