// Package state keeps per-user conversation sessions and serializes the
// handling of updates that belong to the same user.
package state
