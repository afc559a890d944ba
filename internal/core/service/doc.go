// Package service implements the room synchronization engine.
//
// It owns the ordering contract: for each room, events are appended to
// the log and fanned out to attached peers under one lock, so every
// peer observes the same order and a joiner's replay never interleaves
// with a concurrent append.
package service
