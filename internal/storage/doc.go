// Package storage combines the resident room store with snapshot
// persistence.
//
// The engine is the single owner of room state: it loads a room's
// snapshot on first touch, hands out locked entries for mutation, and
// schedules debounced snapshot writes so bursts of drawing traffic
// coalesce into one write per room per interval.
package storage
