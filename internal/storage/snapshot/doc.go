// Package snapshot persists room state as whole-room snapshots.
//
// A snapshot is the complete JSON serialization of a room (page count
// plus the full event log). The engine rewrites it on every save; there
// is no incremental format. Two backends are provided: a plain file per
// room and an embedded Badger database. Snapshots can optionally be
// encrypted at rest with ChaCha20-Poly1305.
package snapshot
