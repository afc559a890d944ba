// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for inkroom-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Sync    SyncSection    `koanf:"sync"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`

	// StaticDir optionally serves a client bundle at /. Empty disables
	// static serving; the sync engine does not depend on it.
	StaticDir string `koanf:"static_dir"`

	// RateLimit is the per-IP HTTP request limit in requests/second.
	// Zero disables rate limiting. WebSocket frames are not affected.
	RateLimit int `koanf:"rate_limit"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// StorageSection configures snapshot persistence.
type StorageSection struct {
	// DataDir is the directory for room snapshots, created on demand.
	DataDir string `koanf:"data_dir"`

	// Backend selects the snapshot store: "file" or "badger".
	Backend string `koanf:"backend"`

	// EncryptionKey optionally encrypts snapshots at rest.
	// Base64 (std encoding) of 32 bytes; empty disables encryption.
	EncryptionKey string `koanf:"encryption_key"`
}

// SyncSection configures the room synchronization engine.
type SyncSection struct {
	// SaveInterval is the per-room persistence debounce window. Bursts of
	// events within one window coalesce into a single trailing write.
	SaveInterval time.Duration `koanf:"save_interval"`

	// SendBuffer is the per-connection outbound queue length. A peer that
	// falls this far behind is dropped rather than stalling the room.
	SendBuffer int `koanf:"send_buffer"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
