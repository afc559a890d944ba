// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr = "0.0.0.0:8044"

	DefaultDataDir      = "data"
	DefaultBackend      = "file"
	DefaultSaveInterval = 2000 * time.Millisecond
	DefaultSendBuffer   = 256
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr: DefaultHTTPAddr,
			},
		},
		Storage: StorageSection{
			DataDir: DefaultDataDir,
			Backend: DefaultBackend,
		},
		Sync: SyncSection{
			SaveInterval: DefaultSaveInterval,
			SendBuffer:   DefaultSendBuffer,
		},
		Log: LogSection{
			Level:  "info",
			Format: "json",
		},
	}
}
