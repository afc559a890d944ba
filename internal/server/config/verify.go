// Package config defines the server configuration structure.
package config

import (
	"encoding/base64"
	"errors"
	"net"
	"os"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifySync(&cfg.Sync); err != nil {
		return err
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return errors.New("server.http.addr is not host:port: " + err.Error())
	}
	if cfg.StaticDir != "" {
		if st, err := os.Stat(cfg.StaticDir); err != nil || !st.IsDir() {
			return errors.New("server.static_dir is not a readable directory")
		}
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}

	// Check the data directory exists or can be created.
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}

	switch cfg.Backend {
	case "file", "badger":
	default:
		return errors.New("storage.backend must be file or badger")
	}

	if cfg.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return errors.New("storage.encryption_key is not valid base64")
		}
		if len(key) != 32 {
			return errors.New("storage.encryption_key must decode to 32 bytes")
		}
	}

	return nil
}

func verifySync(cfg *SyncSection) error {
	if cfg.SaveInterval <= 0 {
		return errors.New("sync.save_interval must be positive")
	}
	if cfg.SendBuffer < 1 {
		return errors.New("sync.send_buffer must be at least 1")
	}
	return nil
}
