package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inkroom-io/inkroom-go/internal/core/domain"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/logger"
)

// Sentinel errors returned by stores.
var (
	// ErrNotFound indicates no snapshot exists for the room.
	ErrNotFound = errors.New("snapshot not found")

	// ErrCorrupt indicates a snapshot exists but cannot be decoded.
	// The engine treats this the same as ErrNotFound: the room starts
	// empty rather than refusing to open.
	ErrCorrupt = errors.New("snapshot corrupt")
)

// Store persists one snapshot per room.
//
// Implementations must be safe for concurrent use; the engine may save
// different rooms from different goroutines.
type Store interface {
	// Load returns the persisted room, ErrNotFound if none exists, or
	// ErrCorrupt (possibly wrapped) if the stored bytes do not decode.
	Load(roomID string) (*domain.Room, error)

	// Save persists the room, replacing any previous snapshot.
	Save(room *domain.Room) error

	// Close releases backend resources. Save must not be called after.
	Close() error
}

// Backend names accepted by New.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Config configures a snapshot store.
type Config struct {
	// Dir is the data directory. The file backend writes one JSON file
	// per room into it; the badger backend opens a database under it.
	Dir string

	// Backend selects the implementation, BackendFile or BackendBadger.
	Backend string

	// EncryptionKey, when 32 bytes long, encrypts snapshots at rest.
	// Nil or empty disables encryption.
	EncryptionKey []byte

	Logger logger.Logger
}

// New creates the snapshot store selected by cfg.Backend.
func New(cfg Config) (Store, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	codec, err := newCodec(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendFile, "":
		return newFileStore(cfg.Dir, codec, cfg.Logger)
	case BackendBadger:
		return newBadgerStore(cfg.Dir, codec, cfg.Logger)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}

// codec serializes rooms to stored bytes and back, applying encryption
// when a sealer is configured.
type codec struct {
	sealer *sealer
}

func newCodec(key []byte) (*codec, error) {
	if len(key) == 0 {
		return &codec{}, nil
	}
	s, err := newSealer(key)
	if err != nil {
		return nil, err
	}
	return &codec{sealer: s}, nil
}

func (c *codec) encode(room *domain.Room) ([]byte, error) {
	data, err := json.Marshal(room)
	if err != nil {
		return nil, err
	}
	if c.sealer != nil {
		return c.sealer.seal(data)
	}
	return data, nil
}

func (c *codec) decode(data []byte, roomID string) (*domain.Room, error) {
	if c.sealer != nil {
		plain, err := c.sealer.open(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		data = plain
	} else if isSealed(data) {
		return nil, fmt.Errorf("%w: snapshot is encrypted but no key is configured", ErrCorrupt)
	}

	var room domain.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if room.ID == "" {
		room.ID = roomID
	}
	if room.PageCount < 1 {
		room.PageCount = 1
	}
	if room.Events == nil {
		room.Events = make([]domain.Event, 0)
	}
	return &room, nil
}
