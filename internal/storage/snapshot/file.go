package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkroom-io/inkroom-go/internal/core/domain"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/logger"
)

// fileStore keeps one JSON file per room in a flat directory.
type fileStore struct {
	dir   string
	codec *codec
	log   logger.Logger
}

func newFileStore(dir string, codec *codec, log logger.Logger) (*fileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &fileStore{dir: dir, codec: codec, log: log}, nil
}

func (s *fileStore) Load(roomID string) (*domain.Room, error) {
	data, err := os.ReadFile(s.path(roomID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return s.codec.decode(data, roomID)
}

// Save writes to a temp file in the same directory and renames it into
// place, so a crash mid-write never leaves a truncated snapshot.
func (s *fileStore) Save(room *domain.Room) error {
	data, err := s.codec.encode(room)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	path := s.path(room.ID)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

func (s *fileStore) Close() error {
	return nil
}

func (s *fileStore) path(roomID string) string {
	return filepath.Join(s.dir, sanitizeName(roomID)+".json")
}

// sanitizeName maps a room id to a safe file name. Anything outside
// letters, digits, underscore and hyphen becomes an underscore, which
// keeps path separators and dot sequences out of the directory.
func sanitizeName(roomID string) string {
	var b strings.Builder
	b.Grow(len(roomID))
	for _, r := range roomID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
