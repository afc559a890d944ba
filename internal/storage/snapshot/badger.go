package snapshot

import (
	"errors"
	"fmt"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v3"

	"github.com/inkroom-io/inkroom-go/internal/core/domain"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/logger"
)

// badgerStore keeps snapshots in an embedded Badger database, one key
// per room. Useful when room ids are too numerous or too hostile for a
// flat directory of files.
type badgerStore struct {
	db    *badger.DB
	codec *codec
	log   logger.Logger
}

func newBadgerStore(dir string, codec *codec, log logger.Logger) (*badgerStore, error) {
	opts := badger.DefaultOptions(filepath.Join(dir, "badger"))
	opts.Logger = &badgerLogger{log: log.With("component", "badger")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &badgerStore{db: db, codec: codec, log: log}, nil
}

func (s *badgerStore) Load(roomID string) (*domain.Room, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(roomID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return s.codec.decode(data, roomID)
}

func (s *badgerStore) Save(room *domain.Room) error {
	data, err := s.codec.encode(room)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(room.ID), data)
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}

func roomKey(roomID string) []byte {
	return []byte("room:" + roomID)
}

// badgerLogger adapts our logger to badger's Logger interface.
type badgerLogger struct {
	log logger.Logger
}

func (b *badgerLogger) Errorf(format string, args ...any) {
	b.log.Error(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Warningf(format string, args ...any) {
	b.log.Warn(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Infof(format string, args ...any) {
	b.log.Debug(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Debugf(format string, args ...any) {
	b.log.Debug(fmt.Sprintf(format, args...))
}
