package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

const maxConflictRetries = 10

// BadgerDump keeps documents in an embedded Badger database keyed by DumpKey.
type BadgerDump struct {
	db     *badger.DB
	logger *slog.Logger
}

// NewBadgerDump opens (or creates) the database in dir.
func NewBadgerDump(dir string, logger *slog.Logger) (*BadgerDump, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dump dir: %w", err)
	}

	logger = logger.With("component", "badger_dump")
	opts := badger.DefaultOptions(dir).
		WithLogger(badgerLogger{logger.With("source", "badgerdb")}).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database at %s: %w", dir, err)
	}
	return &BadgerDump{db: db, logger: logger}, nil
}

func (d *BadgerDump) Name() string { return "badger" }

func (d *BadgerDump) Append(runID, kind string, page int, body []byte) error {
	key := []byte(DumpKey(runID, kind, page))
	for i := range maxConflictRetries {
		err := d.db.Update(func(txn *badger.Txn) error {
			return txn.Set(key, body)
		})
		if !errors.Is(err, badger.ErrConflict) {
			if err != nil {
				return fmt.Errorf("badger set %s: %w", key, err)
			}
			return nil
		}
		d.logger.Debug("transaction conflict, retrying", "attempt", i+1)
	}
	return fmt.Errorf("badger set %s: transaction conflict not resolved after %d retries", key, maxConflictRetries)
}

// Get returns the document stored under key.
func (d *BadgerDump) Get(key string) ([]byte, error) {
	var out []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("badger get %s: %w", key, err)
	}
	return out, nil
}

// Keys lists stored keys under prefix in lexical order.
func (d *BadgerDump) Keys(prefix string) ([]string, error) {
	var keys []string
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

func (d *BadgerDump) Close() error {
	d.logger.Info("badger dump closing")
	return d.db.Close()
}

// badgerLogger adapts slog to badger.Logger.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(f string, v ...any)   { b.log(slog.LevelError, f, v...) }
func (b badgerLogger) Warningf(f string, v ...any) { b.log(slog.LevelWarn, f, v...) }
func (b badgerLogger) Infof(f string, v ...any)    { b.log(slog.LevelDebug, f, v...) }
func (b badgerLogger) Debugf(f string, v ...any)   { b.log(slog.LevelDebug, f, v...) }

func (b badgerLogger) log(level slog.Level, f string, v ...any) {
	b.l.Log(context.Background(), level, strings.TrimSpace(fmt.Sprintf(f, v...)))
}
