package database

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-logr/logr"

	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
)

// ErrNotFound is returned by Get for a missing key. It also matches
// apperrors.ErrNotFound.
var ErrNotFound = errors.New("key not found")

// valueLogFileSize keeps the value log small; events and connections are
// short JSON documents.
const valueLogFileSize = 64 << 20

// DB is a string-keyed view over badger. Keys are "<collection>/<id>".
type DB struct {
	db     *badger.DB
	logger logr.Logger
}

func NewDB(path string, logger logr.Logger) (*DB, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, storageErr("create directory", path, err)
	}

	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithValueLogFileSize(valueLogFileSize).
		WithNumMemtables(3)
	return open(opts, logger)
}

// NewTestDB creates an in-memory database that is closed with the test.
func NewTestDB(t testing.TB) (*DB, error) {
	db, err := open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil), logr.Discard())
	if err != nil {
		return nil, err
	}
	if t != nil {
		t.Cleanup(func() { _ = db.Close() })
	}
	return db, nil
}

func open(opts badger.Options, logger logr.Logger) (*DB, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, storageErr("open database", opts.Dir, err)
	}
	return &DB{db: db, logger: logger}, nil
}

func storageErr(operation, key string, err error) error {
	return fmt.Errorf("%w: storage %s %s: %w", apperrors.ErrStorage, operation, key, err)
}

func (d *DB) Get(key string) ([]byte, error) {
	var value []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrNotFound, key, ErrNotFound)
	case err != nil:
		return nil, storageErr("get", key, err)
	}
	return value, nil
}

func (d *DB) Set(key string, value []byte) error {
	if err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	}); err != nil {
		return storageErr("set", key, err)
	}
	return nil
}

func (d *DB) Delete(key string) error {
	if err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return storageErr("delete", key, err)
	}
	return nil
}

// Iterate calls fn for every key under prefix in key order. Keys are
// visited in reverse order when reverse is set. The value slice is only
// valid during the call. An error from fn stops the walk and is returned
// unwrapped.
func (d *DB) Iterate(prefix string, reverse bool, fn func(key string, value []byte) error) error {
	var fnErr error
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.Reverse = reverse
		it := txn.NewIterator(opts)
		defer it.Close()

		start := []byte(prefix)
		if reverse {
			// seek past every key that carries the prefix
			start = append(start, 0xff)
		}
		for it.Seek(start); it.Valid(); it.Next() {
			item := it.Item()
			if err := item.Value(func(val []byte) error {
				fnErr = fn(string(item.Key()), val)
				return fnErr
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return storageErr("iterate", prefix, err)
	}
	return nil
}

// List returns copies of every value under prefix.
func (d *DB) List(prefix string) (map[string][]byte, error) {
	results := make(map[string][]byte)
	err := d.Iterate(prefix, false, func(key string, value []byte) error {
		results[key] = append([]byte(nil), value...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Count returns the number of keys under prefix without reading values.
func (d *DB) Count(prefix string) (int, error) {
	count := 0
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, storageErr("count", prefix, err)
	}
	return count, nil
}

// BatchSet writes items through a badger WriteBatch, which splits large
// batches across transactions. The write is not atomic.
func (d *DB) BatchSet(items map[string][]byte) error {
	wb := d.db.NewWriteBatch()
	defer wb.Cancel()

	for key, value := range items {
		if err := wb.Set([]byte(key), value); err != nil {
			return storageErr("batch set", key, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return storageErr("batch set", "flush", err)
	}
	return nil
}

// BatchDelete removes keys through a WriteBatch. Missing keys are not an
// error.
func (d *DB) BatchDelete(keys []string) error {
	wb := d.db.NewWriteBatch()
	defer wb.Cancel()

	for _, key := range keys {
		if err := wb.Delete([]byte(key)); err != nil {
			return storageErr("batch delete", key, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return storageErr("batch delete", "flush", err)
	}
	d.logger.V(1).Info("batch delete flushed", "count", len(keys))
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
