package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v3"
)

const diskKeyPrefix = "inventory/"

// diskCache keeps inventory responses in a Badger directory. Entries carry
// their own TTL and Badger stops returning them once it has passed.
type diskCache struct {
	db     *badger.DB
	opts   Options
	prefix string
}

func openDisk(opts Options) (Cache, error) {
	if opts.Dir == "" {
		return nil, errors.New("cache: disk provider needs a directory")
	}

	bopts := badger.DefaultOptions(opts.Dir).
		WithLogger(badgerLogger{opts.Logger}).
		WithValueLogFileSize(1<<26 - 1)
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open disk cache %s: %w", opts.Dir, err)
	}
	return &diskCache{db: db, opts: opts, prefix: diskKeyPrefix}, nil
}

func (d *diskCache) logError(msg string, err error) {
	if d.opts.Logger != nil {
		d.opts.Logger.Error(msg, err)
	}
}

func (d *diskCache) Get(_ context.Context, key string) ([]byte, bool) {
	var value []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(d.prefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			d.logError("disk cache Get failed", err)
		}
		return nil, false
	}
	return value, true
}

func (d *diskCache) Set(_ context.Context, key string, value []byte) {
	entry := badger.NewEntry([]byte(d.prefix+key), value)
	if d.opts.TTL > 0 {
		entry = entry.WithTTL(d.opts.TTL)
	}
	if err := d.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	}); err != nil {
		d.logError("disk cache Set failed", err)
	}
}

func (d *diskCache) Delete(_ context.Context, key string) {
	if err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(d.prefix + key))
	}); err != nil {
		d.logError("disk cache Delete failed", err)
	}
}

func (d *diskCache) Close() error {
	return d.db.Close()
}

// badgerLogger forwards Badger's errors and warnings to the cache Logger.
type badgerLogger struct {
	l Logger
}

func (b badgerLogger) Errorf(f string, v ...interface{}) {
	if b.l != nil {
		b.l.Error("disk cache", badgerError(f, v))
	}
}

func (b badgerLogger) Warningf(f string, v ...interface{}) {
	if b.l != nil {
		b.l.Error("disk cache warning", badgerError(f, v))
	}
}

func badgerError(f string, v []interface{}) error {
	return errors.New(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}
