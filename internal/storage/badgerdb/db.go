// Package badgerdb stores posts, thread documents and the social graph in an
// embedded BadgerDB.
//
// Key layout:
//
//	post/<id>                        post JSON
//	idx/author/<author>/<ts>/<seq>   post id, newest first per author
//	idx/recent/<ts>/<seq>            post id, newest first globally
//	thread/<id>                      thread document JSON (carries the version)
//	follow/<follower>/<leader>       follow JSON
//	like/<post>/<user>               like timestamp
//	user/<username>                  user record JSON
//	email/<email>                    username
//
// Author, follower, leader, post and user segments of index keys are path
// escaped.
package badgerdb

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

type Config struct {
	// Path is ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *zap.Logger
	// GCInterval of zero disables value log GC.
	GCInterval     time.Duration
	GCDiscardRatio float64
}

func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// DB wraps a badger instance with the id sequences and the GC loop.
type DB struct {
	*badger.DB
	postSeq *badger.Sequence
	userSeq *badger.Sequence
	stopGC  chan struct{}
	gcDone  chan struct{}
	log     *zap.Logger
}

type zapLogger struct {
	log *zap.SugaredLogger
}

func (l zapLogger) Errorf(format string, args ...interface{})   { l.log.Errorf(format, args...) }
func (l zapLogger) Warningf(format string, args ...interface{}) { l.log.Warnf(format, args...) }
func (l zapLogger) Infof(format string, args ...interface{})    { l.log.Infof(format, args...) }
func (l zapLogger) Debugf(format string, args ...interface{})   { l.log.Debugf(format, args...) }

func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
		opts = opts.WithLogger(nil)
	} else {
		opts = opts.WithLogger(zapLogger{log: log.Named("badger").Sugar()})
	}

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	db := &DB{DB: bdb, log: log}
	if db.postSeq, err = bdb.GetSequence([]byte("seq/post"), 100); err != nil {
		bdb.Close()
		return nil, fmt.Errorf("post sequence: %w", err)
	}
	if db.userSeq, err = bdb.GetSequence([]byte("seq/user"), 10); err != nil {
		db.postSeq.Release()
		bdb.Close()
		return nil, fmt.Errorf("user sequence: %w", err)
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		db.stopGC = make(chan struct{})
		db.gcDone = make(chan struct{})
		go db.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return db, nil
}

func OpenInMemory() (*DB, error) {
	return Open(InMemoryConfig())
}

func (db *DB) runGC(interval time.Duration, ratio float64) {
	defer close(db.gcDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-db.stopGC:
			return
		case <-ticker.C:
			err := db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				db.log.Warn("badger value log GC failed", zap.Error(err))
			}
		}
	}
}

func (db *DB) Close() error {
	if db.stopGC != nil {
		close(db.stopGC)
		<-db.gcDone
		db.stopGC = nil
	}
	if err := db.postSeq.Release(); err != nil {
		db.log.Warn("release post sequence", zap.Error(err))
	}
	if err := db.userSeq.Release(); err != nil {
		db.log.Warn("release user sequence", zap.Error(err))
	}
	return db.DB.Close()
}

// nextID returns ids starting at 1.
func nextID(seq *badger.Sequence) (uint64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}
