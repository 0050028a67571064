package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/thread"
)

// ThreadBadgerStorage keeps each thread as one JSON document. The version
// check and the write share a transaction, and badger's own conflict
// detection covers two writers committing the same version.
type ThreadBadgerStorage struct {
	db *DB
}

func NewThreadBadgerStorage(db *DB) *ThreadBadgerStorage {
	return &ThreadBadgerStorage{db: db}
}

func threadKey(id string) []byte {
	return []byte("thread/" + id)
}

func (s *ThreadBadgerStorage) CreateThread(_ context.Context, t *thread.Tree) error {
	doc := t.Clone()
	doc.ID, doc.Version = uuid.NewString(), 1
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("could not encode thread: %w", err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(threadKey(doc.ID), data)
	}); err != nil {
		return fmt.Errorf("could not create thread: %w", err)
	}

	t.ID, t.Version = doc.ID, doc.Version
	return nil
}

func (s *ThreadBadgerStorage) GetThreadById(_ context.Context, id string) (*thread.Tree, error) {
	var t *thread.Tree
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		t, err = getThread(txn, id)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperr.NotFound("thread", id)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get thread by id: %w", err)
	}
	return t, nil
}

func (s *ThreadBadgerStorage) SaveThread(_ context.Context, t *thread.Tree) error {
	doc := t.Clone()
	doc.Version = t.Version + 1
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("could not encode thread: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		stored, err := getThread(txn, t.ID)
		if err != nil {
			return err
		}
		if stored.Version != t.Version {
			return apperr.ErrVersionConflict
		}
		return txn.Set(threadKey(t.ID), data)
	})
	switch {
	case err == nil:
		t.Version = doc.Version
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return apperr.NotFound("thread", t.ID)
	case errors.Is(err, apperr.ErrVersionConflict), errors.Is(err, badger.ErrConflict):
		return apperr.ErrVersionConflict
	default:
		return fmt.Errorf("could not save thread: %w", err)
	}
}

func getThread(txn *badger.Txn, id string) (*thread.Tree, error) {
	item, err := txn.Get(threadKey(id))
	if err != nil {
		return nil, err
	}
	t := &thread.Tree{}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, t)
	})
	if err != nil {
		return nil, fmt.Errorf("decode thread %s: %w", id, err)
	}
	return t, nil
}
