package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/model"
)

type PostBadgerStorage struct {
	db *DB
}

func NewPostBadgerStorage(db *DB) *PostBadgerStorage {
	return &PostBadgerStorage{db: db}
}

func postKey(id string) []byte {
	return []byte("post/" + id)
}

var (
	minKeyTime = time.Unix(0, 0)
	maxKeyTime = time.Unix(0, math.MaxInt64)
)

// timeSeqKey orders newest first, ties broken by the higher sequence. Times
// outside the UnixNano range are clamped to its ends.
func timeSeqKey(t time.Time, seq uint64) string {
	var nanos int64
	switch {
	case t.Before(minKeyTime):
		nanos = 0
	case t.After(maxKeyTime):
		nanos = math.MaxInt64
	default:
		nanos = t.UnixNano()
	}
	return fmt.Sprintf("%019d/%020d", math.MaxInt64-nanos, math.MaxUint64-seq)
}

// keyPart escapes a caller supplied id so that "/" cannot cross into the next
// key segment.
func keyPart(id string) string {
	return url.PathEscape(id)
}

func authorPrefix(authorID string) []byte {
	return []byte("idx/author/" + keyPart(authorID) + "/")
}

var recentPrefix = []byte("idx/recent/")

func (s *PostBadgerStorage) CreatePost(_ context.Context, p *model.Post) error {
	seq, err := nextID(s.db.postSeq)
	if err != nil {
		return fmt.Errorf("could not allocate post id: %w", err)
	}

	stored := p.Clone()
	stored.ID = strconv.FormatUint(seq, 10)
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("could not encode post: %w", err)
	}

	order := timeSeqKey(stored.CreatedAt, seq)
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(postKey(stored.ID), data); err != nil {
			return err
		}
		if err := txn.Set(append(authorPrefix(stored.AuthorID), order...), []byte(stored.ID)); err != nil {
			return err
		}
		return txn.Set(append(append([]byte{}, recentPrefix...), order...), []byte(stored.ID))
	})
	if err != nil {
		return fmt.Errorf("could not create post: %w", err)
	}

	p.ID = stored.ID
	return nil
}

func (s *PostBadgerStorage) GetPostById(_ context.Context, id string) (*model.Post, error) {
	var p *model.Post
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = getPost(txn, id)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperr.NotFound("post", id)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get post by id: %w", err)
	}
	return p, nil
}

func (s *PostBadgerStorage) GetPostsByIds(_ context.Context, ids []string) (map[string]*model.Post, error) {
	result := make(map[string]*model.Post, len(ids))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			p, err := getPost(txn, id)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			result[id] = p
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not get posts by ids: %w", err)
	}
	return result, nil
}

// UpdatePost rewrites the document. CreatedAt and AuthorID are taken from the
// stored post so the indexes stay valid.
func (s *PostBadgerStorage) UpdatePost(_ context.Context, p *model.Post) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		stored, err := getPost(txn, p.ID)
		if err != nil {
			return err
		}
		update := p.Clone()
		stored.ParentPostID = update.ParentPostID
		stored.ThreadID = update.ThreadID

		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		return txn.Set(postKey(p.ID), data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return apperr.NotFound("post", p.ID)
	}
	if errors.Is(err, badger.ErrConflict) {
		return apperr.ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("could not update post: %w", err)
	}
	return nil
}

func (s *PostBadgerStorage) GetPostsByAuthors(_ context.Context, authorIDs []string, limit int) ([]*model.Post, error) {
	if len(authorIDs) == 0 || limit <= 0 {
		return []*model.Post{}, nil
	}

	var posts []*model.Post
	err := s.db.View(func(txn *badger.Txn) error {
		seen := make(map[string]bool, len(authorIDs))
		for _, author := range authorIDs {
			if seen[author] {
				continue
			}
			seen[author] = true

			byAuthor, err := scanIndex(txn, authorPrefix(author), limit)
			if err != nil {
				return err
			}
			posts = append(posts, byAuthor...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not get posts by authors: %w", err)
	}

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return idLess(posts[j].ID, posts[i].ID)
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *PostBadgerStorage) GetRecentPosts(_ context.Context, limit int) ([]*model.Post, error) {
	if limit <= 0 {
		return []*model.Post{}, nil
	}

	var posts []*model.Post
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		posts, err = scanIndex(txn, recentPrefix, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("could not get recent posts: %w", err)
	}
	return posts, nil
}

// scanIndex reads up to limit posts referenced by the index entries under prefix.
func scanIndex(txn *badger.Txn, prefix []byte, limit int) ([]*model.Post, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	posts := make([]*model.Post, 0)
	for it.Rewind(); it.Valid() && len(posts) < limit; it.Next() {
		id, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		p, err := getPost(txn, string(id))
		if err != nil {
			return nil, fmt.Errorf("index entry %s: %w", it.Item().Key(), err)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func getPost(txn *badger.Txn, id string) (*model.Post, error) {
	item, err := txn.Get(postKey(id))
	if err != nil {
		return nil, err
	}
	var p model.Post
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func idLess(a, b string) bool {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	if errA != nil || errB != nil {
		return a < b
	}
	return na < nb
}
