package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/VitaminP8/tweed/internal/model"
)

type FollowBadgerStorage struct {
	db *DB
}

func NewFollowBadgerStorage(db *DB) *FollowBadgerStorage {
	return &FollowBadgerStorage{db: db}
}

func followPrefix(followerID string) []byte {
	return []byte("follow/" + keyPart(followerID) + "/")
}

func followKey(followerID, leaderID string) []byte {
	return append(followPrefix(followerID), keyPart(leaderID)...)
}

func (s *FollowBadgerStorage) Follow(_ context.Context, followerID, leaderID string, createdAt time.Time) error {
	data, err := json.Marshal(model.Follow{FollowerID: followerID, LeaderID: leaderID, CreatedAt: createdAt})
	if err != nil {
		return fmt.Errorf("could not encode follow: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := followKey(followerID, leaderID)
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("could not follow user: %w", err)
	}
	return nil
}

func (s *FollowBadgerStorage) Unfollow(_ context.Context, followerID, leaderID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(followKey(followerID, leaderID))
	})
	if err != nil {
		return fmt.Errorf("could not unfollow user: %w", err)
	}
	return nil
}

func (s *FollowBadgerStorage) GetFollows(_ context.Context, followerID string) ([]model.Follow, error) {
	follows := make([]model.Follow, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = followPrefix(followerID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var f model.Follow
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &f)
			}); err != nil {
				return err
			}
			follows = append(follows, f)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not get follows: %w", err)
	}

	sort.SliceStable(follows, func(i, j int) bool {
		return follows[i].CreatedAt.Before(follows[j].CreatedAt)
	})
	return follows, nil
}

type LikeBadgerStorage struct {
	db *DB
}

func NewLikeBadgerStorage(db *DB) *LikeBadgerStorage {
	return &LikeBadgerStorage{db: db}
}

func likePrefix(postID string) []byte {
	return []byte("like/" + keyPart(postID) + "/")
}

func likeKey(postID, userID string) []byte {
	return append(likePrefix(postID), keyPart(userID)...)
}

func (s *LikeBadgerStorage) AddLike(_ context.Context, like model.Like) (bool, error) {
	ts, err := like.CreatedAt.MarshalBinary()
	if err != nil {
		return false, fmt.Errorf("could not encode like: %w", err)
	}

	added := false
	err = s.db.Update(func(txn *badger.Txn) error {
		key := likeKey(like.PostID, like.UserID)
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		added = true
		return txn.Set(key, ts)
	})
	if err != nil {
		return false, fmt.Errorf("could not add like: %w", err)
	}
	return added, nil
}

func (s *LikeBadgerStorage) RemoveLike(_ context.Context, postID, userID string) (bool, error) {
	removed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := likeKey(postID, userID)
		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		removed = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, fmt.Errorf("could not remove like: %w", err)
	}
	return removed, nil
}

func (s *LikeBadgerStorage) CountLikes(_ context.Context, postIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(postIDs))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, postID := range postIDs {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = likePrefix(postID)
			opts.PrefetchValues = false

			var n int64
			it := txn.NewIterator(opts)
			for it.Rewind(); it.Valid(); it.Next() {
				n++
			}
			it.Close()
			counts[postID] = n
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not count likes: %w", err)
	}
	return counts, nil
}
