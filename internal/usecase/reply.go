// Package usecase orchestrates posts, thread trees and the social graph on top
// of the storage interfaces.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/events"
	"github.com/VitaminP8/tweed/internal/metrics"
	"github.com/VitaminP8/tweed/internal/model"
	"github.com/VitaminP8/tweed/internal/post"
	"github.com/VitaminP8/tweed/internal/thread"
)

const defaultInsertAttempts = 3

type ReplyUseCase struct {
	posts    post.PostStorage
	threads  thread.ThreadStorage
	events   events.Publisher
	log      *zap.Logger
	attempts int
}

// NewReplyUseCase wires the use case. A nil publisher disables events, a
// non-positive attempts value falls back to 3.
func NewReplyUseCase(posts post.PostStorage, threads thread.ThreadStorage, publisher events.Publisher, log *zap.Logger, attempts int) *ReplyUseCase {
	if attempts <= 0 {
		attempts = defaultInsertAttempts
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReplyUseCase{
		posts:    posts,
		threads:  threads,
		events:   publisher,
		log:      log,
		attempts: attempts,
	}
}

// CreateRoot persists a new root post, creates its thread and records the
// thread id on the post.
func (uc *ReplyUseCase) CreateRoot(ctx context.Context, authorID, text string, createdAt time.Time) (*model.Post, error) {
	if err := validatePost(authorID, text); err != nil {
		return nil, err
	}

	p := &model.Post{
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: createdAt,
	}
	if err := uc.posts.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("create root post: %w", err)
	}

	tree := thread.New()
	if err := tree.AttachRoot(p.ID); err != nil {
		return nil, err
	}
	if err := uc.threads.CreateThread(ctx, tree); err != nil {
		uc.orphaned(p, "thread creation failed", err)
		return nil, fmt.Errorf("create thread for post %s: %w", p.ID, err)
	}

	p.ThreadID = model.StringPtr(tree.ID)
	if err := uc.posts.UpdatePost(ctx, p); err != nil {
		uc.orphaned(p, "thread id assignment failed", err)
		return nil, fmt.Errorf("assign thread %s to post %s: %w", tree.ID, p.ID, err)
	}

	metrics.PostsCreated.WithLabelValues(metrics.KindRoot).Inc()
	uc.publish(ctx, events.SubjectRootCreated, p)
	uc.log.Debug("root post created", zap.String("post_id", p.ID), zap.String("thread_id", tree.ID))
	return p, nil
}

// CreateReply persists a reply to parentPostID and inserts it into the
// parent's thread. The insert and the thread save are retried together when
// another writer saved the thread in between.
func (uc *ReplyUseCase) CreateReply(ctx context.Context, authorID, text string, createdAt time.Time, parentPostID string) (*model.Post, error) {
	if err := validatePost(authorID, text); err != nil {
		return nil, err
	}

	parent, err := uc.posts.GetPostById(ctx, parentPostID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, &apperr.ParentNotFoundError{ParentID: parentPostID}
		}
		return nil, fmt.Errorf("load parent post %s: %w", parentPostID, err)
	}
	if parent.ThreadID == nil || *parent.ThreadID == "" {
		return nil, &apperr.ThreadNotFoundError{PostID: parent.ID}
	}
	threadID := *parent.ThreadID

	// дерево проверяем до записи поста, иначе пост останется сиротой
	tree, err := uc.threads.GetThreadById(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("load thread %s: %w", threadID, err)
	}
	if !tree.Contains(parent.ID) {
		return nil, &apperr.ParentNotFoundError{ParentID: parent.ID, ThreadID: threadID}
	}

	p := &model.Post{
		AuthorID:     authorID,
		Text:         text,
		CreatedAt:    createdAt,
		ParentPostID: model.StringPtr(parent.ID),
		ThreadID:     model.StringPtr(threadID),
	}
	if err := uc.posts.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("create reply post: %w", err)
	}

	if err := uc.insertReply(ctx, tree, p.ID, parent.ID); err != nil {
		uc.orphaned(p, "thread insert failed", err)
		return nil, err
	}

	metrics.PostsCreated.WithLabelValues(metrics.KindReply).Inc()
	uc.publish(ctx, events.SubjectReplyCreated, p)
	return p, nil
}

// insertReply starts from the already loaded tree and reloads it after every
// version conflict.
func (uc *ReplyUseCase) insertReply(ctx context.Context, tree *thread.Tree, postID, parentID string) error {
	threadID := tree.ID
	for attempt := 1; ; attempt++ {
		if err := tree.InsertReply(postID, parentID); err != nil {
			return err
		}

		err := uc.threads.SaveThread(ctx, tree)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperr.ErrVersionConflict) {
			return fmt.Errorf("save thread %s: %w", threadID, err)
		}

		metrics.ThreadInsertConflicts.Inc()
		if attempt >= uc.attempts {
			return fmt.Errorf("insert post %s into thread %s after %d attempts: %w", postID, threadID, attempt, err)
		}
		uc.log.Debug("thread changed concurrently, retrying insert",
			zap.String("thread_id", threadID), zap.Int("attempt", attempt))

		if err := ctx.Err(); err != nil {
			return err
		}
		if tree, err = uc.threads.GetThreadById(ctx, threadID); err != nil {
			return fmt.Errorf("reload thread %s: %w", threadID, err)
		}
	}
}

func (uc *ReplyUseCase) publish(ctx context.Context, subject string, p *model.Post) {
	if uc.events == nil {
		return
	}
	uc.events.Publish(ctx, events.NewPostEvent(subject, p))
}

func (uc *ReplyUseCase) orphaned(p *model.Post, reason string, err error) {
	metrics.OrphanedPosts.Inc()
	fields := []zap.Field{zap.String("post_id", p.ID), zap.String("reason", reason), zap.Error(err)}
	if p.ThreadID != nil {
		fields = append(fields, zap.String("thread_id", *p.ThreadID))
	}
	uc.log.Warn("post persisted without thread attachment", fields...)
}

func validatePost(authorID, text string) error {
	if authorID == "" {
		return apperr.Invalid("author_id", "must not be empty")
	}
	if strings.TrimSpace(text) == "" {
		return apperr.Invalid("text", "must not be empty")
	}
	if utf8.RuneCountInString(text) > model.MaxPostLength {
		return apperr.Invalid("text", fmt.Sprintf("must be at most %d characters", model.MaxPostLength))
	}
	return nil
}
