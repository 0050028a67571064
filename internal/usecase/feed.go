package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/follow"
	"github.com/VitaminP8/tweed/internal/metrics"
	"github.com/VitaminP8/tweed/internal/model"
	"github.com/VitaminP8/tweed/internal/post"
)

const (
	DefaultFeedWindow = 100
	DefaultPageSize   = 20
	MaxPageSize       = 100
)

type FeedUseCase struct {
	posts   post.PostStorage
	follows follow.FollowStorage
	log     *zap.Logger
	window  int
}

func NewFeedUseCase(posts post.PostStorage, follows follow.FollowStorage, log *zap.Logger, window int) *FeedUseCase {
	if window <= 0 {
		window = DefaultFeedWindow
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedUseCase{posts: posts, follows: follows, log: log, window: window}
}

// FeedPage is one page of a user's feed. Page is zero based.
type FeedPage struct {
	Posts    []*model.Post `json:"posts"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	HasMore  bool          `json:"has_more"`
}

// GetFeed merges the user's own posts, posts by followed authors and recent
// posts topping the window up, then returns the requested page.
func (uc *FeedUseCase) GetFeed(ctx context.Context, userID string, page, pageSize int) (*FeedPage, error) {
	if userID == "" {
		return nil, apperr.Invalid("user_id", "must not be empty")
	}
	if page < 0 {
		return nil, apperr.Invalid("page", "must not be negative")
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		return nil, apperr.Invalid("page_size", fmt.Sprintf("must be at most %d", MaxPageSize))
	}

	start := time.Now()
	defer func() {
		metrics.FeedAssemblyDuration.Observe(time.Since(start).Seconds())
	}()

	var own, followed []*model.Post
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		own, err = uc.posts.GetPostsByAuthors(gctx, []string{userID}, uc.window)
		if err != nil {
			return fmt.Errorf("load own posts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		follows, err := uc.follows.GetFollows(gctx, userID)
		if err != nil {
			return fmt.Errorf("load follows: %w", err)
		}
		if len(follows) == 0 {
			return nil
		}
		leaders := make([]string, 0, len(follows))
		for _, f := range follows {
			leaders = append(leaders, f.LeaderID)
		}
		followed, err = uc.posts.GetPostsByAuthors(gctx, leaders, uc.window)
		if err != nil {
			return fmt.Errorf("load followed posts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var filler []*model.Post
	if missing := uc.window - len(own) - len(followed); missing > 0 {
		var err error
		filler, err = uc.posts.GetRecentPosts(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("load recent posts: %w", err)
		}
	}

	merged := AssembleFeed(own, followed, filler)
	uc.log.Debug("feed assembled",
		zap.String("user_id", userID),
		zap.Int("own", len(own)),
		zap.Int("followed", len(followed)),
		zap.Int("filler", len(filler)),
		zap.Int("total", len(merged)))

	return paginate(merged, page, pageSize), nil
}

// AssembleFeed de-duplicates the sources by post id, keeping the first copy
// seen, and orders the result newest first. Posts with equal timestamps keep
// their source order.
func AssembleFeed(sources ...[]*model.Post) []*model.Post {
	seen := make(map[string]struct{})
	var merged []*model.Post
	for _, src := range sources {
		for _, p := range src {
			if p == nil {
				continue
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			merged = append(merged, p)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	if merged == nil {
		return []*model.Post{}
	}
	return merged
}

func paginate(posts []*model.Post, page, pageSize int) *FeedPage {
	result := &FeedPage{Posts: []*model.Post{}, Page: page, PageSize: pageSize}

	from := page * pageSize
	if from >= len(posts) {
		return result
	}
	to := from + pageSize
	if to > len(posts) {
		to = len(posts)
	}
	result.Posts = posts[from:to]
	result.HasMore = to < len(posts)
	return result
}
