package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VitaminP8/tweed/internal/auth"
	"github.com/VitaminP8/tweed/internal/model"
	"github.com/VitaminP8/tweed/internal/storage/memory"
	"github.com/VitaminP8/tweed/internal/usecase"
)

var (
	testSecret = []byte("test_jwt_secret")
	fixedNow   = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func newTestRouter(t *testing.T, opts RouterOptions) chi.Router {
	t.Helper()
	posts := memory.NewPostMemoryStorage()
	threads := memory.NewThreadMemoryStorage()
	follows := memory.NewFollowMemoryStorage()
	log := zap.NewNop()

	h := &Handler{
		Replies: usecase.NewReplyUseCase(posts, threads, nil, log, 3),
		Threads: usecase.NewThreadQueryUseCase(posts, threads, log),
		Feed:    usecase.NewFeedUseCase(posts, follows, log, 100),
		Follows: usecase.NewFollowUseCase(follows, log),
		Likes:   usecase.NewLikeUseCase(memory.NewLikeMemoryStorage(), posts),
		Users:   memory.NewUserMemoryStorage(testSecret),
		Log:     log,
		Now:     func() time.Time { return fixedNow },
	}

	opts.JWTSecret = testSecret
	if opts.RateLimitRPS == 0 {
		opts.RateLimitRPS = 1000
		opts.RateLimitBurst = 1000
	}
	return NewRouter(h, opts)
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.IssueToken(testSecret, userID, userID, time.Now())
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, r http.Handler, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodePost(t *testing.T, rr *httptest.ResponseRecorder) *model.Post {
	t.Helper()
	var p model.Post
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	return &p
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestPlatformEndpoints(t *testing.T) {
	t.Run("Healthz", func(t *testing.T) {
		rr := do(t, newTestRouter(t, RouterOptions{}), http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ok", rr.Body.String())
	})

	t.Run("Readyz reports failures", func(t *testing.T) {
		r := newTestRouter(t, RouterOptions{Ready: func(context.Context) error { return errors.New("db down") }})
		rr := do(t, r, http.MethodGet, "/readyz", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "NOT_READY", errorCode(t, rr))
	})

	t.Run("Metrics", func(t *testing.T) {
		rr := do(t, newTestRouter(t, RouterOptions{}), http.MethodGet, "/metrics", "", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Request id is echoed", func(t *testing.T) {
		r := newTestRouter(t, RouterOptions{})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-Id", "req-1")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, "req-1", rr.Header().Get("X-Request-Id"))

		rr = do(t, r, http.MethodGet, "/healthz", "", nil)
		assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
	})
}

func TestThreadFlow(t *testing.T) {
	r := newTestRouter(t, RouterOptions{})
	alice, bob := token(t, "alice"), token(t, "bob")

	rr := do(t, r, http.MethodPost, "/v1/posts", alice, map[string]string{"text": "root post"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	root := decodePost(t, rr)
	assert.Equal(t, "alice", root.AuthorID)
	require.NotNil(t, root.ThreadID)
	assert.True(t, fixedNow.Equal(root.CreatedAt))

	rr = do(t, r, http.MethodPost, "/v1/posts/"+root.ID+"/replies", bob, map[string]string{"text": "first reply"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	reply := decodePost(t, rr)
	require.NotNil(t, reply.ParentPostID)
	assert.Equal(t, root.ID, *reply.ParentPostID)

	rr = do(t, r, http.MethodPost, "/v1/posts/"+reply.ID+"/replies", alice, map[string]string{"text": "nested"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	nested := decodePost(t, rr)

	t.Run("Thread view is the leading path", func(t *testing.T) {
		rr := do(t, r, http.MethodGet, "/v1/posts/"+nested.ID+"/thread", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp threadResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Posts, 3)
		assert.Equal(t, []string{root.ID, reply.ID, nested.ID},
			[]string{resp.Posts[0].ID, resp.Posts[1].ID, resp.Posts[2].ID})
	})

	t.Run("Direct replies", func(t *testing.T) {
		rr := do(t, r, http.MethodGet, "/v1/posts/"+root.ID+"/replies", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp repliesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Replies, 1)
		assert.Equal(t, reply.ID, resp.Replies[0].ID)
	})

	t.Run("Unknown post", func(t *testing.T) {
		rr := do(t, r, http.MethodGet, "/v1/posts/999/thread", "", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(t, rr))
	})

	t.Run("Reply to missing parent", func(t *testing.T) {
		rr := do(t, r, http.MethodPost, "/v1/posts/999/replies", bob, map[string]string{"text": "hi"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "PARENT_NOT_FOUND", errorCode(t, rr))
	})

	t.Run("Writes require authentication", func(t *testing.T) {
		rr := do(t, r, http.MethodPost, "/v1/posts", "", map[string]string{"text": "anon"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		rr = do(t, r, http.MethodPost, "/v1/posts", "not-a-token", map[string]string{"text": "anon"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Invalid bodies", func(t *testing.T) {
		rr := do(t, r, http.MethodPost, "/v1/posts", alice, "{broken")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "INVALID_JSON", errorCode(t, rr))

		rr = do(t, r, http.MethodPost, "/v1/posts", alice, map[string]string{"text": ""})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "VALIDATION", errorCode(t, rr))

		rr = do(t, r, http.MethodPost, "/v1/posts", alice, map[string]string{"text": strings.Repeat("x", model.MaxPostLength+1)})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "VALIDATION", errorCode(t, rr))
	})
}

func TestFeedAndSocial(t *testing.T) {
	r := newTestRouter(t, RouterOptions{})
	alice, bob := token(t, "alice"), token(t, "bob")

	rr := do(t, r, http.MethodPost, "/v1/posts", bob, map[string]string{"text": "bob writes"})
	require.Equal(t, http.StatusCreated, rr.Code)
	bobPost := decodePost(t, rr)

	t.Run("Follow", func(t *testing.T) {
		rr := do(t, r, http.MethodPost, "/v1/users/bob/follow", alice, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = do(t, r, http.MethodPost, "/v1/users/alice/follow", alice, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = do(t, r, http.MethodDelete, "/v1/users/bob/follow", alice, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("Feed", func(t *testing.T) {
		rr := do(t, r, http.MethodGet, "/v1/feed?page=0&page_size=10", alice, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var page usecase.FeedPage
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
		require.Len(t, page.Posts, 1)
		assert.Equal(t, bobPost.ID, page.Posts[0].ID)

		rr = do(t, r, http.MethodGet, "/v1/feed?page=abc", alice, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = do(t, r, http.MethodGet, "/v1/feed", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Like and unlike", func(t *testing.T) {
		rr := do(t, r, http.MethodPost, "/v1/posts/"+bobPost.ID+"/like", alice, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var res usecase.LikeResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
		assert.Equal(t, int64(1), res.Likes)

		rr = do(t, r, http.MethodDelete, "/v1/posts/"+bobPost.ID+"/like", alice, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
		assert.Equal(t, int64(0), res.Likes)

		rr = do(t, r, http.MethodPost, "/v1/posts/999/like", alice, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUsers(t *testing.T) {
	r := newTestRouter(t, RouterOptions{})

	rr := do(t, r, http.MethodPost, "/v1/users/register", "", map[string]string{
		"username": "carol", "email": "carol@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	t.Run("Duplicate", func(t *testing.T) {
		rr := do(t, r, http.MethodPost, "/v1/users/register", "", map[string]string{
			"username": "carol", "email": "carol2@example.com", "password": "password123",
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("Invalid email", func(t *testing.T) {
		rr := do(t, r, http.MethodPost, "/v1/users/register", "", map[string]string{
			"username": "dave", "email": "nope", "password": "password123",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Login token authenticates writes", func(t *testing.T) {
		rr := do(t, r, http.MethodPost, "/v1/users/login", "", map[string]string{
			"username": "carol", "password": "password123",
		})
		require.Equal(t, http.StatusOK, rr.Code)
		var tok tokenResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tok))

		rr = do(t, r, http.MethodPost, "/v1/posts", tok.Token, map[string]string{"text": "hi"})
		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("Wrong password", func(t *testing.T) {
		rr := do(t, r, http.MethodPost, "/v1/users/login", "", map[string]string{
			"username": "carol", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(t, RouterOptions{RateLimitRPS: 0.001, RateLimitBurst: 1})
	alice := token(t, "alice")

	rr := do(t, r, http.MethodPost, "/v1/posts", alice, map[string]string{"text": "one"})
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, r, http.MethodPost, "/v1/posts", alice, map[string]string{"text": "two"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rr))

	// чтение не ограничивается
	rr = do(t, r, http.MethodGet, "/v1/feed", alice, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	// другой пользователь получает свой лимит
	rr = do(t, r, http.MethodPost, "/v1/posts", token(t, "bob"), map[string]string{"text": "three"})
	assert.Equal(t, http.StatusCreated, rr.Code)
}
