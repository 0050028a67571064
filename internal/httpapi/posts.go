package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/VitaminP8/tweed/internal/auth"
	"github.com/VitaminP8/tweed/internal/model"
	"github.com/VitaminP8/tweed/internal/usecase"
)

const maxBodyBytes = 1 << 20

type createPostRequest struct {
	Text string `json:"text" validate:"required"`
}

type threadResponse struct {
	PostID string        `json:"post_id"`
	Posts  []*model.Post `json:"posts"`
}

type repliesResponse struct {
	PostID  string        `json:"post_id"`
	Replies []*model.Post `json:"replies"`
}

// CreatePost handles POST /v1/posts
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req createPostRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.Replies.CreateRoot(r.Context(), userID, req.Text, h.Now().UTC())
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

// CreateReply handles POST /v1/posts/{post_id}/replies
func (h *Handler) CreateReply(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	parentID, ok := pathID(w, r, "post_id")
	if !ok {
		return
	}

	var req createPostRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.Replies.CreateReply(r.Context(), userID, req.Text, h.Now().UTC(), parentID)
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

// GetThread handles GET /v1/posts/{post_id}/thread
func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "post_id")
	if !ok {
		return
	}

	posts, err := h.Threads.GetThreadPostsForPost(r.Context(), postID)
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, threadResponse{PostID: postID, Posts: posts})
}

// GetReplies handles GET /v1/posts/{post_id}/replies
func (h *Handler) GetReplies(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "post_id")
	if !ok {
		return
	}

	replies, err := h.Threads.GetReplies(r.Context(), postID)
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, repliesResponse{PostID: postID, Replies: replies})
}

// GetFeed handles GET /v1/feed?page=&page_size=
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	page, ok := queryInt(w, r, "page", 0)
	if !ok {
		return
	}
	pageSize, ok := queryInt(w, r, "page_size", usecase.DefaultPageSize)
	if !ok {
		return
	}

	feed, err := h.Feed.GetFeed(r.Context(), userID, page, pageSize)
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, feed)
}

// decode reads a JSON body and runs struct validation, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid JSON", nil)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		WriteError(w, r, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, name))
	if id == "" {
		WriteError(w, r, http.StatusBadRequest, "MISSING_ID", name+" is required", nil)
		return "", false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "INVALID_QUERY", name+" must be an integer", nil)
		return 0, false
	}
	return n, true
}
