package httpapi

import (
	"net/http"

	"github.com/VitaminP8/tweed/internal/auth"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register handles POST /v1/users/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.Users.RegisterUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusCreated, u)
}

// Login handles POST /v1/users/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, err := h.Users.LoginUser(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Follow handles POST /v1/users/{user_id}/follow
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, _ := auth.GetUserIDFromContext(r.Context())
	leaderID, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}

	if err := h.Follows.Follow(r.Context(), followerID, leaderID, h.Now().UTC()); err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unfollow handles DELETE /v1/users/{user_id}/follow
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, _ := auth.GetUserIDFromContext(r.Context())
	leaderID, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}

	if err := h.Follows.Unfollow(r.Context(), followerID, leaderID); err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Like handles POST /v1/posts/{post_id}/like
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	postID, ok := pathID(w, r, "post_id")
	if !ok {
		return
	}

	res, err := h.Likes.Like(r.Context(), userID, postID, h.Now().UTC())
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Unlike handles DELETE /v1/posts/{post_id}/like
func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	postID, ok := pathID(w, r, "post_id")
	if !ok {
		return
	}

	res, err := h.Likes.Unlike(r.Context(), userID, postID)
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}
