// Package httpapi exposes the posting, thread and feed use cases over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/VitaminP8/tweed/internal/auth"
	"github.com/VitaminP8/tweed/internal/usecase"
	"github.com/VitaminP8/tweed/internal/user"
)

// Handler служит корневой точкой для всех обработчиков, сюда внедряются
// use case'ы и хранилища.
type Handler struct {
	Replies *usecase.ReplyUseCase
	Threads *usecase.ThreadQueryUseCase
	Feed    *usecase.FeedUseCase
	Follows *usecase.FollowUseCase
	Likes   *usecase.LikeUseCase
	Users   user.UserStorage

	Log *zap.Logger
	// Now задает время создания постов, подменяется в тестах
	Now func() time.Time

	validate *validator.Validate
}

type RouterOptions struct {
	JWTSecret      []byte
	RateLimitRPS   float64
	RateLimitBurst int
	// Ready is probed by /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(h *Handler, opts RouterOptions) chi.Router {
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	if h.Now == nil {
		h.Now = time.Now
	}
	h.validate = validator.New()

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware("X-Request-Id"))
	r.Use(accessLog(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(auth.AuthMiddleware(opts.JWTSecret))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(req.Context()); err != nil {
				h.Log.Warn("readiness check failed", zap.Error(err))
				WriteError(w, req, http.StatusServiceUnavailable, "NOT_READY", "not ready", nil)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	limiter := newClientLimiter(opts.RateLimitRPS, opts.RateLimitBurst)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/posts/{post_id}/thread", h.GetThread)
		r.Get("/posts/{post_id}/replies", h.GetReplies)

		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Post("/users/register", h.Register)
			r.Post("/users/login", h.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/feed", h.GetFeed)

			r.Group(func(r chi.Router) {
				r.Use(limiter.Middleware)
				r.Post("/posts", h.CreatePost)
				r.Post("/posts/{post_id}/replies", h.CreateReply)
				r.Post("/users/{user_id}/follow", h.Follow)
				r.Delete("/users/{user_id}/follow", h.Unfollow)
				r.Post("/posts/{post_id}/like", h.Like)
				r.Delete("/posts/{post_id}/like", h.Unlike)
			})
		})
	})

	return r
}
