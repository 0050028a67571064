package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/VitaminP8/tweed/internal/config"
	"github.com/VitaminP8/tweed/internal/events"
	"github.com/VitaminP8/tweed/internal/follow"
	"github.com/VitaminP8/tweed/internal/httpapi"
	"github.com/VitaminP8/tweed/internal/like"
	"github.com/VitaminP8/tweed/internal/post"
	"github.com/VitaminP8/tweed/internal/storage/badgerdb"
	"github.com/VitaminP8/tweed/internal/storage/memory"
	"github.com/VitaminP8/tweed/internal/storage/postgres"
	"github.com/VitaminP8/tweed/internal/thread"
	"github.com/VitaminP8/tweed/internal/usecase"
	"github.com/VitaminP8/tweed/internal/user"
)

const devJWTSecret = "tweed-dev-secret"

// stores groups the storage implementations of one backend.
type stores struct {
	posts   post.PostStorage
	threads thread.ThreadStorage
	follows follow.FollowStorage
	likes   like.LikeStorage
	users   user.UserStorage
	secret  []byte

	ready func(ctx context.Context) error
	close func()
}

func jwtSecret(cfg config.Config, log *zap.Logger) []byte {
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set, using the development secret")
		return []byte(devJWTSecret)
	}
	return []byte(cfg.JWTSecret)
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*stores, error) {
	secret := jwtSecret(cfg, log)

	switch cfg.Storage {
	case config.StoragePostgres:
		if err := postgres.InitDB(ctx, cfg.DatabaseURL); err != nil {
			return nil, err
		}
		if err := postgres.Migrate(); err != nil {
			_ = postgres.CloseDB()
			return nil, err
		}
		log.Info("using PostgreSQL storage")
		return &stores{
			posts:   postgres.NewPostPostgresStorage(),
			threads: postgres.NewThreadPostgresStorage(),
			follows: postgres.NewFollowPostgresStorage(),
			likes:   postgres.NewLikePostgresStorage(),
			users:   postgres.NewUserPostgresStorage(secret),
			secret:  secret,
			ready:   postgres.Ping,
			close: func() {
				if err := postgres.CloseDB(); err != nil {
					log.Warn("close database", zap.Error(err))
				}
			},
		}, nil

	case config.StorageBadger:
		bcfg := badgerdb.InMemoryConfig()
		if cfg.BadgerPath != "" {
			bcfg = badgerdb.DefaultConfig(cfg.BadgerPath)
		}
		bcfg.Logger = log
		db, err := badgerdb.Open(bcfg)
		if err != nil {
			return nil, fmt.Errorf("open badger: %w", err)
		}
		log.Info("using Badger storage", zap.String("path", cfg.BadgerPath), zap.Bool("in_memory", bcfg.InMemory))
		return &stores{
			posts:   badgerdb.NewPostBadgerStorage(db),
			threads: badgerdb.NewThreadBadgerStorage(db),
			follows: badgerdb.NewFollowBadgerStorage(db),
			likes:   badgerdb.NewLikeBadgerStorage(db),
			users:   badgerdb.NewUserBadgerStorage(db, secret),
			secret:  secret,
			close: func() {
				if err := db.Close(); err != nil {
					log.Warn("close badger", zap.Error(err))
				}
			},
		}, nil

	case config.StorageMemory:
		log.Info("using in-memory storage")
		return &stores{
			posts:   memory.NewPostMemoryStorage(),
			threads: memory.NewThreadMemoryStorage(),
			follows: memory.NewFollowMemoryStorage(),
			likes:   memory.NewLikeMemoryStorage(),
			users:   memory.NewUserMemoryStorage(secret),
			secret:  secret,
			close:   func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage)
}

// newPublisher connects to NATS when NATS_URL is set and falls back to the
// in-process bus with a logging subscriber otherwise.
func newPublisher(ctx context.Context, cfg config.Config, log *zap.Logger) (events.Publisher, func(), error) {
	if cfg.NATSURL == "" {
		bus := events.NewBus()
		subCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			events.LogSubscriber(subCtx, bus, log, events.SubjectRootCreated, events.SubjectReplyCreated)
		}()
		return bus, func() { cancel(); <-done }, nil
	}

	nc, err := events.Connect(events.Options{URL: cfg.NATSURL})
	if err != nil {
		return nil, nil, err
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := events.EnsureStream(js); err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("ensure stream: %w", err)
	}
	log.Info("publishing events to NATS", zap.String("url", cfg.NATSURL), zap.String("stream", events.StreamName))

	return events.NewNATSPublisher(js, log), func() {
		if err := nc.Drain(); err != nil {
			log.Warn("drain nats", zap.Error(err))
		}
	}, nil
}

func newHandler(cfg config.Config, st *stores, pub events.Publisher, log *zap.Logger) *httpapi.Handler {
	return &httpapi.Handler{
		Replies: usecase.NewReplyUseCase(st.posts, st.threads, pub, log, cfg.ThreadInsertAttempts),
		Threads: usecase.NewThreadQueryUseCase(st.posts, st.threads, log),
		Feed:    usecase.NewFeedUseCase(st.posts, st.follows, log, cfg.FeedWindow),
		Follows: usecase.NewFollowUseCase(st.follows, log),
		Likes:   usecase.NewLikeUseCase(st.likes, st.posts),
		Users:   st.users,
		Log:     log,
	}
}

// serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func serve(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	pub, closePub, err := newPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closePub()

	router := httpapi.NewRouter(newHandler(cfg, st, pub, log), httpapi.RouterOptions{
		JWTSecret:      st.secret,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Ready:          st.ready,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", zap.String("addr", cfg.HTTPAddr), zap.String("storage", cfg.Storage))
		// блокируется до Shutdown или фатальной ошибки
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
