package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/summittax/apiserver/config"
	"github.com/summittax/apiserver/internal/blob"
	"github.com/summittax/apiserver/internal/cache"
	"github.com/summittax/apiserver/internal/db"
	"github.com/summittax/apiserver/internal/handlers"
	"github.com/summittax/apiserver/internal/mq"
	"github.com/summittax/apiserver/internal/services"
	"github.com/summittax/apiserver/internal/store"
)

const avatarCacheTTL = 10 * time.Minute

// Server wraps the HTTP server, router, and owned clients.
type Server struct {
	httpServer  *http.Server
	router      *chi.Mux
	db          *sql.DB
	events      *mq.MQ
	redisClient *redis.Client
}

// New constructs a fully wired Server. Every client is built here, once,
// and handed down explicitly; nothing is lazily initialized.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	backend, err := newBlobBackend(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init blob backend: %w", err)
	}
	blobs := blob.NewStore(backend)
	if err := blobs.EnsureBuckets(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("ensure buckets: %w", err)
	}

	events, err := newEventPublisher(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init event publisher: %w", err)
	}

	var redisClient *redis.Client
	var avatarCache *cache.AvatarCache
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		avatarCache = cache.NewAvatarCache(redisClient, avatarCacheTTL)
	}

	userRepo := store.NewUserRepository(dbConn)
	documentRepo := store.NewDocumentRepository(dbConn)
	refundRepo := store.NewRefundRepository(dbConn)

	var publisher services.EventPublisher
	if events != nil {
		publisher = events
	}

	userService := services.NewUserService(userRepo)
	documentService := services.NewDocumentService(documentRepo, userRepo, blobs, publisher)
	refundService := services.NewRefundService(refundRepo, documentRepo, blobs, publisher)

	sessionMiddleware := handlers.RequireSession([]byte(cfg.JWTSecret))
	adminMiddleware := handlers.RequireAdmin(userService)

	avatarHandler := handlers.NewAvatarHandler(userService, blobs, avatarCache)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, cfg.JWTSecret)
	})
	router.Route("/refund-requests", func(r chi.Router) {
		handlers.RefundRouter(r, refundService)
	})
	router.Route("/my-files", func(r chi.Router) {
		handlers.MyFilesRouter(r, refundService, sessionMiddleware)
	})
	router.Route("/documents", func(r chi.Router) {
		handlers.DocumentRouter(r, documentService, sessionMiddleware)
	})
	router.Route("/users/avatar", func(r chi.Router) {
		handlers.AvatarUploadRouter(r, avatarHandler, sessionMiddleware)
	})
	router.Route("/avatars", func(r chi.Router) {
		handlers.AvatarServeRouter(r, avatarHandler)
	})
	router.Route("/admin", func(r chi.Router) {
		handlers.AdminRouter(r, userService, documentService, refundService, sessionMiddleware, adminMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer:  httpServer,
		router:      router,
		db:          dbConn,
		events:      events,
		redisClient: redisClient,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests, then closes owned clients.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	return err
}

func newBlobBackend(ctx context.Context, cfg config.Config) (blob.ObjectStorage, error) {
	switch cfg.BlobBackend {
	case "gcs":
		return blob.NewGCSClient(ctx, cfg.GCS)
	case "", "minio":
		return blob.NewMinioClient(cfg.Minio)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

func newEventPublisher(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch cfg.MQ.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := mq.NewRabbitMQClient(cfg.MQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	case "pubsub":
		backend, err := mq.NewPubSubClient(ctx, cfg.MQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQ.Backend)
	}
}
