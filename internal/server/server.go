package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ecostore/apiserver/config"
	"github.com/ecostore/apiserver/internal/auth"
	"github.com/ecostore/apiserver/internal/db"
	"github.com/ecostore/apiserver/internal/events"
	"github.com/ecostore/apiserver/internal/handlers"
	"github.com/ecostore/apiserver/internal/metrics"
	"github.com/ecostore/apiserver/internal/mq"
	"github.com/ecostore/apiserver/internal/services"
	"github.com/ecostore/apiserver/internal/storage"
	"github.com/ecostore/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 60 * time.Second

// Server wraps the HTTP server and router together with the connections it
// owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	redis      *redis.Client
	queue      *mq.MQ
	objects    *storage.Storage
	logger     logrus.FieldLogger
}

// New connects every configured backend and builds the router. Redis,
// messaging and object storage are optional.
func New(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	s := &Server{db: dbConn, logger: logger}

	deps, err := s.connect(ctx, cfg, logger)
	if err != nil {
		_ = s.closeBackends()
		return nil, err
	}

	s.router = NewRouter(deps)
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) connect(ctx context.Context, cfg config.Config, logger *logrus.Logger) (RouterDeps, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Std())
	if err != nil {
		return RouterDeps{}, err
	}

	var denylist auth.Denylist
	if cfg.Redis.Enabled() {
		s.redis = auth.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := s.redis.Ping(ctx).Err(); err != nil {
			return RouterDeps{}, fmt.Errorf("ping redis: %w", err)
		}
		denylist = auth.NewRedisDenylist(s.redis)
	}

	s.queue, err = mq.Open(ctx, cfg.MQ)
	if err != nil {
		return RouterDeps{}, err
	}
	var publisher services.EventPublisher
	if s.queue != nil {
		publisher = events.NewPublisher(s.queue, cfg.MQ.EventsChannel)
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return RouterDeps{}, err
	}
	s.objects = objects

	userRepo := store.NewUserRepository(s.db)
	m := metrics.New()

	var exportService *services.ExportService
	if objects != nil {
		exportService = services.NewExportService(userRepo, objects)
	}

	logger.WithFields(logrus.Fields{
		"denylist": denylist != nil,
		"mq":       cfg.MQ.Backend,
		"storage":  cfg.Storage.Backend,
	}).Info("backends connected")

	return RouterDeps{
		AuthService: services.NewAuthService(services.AuthDeps{
			Users:            userRepo,
			Hasher:           auth.NewPasswordHasher(cfg.Auth.BcryptCost, cfg.Auth.HashConcurrency),
			Tokens:           tokens,
			Events:           publisher,
			Metrics:          m,
			Denylist:         denylist,
			Logger:           logger,
			AllowAdminSignup: cfg.Auth.AllowAdminSignup,
		}),
		UserService:    services.NewUserService(userRepo),
		ProductService: services.NewProductService(store.NewProductRepository(s.db)),
		ExportService:  exportService,
		Tokens:         tokens,
		Denylist:       denylist,
		Metrics:        m,
		Logger:         logger,
		CORSOrigin:     cfg.CORSOrigin,
	}, nil
}

// RouterDeps is everything the HTTP layer needs. ExportService and Denylist
// may be nil.
type RouterDeps struct {
	AuthService    *services.AuthService
	UserService    *services.UserService
	ProductService *services.ProductService
	ExportService  *services.ExportService
	Tokens         *auth.TokenService
	Denylist       auth.Denylist
	Metrics        *metrics.Metrics
	Logger         *logrus.Logger
	CORSOrigin     string
}

// NewRouter mounts every route with the standard middleware stack.
func NewRouter(deps RouterDeps) *chi.Mux {
	mw := handlers.NewAuthMiddleware(deps.Tokens, deps.Denylist, deps.Metrics, deps.Logger)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: deps.Logger, NoColor: true}),
		handlers.Recoverer(deps.Logger),
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{deps.CORSOrigin},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.Timeout(requestTimeout),
	)
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
		router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.NotFound)
	router.Get("/health", handlers.Health)
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, deps.AuthService, mw, deps.Logger, deps.Denylist != nil)
		})
		r.Route("/user", func(r chi.Router) {
			handlers.UserRouter(r, mw)
		})
		r.Route("/admin", func(r chi.Router) {
			handlers.AdminRouter(r, handlers.AdminDeps{
				UserService:    deps.UserService,
				ExportService:  deps.ExportService,
				ProductService: deps.ProductService,
				Logger:         deps.Logger,
			}, mw)
		})
		r.Route("/products", func(r chi.Router) {
			handlers.ProductRouter(r, deps.ProductService, deps.Logger)
		})
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if err := s.closeBackends(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) closeBackends() error {
	var errs []error
	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close mq: %w", err))
		}
	}
	if err := s.objects.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
