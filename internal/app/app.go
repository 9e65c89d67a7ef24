package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"tutoring-service/internal/auth"
	"tutoring-service/internal/booking"
	"tutoring-service/internal/config"
	"tutoring-service/internal/db"
	"tutoring-service/internal/events"
	"tutoring-service/internal/health"
	"tutoring-service/internal/kafka"
	"tutoring-service/internal/logger"
	"tutoring-service/internal/loginhistory"
	"tutoring-service/internal/material"
	"tutoring-service/internal/messaging"
	"tutoring-service/internal/metrics"
	"tutoring-service/internal/middleware"
	"tutoring-service/internal/note"
	"tutoring-service/internal/review"
	"tutoring-service/internal/session"
	"tutoring-service/internal/telemetry"
	"tutoring-service/internal/user"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type App struct {
	config       *config.Config
	router       chi.Router
	server       *http.Server
	grpcServer   *grpc.Server
	healthServer *grpchealth.Server
	db           *bun.DB
	publisher    events.Publisher
	telemetry    *telemetry.Telemetry
	logger       *slog.Logger
}

// Models in migration order, parents before children.
var models = []interface{}{
	(*user.User)(nil),
	(*session.StudySession)(nil),
	(*material.Material)(nil),
	(*booking.Booking)(nil),
	(*review.Review)(nil),
	(*note.Note)(nil),
	(*loginhistory.Entry)(nil),
}

func New(ctx context.Context) (*App, error) {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)

	// Set as default logger so slog.Info() uses the same handler
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application", "version", Version, "commit", GitCommit, "built", BuildTime)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env)

	tel, err := telemetry.Init(ctx, cfg.Telemetry.OTLPEndpoint, ServiceName, Version, slogLogger)
	if err != nil {
		return nil, err
	}

	database, err := db.New(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := tel.Metrics.Database.RegisterDB(database.DB, otel.Meter(ServiceName)); err != nil {
		slogLogger.Warn("failed to register database pool metrics", "error", err)
	}

	if err := db.RunMigrations(ctx, database, models...); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	app := &App{
		config:    cfg,
		router:    chi.NewRouter(),
		db:        database,
		publisher: newPublisher(cfg.Events, slogLogger, tel.Metrics),
		telemetry: tel,
		logger:    slogLogger,
	}

	app.routes()
	app.registerGRPC()

	slogLogger.Info("application initialized successfully")

	return app, nil
}

// newPublisher picks the event broker. A broker that cannot be reached is logged and
// replaced by a no-op publisher; events are best effort.
func newPublisher(cfg config.EventsConfig, logger *slog.Logger, m *metrics.Metrics) events.Publisher {
	switch cfg.Driver {
	case "nats":
		producer, err := messaging.NewProducer(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger, m)
		if err != nil {
			logger.Warn("failed to initialize NATS producer", "error", err)
			return events.Nop{}
		}
		logger.Info("NATS producer initialized successfully", "url", cfg.NATS.URL)
		return producer
	case "kafka":
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger, m)
		if err != nil {
			logger.Warn("failed to initialize Kafka producer", "error", err)
			return events.Nop{}
		}
		logger.Info("Kafka producer initialized successfully", "brokers", cfg.Kafka.Brokers)
		return producer
	case "", "none":
		return events.Nop{}
	default:
		logger.Warn("unknown events driver, events disabled", "driver", cfg.Driver)
		return events.Nop{}
	}
}

func (a *App) routes() {
	log := a.logger
	m := a.telemetry.Metrics

	tokens := auth.NewTokenManager(a.config.Auth.JWTSecret, a.config.Auth.TokenTTL())

	userRepo := user.NewRepository(a.db, m)
	historyService := loginhistory.NewService(loginhistory.NewRepository(a.db, m))
	sessionRepo := session.NewRepository(a.db, m)
	reviewService := review.NewService(review.NewRepository(a.db, m))

	authHandler := auth.NewHandler(auth.NewService(userRepo, historyService, tokens, log, m), log)
	userHandler := user.NewHandler(user.NewService(userRepo), log)
	historyHandler := loginhistory.NewHandler(historyService, log)
	sessionHandler := session.NewHandler(session.NewService(sessionRepo, reviewService, userRepo, a.publisher, log, m), log)
	reviewHandler := review.NewHandler(reviewService, log)
	materialHandler := material.NewHandler(material.NewService(material.NewRepository(a.db, m), sessionRepo), log)
	bookingHandler := booking.NewHandler(booking.NewService(booking.NewRepository(a.db, m), sessionRepo, a.publisher, log, m), log)
	noteHandler := note.NewHandler(note.NewService(note.NewRepository(a.db, m)), log)

	a.router.Use(chimiddleware.RequestID)
	a.router.Use(chimiddleware.RealIP)
	a.router.Use(chimiddleware.Recoverer)
	a.router.Use(middleware.CORS(a.config.Server.CORSOrigins))

	// Health endpoints (no auth required)
	healthHandler := health.NewHandler(a.db, log, m)
	if broker, ok := a.publisher.(interface{ HealthCheck() error }); ok {
		healthHandler.AddCheck(a.config.Events.Driver, broker.HealthCheck)
	}
	healthHandler.RegisterRoutes(a.router)

	a.router.Route("/api", func(r chi.Router) {
		authHandler.RegisterPublicRoutes(r)
		userHandler.RegisterPublicRoutes(r)
		sessionHandler.RegisterPublicRoutes(r)
		reviewHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(tokens, log))
			authHandler.RegisterAuthenticatedRoutes(r)
			materialHandler.RegisterAuthenticatedRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(userRepo, user.RoleStudent, log))
				bookingHandler.RegisterStudentRoutes(r)
				noteHandler.RegisterStudentRoutes(r)
				reviewHandler.RegisterStudentRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(userRepo, user.RoleTutor, log))
				sessionHandler.RegisterTutorRoutes(r)
				materialHandler.RegisterTutorRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(userRepo, user.RoleAdmin, log))
				userHandler.RegisterAdminRoutes(r)
				sessionHandler.RegisterAdminRoutes(r)
				materialHandler.RegisterAdminRoutes(r)
				historyHandler.RegisterAdminRoutes(r)
			})
		})
	})
}

func (a *App) registerGRPC() {
	a.grpcServer = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(a.telemetry.Metrics.Grpc.UnaryServerInterceptor()),
	)

	// Register gRPC health check
	a.healthServer = grpchealth.NewServer()
	grpc_health_v1.RegisterHealthServer(a.grpcServer, a.healthServer)
	a.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	a.healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves gRPC health in the background and blocks on the HTTP server. It returns
// http.ErrServerClosed after Shutdown.
func (a *App) Run() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", a.config.Grpc.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port: %w", err)
	}

	go func() {
		a.logger.Info("gRPC server starting", "port", a.config.Grpc.Port)
		if err := a.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			a.logger.Error("gRPC server error", "error", err)
		}
	}()

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  seconds(a.config.Server.ReadTimeout, 15),
		WriteTimeout: seconds(a.config.Server.WriteTimeout, 15),
		IdleTimeout:  seconds(a.config.Server.IdleTimeout, 60),
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}

	if a.healthServer != nil {
		a.healthServer.Shutdown()
	}
	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
	}

	if err := a.publisher.Close(); err != nil {
		a.logger.Error("event publisher close error", "error", err)
	}

	if err := a.telemetry.Shutdown(ctx, a.logger); err != nil {
		errs = append(errs, err)
	}

	db.Close(a.db)

	return errors.Join(errs...)
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
