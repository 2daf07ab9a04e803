package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"taskfigma/internal/config"
	"taskfigma/internal/database"
	"taskfigma/internal/handlers"
	"taskfigma/internal/notify"
	"taskfigma/internal/pdf"
	"taskfigma/internal/realtime"
	"taskfigma/internal/repositories"
	"taskfigma/internal/routes"
	"taskfigma/internal/services"
)

const (
	notifyQueueSize = 256
	healthService   = "taskfigma.TaskService"
)

// App holds the wired service graph for one process.
type App struct {
	cfg      *config.Config
	store    *repositories.Store
	notifier *notify.Async
	router   *gin.Engine
}

// New opens the store, runs migrations and builds the HTTP router.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	hub := realtime.NewHub()
	notifiers := notify.Multi{hub}
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		notifiers = append(notifiers, tg)
		log.Printf("[app] telegram notifications to chat %d", cfg.Telegram.ChatID)
	}
	if cfg.Email.Enabled {
		notifiers = append(notifiers, notify.NewEmail(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
			cfg.Email.To,
		))
		log.Printf("[app] email notifications to %d recipient(s)", len(cfg.Email.To))
	}
	async := notify.NewAsync(notifiers, notifyQueueSize)

	limits := services.PageLimits{
		Default: cfg.Pagination.DefaultPageSize,
		Max:     cfg.Pagination.MaxPageSize,
	}
	taskService := services.NewTaskService(store, limits, async)
	commentService := services.NewCommentService(store, async)
	directoryService := services.NewDirectoryService(store)

	taskHandler := handlers.NewTaskHandler(taskService, commentService, pdf.NewReportGenerator(cfg.Reports.FontPath), hub)
	directoryHandler := handlers.NewDirectoryHandler(directoryService)
	healthHandler := handlers.NewHealthHandler(store.Ping)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	routes.SetupRoutes(router,
		routes.Options{
			JWTSecret:    []byte(cfg.Auth.JWTSecret),
			AuthRequired: cfg.Auth.Required,
			CORSOrigin:   cfg.Server.CORSOrigin,
		},
		taskHandler,
		directoryHandler,
		healthHandler,
	)

	return &App{cfg: cfg, store: store, notifier: async, router: router}, nil
}

func (a *App) Handler() http.Handler { return a.router }

// Close flushes pending notifications, then releases the store.
func (a *App) Close(ctx context.Context) error {
	a.notifier.Close()
	return a.store.Close(ctx)
}

// Run serves HTTP (and gRPC health when server.grpc_port is set) until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	a, err := New(ctx, cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 2)
	go func() {
		log.Printf("[app] http listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	var grpcServer *grpc.Server
	var healthServer *health.Server
	if cfg.Server.GRPCPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			_ = srv.Close()
			_ = a.Close(context.Background())
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcServer = grpc.NewServer()
		healthServer = health.NewServer()
		grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
		healthServer.SetServingStatus(healthService, grpc_health_v1.HealthCheckResponse_SERVING)
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		go func() {
			log.Printf("[app] grpc health listening on %s", lis.Addr())
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Println("[app] shutting down")
	case err = <-errCh:
		log.Printf("[app][err] %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if healthServer != nil {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
	}
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Printf("[app][err] http shutdown: %v", serr)
	}
	if cerr := a.Close(shutdownCtx); cerr != nil {
		log.Printf("[app][err] close store: %v", cerr)
	}
	log.Println("[app] stopped")
	return err
}

// Migrate opens the configured store, applies the schema and exits.
func Migrate(ctx context.Context, cfg *config.Config) error {
	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(ctx); err != nil {
			log.Printf("[migrate][err] close: %v", err)
		}
	}()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Printf("[migrate] %s schema is up to date", cfg.Database.Driver)
	return nil
}
