package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marinedrive/phyto-backend/internal/api"
	"github.com/marinedrive/phyto-backend/internal/database"
	"github.com/marinedrive/phyto-backend/internal/derive"
	"github.com/marinedrive/phyto-backend/internal/feed"
	"github.com/marinedrive/phyto-backend/internal/icons"
	"github.com/marinedrive/phyto-backend/internal/markers"
	"github.com/marinedrive/phyto-backend/internal/middleware"
	"github.com/marinedrive/phyto-backend/internal/repository"
	"github.com/marinedrive/phyto-backend/internal/service"
	"github.com/marinedrive/phyto-backend/internal/watch"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	// 初始化数据库
	db, err := database.Open(database.Config{Path: cfg.DBPath}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	if err := database.NewMigrationManager(db, logger).RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	cache := markers.NewStore()
	deriver := derive.New(derive.FileSource{Path: cfg.DatasetPath}, cache, derive.WithLogger(logger))
	iconSvc := service.NewIconService(icons.Dir{Path: cfg.IconDir})
	detections := service.NewDetectionService(feed.NewStore(logger), repository.NewSnapshotRepository(db), iconSvc, logger)
	if err := detections.Restore(ctx); err != nil {
		logger.Warn("starting with an empty detection feed", zap.Error(err))
	}

	deps := api.Deps{
		Locations:  service.NewLocationService(cache, deriver, derive.Options{BucketDeg: cfg.BucketDeg, Limit: cfg.MarkerLimit}, logger),
		Detections: detections,
		Icons:      iconSvc,
		Logger:     logger,
		JWTSecret:  cfg.JWTSecret,
		Heartbeat:  cfg.HeartbeatInterval,
	}
	if cfg.RateLimit > 0 {
		deps.Limiter = middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
		defer deps.Limiter.Stop()
	}
	if cfg.JWTSecret == "" {
		logger.Warn("jwt_secret is empty, write endpoints are unauthenticated")
	}

	gin.SetMode(gin.ReleaseMode)
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           api.SetupRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		// open streams end when the server shuts down
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	if cfg.WatchDataset {
		w, err := watch.NewDatasetWatcher(cfg.DatasetPath, cache, logger)
		if err == nil {
			err = w.Start(gctx)
		}
		if err != nil {
			logger.Warn("dataset watcher disabled", zap.Error(err))
		} else {
			g.Go(func() error {
				<-gctx.Done()
				w.Stop()
				return nil
			})
		}
	}

	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
