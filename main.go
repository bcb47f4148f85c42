package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planrec/adapters/excel"
	"planrec/app"
	"planrec/internal"
	"planrec/internal/api"
	"planrec/internal/config"
	"planrec/internal/dataset"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gin.SetMode(appConfig.Server.GinMode)
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.Log.Level))

	workbook := excel.DefaultWorkbookConfig()
	workbook.FilePath = appConfig.Dataset.File
	workbook.Concurrency = appConfig.Dataset.LoadConcurrency
	loader := dataset.NewLoader(excel.NewSheetReader(logger), workbook, logger)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), appConfig.Dataset.LoadTimeout)
	store, err := dataset.LoadInitial(loadCtx, loader)
	cancelLoad()
	if err != nil {
		log.Fatalf("Failed to load dataset %s: %v", workbook.FilePath, err)
	}
	reloader := dataset.NewReloader(loader, store, logger)

	recommender := app.NewRecommendationService(store, appConfig.Recommendation.Limit, logger)
	billing := app.NewBillingService(store)
	server := api.NewServer(store, recommender, billing, logger)

	events := api.NewEventHub(logger)
	defer events.Close()
	reloader.OnReload(events.Publish)
	server.EnableEvents(events)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	servers := []*http.Server{{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if appConfig.Ops.Enabled {
		servers = append(servers, &http.Server{
			Addr:              ":" + appConfig.Ops.Port,
			Handler:           api.NewOpsRouter(store, reloader, logger),
			ReadHeaderTimeout: 10 * time.Second,
		})
		logger.Info("💡 View profiles: go tool pprof -http=:8081 http://localhost:%s/debug/pprof/profile?seconds=30", appConfig.Ops.Port)
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info("🚀 Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(srv)
	}

	go reloadOnHangup(ctx, reloader, logger)

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown of %s: %v", srv.Addr, err)
		}
	}
	logger.Info("Stopped")
}

// reloadOnHangup reloads the workbook each time the process receives SIGHUP.
func reloadOnHangup(ctx context.Context, reloader *dataset.Reloader, logger *internal.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if _, err := reloader.Reload(ctx); err != nil {
				logger.Warn("SIGHUP reload failed, keeping current dataset: %v", err)
			}
		}
	}
}
