package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pureclarity/feedsync/internal/catalog"
	"github.com/pureclarity/feedsync/internal/config"
	"github.com/pureclarity/feedsync/internal/database"
	"github.com/pureclarity/feedsync/internal/database/state"
	"github.com/pureclarity/feedsync/internal/feed"
	http_controllers "github.com/pureclarity/feedsync/internal/http"
	"github.com/pureclarity/feedsync/internal/pureclarity"
	"github.com/pureclarity/feedsync/internal/runstate"
	"github.com/pureclarity/feedsync/internal/scheduler"
	"github.com/pureclarity/feedsync/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop schedulers and task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting feedsync v%s", version)

	if cfg.PureClarity.AccessKey == "" || cfg.PureClarity.SecretKey == "" {
		log.Printf("WARNING: PureClarity credentials are not set. Feed submissions will fail. Set 'PURECLARITY_ACCESS_KEY' and 'PURECLARITY_SECRET_KEY' environment variables.")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	tracker := runstate.NewTracker(state.NewRepository(db.DB))
	cat := catalog.New(db.DB)
	pricer := catalog.NewPricer(cat)
	registry := feed.NewDefaultRegistry(cat, pricer, tracker, cfg.Feeds)
	requester := feed.NewRequester(registry, tracker)

	client := pureclarity.NewClient(cfg.PureClarity.AccessKey, cfg.PureClarity.SecretKey, cfg.PureClarity.Region)
	runner := feed.NewRunner(db, registry, tracker, client, cfg.Feeds)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewFeedRunQueue(runner),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Requested feed runs go through the queue when it is available, so a
	// restart mid-run does not lose the request.
	var dispatcher scheduler.FeedDispatcher
	if taskClient != nil {
		dispatcher = taskClient
	}

	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())

	nightly := scheduler.NewNightlyFeedScheduler(db, runner, cfg.Schedules)
	if err := nightly.Start(schedulerCtx); err != nil {
		log.Fatalf("Failed to start nightly feed scheduler: %v", err)
	}

	requested := scheduler.NewRequestedFeedScheduler(tracker, runner, dispatcher, cfg.Schedules)
	if err := requested.Start(schedulerCtx); err != nil {
		log.Fatalf("Failed to start requested feed scheduler: %v", err)
	}

	scheduledFile := scheduler.NewScheduledFileScheduler(runner, cfg.Feeds, cfg.Schedules)
	if err := scheduledFile.Start(schedulerCtx); err != nil {
		log.Fatalf("Failed to start scheduled file scheduler: %v", err)
	}

	delta := scheduler.NewDeltaFeedScheduler(db, cat, tracker, runner, cfg.Schedules)
	if err := delta.Start(schedulerCtx); err != nil {
		log.Fatalf("Failed to start delta feed scheduler: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:  db,
		Registry:  registry,
		Requester: requester,
		Tracker:   tracker,
		Version:   version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		schedulerCancel()
		nightly.Stop()
		requested.Stop()
		scheduledFile.Stop()
		delta.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
