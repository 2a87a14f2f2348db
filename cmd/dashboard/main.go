package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/surebet-tool/internal/api"
	"github.com/yourusername/surebet-tool/internal/config"
	"github.com/yourusername/surebet-tool/internal/database"
	"github.com/yourusername/surebet-tool/internal/datasource"
	"github.com/yourusername/surebet-tool/internal/engine"
	"github.com/yourusername/surebet-tool/internal/health"
	"github.com/yourusername/surebet-tool/internal/logger"
	"github.com/yourusername/surebet-tool/internal/metrics"
	"github.com/yourusername/surebet-tool/internal/models"
	"github.com/yourusername/surebet-tool/internal/publisher"
	"github.com/yourusername/surebet-tool/internal/push"
	"github.com/yourusername/surebet-tool/internal/repository"
	"github.com/yourusername/surebet-tool/internal/scheduler"
	"github.com/yourusername/surebet-tool/internal/service"
	"github.com/yourusername/surebet-tool/internal/store"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Surebet detection dashboard backend",
	Long:  `Ingests odds from configured sources, detects arbitrage opportunities and serves them over HTTP and websockets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRETS_NAME")
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logg := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	logg.WithFields(logrus.Fields{
		"version":     Version,
		"commit":      GitCommit,
		"build_date":  BuildDate,
		"environment": cfg.App.Environment,
	}).Info("Starting surebet dashboard")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	eventStore := store.NewEventStore(cfg.Ingestion.EventTTL())
	notifier := publisher.NewNotifier(logg)
	notifier.SetMetrics(m)

	// Result cache backs the read API; it outlives the event TTL slightly so
	// the dashboard never flashes empty between passes.
	results := publisher.NewResultCache(cfg.Ingestion.EventTTL() + time.Minute)
	notifier.Register(results)

	var db *database.DB
	var repos *repository.Repositories
	if cfg.Features.PersistenceEnabled {
		db, err = database.NewDB(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := db.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}

		repos, err = repository.NewRepositories(db)
		if err != nil {
			return err
		}
		notifier.Register(publisher.NewPersistencePublisher(repos.Surebet))

		// Serve the stored surebets until the first pass replaces them
		if latest, err := repos.Surebet.ListLatest(ctx, 0); err != nil {
			logg.WithError(err).Warn("Failed to warm result cache from storage")
		} else if len(latest) > 0 {
			results.Publish(ctx, publisher.Pass{Surebets: latest, DetectedAt: time.Now().UTC()})
		}
		logg.Info("Persistence enabled")
	}

	if cfg.Features.RedisPublishEnabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()

		notifier.Register(publisher.NewStreamPublisher(redisClient, cfg.Redis.Stream))
		logg.WithField("stream", cfg.Redis.Stream).Info("Redis stream publishing enabled")
	}

	var hub *push.Hub
	if cfg.Features.PushEnabled {
		hub = push.NewHub(logg)
		notifier.Register(hub)
		defer hub.Close()
	}

	runner := engine.NewRunner(eventStore, notifier, engine.Params{
		MinProfitThresholdPct: cfg.Detection.MinProfitThresholdPct,
	}, m, logg)
	go runner.Run(ctx)

	sources := datasource.NewFactory(cfg, logg).BuildSources()
	normalizer := service.NewOddsNormalizer(logg)
	ingestion := service.NewIngestionService(sources, normalizer, eventStore, runner, m, logg, cfg.Ingestion.SourceTimeout())
	if repos != nil {
		ingestion.SetArchive(repos.Event)
		restoreEvents(ctx, repos.Event, eventStore, logg)
	}

	sched := scheduler.NewScheduler(ingestion, logg)
	if len(sources) > 0 {
		if err := sched.SchedulePolling(cfg.Ingestion.PollIntervalSeconds); err != nil {
			return err
		}
	}
	if err := sched.SchedulePruning("@every 1m"); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Logger:      logg,
	})
	if db != nil {
		healthServer.RegisterCheck("database", db.Ping)
	}
	if err := healthServer.Start(ctx); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, m.Handler())
		metricsServer := &http.Server{
			Addr:    ":" + strconv.Itoa(cfg.Metrics.Port),
			Handler: metricsMux,
		}
		go func() {
			logg.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logg.WithError(err).Error("Metrics server error")
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsServer.Shutdown(shutdownCtx)
		}()
	}

	apiServer := api.NewServer(api.Config{
		Port:               cfg.API.Port,
		DeviationTolerance: cfg.Detection.RoundingDeviationTolerance,
	}, ingestion, results, hub, m, logg)

	// Prime the store before the first poll interval elapses
	go ingestion.RunCycle(ctx)

	healthServer.SetReady(true)

	if err := apiServer.Start(ctx); err != nil {
		return err
	}

	logg.Info("Shutdown complete")
	return nil
}

// restoreEvents reloads persisted events into the in-memory store so a restart
// does not lose last-known odds. Outcomes are replayed per source with their
// stored timestamps, so anything already stale is pruned on the next sweep.
func restoreEvents(ctx context.Context, events repository.EventRepository, eventStore *store.EventStore, logg *logrus.Logger) {
	persisted, err := events.ListEvents(ctx)
	if err != nil {
		logg.WithError(err).Warn("Failed to restore events from storage")
		return
	}

	restored := 0
	for i := range persisted {
		ev := persisted[i]
		bySource := make(map[string][]models.Outcome)
		for _, o := range ev.Outcomes {
			bySource[o.Source] = append(bySource[o.Source], o)
		}
		for src, outcomes := range bySource {
			eventStore.Upsert(&models.Event{
				EventID:     ev.EventID,
				Sport:       ev.Sport,
				DisplayName: ev.DisplayName,
				Outcomes:    outcomes,
			}, src, ev.UpdatedAt)
		}
		restored++
	}

	if restored > 0 {
		logg.WithField("events", restored).Info("Restored events from storage")
	}
}
