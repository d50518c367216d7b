package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/clinichub/services/appointment/config"
	"example.com/clinichub/services/appointment/internal/database"
	"example.com/clinichub/services/appointment/internal/messaging"
	"example.com/clinichub/services/appointment/internal/metrics"
	"example.com/clinichub/services/appointment/internal/projection"
	"example.com/clinichub/services/appointment/internal/saga"
	"example.com/clinichub/services/appointment/internal/search"
)

// Forward saga steps still PENDING after this long are surfaced for operator
// attention by the sweep job.
const stalePendingAge = 30 * time.Minute

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker to project domain events into the read model and sweep stale workflows`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	configureLogging(cfg)

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Initialize database
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	// Initialize Elasticsearch
	var indexer projection.Indexer
	if elasticClient, err := search.NewElasticClient(cfg.Elastic); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, projecting to the database only")
	} else {
		indexer = elasticClient
	}

	// Initialize metrics
	metricsCollector := metrics.NewMetrics()

	// Initialize the projection processor
	summaryStore := projection.NewGormSummaryStore(db)
	processor := projection.NewEventProcessor(summaryStore, indexer, metricsCollector)

	// Initialize the subscription consumer
	consumer, err := messaging.NewConsumer(cfg.Azure.ConnStr, cfg.Azure.Topic, cfg.Azure.Subscription)
	if err != nil {
		return err
	}
	defer consumer.Close(context.Background())

	// Start the subscription consumer
	g.Go(func() error {
		log.Info().
			Str("topic", cfg.Azure.Topic).
			Str("subscription", cfg.Azure.Subscription).
			Msg("Starting summary updater consumer")
		return consumer.Run(ctx, processor)
	})

	// Start the stale-workflow sweep
	g.Go(func() error {
		sagaLog := saga.NewGormLog(db, metricsCollector)

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(5*time.Minute),
			gocron.NewTask(func() {
				stale, err := sagaLog.FindStalePending(ctx, stalePendingAge)
				if err != nil {
					log.Error().Err(err).Msg("Failed to sweep stale pending workflows")
					return
				}
				for _, event := range stale {
					metricsCollector.IncrementCounter(metrics.SagaPendingStale)
					log.Warn().
						Str("appointment_id", event.AppointmentID).
						Str("event_type", event.EventType).
						Time("occurred_at", event.OccurredAt).
						Msg("Workflow step pending past threshold")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()
		<-ctx.Done()
		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}

	log.Info().Msg("Shutting down worker")
	return nil
}
