package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/clinichub/services/appointment/api"
	"example.com/clinichub/services/appointment/config"
	"example.com/clinichub/services/appointment/internal/cache"
	"example.com/clinichub/services/appointment/internal/database"
	"example.com/clinichub/services/appointment/internal/directory"
	"example.com/clinichub/services/appointment/internal/eventstore"
	"example.com/clinichub/services/appointment/internal/messaging"
	"example.com/clinichub/services/appointment/internal/metrics"
	"example.com/clinichub/services/appointment/internal/peerclient"
	"example.com/clinichub/services/appointment/internal/query"
	"example.com/clinichub/services/appointment/internal/repository"
	"example.com/clinichub/services/appointment/internal/saga"
	"example.com/clinichub/services/appointment/internal/search"
	"example.com/clinichub/services/appointment/internal/service"
	"example.com/clinichub/services/appointment/internal/tracing"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server handling commands, reads and the internal peer endpoints`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
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

	// Initialize database
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	// Initialize cache
	var summaryCache cache.SummaryCache
	if redisCache, err := cache.NewRedisCache(cfg.Redis); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	} else {
		summaryCache = redisCache
	}

	// Initialize tracer
	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.Disabled()
	}

	// Initialize Elasticsearch read model
	var readModel query.ReadModel
	if elasticClient, err := search.NewElasticClient(cfg.Elastic); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without the document read model")
	} else {
		readModel = elasticClient
	}

	// Initialize metrics
	metricsCollector := metrics.NewMetrics()

	// Initialize the event publisher
	var publisher messaging.Publisher
	if cfg.Azure.ConnStr != "" {
		azurePublisher, err := messaging.NewAzurePublisher(cfg.Azure.ConnStr, cfg.Azure.Topic, metricsCollector)
		if err != nil {
			return err
		}
		defer azurePublisher.Close(context.Background())
		publisher = azurePublisher
	} else {
		log.Warn().Msg("No service bus connection string configured, domain events will not be published")
	}

	// Initialize repositories and stores
	appointmentRepo := repository.NewAppointmentRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	physicianRepo := repository.NewPhysicianRepository(db)
	auditStore := eventstore.NewGormStore(db)
	sagaLog := saga.NewGormLog(db, metricsCollector)

	// Initialize the resilient peer client and directory collaborators
	peerClient := peerclient.NewClient(peerclient.NewMemoryHealthStore(), cfg.Peers.RequestTimeout, metricsCollector).
		WithCooldown(cfg.Peers.Cooldown)
	dir := directory.NewClient(peerClient, cfg.Directory)

	// Wire the command side and the read orchestrator
	svc := service.NewService(appointmentRepo, patientRepo, physicianRepo, auditStore, sagaLog, publisher)
	orchestrator := query.NewOrchestrator(
		summaryCache,
		readModel,
		appointmentRepo,
		peerClient,
		dir,
		cfg.Peers.BaseURLs,
		cfg.Peers.SelfBaseURL,
		metricsCollector,
	)

	// Initialize and start the server
	server := api.NewServer(cfg, svc, orchestrator, auditStore, sagaLog, peerClient, metricsCollector, tracer)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	if tracer != nil {
		tracer.Close()
	}

	log.Info().Msg("Shutting down API server")
	return nil
}

func configureLogging(cfg config.Config) {
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && level != zerolog.NoLevel {
		zerolog.SetGlobalLevel(level)
	}
}
