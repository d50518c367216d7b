package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/clinichub/services/appointment/config"
	"example.com/clinichub/services/appointment/internal/eventstore"
	"example.com/clinichub/services/appointment/internal/metrics"
	"example.com/clinichub/services/appointment/internal/peerclient"
	"example.com/clinichub/services/appointment/internal/query"
	"example.com/clinichub/services/appointment/internal/saga"
	"example.com/clinichub/services/appointment/internal/service"
	"example.com/clinichub/services/appointment/internal/tracing"
)

// Server represents the HTTP server
type Server struct {
	config       config.Config
	router       *gin.Engine
	httpServer   *http.Server
	svc          *service.Service
	orchestrator *query.Orchestrator
	audit        eventstore.Store
	sagaLog      saga.Log
	peers        *peerclient.Client
	collector    *metrics.Metrics
	tracer       tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.Config,
	svc *service.Service,
	orchestrator *query.Orchestrator,
	audit eventstore.Store,
	sagaLog saga.Log,
	peers *peerclient.Client,
	collector *metrics.Metrics,
	tracer tracing.Tracer,
) *Server {
	server := &Server{
		config:       cfg,
		svc:          svc,
		orchestrator: orchestrator,
		audit:        audit,
		sagaLog:      sagaLog,
		peers:        peers,
		collector:    collector,
		tracer:       tracer,
	}

	server.router = server.setupRouter()
	server.httpServer = &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      server.router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
	}

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	if s.config.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if s.tracer != nil && s.tracer.Application() != nil {
		router.Use(nrgin.Middleware(s.tracer.Application()))
	}
	router.Use(CorrelationMiddleware())
	router.Use(LoggingMiddleware())
	router.Use(CORSMiddleware())

	v1 := router.Group("/api/v1")
	{
		v1.POST("/appointments", s.createAppointment)
		v1.GET("/appointments", s.listAppointments)
		v1.GET("/appointments/:id", s.getAppointment)
		v1.PUT("/appointments/:id", s.updateAppointment)
		v1.POST("/appointments/:id/cancel", s.cancelAppointment)
		v1.POST("/appointments/:id/complete", s.completeAppointment)

		v1.POST("/patients", s.registerPatient)
		v1.POST("/physicians", s.registerPhysician)
		v1.GET("/physicians/by-username/:name", s.getPhysicianByUsername)

		v1.GET("/appointments/:id/history", s.appointmentHistory)
		v1.GET("/appointments/:id/current-state", s.appointmentCurrentState)
		v1.GET("/appointments/:id/saga", s.appointmentSaga)
		v1.GET("/audit/events", s.listAuditEvents)
	}

	// Internal endpoints serve sibling instances inside the trusted
	// network; they answer from the authoritative local store only.
	internal := router.Group("/internal")
	{
		internal.GET("/appointments/:id", s.internalGetAppointment)
		internal.GET("/patients/:id", s.internalGetPatient)
		internal.GET("/patients/by-username/:name", s.internalGetPatientByUsername)
		internal.GET("/physicians/:id", s.internalGetPhysician)
		internal.GET("/physicians/by-username/:name", s.internalGetPhysicianByUsername)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.collector.Snapshot())
	})

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	return nil
}
