package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/clinichub/services/appointment/internal/query"
	"example.com/clinichub/services/appointment/internal/service"
)

// createAppointment handles POST /api/v1/appointments
func (s *Server) createAppointment(c *gin.Context) {
	txn := s.tracer.StartTransaction("api-create-appointment")
	defer s.tracer.EndTransaction(txn)

	var req service.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		s.tracer.RecordError(txn, err)
		return
	}
	req.UserID = c.GetHeader("X-User-Id")

	appointment, err := s.svc.CreateAppointment(c.Request.Context(), &req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create appointment")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		s.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusCreated, appointment)
}

// getAppointment handles GET /api/v1/appointments/:id. Reads go through the
// fallback chain, so a degraded read tier still answers when any tier has
// the appointment.
func (s *Server) getAppointment(c *gin.Context) {
	txn := s.tracer.StartTransaction("api-get-appointment")
	defer s.tracer.EndTransaction(txn)

	summary, err := s.orchestrator.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, query.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
			return
		}
		log.Error().Err(err).Str("appointment_id", c.Param("id")).Msg("Failed to resolve appointment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		s.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// updateAppointment handles PUT /api/v1/appointments/:id
func (s *Server) updateAppointment(c *gin.Context) {
	txn := s.tracer.StartTransaction("api-update-appointment")
	defer s.tracer.EndTransaction(txn)

	var req service.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		s.tracer.RecordError(txn, err)
		return
	}
	req.UserID = c.GetHeader("X-User-Id")

	appointment, err := s.svc.UpdateAppointment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if service.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
			return
		}
		log.Error().Err(err).Str("appointment_id", c.Param("id")).Msg("Failed to update appointment")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		s.tracer.RecordError(txn, err)
		return
	}

	s.orchestrator.Invalidate(c.Request.Context(), appointment.AppointmentID)
	c.JSON(http.StatusOK, appointment)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// cancelAppointment handles POST /api/v1/appointments/:id/cancel. Canceling
// an already-canceled appointment succeeds without a second state change.
func (s *Server) cancelAppointment(c *gin.Context) {
	txn := s.tracer.StartTransaction("api-cancel-appointment")
	defer s.tracer.EndTransaction(txn)

	var req cancelRequest
	// The body is optional; a missing reason is fine.
	_ = c.ShouldBindJSON(&req)

	appointment, err := s.svc.CancelAppointment(c.Request.Context(), c.Param("id"), req.Reason, c.GetHeader("X-User-Id"))
	if err != nil {
		if service.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
			return
		}
		log.Error().Err(err).Str("appointment_id", c.Param("id")).Msg("Failed to cancel appointment")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		s.tracer.RecordError(txn, err)
		return
	}

	s.orchestrator.Invalidate(c.Request.Context(), appointment.AppointmentID)
	c.JSON(http.StatusOK, appointment)
}

// completeAppointment handles POST /api/v1/appointments/:id/complete
func (s *Server) completeAppointment(c *gin.Context) {
	txn := s.tracer.StartTransaction("api-complete-appointment")
	defer s.tracer.EndTransaction(txn)

	appointment, err := s.svc.CompleteAppointment(c.Request.Context(), c.Param("id"), c.GetHeader("X-User-Id"))
	if err != nil {
		if service.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
			return
		}
		log.Error().Err(err).Str("appointment_id", c.Param("id")).Msg("Failed to complete appointment")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		s.tracer.RecordError(txn, err)
		return
	}

	s.orchestrator.Invalidate(c.Request.Context(), appointment.AppointmentID)
	c.JSON(http.StatusOK, appointment)
}

// registerPatient handles POST /api/v1/patients
func (s *Server) registerPatient(c *gin.Context) {
	txn := s.tracer.StartTransaction("api-register-patient")
	defer s.tracer.EndTransaction(txn)

	var req service.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		s.tracer.RecordError(txn, err)
		return
	}
	req.UserID = c.GetHeader("X-User-Id")

	patient, err := s.svc.RegisterPatient(c.Request.Context(), &req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to register patient")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		s.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusCreated, patient)
}

// registerPhysician handles POST /api/v1/physicians
func (s *Server) registerPhysician(c *gin.Context) {
	txn := s.tracer.StartTransaction("api-register-physician")
	defer s.tracer.EndTransaction(txn)

	var req service.RegisterPhysicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		s.tracer.RecordError(txn, err)
		return
	}
	req.UserID = c.GetHeader("X-User-Id")

	physician, err := s.svc.RegisterPhysician(c.Request.Context(), &req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to register physician")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		s.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusCreated, physician)
}
