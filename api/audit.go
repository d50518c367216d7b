package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// appointmentHistory handles GET /api/v1/appointments/:id/history, returning
// the full audit trail for one appointment ordered oldest first.
func (s *Server) appointmentHistory(c *gin.Context) {
	events, err := s.audit.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Error().Err(err).Str("aggregate_id", c.Param("id")).Msg("Failed to load audit history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"aggregate_id": c.Param("id"),
		"events":       events,
		"count":        len(events),
	})
}

// appointmentCurrentState handles GET /api/v1/appointments/:id/current-state,
// returning the highest-version audit entry for the appointment.
func (s *Server) appointmentCurrentState(c *gin.Context) {
	event, err := s.audit.CurrentState(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Error().Err(err).Str("aggregate_id", c.Param("id")).Msg("Failed to load current state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no events recorded for aggregate"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// appointmentSaga handles GET /api/v1/appointments/:id/saga, exposing the
// recorded workflow steps and their classified outcome.
func (s *Server) appointmentSaga(c *gin.Context) {
	events, err := s.sagaLog.FindByAppointmentID(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Error().Err(err).Str("appointment_id", c.Param("id")).Msg("Failed to load saga events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	outcome, err := s.sagaLog.Reconcile(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Error().Err(err).Str("appointment_id", c.Param("id")).Msg("Failed to reconcile saga")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"appointment_id": c.Param("id"),
		"outcome":        outcome,
		"steps":          events,
	})
}

const auditListDefaultLimit = 100

// listAuditEvents handles GET /api/v1/audit/events. With type= it lists the
// newest entries of that event type; with from= and to= (RFC 3339) it lists
// entries in the half-open time range.
func (s *Server) listAuditEvents(c *gin.Context) {
	if eventType := c.Query("type"); eventType != "" {
		events, err := s.audit.ListByType(c.Request.Context(), eventType, auditListDefaultLimit)
		if err != nil {
			log.Error().Err(err).Str("event_type", eventType).Msg("Failed to list audit events")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
		return
	}

	fromParam, toParam := c.Query("from"), c.Query("to")
	if fromParam == "" || toParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either type or both from and to are required"})
		return
	}

	from, err := time.Parse(time.RFC3339, fromParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
		return
	}
	to, err := time.Parse(time.RFC3339, toParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
		return
	}

	events, err := s.audit.ListByTimeRange(c.Request.Context(), from, to)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list audit events by time range")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
