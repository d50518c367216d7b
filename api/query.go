package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/clinichub/services/appointment/internal/models"
	"example.com/clinichub/services/appointment/internal/query"
	"example.com/clinichub/services/appointment/internal/service"
)

// listAppointments handles GET /api/v1/appointments. Filter parameters
// (patient_id, physician_id, status) run a document-store search; without
// filters it pages the authoritative write model.
func (s *Server) listAppointments(c *gin.Context) {
	filters := map[string]string{}
	for _, field := range []string{"patient_id", "physician_id", "status"} {
		if value := c.Query(field); value != "" {
			filters[field] = value
		}
	}

	if len(filters) > 0 {
		summaries, err := s.orchestrator.Search(c.Request.Context(), filters)
		if err != nil {
			if errors.Is(err, query.ErrSearchUnavailable) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "filtered search is unavailable"})
				return
			}
			log.Error().Err(err).Msg("Failed to search appointments")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"appointments": summaries, "count": len(summaries)})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	appointments, err := s.orchestrator.List(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list appointments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": appointments, "count": len(appointments)})
}

// getPhysicianByUsername handles GET /api/v1/physicians/by-username/:name,
// answering from the local write model and falling back to sibling
// instances.
func (s *Server) getPhysicianByUsername(c *gin.Context) {
	name := c.Param("name")

	physician, err := s.svc.GetPhysicianByUsername(c.Request.Context(), name)
	if err == nil {
		c.JSON(http.StatusOK, physician)
		return
	}
	if !service.IsNotFound(err) {
		log.Error().Err(err).Str("username", name).Msg("Failed to look up physician")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if s.peers != nil {
		for _, baseURL := range s.config.Peers.BaseURLs {
			if baseURL == "" || baseURL == s.config.Peers.SelfBaseURL {
				continue
			}
			var remote models.Physician
			found, peerErr := s.peers.GetResourceByUsername(c.Request.Context(), baseURL, "physicians", name, &remote)
			if peerErr != nil {
				log.Warn().Err(peerErr).Str("peer", baseURL).Str("username", name).Msg("Peer physician lookup failed")
				continue
			}
			if found {
				c.JSON(http.StatusOK, remote)
				return
			}
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "physician not found"})
}
