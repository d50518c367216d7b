package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/clinichub/services/appointment/internal/repository"
)

// The internal endpoints back the peer fallback tier: siblings call them
// when their own stores miss, so they answer strictly from the local write
// model and never recurse into the fallback chain themselves.

func (s *Server) internalGetAppointment(c *gin.Context) {
	appointment, err := s.svc.GetAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.internalError(c, err, "appointment")
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (s *Server) internalGetPatient(c *gin.Context) {
	patient, err := s.svc.GetPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.internalError(c, err, "patient")
		return
	}
	c.JSON(http.StatusOK, patient)
}

func (s *Server) internalGetPatientByUsername(c *gin.Context) {
	patient, err := s.svc.GetPatientByUsername(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.internalError(c, err, "patient")
		return
	}
	c.JSON(http.StatusOK, patient)
}

func (s *Server) internalGetPhysician(c *gin.Context) {
	physician, err := s.svc.GetPhysician(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.internalError(c, err, "physician")
		return
	}
	c.JSON(http.StatusOK, physician)
}

func (s *Server) internalGetPhysicianByUsername(c *gin.Context) {
	physician, err := s.svc.GetPhysicianByUsername(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.internalError(c, err, "physician")
		return
	}
	c.JSON(http.StatusOK, physician)
}

func (s *Server) internalError(c *gin.Context, err error, resource string) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": resource + " not found"})
		return
	}
	log.Error().Err(err).Str("resource", resource).Msg("Internal lookup failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
