package rest

import (
	"context"
	"net/http"

	"github.com/KevinKickass/VirtualSpectrometer/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /api/v1/system/status
func (s *Server) getSystemStatus(c *gin.Context) {
	status := s.lm.GetCurrentStatus()
	c.JSON(http.StatusOK, status)
}

// POST /api/v1/system/reload
func (s *Server) triggerReload(c *gin.Context) {
	if err := s.lm.TriggerReload(); err != nil {
		respondError(c, types.ErrCodeUnavailable, "Failed to trigger reload", err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Reload initiated",
		"status":  "reloading",
	})
}

// POST /api/v1/system/shutdown
func (s *Server) shutdown(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Shutdown initiated",
	})

	// The request context ends with this handler.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.lm.Config().Server.ShutdownTimeout)
		defer cancel()
		if err := s.lm.Shutdown(ctx); err != nil {
			s.logger.Error("Shutdown failed", zap.Error(err))
		}
	}()
}
