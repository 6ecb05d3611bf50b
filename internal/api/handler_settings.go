package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"led-display/internal/broadcast"
)

// GetSettings returns the display-context configuration block.
func (s *Server) GetSettings(c *gin.Context) {
	snap := s.engine.Snapshot()
	c.JSON(http.StatusOK, gin.H{"data": snap.DisplaySettings})
}

// UpdateSettings merges keys into the display settings. Settings affect
// rendering only, so the background persistence path is enough; displays
// also get a direct settings notice for low-latency pickup.
func (s *Server) UpdateSettings(c *gin.Context) {
	var input map[string]any
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(input) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No settings given"})
		return
	}

	s.guard.BeginEdit()
	snap := s.engine.UpdateSettings(input)
	s.writer.ScheduleWrite(snap, false)

	env := broadcast.NewEnvelope(broadcast.EventSettings, input, broadcast.SourceEditor)
	if err := s.caster.Publish(env); err != nil {
		log.Printf("⚠️ Settings broadcast failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"data": snap.DisplaySettings})
}
