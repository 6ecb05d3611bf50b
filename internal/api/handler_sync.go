package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"led-display/internal/broadcast"
)

// GetSyncStatus aggregates engine and poller state for the admin dashboard.
func (s *Server) GetSyncStatus(c *gin.Context) {
	status := s.poller.LastStatus()
	c.JSON(http.StatusOK, gin.H{
		"state":   s.engine.State(),
		"hash":    s.engine.Hash(),
		"editing": s.guard.Active(),
		"feeds":   status,
	})
}

// ForceFeedCheck runs one feed poll cycle immediately.
func (s *Server) ForceFeedCheck(c *gin.Context) {
	changed := s.poller.ForceCheck(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// TriggerReload broadcasts a force-reload to every open display context.
// The escape hatch for an irrecoverable desync.
func (s *Server) TriggerReload(c *gin.Context) {
	env := broadcast.NewEnvelope(broadcast.EventForceReload, gin.H{"reason": "manual"}, broadcast.SourceSystem)
	if err := s.caster.Publish(env); err != nil {
		log.Printf("⚠️ Reload broadcast failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Broadcast failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "reload-signaled"})
}
