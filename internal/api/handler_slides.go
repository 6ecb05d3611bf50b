package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"led-display/internal/broadcast"
	"led-display/internal/media"
	"led-display/internal/models"
)

var validSlideTypes = map[models.SlideType]bool{
	models.SlideImage:          true,
	models.SlideVideo:          true,
	models.SlideNews:           true,
	models.SlideEvent:          true,
	models.SlideEscalations:    true,
	models.SlideTeamComparison: true,
	models.SlideGraph:          true,
	models.SlideText:           true,
}

// GetSlides returns the full working document
func (s *Server) GetSlides(c *gin.Context) {
	snap := s.engine.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"data": snap.Slides,
		"meta": gin.H{
			"lastUpdated": snap.LastUpdated,
			"version":     snap.Version,
			"hash":        s.engine.Hash(),
		},
	})
}

// CreateSlide adds a new slide at the end of the sequence. Adding a slide is
// a structural change, so it persists on the critical path and other
// contexts get a force-reload instead of an incremental merge.
func (s *Server) CreateSlide(c *gin.Context) {
	var input struct {
		Name       string         `json:"name" binding:"required"`
		Type       string         `json:"type" binding:"required"`
		DataSource string         `json:"dataSource"`
		Duration   float64        `json:"duration"`
		Active     bool           `json:"active"`
		Data       map[string]any `json:"data"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slideType := models.SlideType(input.Type)
	if !validSlideTypes[slideType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown slide type"})
		return
	}

	slide := models.Slide{
		ID:         models.NewSlideID(),
		Name:       input.Name,
		Type:       slideType,
		DataSource: models.DataSource(input.DataSource),
		Duration:   input.Duration,
		Active:     input.Active,
		Data:       input.Data,
	}
	if slide.DataSource == "" {
		slide.DataSource = models.SourceManual
	}
	if slide.Data == nil {
		slide.Data = map[string]any{}
	}

	// Exactly one slide per singleton category.
	if cat := slide.Category(); cat != "" {
		for _, existing := range s.engine.Snapshot().Slides {
			if existing.Category() == cat {
				c.JSON(http.StatusConflict, gin.H{"error": "A " + cat + " slide already exists"})
				return
			}
		}
	}

	if slideType == models.SlideVideo {
		// Duration is computed from the media, never user-set.
		if path, ok := slide.Data["filePath"].(string); ok && path != "" {
			d, err := media.ProbeDuration(path)
			if err != nil {
				log.Printf("⚠️ Could not probe video duration for %s: %v", path, err)
			} else {
				slide.Duration = d
			}
		}
	} else if slide.Duration <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Duration must be positive"})
		return
	}

	s.guard.BeginEdit()
	snap, _ := s.engine.UpsertSlide(slide)
	s.writer.ScheduleWrite(snap, true)
	s.publishForceReload()

	c.JSON(http.StatusCreated, slide)
}

// UpdateSlide mutates an existing slide in place. Edits touching active or
// duration take the critical persistence path; everything else is coalesced
// on the background quiet window.
func (s *Server) UpdateSlide(c *gin.Context) {
	id := c.Param("id")

	var input struct {
		Name     *string        `json:"name"`
		Duration *float64       `json:"duration"`
		Active   *bool          `json:"active"`
		Data     map[string]any `json:"data"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	current := s.engine.Snapshot()
	existing, ok := current.SlideByID(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Slide not found"})
		return
	}

	updated := *existing
	if input.Name != nil {
		updated.Name = *input.Name
	}
	if input.Duration != nil {
		if updated.Type == models.SlideVideo {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Video duration is derived from the media"})
			return
		}
		if *input.Duration <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Duration must be positive"})
			return
		}
		updated.Duration = *input.Duration
	}
	if input.Active != nil {
		updated.Active = *input.Active
	}
	if input.Data != nil {
		updated.Data = input.Data
	}

	critical := input.Active != nil || input.Duration != nil

	s.guard.BeginEdit()
	snap, _ := s.engine.UpsertSlide(updated)
	s.writer.ScheduleWrite(snap, critical)

	c.JSON(http.StatusOK, updated)
}

// DeleteSlide removes a slide by id. Structural change: critical persistence
// plus a force-reload broadcast.
func (s *Server) DeleteSlide(c *gin.Context) {
	id := c.Param("id")

	s.guard.BeginEdit()
	snap, removed := s.engine.DeleteSlide(id)
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Slide not found"})
		return
	}
	s.writer.ScheduleWrite(snap, true)
	s.publishForceReload()

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

// ReorderSlides replaces the display order. Ordering is a critical mutation.
func (s *Server) ReorderSlides(c *gin.Context) {
	var input struct {
		SlideIDs []string `json:"slide_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slide IDs"})
		return
	}

	s.guard.BeginEdit()
	snap, err := s.engine.Reorder(input.SlideIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.writer.ScheduleWrite(snap, true)

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) publishForceReload() {
	env := broadcast.NewEnvelope(broadcast.EventForceReload, gin.H{"reason": "structural-change"}, broadcast.SourceEditor)
	if err := s.caster.Publish(env); err != nil {
		log.Printf("⚠️ Force-reload broadcast failed: %v", err)
	}
}
