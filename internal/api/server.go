package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"led-display/internal/api/middleware"
	"led-display/internal/broadcast"
	"led-display/internal/config"
	"led-display/internal/engine"
	"led-display/internal/feeds"
)

// Server is the editor-context HTTP surface. Handlers mutate the in-memory
// document through the engine, hand copies to the debounced writer, and
// signal structural changes with force-reload broadcasts. Change broadcasts
// for ordinary edits ride on the writer's persisted-write hook instead, so
// other contexts only hear about states that actually hit the store.
type Server struct {
	cfg    *config.Config
	engine *engine.Engine
	writer *engine.Writer
	guard  *engine.EditGuard
	poller *feeds.Poller
	caster broadcast.Broadcaster
	router *gin.Engine
}

func New(cfg *config.Config, eng *engine.Engine, writer *engine.Writer, guard *engine.EditGuard, poller *feeds.Poller, caster broadcast.Broadcaster) *Server {
	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.TestMode)
	}

	s := &Server{
		cfg:    cfg,
		engine: eng,
		writer: writer,
		guard:  guard,
		poller: poller,
		caster: caster,
		router: gin.Default(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	// CORS Configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}

	s.router.Use(cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	// Health Check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "led-display"})
	})

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/slides", s.GetSlides)
		v1.GET("/settings", s.GetSettings)
		v1.GET("/sync/status", s.GetSyncStatus)
	}

	secured := v1.Group("/")
	secured.Use(middleware.RequireAuth([]byte(s.cfg.Server.JWTSecret)))
	{
		secured.POST("/slides", s.CreateSlide)
		secured.PUT("/slides/order", s.ReorderSlides)
		secured.PUT("/slides/:id", s.UpdateSlide)
		secured.DELETE("/slides/:id", s.DeleteSlide)
		secured.PUT("/settings", s.UpdateSettings)
		secured.POST("/sync/check", s.ForceFeedCheck)
		secured.POST("/reload", s.TriggerReload)
	}
}

// Start runs the server on the configured port
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}
