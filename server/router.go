package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/discograf/discograf/config"
	"github.com/discograf/discograf/log"
)

var httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "discograf",
	Subsystem: "server",
	Name:      "http_requests_total",
	Help:      "HTTP requests handled, by method, route and status.",
}, []string{"method", "route", "status"})

// Server wires the store, token manager, cover storage and websocket hub
// behind the REST API
type Server struct {
	store  *Store
	tokens *TokenManager
	covers CoverStorage
	hub    *Hub
	logger *log.Logger

	coversDir string // non-empty when the fs backend serves files directly
}

// New assembles the API server from its configured parts
func New(cfg config.Server, store *Store, logger *log.Logger) (*Server, error) {
	covers, err := NewCoverStorage(cfg.Covers)
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:  store,
		tokens: NewTokenManager(cfg.JWT),
		covers: covers,
		hub:    NewHub(logger),
		logger: logger,
	}

	if cfg.Covers.Backend == "fs" {
		s.coversDir = cfg.Covers.Dir
		if s.coversDir == "" {
			s.coversDir = "covers"
		}
	}

	return s, nil
}

// Hub exposes the websocket hub for shutdown wiring
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/actuator/health", s.handleHealth)
	r.GET("/api/v1/actuator/health", s.handleHealth)
	r.GET("/ws", s.hub.Handle)

	if s.coversDir != "" {
		r.Static("/covers", s.coversDir)
	}

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/login", s.handleLogin)
	auth.POST("/refresh", s.handleRefresh)
	auth.POST("/logout", s.handleLogout)

	protected := api.Group("", s.requireAuth())

	artists := protected.Group("/artists")
	artists.GET("", s.listArtists)
	artists.GET("/search", s.searchArtists)
	artists.GET("/bands", s.listArtistsByKind(true))
	artists.GET("/solo", s.listArtistsByKind(false))
	artists.GET("/:id", s.getArtist)
	artists.POST("", s.createArtist)
	artists.PUT("/:id", s.updateArtist)
	artists.DELETE("/:id", s.deleteArtist)

	albums := protected.Group("/albums")
	albums.GET("", s.listAlbums)
	albums.GET("/search", s.searchAlbums)
	albums.GET("/year/:year", s.albumsByYear)
	albums.GET("/bands", s.pagedAlbumsByKind(true))
	albums.GET("/solo", s.pagedAlbumsByKind(false))
	albums.GET("/:id", s.getAlbum)
	albums.POST("", s.createAlbum)
	albums.PUT("/:id", s.updateAlbum)
	albums.DELETE("/:id", s.deleteAlbum)
	albums.POST("/:id/covers", s.uploadCover)
	albums.GET("/:id/covers", s.listCovers)
	albums.DELETE("/:id/covers/:coverId", s.deleteCover)

	regionals := protected.Group("/regionais")
	regionals.GET("", s.listRegionals)
	regionals.POST("/sync", s.syncRegionals)

	return r
}

// requestLog logs each request with latency and counts it in prometheus
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()

		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request handled")
	}
}
