package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SultokTheF/uiren-mobile/internal/session"
)

// Server is the optional local debug endpoint: health, prometheus metrics
// and session status. It binds to loopback-style addresses only by
// configuration; it never serves the booking API itself.
type Server struct {
	router   *gin.Engine
	sessions session.Store
	srv      *http.Server
}

func New(sessions session.Store) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{router: router, sessions: sessions}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/session", func(c *gin.Context) {
		access, err := sessions.AccessToken(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		refresh, err := sessions.RefreshToken(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"authenticated":     access != "",
			"has_refresh_token": refresh != "",
		})
	})

	return s
}

func (s *Server) Start(addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.router}
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
