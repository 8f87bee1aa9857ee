// Package server exposes a log directory over a small read-only HTTP API.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"teelog/internal/system"
	appver "teelog/internal/version"
)

// Server serves the log files in Dir on Addr.
type Server struct {
	Addr string
	Dir  string
	// AccessLog receives gin's request log; nil uses gin.DefaultWriter.
	AccessLog io.Writer
}

// Handler builds the gin engine serving Dir.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	if s.AccessLog != nil {
		r.Use(gin.LoggerWithWriter(s.AccessLog))
	} else {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	s.mountAPI(r)
	return r
}

// Start listens on Addr until ctx is done, then shuts down gracefully. It
// returns http.ErrServerClosed after a shutdown.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	system.Logger.Info("log server listening", "addr", s.Addr, "dir", s.Dir)
	return srv.ListenAndServe()
}

func (s *Server) mountAPI(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": appver.AppVersion})
	})

	api.GET("/logs", s.listHandler)
	api.GET("/logs/:name", s.readHandler)
	api.GET("/logs/:name/records", s.recordsHandler)
}

func errJSON(err error) gin.H { return gin.H{"error": err.Error()} }
