package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/balkashynov/punch/internal/db"
	"github.com/balkashynov/punch/internal/timesheet"
)

// EmployeeHeader identifies the caller for caller-scoped endpoints
const EmployeeHeader = "X-Employee-Id"

type Server struct {
	store     *db.Store
	validator timesheet.Validator
	logger    *log.Logger
}

func New(store *db.Store, validator timesheet.Validator, logger *log.Logger) *Server {
	return &Server{store: store, validator: validator, logger: logger}
}

// Router mounts the attendance API under /api
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	api := r.Group("/api")
	{
		api.GET("/getAttendanceBetweenForParticalurEmployee", s.attendanceForCaller)
		api.GET("/getAttendanceBetween", s.attendanceForAll)
		api.POST("/addAttendance/:nextState", s.addAttendance)
		api.PUT("/updateAttendance", s.updateAttendance)
		api.DELETE("/deleteAttendance/:attendanceId", s.deleteAttendance)
	}
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
		)
	}
}
