// Package server exposes the clustering service over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mawngo/kcluster/internal/render"
	"github.com/mawngo/kcluster/internal/service"
)

type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

type Server struct {
	app       *fiber.App
	clusterer *service.Clusterer
}

func New(clusterer *service.Clusterer, cfg Config) *Server {
	s := &Server{clusterer: clusterer}
	s.app = fiber.New(fiber.Config{
		AppName:               "kcluster",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(cors.New())
	s.app.Use(logRequest)

	s.app.Get("/k-means", s.kmeans)
	s.app.Get("/k-means/chart", s.chart)
	if cfg.Gatherer != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	s.app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	slog.Info("Listening", slog.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) cluster(c *fiber.Ctx) (service.Result, error) {
	k, iterations, err := service.ParseRequest(c.Query("clusters"), c.Query("iterations"))
	if err != nil {
		return service.Result{}, err
	}
	return s.clusterer.Cluster(c.UserContext(), k, iterations)
}

func (s *Server) kmeans(c *fiber.Ctx) error {
	res, err := s.cluster(c)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(fiber.Map{
		"msg":  "Cluster assignments",
		"data": res.Groups,
	})
}

func (s *Server) chart(c *fiber.Ctx) error {
	res, err := s.cluster(c)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return render.HTML(c, res.Groups)
}

// statusOf maps an error returned by a handler to a status code and a client message.
// Anything not explicitly a client error is reported as a generic server failure.
func statusOf(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, service.ErrInvalidInput):
		return fiber.StatusBadRequest, err.Error()
	}
	return fiber.StatusInternalServerError, fiber.ErrInternalServerError.Message
}

func errorHandler(c *fiber.Ctx, err error) error {
	code, msg := statusOf(err)
	if code == fiber.StatusInternalServerError {
		slog.Error("Request failed",
			slog.String("path", c.Path()),
			slog.Any("err", err))
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func logRequest(c *fiber.Ctx) error {
	now := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		status, _ = statusOf(err)
	}
	slog.Debug("Request",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.String("query", string(c.Request().URI().QueryString())),
		slog.Int("status", status),
		slog.Duration("took", time.Since(now)))
	return err
}
