// Package server serves metric evaluation over HTTP.
package server

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/csrank/objrank/internal/dataset"
	"github.com/csrank/objrank/internal/evaluation"
)

// NewServer creates the evaluation server. A nil config selects the defaults
// and a nil registry the default Prometheus registerer.
func NewServer(serverConfig *ServerConfig, evaluator *evaluation.Evaluator, reg *prometheus.Registry) *Server {
	if serverConfig == nil {
		serverConfig = &ServerConfig{
			Host:      DefaultServerHost,
			Port:      DefaultServerPort,
			BodyLimit: DefaultBodyLimit,
		}
	}
	if evaluator == nil {
		evaluator = evaluation.NewEvaluator()
	}

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg != nil {
		registerer, gatherer = reg, reg
	}

	log.Info().
		Any("serverConfig", serverConfig).
		Msg("Server configuration loaded")

	app := fiber.New(fiber.Config{
		Prefork:      false,
		ErrorHandler: fiberErrHandler,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		BodyLimit:    serverConfig.BodyLimit,
	})

	app.Use(recover.New()) // add panic recovery
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	server := &Server{
		App:       app,
		config:    serverConfig,
		evaluator: evaluator,
		collector: NewCollectors(registerer),
	}

	app.Get("/health", server.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	app.Post("/evaluate", server.handleEvaluate)
	app.Post("/metrics/:name", server.handleMetric)

	return server
}

func fiberErrHandler(ctx *fiber.Ctx, err error) error {
	// Status code defaults to 500
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a *fiber.Error
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	log.Error().
		Err(err).
		Int("status_code", code).
		Str("path", ctx.Path()).
		Str("method", ctx.Method()).
		Msg("Fiber error handler triggered")

	return ctx.Status(code).JSON(createResponse(map[string]interface{}{}, err))
}

func createResponse[T any](body T, err error) StdResponse[T] {
	resp := StdResponse[T]{Body: body}
	if err != nil {
		msg := err.Error()
		resp.Error = &msg
	}
	return resp
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(createResponse(HealthResponse{
		Status:  "ok",
		Metrics: s.evaluator.MetricNames(),
	}, nil))
}

func (s *Server) handleEvaluate(c *fiber.Ctx) error {
	defer s.observe("evaluate", time.Now())

	var req EvaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
	}

	batch, err := dataset.NewBatch(dataset.Payload{YTrue: req.YTrue, YPred: req.YPred})
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	suite := evaluation.Suite{Metrics: req.Metrics}
	if len(suite.Metrics) == 0 {
		suite = evaluation.DefaultSuite()
	}

	report, err := s.evaluator.Evaluate(c.UserContext(), batch, suite)
	if err != nil {
		return err
	}

	s.collector.BatchInstances.Observe(float64(report.Instances))
	for _, r := range report.Results {
		s.countResult(r)
	}

	return c.JSON(createResponse(report, nil))
}

func (s *Server) handleMetric(c *fiber.Ctx) error {
	defer s.observe("metric", time.Now())

	name := c.Params("name")
	var req MetricRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
	}

	spec := evaluation.MetricSpec{Name: name, K: req.K}
	if _, err := s.evaluator.Resolve(spec); err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	batch, err := dataset.NewBatch(dataset.Payload{YTrue: req.YTrue, YPred: req.YPred})
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	report, err := s.evaluator.Evaluate(c.UserContext(), batch, evaluation.Suite{Metrics: []evaluation.MetricSpec{spec}})
	if err != nil {
		return err
	}

	s.collector.BatchInstances.Observe(float64(report.Instances))
	result := report.Results[0]
	s.countResult(result)
	if result.Err != "" {
		return fiber.NewError(fiber.StatusUnprocessableEntity, result.Err)
	}

	return c.JSON(createResponse(result, nil))
}

func (s *Server) countResult(r evaluation.Result) {
	status := "ok"
	switch {
	case r.Err != "":
		status = "error"
	case math.IsNaN(r.Value):
		status = "nan"
	}
	s.collector.EvaluationsTotal.WithLabelValues(r.Name, status).Inc()
}

func (s *Server) observe(route string, start time.Time) {
	s.collector.EvaluationDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	log.Info().Str("addr", addr).Msg("evaluation server listening")
	return s.App.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.App.Shutdown()
}
