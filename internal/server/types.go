package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/csrank/objrank/internal/evaluation"
)

const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8888
	DefaultBodyLimit  = 4 * 1024 * 1024 // 4MB
)

// Server exposes metric evaluation over HTTP.
type Server struct {
	App       *fiber.App
	config    *ServerConfig
	evaluator *evaluation.Evaluator
	collector *Collectors
}

type ServerConfig struct {
	Host      string
	Port      int
	BodyLimit int
}

// StdResponse represents the standardized response structure
type StdResponse[T any] struct {
	Body  T       `json:"body"`
	Error *string `json:"error,omitempty"`
}

// EvaluateRequest carries a batch and the metrics to run on it. An empty
// metric list selects the default suite.
type EvaluateRequest struct {
	YTrue   [][]float64             `json:"y_true"`
	YPred   [][]float64             `json:"y_pred"`
	Metrics []evaluation.MetricSpec `json:"metrics"`
}

// MetricRequest carries a batch for a single metric.
type MetricRequest struct {
	YTrue [][]float64 `json:"y_true"`
	YPred [][]float64 `json:"y_pred"`
	K     int         `json:"k,omitempty"`
}

type HealthResponse struct {
	Status  string   `json:"status"`
	Metrics []string `json:"metrics"`
}
