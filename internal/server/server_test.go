package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"gonum.org/v1/gonum/mat"

	"github.com/csrank/objrank/internal/evaluation"
	"github.com/csrank/objrank/pkg/metrics"
)

type resultBody struct {
	Name  string   `json:"name"`
	K     int      `json:"k"`
	Value *float64 `json:"value"`
	Err   string   `json:"error"`
}

type reportBody struct {
	Instances int          `json:"instances"`
	Objects   int          `json:"objects"`
	Results   []resultBody `json:"results"`
}

type ServerTestSuite struct {
	suite.Suite
	server   *Server
	registry *prometheus.Registry
}

func (s *ServerTestSuite) SetupTest() {
	s.registry = prometheus.NewRegistry()
	s.server = NewServer(nil, evaluation.NewEvaluator(), s.registry)
}

func (s *ServerTestSuite) post(path string, body any) (*http.Response, []byte) {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.server.App.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, data
}

func (s *ServerTestSuite) TestDefaultConfig() {
	s.Equal(DefaultServerHost, s.server.config.Host)
	s.Equal(DefaultServerPort, s.server.config.Port)
	s.Equal(DefaultBodyLimit, s.server.config.BodyLimit)
}

func (s *ServerTestSuite) TestHealth() {
	resp, err := s.server.App.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var out StdResponse[HealthResponse]
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	s.Equal("ok", out.Body.Status)
	s.Contains(out.Body.Metrics, metrics.NameKendallsTauForScores)
}

func (s *ServerTestSuite) TestHealthListsCustomMetrics() {
	custom := metrics.NewRegistry()
	custom.Register("constant", func(_, _ mat.Matrix) float64 { return 42 })
	srv := NewServer(nil, evaluation.NewEvaluator(evaluation.WithRegistry(custom)), prometheus.NewRegistry())

	resp, err := srv.App.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var out StdResponse[HealthResponse]
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	s.Contains(out.Body.Metrics, "constant")
	s.Contains(out.Body.Metrics, metrics.NameKendallsTauForScores)
}

func (s *ServerTestSuite) TestEvaluateDefaultSuite() {
	resp, data := s.post("/evaluate", EvaluateRequest{
		YTrue: [][]float64{{0, 1, 2}},
		YPred: [][]float64{{3, 1, 2}},
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(data))

	var out StdResponse[reportBody]
	s.Require().NoError(json.Unmarshal(data, &out))
	s.Nil(out.Error)
	s.Equal(1, out.Body.Instances)
	s.Len(out.Body.Results, len(evaluation.DefaultSuite().Metrics))
	s.Equal(metrics.NameZeroOneRankLossForScores, out.Body.Results[0].Name)
	s.Require().NotNil(out.Body.Results[0].Value)
	s.InDelta(1.0/3.0, *out.Body.Results[0].Value, 1e-12)
}

func (s *ServerTestSuite) TestEvaluateUndefinedValueIsNull() {
	resp, data := s.post("/evaluate", EvaluateRequest{
		YTrue:   [][]float64{{0, 0, 0, 0}},
		YPred:   [][]float64{{1, 2, 3, 4}},
		Metrics: []evaluation.MetricSpec{{Name: metrics.NameAUCScore}},
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(data))

	var out StdResponse[reportBody]
	s.Require().NoError(json.Unmarshal(data, &out))
	s.Nil(out.Body.Results[0].Value)
}

func (s *ServerTestSuite) TestMetricEndpoint() {
	resp, data := s.post("/metrics/ndcg_at_k", MetricRequest{
		YTrue: [][]float64{{0, 1, 2, 3}},
		YPred: [][]float64{{0, 1, 2, 3}},
		K:     3,
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(data))

	var out StdResponse[resultBody]
	s.Require().NoError(json.Unmarshal(data, &out))
	s.Equal(3, out.Body.K)
	s.Require().NotNil(out.Body.Value)
	s.InDelta(1.0, *out.Body.Value, 1e-12)
}

func (s *ServerTestSuite) TestMetricEndpointErrors() {
	resp, _ := s.post("/metrics/does_not_exist", MetricRequest{
		YTrue: [][]float64{{0, 1}},
		YPred: [][]float64{{0, 1}},
	})
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp, _ = s.post("/metrics/hamming", MetricRequest{
		YTrue: [][]float64{{0, 1}, {1}},
		YPred: [][]float64{{0, 1}, {1, 0}},
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, data := s.post("/metrics/hamming", MetricRequest{
		YTrue: [][]float64{{0, 1, 1}},
		YPred: [][]float64{{0, 1}},
	})
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	s.Contains(string(data), "dimension mismatch")
}

func (s *ServerTestSuite) TestPrometheusCounters() {
	s.post("/metrics/hamming", MetricRequest{
		YTrue: [][]float64{{0, 1}},
		YPred: [][]float64{{1, 1}},
	})

	families, err := s.registry.Gather()
	s.Require().NoError(err)

	found := false
	for _, f := range families {
		if f.GetName() == "objrank_metric_evaluations_total" {
			found = true
			s.Equal(1.0, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	s.True(found)

	resp, err := s.server.App.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), "objrank_metric_evaluations_total")
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
