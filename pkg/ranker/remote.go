package ranker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
	"gonum.org/v1/gonum/mat"
)

const PredictPath = "/predict"

// RemoteScorerConfig locates a model-serving endpoint.
type RemoteScorerConfig struct {
	URL          string        `env:"SCORER_URL, default=http://127.0.0.1:8080"`
	Timeout      time.Duration `env:"SCORER_TIMEOUT, default=30s"`
	RetryMax     int           `env:"SCORER_RETRY_MAX, default=3"`
	RetryWaitMin time.Duration `env:"SCORER_RETRY_WAIT_MIN, default=500ms"`
	RetryWaitMax time.Duration `env:"SCORER_RETRY_WAIT_MAX, default=5s"`
}

// LoadRemoteScorerConfig reads RemoteScorerConfig from the environment.
func LoadRemoteScorerConfig(ctx context.Context) (*RemoteScorerConfig, error) {
	var cfg RemoteScorerConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("process scorer env: %w", err)
	}
	return &cfg, nil
}

// PredictRequest is the body sent to the model: instances x objects x features.
type PredictRequest struct {
	Instances [][][]float64 `json:"instances"`
}

// PredictResponse carries one row of object scores per instance.
type PredictResponse struct {
	Scores [][]float64 `json:"scores"`
}

// RemoteScorer obtains scores from a model served over HTTP.
type RemoteScorer struct {
	client *resty.Client
	cfg    *RemoteScorerConfig
}

func NewRemoteScorer(cfg *RemoteScorerConfig) (*RemoteScorer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept-Encoding", "zstd").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	log.Debug().
		Str("url", cfg.URL).
		Int("retry_max", cfg.RetryMax).
		Str("timeout", cfg.Timeout.String()).
		Msg("remote scorer initialized")

	return &RemoteScorer{client: client, cfg: cfg}, nil
}

func (s *RemoteScorer) PredictScores(ctx context.Context, x []*mat.Dense) (*mat.Dense, error) {
	if len(x) == 0 {
		return nil, ErrNoInstances
	}

	req := PredictRequest{Instances: make([][][]float64, len(x))}
	for i, features := range x {
		rows, _ := features.Dims()
		instance := make([][]float64, rows)
		for j := range rows {
			instance[j] = mat.Row(nil, j, features)
		}
		req.Instances[i] = instance
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(PredictPath)
	if err != nil {
		log.Error().Err(err).Str("url", s.cfg.URL).Msg("predict request failed")
		return nil, fmt.Errorf("predict request: %w", err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Msg("predict non-2xx")
		return nil, fmt.Errorf("predict status %d: %s", resp.StatusCode(), resp.String())
	}

	data, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}

	var out PredictResponse
	if err := sonic.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal predict response: %w", err)
	}
	if len(out.Scores) != len(x) {
		return nil, fmt.Errorf("%w: got scores for %d instances, sent %d", ErrInconsistentBatch, len(out.Scores), len(x))
	}

	nObjects := len(out.Scores[0])
	if nObjects == 0 {
		return nil, fmt.Errorf("%w: empty score rows", ErrInconsistentBatch)
	}
	flat := make([]float64, 0, len(x)*nObjects)
	for _, row := range out.Scores {
		if len(row) != nObjects {
			return nil, ErrInconsistentBatch
		}
		flat = append(flat, row...)
	}

	return mat.NewDense(len(x), nObjects, flat), nil
}

func decodeBody(resp *resty.Response) ([]byte, error) {
	data := resp.Body()
	if !strings.Contains(strings.ToLower(resp.Header().Get("Content-Encoding")), "zstd") {
		return data, nil
	}

	r, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zstd: failed to create reader: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zstd: failed to decompress response: %w", err)
	}
	return out, nil
}
