package evaluation

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/csrank/objrank/internal/dataset"
	"github.com/csrank/objrank/pkg/metrics"
)

func testBatch() *dataset.Batch {
	return &dataset.Batch{
		YTrue: mat.NewDense(1, 3, []float64{0, 1, 2}),
		YPred: mat.NewDense(1, 3, []float64{3, 1, 2}),
	}
}

func TestParseSuite(t *testing.T) {
	s, err := ParseSuite([]byte(`
metrics:
  - name: kendalls_tau_for_scores
  - name: ndcg_at_k
    k: 3
`))
	require.NoError(t, err)
	assert.Equal(t, []MetricSpec{{Name: "kendalls_tau_for_scores"}, {Name: "ndcg_at_k", K: 3}}, s.Metrics)

	_, err = ParseSuite([]byte(`metrics: []`))
	assert.ErrorIs(t, err, ErrEmptySuite)

	_, err = ParseSuite([]byte("metrics:\n  - k: 3\n"))
	assert.Error(t, err)

	_, err = ParseSuite([]byte("metrics: [\n"))
	assert.Error(t, err)
}

func TestLoadSuite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics:\n  - name: err\n"), 0o600))

	s, err := LoadSuite(path)
	require.NoError(t, err)
	assert.Equal(t, "err", s.Metrics[0].Name)
}

func TestEvaluateDefaultSuite(t *testing.T) {
	report, err := NewEvaluator().Evaluate(context.Background(), testBatch(), DefaultSuite())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Instances)
	assert.Equal(t, 3, report.Objects)
	require.Len(t, report.Results, 4)

	byName := make(map[string]Result)
	for _, r := range report.Results {
		assert.Empty(t, r.Err, r.Name)
		byName[r.Name] = r
	}
	assert.InDelta(t, 1.0/3.0, byName[metrics.NameZeroOneRankLossForScores].Value, 1e-12)
	assert.InDelta(t, 1.0/3.0, byName[metrics.NameKendallsTauForScores].Value, 1e-12)
	assert.Equal(t, 0.0, byName[metrics.NameZeroOneAccuracyForScores].Value)
}

func TestEvaluateKeepsSuiteOrder(t *testing.T) {
	suite := Suite{Metrics: []MetricSpec{
		{Name: metrics.NameHamming},
		{Name: metrics.NamePrecision},
		{Name: metrics.NameRecall},
	}}
	batch := &dataset.Batch{
		YTrue: mat.NewDense(1, 4, []float64{1, 0, 1, 0}),
		YPred: mat.NewDense(1, 4, []float64{1, 1, 0, 0}),
	}

	report, err := NewEvaluator(WithConcurrency(1)).Evaluate(context.Background(), batch, suite)
	require.NoError(t, err)
	for i, spec := range suite.Metrics {
		assert.Equal(t, spec.Name, report.Results[i].Name)
	}
	assert.InDelta(t, 0.5, report.Results[0].Value, 1e-12)
}

func TestEvaluateReportsFailuresPerMetric(t *testing.T) {
	suite := Suite{Metrics: []MetricSpec{
		{Name: "unknown_metric"},
		{Name: metrics.NameNDCGAtK, K: 10},
		{Name: metrics.NameKendallsTauForScores},
	}}

	report, err := NewEvaluator().Evaluate(context.Background(), testBatch(), suite)
	require.NoError(t, err)

	assert.Contains(t, report.Results[0].Err, "unknown metric")
	// k larger than the number of objects
	assert.Contains(t, report.Results[1].Err, "panicked")
	assert.Empty(t, report.Results[2].Err)
}

func TestEvaluateShapeMismatch(t *testing.T) {
	batch := &dataset.Batch{
		YTrue: mat.NewDense(1, 3, []float64{0, 1, 2}),
		YPred: mat.NewDense(1, 2, []float64{1, 2}),
	}

	report, err := NewEvaluator().Evaluate(context.Background(), batch, DefaultSuite())
	require.NoError(t, err)
	for _, r := range report.Results {
		assert.Contains(t, r.Err, mat.ErrShape.Error())
	}
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEvaluator().Evaluate(ctx, testBatch(), DefaultSuite())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewEvaluator().Evaluate(context.Background(), testBatch(), Suite{})
	assert.ErrorIs(t, err, ErrEmptySuite)
}

func TestResolveUsesRegistry(t *testing.T) {
	r := metrics.NewRegistry()
	r.Register("constant", func(_, _ mat.Matrix) float64 { return 42 })

	e := NewEvaluator(WithRegistry(r), WithDefaultK(2))
	m, err := e.Resolve(MetricSpec{Name: "constant"})
	require.NoError(t, err)
	assert.Equal(t, 42.0, m(nil, nil))

	topK, err := e.Resolve(MetricSpec{Name: metrics.NameTopKCategoricalAccuracy})
	require.NoError(t, err)
	yTrue := mat.NewDense(1, 3, []float64{1, 0, 0})
	yPred := mat.NewDense(1, 3, []float64{0.2, 0.7, 0.1})
	assert.Equal(t, 1.0, topK(yTrue, yPred))
}

func TestResolveCustomMetricWithK(t *testing.T) {
	r := metrics.NewRegistry()
	r.Register("constant", func(_, _ mat.Matrix) float64 { return 42 })
	e := NewEvaluator(WithRegistry(r))

	m, err := e.Resolve(MetricSpec{Name: "constant", K: 3})
	require.NoError(t, err)
	assert.Equal(t, 42.0, m(nil, nil))

	// a registered parameterised name is still rebuilt with the requested k
	r.Register(metrics.NameTopKCategoricalAccuracy, func(_, _ mat.Matrix) float64 { return -1 })
	topK, err := e.Resolve(MetricSpec{Name: metrics.NameTopKCategoricalAccuracy, K: 1})
	require.NoError(t, err)
	yTrue := mat.NewDense(1, 3, []float64{1, 0, 0})
	yPred := mat.NewDense(1, 3, []float64{0.2, 0.7, 0.1})
	assert.Equal(t, 0.0, topK(yTrue, yPred))

	_, err = e.Resolve(MetricSpec{Name: "missing", K: 3})
	assert.ErrorIs(t, err, metrics.ErrUnknownMetric)
}

func TestMetricNames(t *testing.T) {
	r := metrics.NewRegistry()
	r.Register("constant", func(_, _ mat.Matrix) float64 { return 42 })
	r.Register(metrics.NameERR, func(_, _ mat.Matrix) float64 { return 0 })

	names := NewEvaluator(WithRegistry(r)).MetricNames()
	assert.Contains(t, names, "constant")
	assert.Contains(t, names, metrics.NameKendallsTauForScores)
	assert.True(t, slices.IsSorted(names))
	assert.Len(t, slices.Compact(slices.Clone(names)), len(names))
}

func TestPlotInstanceValues(t *testing.T) {
	var buf bytes.Buffer
	PlotInstanceValues(&buf, []float64{0.5, math.NaN(), 0.1}, "Kendall tau")

	out := buf.String()
	assert.Contains(t, out, "Kendall tau")
	assert.Contains(t, out, "Scale: Min=0.100000, Max=0.500000")
	assert.Contains(t, out, "NaN")

	buf.Reset()
	PlotInstanceValues(&buf, []float64{math.NaN()}, "empty")
	assert.Contains(t, buf.String(), "no defined values")
}

func TestResultMarshalJSON(t *testing.T) {
	data, err := Result{Name: "auc_score", Value: math.NaN()}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "auc_score", "value": null}`, string(data))

	data, err = Result{Name: "ndcg_at_k", K: 3, Value: 0.5}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "ndcg_at_k", "k": 3, "value": 0.5}`, string(data))
}
