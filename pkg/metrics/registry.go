// Package metrics implements evaluation metrics for object ranking and
// multi-label prediction over batches shaped (n_instances, n_objects).
//
// Ground truth rankings use 0 for the best object; scores are higher for
// more relevant objects. Degenerate rows resolve to NaN and are skipped by
// the NaN-ignoring batch means. Mismatched shapes panic with mat.ErrShape.
package metrics

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Metric is the signature every monitoring hook must satisfy.
type Metric func(yTrue, yPred mat.Matrix) float64

var ErrUnknownMetric = errors.New("unknown metric")

const (
	NameZeroOneRankLossForScores              = "zero_one_rank_loss_for_scores"
	NameZeroOneRankLossForScoresTies          = "zero_one_rank_loss_for_scores_ties"
	NameKendallsTauForScores                  = "kendalls_tau_for_scores"
	NameSpearmanCorrelationForScores          = "spearman_correlation_for_scores"
	NameSpearmanCorrelationForScoresReference = "spearman_correlation_for_scores_reference"
	NameZeroOneAccuracyForScores              = "zero_one_accuracy_for_scores"
	NameZeroOneAccuracy                       = "zero_one_accuracy"
	NameNDCGAtK                               = "ndcg_at_k"
	NameERR                                   = "err"
	NameAUCScore                              = "auc_score"
	NameAveragePrecision                      = "average_precision"
	NameInstanceInformedness                  = "instance_informedness"
	NameF1Measure                             = "f1_measure"
	NamePrecision                             = "precision"
	NameRecall                                = "recall"
	NameHamming                               = "hamming"
	NameSubset01Loss                          = "subset_01_loss"
	NameCategoricalAccuracy                   = "categorical_accuracy"
	NameTopKCategoricalAccuracy               = "topk_categorical_accuracy"
)

// Registry maps metric names to metric functions.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Metric
}

func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Metric)}
}

// DefaultRegistry returns a registry holding every metric of this package,
// parameterised metrics using DefaultK.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, name := range builtinNames() {
		m, _ := NewMetric(name, DefaultK)
		r.Register(name, m)
	}
	return r
}

func (r *Registry) Register(name string, m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics[name] = m
}

func (r *Registry) Get(name string) (Metric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return m, nil
}

// Names lists the registered metric names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parameterised reports whether the named metric reads k.
func Parameterised(name string) bool {
	return name == NameNDCGAtK || name == NameTopKCategoricalAccuracy
}

// NewMetric builds the named metric. k is only read by ndcg_at_k and
// topk_categorical_accuracy; a non-positive k selects DefaultK.
func NewMetric(name string, k int) (Metric, error) {
	if k <= 0 {
		k = DefaultK
	}

	switch name {
	case NameZeroOneRankLossForScores:
		return ZeroOneRankLossForScores, nil
	case NameZeroOneRankLossForScoresTies:
		return ZeroOneRankLossForScoresTies, nil
	case NameKendallsTauForScores:
		return KendallsTauForScores, nil
	case NameSpearmanCorrelationForScores:
		return SpearmanCorrelationForScores, nil
	case NameSpearmanCorrelationForScoresReference:
		return SpearmanCorrelationForScoresReference, nil
	case NameZeroOneAccuracyForScores:
		return ZeroOneAccuracyForScores, nil
	case NameZeroOneAccuracy:
		return ZeroOneAccuracy, nil
	case NameNDCGAtK:
		return NDCGAtK(k), nil
	case NameERR:
		return func(yTrue, yPred mat.Matrix) float64 {
			return ERR(yTrue, yPred)
		}, nil
	case NameAUCScore:
		return AUCScore, nil
	case NameAveragePrecision:
		return AveragePrecision, nil
	case NameInstanceInformedness:
		return InstanceInformedness, nil
	case NameF1Measure:
		return F1Measure, nil
	case NamePrecision:
		return Precision, nil
	case NameRecall:
		return Recall, nil
	case NameHamming:
		return Hamming, nil
	case NameSubset01Loss:
		return Subset01Loss, nil
	case NameCategoricalAccuracy:
		return CategoricalAccuracy, nil
	case NameTopKCategoricalAccuracy:
		return TopKCategoricalAccuracy(k), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

func builtinNames() []string {
	return []string{
		NameZeroOneRankLossForScores,
		NameZeroOneRankLossForScoresTies,
		NameKendallsTauForScores,
		NameSpearmanCorrelationForScores,
		NameSpearmanCorrelationForScoresReference,
		NameZeroOneAccuracyForScores,
		NameZeroOneAccuracy,
		NameNDCGAtK,
		NameERR,
		NameAUCScore,
		NameAveragePrecision,
		NameInstanceInformedness,
		NameF1Measure,
		NamePrecision,
		NameRecall,
		NameHamming,
		NameSubset01Loss,
		NameCategoricalAccuracy,
		NameTopKCategoricalAccuracy,
	}
}

// PerInstanceMetric returns one value per instance instead of a batch mean.
type PerInstanceMetric func(yTrue, yPred mat.Matrix) []float64

// NewPerInstanceMetric builds the per-instance form of the named metric, for
// the metrics that have one.
func NewPerInstanceMetric(name string, k int) (PerInstanceMetric, error) {
	if k <= 0 {
		k = DefaultK
	}

	switch name {
	case NameZeroOneRankLossForScores, NameZeroOneRankLossForScoresTies:
		return ZeroOneRankLossForScoresTiesPerInstance, nil
	case NameSpearmanCorrelationForScores:
		return SpearmanCorrelationForScoresPerInstance, nil
	case NameSpearmanCorrelationForScoresReference:
		return SpearmanCorrelationForScoresReferencePerInstance, nil
	case NameNDCGAtK:
		return func(yTrue, yPred mat.Matrix) []float64 {
			return NDCGAtKPerInstance(yTrue, yPred, k)
		}, nil
	case NameERR:
		return func(yTrue, yPred mat.Matrix) []float64 {
			return ERRPerInstance(yTrue, yPred)
		}, nil
	case NameAveragePrecision:
		return AveragePrecisionPerInstance, nil
	case NameInstanceInformedness:
		return InstanceInformednessPerInstance, nil
	}

	return nil, fmt.Errorf("%w: no per-instance form of %q", ErrUnknownMetric, name)
}
