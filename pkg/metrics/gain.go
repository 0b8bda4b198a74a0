package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultK is the cutoff used by NDCG and top-k accuracy when none is given.
const DefaultK = 5

// ndcgGradeScale spreads ranks over the exponent of the NDCG relevance.
const ndcgGradeScale = 60.0

// NDCGAtKPerInstance returns NDCG@k for every instance. Both yTrue and yPred
// are ranking matrices. The predicted top-k is chosen by yPred, but the gain
// collected at each position is the true relevance of the chosen object.
func NDCGAtKPerInstance(yTrue, yPred mat.Matrix, k int) []float64 {
	rows, nObjects := mustMatchDims(yTrue, yPred)

	discount := make([]float64, k)
	for pos := range k {
		discount[pos] = math.Log2(float64(pos) + 2.0)
	}

	gains := make([]float64, rows)
	truth := make([]float64, nObjects)
	pred := make([]float64, nObjects)
	for rowIdx := range rows {
		mat.Row(truth, rowIdx, yTrue)
		mat.Row(pred, rowIdx, yPred)

		relevance := ndcgRelevance(truth, nObjects)
		relevancePred := ndcgRelevance(pred, nObjects)

		idcg := 0.0
		for pos, objIdx := range descendingOrder(relevance)[:k] {
			idcg += relevance[objIdx] / discount[pos]
		}

		dcg := 0.0
		for pos, objIdx := range descendingOrder(relevancePred)[:k] {
			dcg += relevance[objIdx] / discount[pos]
		}

		gains[rowIdx] = dcg / idcg
	}

	return gains
}

// NDCGAtK returns a Metric averaging NDCGAtKPerInstance over the batch.
func NDCGAtK(k int) Metric {
	return func(yTrue, yPred mat.Matrix) float64 {
		return NanMean(NDCGAtKPerInstance(yTrue, yPred, k))
	}
}

func ndcgRelevance(ranks []float64, nObjects int) []float64 {
	m := float64(nObjects)
	relevance := make([]float64, len(ranks))
	for i, r := range ranks {
		relevance[i] = math.Pow(2.0, (m-r)*ndcgGradeScale/m) - 1.0
	}
	return relevance
}

// UtilityFunction maps a 1-based rank to the value of stopping there.
type UtilityFunction func(rank int) float64

// ProbabilityMapping maps a true grade to the probability that the object
// satisfies the user.
type ProbabilityMapping func(grade float64) float64

// ReciprocalRank is the default ERR utility.
func ReciprocalRank(rank int) float64 {
	return 1.0 / float64(rank)
}

// RelevanceGain maps a grade (0 is best) to (2^(maxGrade-grade) - 1) / 2^maxGrade.
func RelevanceGain(grade, maxGrade float64) float64 {
	return (math.Pow(2, maxGrade-grade) - 1) / math.Pow(2, maxGrade)
}

type errConfig struct {
	utility     UtilityFunction
	probability ProbabilityMapping
}

type ERROption func(*errConfig)

func WithUtilityFunction(fn UtilityFunction) ERROption {
	return func(c *errConfig) {
		c.utility = fn
	}
}

func WithProbabilityMapping(fn ProbabilityMapping) ERROption {
	return func(c *errConfig) {
		c.probability = fn
	}
}

// ERRPerInstance computes the Expected Reciprocal Rank of every instance.
// yTrue holds grades (rankings by default, 0 is best) and yPred is the
// predicted ranking matrix: entry (i, j) is the rank of object j, not the
// object at rank j. Rows of yPred must be permutations of 0..m-1; anything
// else panics with ErrNotPermutation. Without a probability mapping, RelevanceGain is
// used with the largest grade found anywhere in yTrue.
func ERRPerInstance(yTrue, yPred mat.Matrix, opts ...ERROption) []float64 {
	rows, nObjects := mustMatchDims(yTrue, yPred)

	cfg := &errConfig{utility: ReciprocalRank}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.probability == nil {
		maxGrade := mat.Max(yTrue)
		cfg.probability = func(grade float64) float64 {
			return RelevanceGain(grade, maxGrade)
		}
	}

	utilities := make([]float64, nObjects)
	for rank := range nObjects {
		utilities[rank] = cfg.utility(rank + 1)
	}

	orderings := RankingsToOrderings(yPred)
	results := make([]float64, rows)
	satisfiedAtRank := make([]float64, nObjects)
	discounted := make([]float64, nObjects)
	for rowIdx := range rows {
		for rank := range nObjects {
			objIdx := int(orderings.At(rowIdx, rank))
			satisfiedAtRank[rank] = cfg.probability(yTrue.At(rowIdx, objIdx))
		}

		// the need is unsatisfied before the first rank with probability 1
		notYetSatisfied := 1.0
		for rank := range nObjects {
			discounted[rank] = satisfiedAtRank[rank] * notYetSatisfied * utilities[rank]
			notYetSatisfied *= 1 - satisfiedAtRank[rank]
		}
		results[rowIdx] = floats.Sum(discounted)
	}

	return results
}

// ERR is the batch mean of ERRPerInstance.
func ERR(yTrue, yPred mat.Matrix, opts ...ERROption) float64 {
	return Mean(ERRPerInstance(yTrue, yPred, opts...))
}
