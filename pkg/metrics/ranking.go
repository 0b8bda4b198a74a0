package metrics

import (
	"errors"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrNotPermutation is the panic value of RankingsToOrderings for a row that
// is not a permutation of 0..m-1.
var ErrNotPermutation = errors.New("ranking row is not a permutation")

// ScoresToRankings converts a score matrix into a ranking matrix. Entry (i, j)
// of the result is the 0-based position of object j when the objects of
// instance i are sorted by descending score. Equal scores keep their column
// order, so the object with the lower index gets the better rank.
func ScoresToRankings(scores mat.Matrix) *mat.Dense {
	rows, cols := scores.Dims()
	rankings := mat.NewDense(rows, cols, nil)

	row := make([]float64, cols)
	for rowIdx := range rows {
		mat.Row(row, rowIdx, scores)
		for rank, objIdx := range descendingOrder(row) {
			rankings.Set(rowIdx, objIdx, float64(rank))
		}
	}

	return rankings
}

// ScoresToOrderings returns, per row, the object indices sorted by descending
// score using the same tie policy as ScoresToRankings.
func ScoresToOrderings(scores mat.Matrix) *mat.Dense {
	rows, cols := scores.Dims()
	orderings := mat.NewDense(rows, cols, nil)

	row := make([]float64, cols)
	for rowIdx := range rows {
		mat.Row(row, rowIdx, scores)
		for rank, objIdx := range descendingOrder(row) {
			orderings.Set(rowIdx, rank, float64(objIdx))
		}
	}

	return orderings
}

// RankingsToOrderings inverts every row of a ranking matrix: entry (i, r) of
// the result is the object holding rank r in instance i. Every row must be a
// permutation of 0..m-1, otherwise it panics with ErrNotPermutation.
func RankingsToOrderings(rankings mat.Matrix) *mat.Dense {
	rows, cols := rankings.Dims()
	orderings := mat.NewDense(rows, cols, nil)
	taken := make([]bool, cols)

	for rowIdx := range rows {
		clear(taken)
		for objIdx := range cols {
			rank := rankings.At(rowIdx, objIdx)
			r := int(rank)
			if float64(r) != rank || r < 0 || r >= cols || taken[r] {
				panic(ErrNotPermutation)
			}
			taken[r] = true
			orderings.Set(rowIdx, r, float64(objIdx))
		}
	}

	return orderings
}

// FractionalRanks returns the 1-based ascending ranks of values, tied values
// sharing the average of the ranks they span.
func FractionalRanks(values []float64) []float64 {
	n := len(values)
	sorted := slices.Clone(values)
	order := make([]int, n)
	floats.ArgsortStable(sorted, order)

	ranks := make([]float64, n)
	for start := 0; start < n; {
		end := start + 1
		for end < n && values[order[end]] == values[order[start]] {
			end++
		}
		// positions start..end-1 are 1-based ranks start+1..end
		avg := float64(start+1+end) / 2.0
		for pos := start; pos < end; pos++ {
			ranks[order[pos]] = avg
		}
		start = end
	}

	return ranks
}

// descendingOrder sorts indices by value, high first; equal values keep
// index order.
func descendingOrder(values []float64) []int {
	negated := slices.Clone(values)
	floats.Scale(-1, negated)
	order := make([]int, len(values))
	floats.ArgsortStable(negated, order)
	return order
}

func mustMatchDims(a, b mat.Matrix) (rows, cols int) {
	rows, cols = a.Dims()
	r, c := b.Dims()
	if r != rows || c != cols {
		panic(mat.ErrShape)
	}
	return rows, cols
}
