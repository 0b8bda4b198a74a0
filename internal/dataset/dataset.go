// Package dataset reads evaluation batches from JSON files.
package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrRaggedRows = errors.New("rows have different lengths")
	ErrEmptyBatch = errors.New("batch has no instances")
)

// Payload is the JSON form of a batch.
type Payload struct {
	YTrue [][]float64 `json:"y_true"`
	YPred [][]float64 `json:"y_pred"`
}

// Batch holds ground truth and predictions shaped (n_instances, n_objects).
type Batch struct {
	YTrue *mat.Dense
	YPred *mat.Dense
}

// NewBatch converts a Payload into dense matrices.
func NewBatch(p Payload) (*Batch, error) {
	yTrue, err := ToDense(p.YTrue)
	if err != nil {
		return nil, fmt.Errorf("y_true: %w", err)
	}
	yPred, err := ToDense(p.YPred)
	if err != nil {
		return nil, fmt.Errorf("y_pred: %w", err)
	}
	return &Batch{YTrue: yTrue, YPred: yPred}, nil
}

// ToDense copies a row-major slice of rows into a *mat.Dense.
func ToDense(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyBatch
	}

	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRaggedRows, i, len(row), cols)
		}
		data = append(data, row...)
	}

	return mat.NewDense(len(rows), cols, data), nil
}

// FromDense is the inverse of ToDense.
func FromDense(m mat.Matrix) [][]float64 {
	rows, _ := m.Dims()
	out := make([][]float64, rows)
	for i := range rows {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

// Decode parses a JSON batch, decompressing it first when encoding is
// "zstd" or "gzip".
func Decode(data []byte, encoding string) (*Batch, error) {
	raw, err := decompress(data, encoding)
	if err != nil {
		return nil, err
	}

	var p Payload
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal batch: %w", err)
	}
	return NewBatch(p)
}

// Load reads a batch file. Files ending in .zst or .gz are decompressed.
func Load(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}

	batch, err := Decode(data, encodingFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	rows, cols := batch.YTrue.Dims()
	log.Debug().Str("path", path).Int("instances", rows).Int("objects", cols).Msg("batch loaded")
	return batch, nil
}

func encodingFromPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".zst"):
		return "zstd"
	case strings.HasSuffix(path, ".gz"):
		return "gzip"
	}
	return ""
}

func decompress(data []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(encoding) {
	case "zstd":
		r, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zstd: failed to create reader: %w", err)
		}
		defer r.Close()

		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("zstd: failed to decompress: %w", err)
		}
		return out, nil
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip: failed to create reader: %w", err)
		}
		defer r.Close()

		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: failed to decompress: %w", err)
		}
		return out, nil
	}
	return data, nil
}
