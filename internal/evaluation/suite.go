package evaluation

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/csrank/objrank/pkg/metrics"
)

var ErrEmptySuite = errors.New("suite has no metrics")

// DefaultSuite evaluates the rank-based metrics the object rankers monitor.
func DefaultSuite() Suite {
	return Suite{Metrics: []MetricSpec{
		{Name: metrics.NameZeroOneRankLossForScores},
		{Name: metrics.NameKendallsTauForScores},
		{Name: metrics.NameSpearmanCorrelationForScores},
		{Name: metrics.NameZeroOneAccuracyForScores},
	}}
}

// ParseSuite decodes a YAML suite such as:
//
//	metrics:
//	  - name: kendalls_tau_for_scores
//	  - name: ndcg_at_k
//	    k: 3
func ParseSuite(data []byte) (Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Suite{}, fmt.Errorf("parse suite: %w", err)
	}
	if len(s.Metrics) == 0 {
		return Suite{}, ErrEmptySuite
	}
	for i, m := range s.Metrics {
		if m.Name == "" {
			return Suite{}, fmt.Errorf("parse suite: metric %d has no name", i)
		}
	}
	return s, nil
}

func LoadSuite(path string) (Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("read suite: %w", err)
	}
	return ParseSuite(data)
}
