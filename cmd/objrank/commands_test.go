package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ENVIRONMENT", "test")

	cmd := evaluateCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestEvaluateCmdText(t *testing.T) {
	batch := writeTemp(t, "batch.json", `{"y_true": [[0, 1, 2]], "y_pred": [[3, 1, 2]]}`)

	out, err := runCmd(t, "--file", batch, "--plot", "zero_one_rank_loss_for_scores")
	require.NoError(t, err)
	assert.Contains(t, out, "instances=1 objects=3")
	assert.Contains(t, out, "zero_one_rank_loss_for_scores")
	assert.Contains(t, out, "0.333333")
	assert.Contains(t, out, "Terminal Plot")
}

func TestEvaluateCmdJSONWithSuite(t *testing.T) {
	batch := writeTemp(t, "batch.json", `{"y_true": [[0, 1, 2, 3]], "y_pred": [[0, 1, 2, 3]]}`)
	suite := writeTemp(t, "suite.yaml", "metrics:\n  - name: ndcg_at_k\n    k: 2\n  - name: auc_score\n")

	out, err := runCmd(t, "--file", batch, "--suite", suite, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"ndcg_at_k"`)
	assert.Contains(t, out, `"value": null`)
}

func TestEvaluateCmdErrors(t *testing.T) {
	_, err := runCmd(t, "--file", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	batch := writeTemp(t, "batch.json", `{"y_true": [[0, 1]], "y_pred": [[1, 0]]}`)
	_, err = runCmd(t, "--file", batch, "--plot", "hamming")
	assert.Error(t, err)
}

func TestMetricsCmd(t *testing.T) {
	cmd := metricsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "kendalls_tau_for_scores\n")
}
