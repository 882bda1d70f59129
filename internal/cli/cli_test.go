package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/translation-arena/backend/internal/evaluation"
	"github.com/translation-arena/backend/internal/models"
)

func writeConfig(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "transeval.yaml")
	cfg := "database:\n  driver: sqlite3\n  path: " + filepath.Join(dir, "cli.db") + "\ngame:\n  seed: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return dir, path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_RejectsFormat(t *testing.T) {
	_, cfgPath := writeConfig(t)
	_, err := run(t, "--config", cfgPath, "--format", "xml", "leaderboard")
	assert.ErrorContains(t, err, `invalid format "xml"`)
}

func TestEvaluate_RequiresCandidate(t *testing.T) {
	_, cfgPath := writeConfig(t)
	_, err := run(t, "--config", cfgPath, "evaluate", "--source", "hello")
	assert.ErrorContains(t, err, "candidate")
}

func TestEvaluate_ValidationError(t *testing.T) {
	_, cfgPath := writeConfig(t)
	_, err := run(t, "--config", cfgPath, "evaluate", "--candidate", "مرحبا")
	assert.ErrorContains(t, err, "invalid submission")
}

func TestCatalogueAndScoringFlow(t *testing.T) {
	dir, cfgPath := writeConfig(t)

	out, err := run(t, "--config", cfgPath, "--format", "json", "exercises", "list")
	require.NoError(t, err)
	var list models.ExerciseListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, 2, list.Total)

	importFile := filepath.Join(dir, "more.yaml")
	require.NoError(t, os.WriteFile(importFile, []byte(`version: 1
exercises:
  - title: Farewell
    source_text: Goodbye, my friend.
    reference_text: وداعاً يا صديقي.
  - title: Duplicate greeting
    source_text: I am happy to see you today!
    reference_text: أنا سعيد لرؤيتك اليوم!
`), 0o644))
	out, err = run(t, "--config", cfgPath, "exercises", "import", importFile)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1, skipped 1 of 2")

	out, err = run(t, "--config", cfgPath, "--format", "json", "evaluate",
		"--exercise", "2", "--candidate", "أنا سعيد لرؤيتك اليوم!", "--user", "amal")
	require.NoError(t, err)
	var resp struct {
		Record *evaluation.Record    `json:"record"`
		Award  *models.AwardResponse `json:"award"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Award)
	assert.Equal(t, 20, resp.Award.Breakdown.Base)
	assert.Equal(t, "amal", resp.Award.Session.UserID)

	out, err = run(t, "--config", cfgPath, "leaderboard", "--user", "amal")
	require.NoError(t, err)
	assert.Contains(t, out, "amal")
	assert.Contains(t, out, "(you)")

	exportFile := filepath.Join(dir, "catalogue.json")
	_, err = run(t, "--config", cfgPath, "exercises", "export", "--out", exportFile)
	require.NoError(t, err)
	envelope, err := readEnvelope(exportFile)
	require.NoError(t, err)
	assert.Equal(t, 1, envelope.Version)
	assert.Len(t, envelope.Exercises, 3)
}

func TestEvaluate_TextOutput(t *testing.T) {
	_, cfgPath := writeConfig(t)
	out, err := run(t, "--config", cfgPath, "evaluate",
		"--source", "Good morning", "--reference", "صباح الخير", "--candidate", "صباح النور")
	require.NoError(t, err)
	assert.Contains(t, out, "Evaluation ")
	assert.Contains(t, out, "النور (→ الخير)")
	assert.Contains(t, out, "points")
}
