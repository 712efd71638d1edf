package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/personarank/internal/output"
	"github.com/fyrsmithlabs/personarank/internal/sanitize"
)

const offlineConfig = `
embeddings:
  provider: none
reranker:
  provider: overlap
logging:
  level: error
  format: console
batch:
  concurrency: 2
`

const (
	travelPersona = "Travel Planner"
	travelJob     = "Plan a trip of 4 days for a group of 10 college friends."
)

func resetFlags() {
	configPath = ""
	rankFlags.input, rankFlags.output = "input", "output"
	rankFlags.persona, rankFlags.job, rankFlags.collection = "", "", ""
	batchFlags.file, batchFlags.inputRoot, batchFlags.output = "", "input", "output"
	repairInPlace = false
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, offlineConfig)
	return path
}

func writeCollection(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "Cities.json"), `{"sections":[
		{"title":"Nice","content":"Nice is a lively city for a group of friends with beaches and nightlife along the promenade.","page_number":1},
		{"title":"History of Marseille","content":"Marseille was founded by Greek sailors and has a long ancient history.","page_number":2}
	]}`)
	writeFile(t, filepath.Join(dir, "Things to Do.json"), `{"sections":[
		{"title":"Coastal Adventures","content":"Beach hopping and boat trips are perfect for college friends on a budget trip.","page_number":1},
		{"title":"Nightlife","content":"Bars and clubs in Cannes stay open late for groups who want entertainment.","page_number":3},
		{"title":"Conclusion","content":"The region has something for everyone who visits.","page_number":4}
	]}`)
}

func assertValidResult(t *testing.T, path string) map[string]any {
	t.Helper()
	doc, err := output.Load(path)
	require.NoError(t, err)
	valid, errs := output.Validate(doc)
	assert.True(t, valid, "errors: %v", errs)
	return doc
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
		assert.NotEmpty(t, c.Short, c.Name())
	}
	for _, want := range []string{"rank", "batch", "validate", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    dev")
}

func TestRank_WritesCollectionResult(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "input", "collection1")
	out := filepath.Join(root, "output")
	writeCollection(t, in)

	stdout, err := execute(t,
		"--config", writeConfig(t),
		"rank",
		"--input", in,
		"--output", out,
		"--collection", "collection1",
		"--persona", travelPersona,
		"--job", travelJob,
	)
	require.NoError(t, err)

	path := filepath.Join(out, "collection1", "result.json")
	assert.Contains(t, stdout, path)

	doc := assertValidResult(t, path)
	meta := doc["metadata"].(map[string]any)
	assert.Equal(t, []any{"Cities.json", "Things to Do.json"}, meta["input_documents"])
	assert.Equal(t, travelPersona, meta["persona"])

	sections := doc["extracted_sections"].([]any)
	assert.Len(t, sections, 5)
}

func TestRank_WithoutCollection(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "input")
	out := filepath.Join(root, "output")
	writeCollection(t, in)

	_, err := execute(t, "--config", writeConfig(t), "rank",
		"--input", in, "--output", out,
		"--persona", travelPersona, "--job", travelJob)
	require.NoError(t, err)

	assertValidResult(t, filepath.Join(out, "result.json"))
}

func TestRank_Errors(t *testing.T) {
	cfg := writeConfig(t)

	t.Run("missing input dir", func(t *testing.T) {
		_, err := execute(t, "--config", cfg, "rank",
			"--input", filepath.Join(t.TempDir(), "nope"),
			"--persona", travelPersona, "--job", travelJob)
		assert.Error(t, err)
	})

	t.Run("no documents", func(t *testing.T) {
		_, err := execute(t, "--config", cfg, "rank",
			"--input", t.TempDir(),
			"--persona", travelPersona, "--job", travelJob)
		assert.Error(t, err)
	})

	t.Run("collection traversal", func(t *testing.T) {
		_, err := execute(t, "--config", cfg, "rank",
			"--collection", "../escape",
			"--persona", travelPersona, "--job", travelJob)
		assert.ErrorIs(t, err, sanitize.ErrInvalidCollection)
	})

	t.Run("missing persona", func(t *testing.T) {
		_, err := execute(t, "--config", cfg, "rank", "--job", travelJob)
		assert.Error(t, err)
	})
}

func TestBatch_RunsAllCollections(t *testing.T) {
	root := t.TempDir()
	inputRoot := filepath.Join(root, "input")
	out := filepath.Join(root, "output")
	writeCollection(t, filepath.Join(inputRoot, "collection1"))
	writeCollection(t, filepath.Join(inputRoot, "collection3"))

	batchFile := filepath.Join(root, "batch.json")
	writeFile(t, batchFile, `[
		{"collection": "collection1", "persona": "Travel Planner", "job": "Plan a trip of 4 days for a group of 10 college friends."},
		{"collection": "collection2", "persona": "HR Professional", "job": "Create and manage fillable forms for onboarding and compliance."},
		{"collection": "collection3", "persona": "Food Contractor", "job": "Prepare a vegetarian buffet-style dinner menu for a corporate gathering."}
	]`)

	stdout, err := execute(t, "--config", writeConfig(t), "batch",
		"--file", batchFile, "--input-root", inputRoot, "--output", out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 collections failed")
	assert.Contains(t, err.Error(), "collection2")

	assert.Contains(t, stdout, "collection1: result written")
	assert.Contains(t, stdout, "collection3: result written")
	assertValidResult(t, filepath.Join(out, "collection1", "result.json"))
	assertValidResult(t, filepath.Join(out, "collection3", "result.json"))
	assert.NoFileExists(t, filepath.Join(out, "collection2", "result.json"))
}

func TestReadBatchFile(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "not json", body: `{`, wantErr: "parsing batch file"},
		{name: "empty", body: `[]`, wantErr: "no collections"},
		{name: "no collection", body: `[{"persona":"p","job":"j"}]`, wantErr: "collection is required"},
		{name: "no persona", body: `[{"collection":"c","job":"j"}]`, wantErr: "persona is required"},
		{name: "traversal", body: `[{"collection":"../c","persona":"p","job":"j"}]`, wantErr: "invalid collection"},
		{name: "duplicate", body: `[{"collection":"c","persona":"p","job":"j"},{"collection":" c ","persona":"p","job":"j"}]`, wantErr: "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "batch.json")
			writeFile(t, path, tt.body)
			_, err := readBatchFile(path, "in", "out")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	path := filepath.Join(t.TempDir(), "batch.json")
	writeFile(t, path, `[{"collection":"c1","persona":"p","job":"j"}]`)
	jobs, err := readBatchFile(path, "in", "out")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, filepath.Join("in", "c1"), jobs[0].inputDir)
	assert.Equal(t, filepath.Join("out", "c1", "result.json"), jobs[0].outputPath("result.json"))
}

func TestValidate_ReportsAndRepairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	writeFile(t, path, `{
		"metadata": {"persona": "Travel Planner"},
		"extracted_sections": [
			{"document": "a.pdf", "section_title": "Nice", "importance_rank": 3, "page_number": 0}
		]
	}`)

	stdout, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Contains(t, stdout, "problem(s)")

	stdout, err = execute(t, "validate", "--repair", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "repaired")
	assertValidResult(t, path)

	stdout, err = execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "valid")
}
