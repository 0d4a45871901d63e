package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/lexicon/internal/export"
	"github.com/mesh-intelligence/lexicon/internal/kbtest"
	"github.com/mesh-intelligence/lexicon/internal/sqlite"
	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// run executes the command tree with args and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LEXICON_CONFIG_DIR", "LEXICON_DATA_DIR", "LEXICON_ROOT_MODULE", "LEXICON_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// workspace returns a configuration directory holding config.yaml and the
// sample knowledge base as module "colo".
func workspace(t *testing.T) string {
	t.Helper()
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), "backend: sqlite\nroot_module: colo\nmodule_roots: [modules]\n")
	writeFile(t, filepath.Join(dir, "modules", "colo", "module.yaml"), "name: colo\nversion: 1.2.0\n")

	sample := kbtest.Sample()
	for _, k := range types.NewKindRegistry().CatalogKinds() {
		recs, err := sample.Records(k)
		require.NoError(t, err)
		if len(recs) == 0 {
			continue
		}
		data, err := yaml.Marshal(recs)
		require.NoError(t, err)
		writeFile(t, filepath.Join(dir, "modules", "colo", "data", string(k), "records.yaml"), string(data))
	}
	return dir
}

const syncFile = `kind: center
record:
  uuid: c-1
  name: Klinikum Nord
  examiners:
    - uuid: e-1
      first_name: Paul
      last_name: Ehrlich
---
kind: patient
record:
  uuid: p-1
  center_uuid: c-1
  first_name: Erika
  last_name: Muster
---
kind: patient_examination
record:
  uuid: x-1
  patient_uuid: p-1
  examination: colonoscopy
  examiner_uuid: e-1
  date: 2024-03-01T09:30:00Z
  findings:
    - uuid: f-1
      finding: colon_lesion_polyp
      classifications:
        uuid: fc-1
        choices:
          - uuid: ch-1
            classification: paris
            choice: paris_is
            descriptors:
              - uuid: d-1
                descriptor: polyp_size_mm
                value: 12
  indications:
    - uuid: i-1
      indication: screening_colonoscopy
`

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lexicon v"+Version)
}

func TestInit(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "conf")

	out, err := run(t, "--config-dir", dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "initialized")

	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
	assert.FileExists(t, filepath.Join(dir, "ledger", sqlite.DatabaseFile))
	assert.DirExists(t, filepath.Join(dir, "modules"))

	s, err := loadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendSQLite, s.Backend)
	assert.True(t, s.Sync.Prevalidate)
	assert.Equal(t, types.MergeOverwrite, s.MergePolicy)

	// A second init keeps the existing file.
	writeFile(t, filepath.Join(dir, "config.yaml"), "backend: sqlite\nroot_module: colo\n")
	_, err = run(t, "--config-dir", dir, "init")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "root_module: colo")
}

func TestLoadSettings(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), "backend: sqlite\nmerge_policy: error\nsync:\n  prevalidate: false\n")

	s, err := loadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, types.MergeError, s.MergePolicy)
	assert.False(t, s.Sync.Prevalidate)

	t.Setenv("LEXICON_ROOT_MODULE", "gastro")
	s, err = loadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, "gastro", s.RootModule)

	writeFile(t, filepath.Join(dir, "config.yaml"), "backend: postgres\n")
	_, err = loadSettings(dir)
	assert.True(t, errors.Is(err, types.ErrBackendUnknown))
}

func TestModulesCommands(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "modules", "base", "module.toml"), "name = \"base\"\nversion = \"0.3.0\"\n")
	writeFile(t, filepath.Join(dir, "modules", "gastro", "module.yaml"),
		"name: gastro\nversion: 2.0.0\ndepends_on: [base]\n")

	out, err := run(t, "--config-dir", dir, "--json", "modules", "list")
	require.NoError(t, err)
	var rows []moduleRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"base", "colo", "gastro"}, []string{rows[0].Name, rows[1].Name, rows[2].Name})

	out, err = run(t, "--config-dir", dir, "modules", "order", "gastro")
	require.NoError(t, err)
	assert.Equal(t, "base\ngastro\n", out)

	out, err = run(t, "--config-dir", dir, "modules", "order")
	require.NoError(t, err)
	assert.Equal(t, "colo\n", out)

	_, err = run(t, "--config-dir", dir, "modules", "order", "nope")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestKBCommands(t *testing.T) {
	dir := workspace(t)

	out, err := run(t, "--config-dir", dir, "--json", "kb", "show")
	require.NoError(t, err)
	var summary kbSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "colo", summary.Module)
	assert.Equal(t, kbtest.Sample().Len(), summary.Total)
	assert.Equal(t, 1, summary.Records[string(types.KindFinding)])

	out, err = run(t, "--config-dir", dir, "kb", "show", "--kind", "finding")
	require.NoError(t, err)
	assert.Contains(t, out, "name: "+kbtest.Finding)

	exportDir := filepath.Join(t.TempDir(), "kb")
	_, err = run(t, "--config-dir", dir, "kb", "export", exportDir, "--format", "jsonl")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(exportDir, "finding.jsonl"))

	_, err = run(t, "--config-dir", dir, "kb", "export", exportDir, "--format", "xlsx")
	assert.True(t, errors.Is(err, export.ErrUnknownFormat))
}

func TestKBShowNeedsModule(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	_, err := run(t, "--config-dir", dir, "kb", "show")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoModule))
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestLedgerCommands(t *testing.T) {
	dir := workspace(t)
	input := filepath.Join(t.TempDir(), "exam.yaml")
	writeFile(t, input, syncFile)

	out, err := run(t, "--config-dir", dir, "ledger", "sync", input)
	require.NoError(t, err)
	assert.Contains(t, out, "uuid: x-1")

	// Syncing the same file again changes nothing.
	_, err = run(t, "--config-dir", dir, "ledger", "sync", input)
	require.NoError(t, err)

	out, err = run(t, "--config-dir", dir, "--json", "ledger", "get", "patient_examination", "x-1")
	require.NoError(t, err)
	var exam types.PatientExaminationShallow
	require.NoError(t, json.Unmarshal([]byte(out), &exam))
	require.Len(t, exam.Findings, 1)
	assert.Equal(t, "f-1", exam.Findings[0].UUID)
	assert.Equal(t, 12.0, exam.Findings[0].Classifications.Choices[0].Descriptors[0].Value)

	out, err = run(t, "--config-dir", dir, "ledger", "get", "--deep", "patient_finding", "f-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "colon_lesion_polyp"`)

	exportDir := filepath.Join(t.TempDir(), "ledger")
	_, err = run(t, "--config-dir", dir, "ledger", "export", exportDir)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(exportDir, "patient_indication.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "i-1")

	out, err = run(t, "--config-dir", dir, "ledger", "delete", "patient", "p-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted patient/p-1")

	_, err = run(t, "--config-dir", dir, "ledger", "get", "patient_finding", "f-1")
	assert.True(t, errors.Is(err, types.ErrNotFound))
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestLedgerSyncRejectsBadInput(t *testing.T) {
	dir := workspace(t)
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{
			name:    "unknown kind",
			content: "kind: polyp\nrecord:\n  uuid: x\n",
			target:  types.ErrUnknownKind,
		},
		{
			name:    "catalog kind",
			content: "kind: finding\nrecord:\n  name: x\n",
			target:  types.ErrUnknownKind,
		},
		{
			name:    "missing record",
			content: "kind: patient\n",
			target:  types.ErrInvalidData,
		},
		{
			name:    "unknown catalog name",
			content: "kind: patient\nrecord:\n  uuid: p-1\n---\nkind: patient_examination\nrecord:\n  patient_uuid: p-1\n  examination: gastroscopy\n",
			target:  types.ErrReferenceNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := filepath.Join(t.TempDir(), "in.yaml")
			writeFile(t, input, tt.content)
			_, err := run(t, "--config-dir", dir, "ledger", "sync", input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
			assert.Equal(t, exitUserError, exitCode(err))
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitUserError, exitCode(types.ReferenceNotFound(types.KindFinding, "x", "")))
	assert.Equal(t, exitSysError, exitCode(types.Persistence(errors.New("disk I/O error"), "insert")))
	assert.Equal(t, exitSysError, exitCode(errors.New("boom")))
}
