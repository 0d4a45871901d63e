package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lexicon/internal/kbtest"
	"github.com/mesh-intelligence/lexicon/pkg/types"
)

func readCSV(t *testing.T, path string) []map[string]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	lines, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, lines, "header is always written")
	var rows []map[string]string
	for _, line := range lines[1:] {
		row := map[string]string{}
		for i, col := range lines[0] {
			row[col] = line[i]
		}
		rows = append(rows, row)
	}
	return rows
}

func header(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	h, err := csv.NewReader(f).Read()
	require.NoError(t, err)
	return h
}

func ledgerTree() *types.PatientExaminationShallow {
	return &types.PatientExaminationShallow{
		UUID: "x-1", PatientUUID: "p-1", Examination: kbtest.Examination,
		Findings: []*types.PatientFindingShallow{{
			UUID: "f-1", PatientExaminationUUID: "x-1", Finding: kbtest.Finding,
			Classifications: &types.PatientFindingClassificationsShallow{
				UUID: "fc-1", PatientFindingUUID: "f-1",
				Choices: []*types.PatientFindingClassificationChoiceShallow{{
					UUID: "ch-1", ClassificationsUUID: "fc-1",
					Classification: kbtest.ClassificationParis, Choice: kbtest.ChoiceParisIs,
					Descriptors: []*types.PatientFindingClassificationChoiceDescriptorShallow{
						{UUID: "d-1", ChoiceUUID: "ch-1", Descriptor: kbtest.DescriptorSize, Value: 12.5},
						{UUID: "d-2", ChoiceUUID: "ch-1", Descriptor: kbtest.DescriptorSubtype, Value: []string{"Is"}},
					},
				}},
			},
		}},
		Indications: []*types.PatientIndicationShallow{
			{UUID: "i-1", PatientExaminationUUID: "x-1", Indication: kbtest.Indication},
		},
	}
}

func TestExportCatalogCSV(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(nil, FormatCSV, nil)
	require.NoError(t, err)

	paths, err := e.ExportCatalog(dir, kbtest.Catalog())
	require.NoError(t, err)
	assert.Len(t, paths, len(types.NewKindRegistry().CatalogKinds()))

	findingCSV := filepath.Join(dir, "finding.csv")
	assert.Equal(t, []string{"uuid", "name"}, header(t, findingCSV)[:2])

	rows := readCSV(t, findingCSV)
	require.Len(t, rows, 1)
	assert.Equal(t, kbtest.Finding, rows[0]["name"])
	assert.NotEmpty(t, rows[0]["uuid"])
	assert.Equal(t, "location;paris", rows[0]["classifications"])
	assert.Equal(t, `{"de":"Polyp"}`, rows[0]["names"])

	descriptors := readCSV(t, filepath.Join(dir, "classification_choice_descriptor.csv"))
	require.Len(t, descriptors, 3)
	assert.Equal(t, kbtest.DescriptorSubtype, descriptors[0]["name"], "rows in name order")
}

func TestExportLedgerCSV(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(nil, FormatCSV, nil)
	require.NoError(t, err)

	_, err = e.ExportLedger(dir, []types.LedgerRecord{ledgerTree()})
	require.NoError(t, err)

	exams := readCSV(t, filepath.Join(dir, "patient_examination.csv"))
	require.Len(t, exams, 1)
	assert.Equal(t, "p-1", exams[0]["patient_uuid"])
	assert.NotContains(t, header(t, filepath.Join(dir, "patient_examination.csv")), "findings",
		"child collections are not columns")

	descriptors := readCSV(t, filepath.Join(dir, "patient_finding_classification_choice_descriptor.csv"))
	require.Len(t, descriptors, 2)
	assert.Equal(t, "ch-1", descriptors[0]["choice_uuid"])
	assert.Equal(t, "12.5", descriptors[0]["value"])
	assert.Equal(t, "Is", descriptors[1]["value"])

	centers := readCSV(t, filepath.Join(dir, "center.csv"))
	assert.Empty(t, centers, "kinds without rows get a header-only file")
}

func TestExportCSVHeaderFollowsRecordType(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(nil, FormatCSV, nil)
	require.NoError(t, err)

	_, err = e.ExportLedger(dir, []types.LedgerRecord{ledgerTree()})
	require.NoError(t, err)

	assert.Equal(t, []string{"uuid", "date", "examination", "examiner_uuid", "patient_uuid"},
		header(t, filepath.Join(dir, "patient_examination.csv")), "empty optional fields keep their column")
	assert.Equal(t, []string{"uuid", "name"}, header(t, filepath.Join(dir, "center.csv")))
	assert.Equal(t, []string{"uuid", "finding", "patient_examination_uuid"},
		header(t, filepath.Join(dir, "patient_finding.csv")), "child records are not columns")
}

func TestExportLedgerJSONL(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(types.NewKindRegistry(), FormatJSONL, nil)
	require.NoError(t, err)

	_, err = e.ExportLedger(dir, []types.LedgerRecord{ledgerTree()})
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "patient_finding.jsonl"))
	require.NoError(t, err)
	defer f.Close()
	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 1)
	assert.Equal(t, "f-1", lines[0]["uuid"])
	assert.NotContains(t, lines[0], "classifications")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp", "no temp files are left behind")
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xlsx")
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	_, err = NewExporter(nil, "parquet", nil)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}
