package types_test

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lexicon/internal/kbtest"
	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// fakeLedger resolves ledger references from maps.
type fakeLedger struct {
	centers   map[string]*types.Center
	examiners map[string]*types.Examiner
	patients  map[string]*types.Patient
}

func lookup[T any](m map[string]*T, id string) (*T, error) {
	if v, ok := m[id]; ok {
		return v, nil
	}
	return nil, types.ErrNotFound
}

func (f *fakeLedger) Center(id string) (*types.Center, error)     { return lookup(f.centers, id) }
func (f *fakeLedger) Examiner(id string) (*types.Examiner, error) { return lookup(f.examiners, id) }
func (f *fakeLedger) Patient(id string) (*types.Patient, error)   { return lookup(f.patients, id) }

func newFakeLedger() *fakeLedger {
	center := &types.Center{UUID: "c-1", Name: "St. Elsewhere"}
	examiner := &types.Examiner{UUID: "e-1", CenterUUID: "c-1", LastName: "Ehrlich"}
	center.Examiners = []*types.Examiner{examiner}
	dob := time.Date(1961, 4, 12, 0, 0, 0, 0, time.UTC)
	return &fakeLedger{
		centers:   map[string]*types.Center{"c-1": center},
		examiners: map[string]*types.Examiner{"e-1": examiner},
		patients: map[string]*types.Patient{
			"p-1": {UUID: "p-1", FirstName: "Ada", DOB: &dob, Center: center},
		},
	}
}

func sampleExamination() *types.PatientExaminationShallow {
	date := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return &types.PatientExaminationShallow{
		UUID:         "x-1",
		PatientUUID:  "p-1",
		Examination:  kbtest.Examination,
		ExaminerUUID: "e-1",
		Date:         &date,
		Findings: []*types.PatientFindingShallow{{
			UUID:                   "f-1",
			PatientExaminationUUID: "x-1",
			Finding:                kbtest.Finding,
			Classifications: &types.PatientFindingClassificationsShallow{
				UUID:               "fc-1",
				PatientFindingUUID: "f-1",
				Choices: []*types.PatientFindingClassificationChoiceShallow{{
					UUID:                "ch-1",
					ClassificationsUUID: "fc-1",
					Classification:      kbtest.ClassificationParis,
					Choice:              kbtest.ChoiceParisIs,
					Descriptors: []*types.PatientFindingClassificationChoiceDescriptorShallow{
						{UUID: "d-1", ChoiceUUID: "ch-1", Descriptor: kbtest.DescriptorSize, Value: 12.0},
						{UUID: "d-2", ChoiceUUID: "ch-1", Descriptor: kbtest.DescriptorSubtype, Value: []string{"Is"}},
						{UUID: "d-3", ChoiceUUID: "ch-1", Descriptor: kbtest.DescriptorResected, Value: true},
					},
				}},
			},
		}},
		Indications: []*types.PatientIndicationShallow{{
			UUID: "i-1", PatientExaminationUUID: "x-1", Indication: kbtest.Indication,
		}},
	}
}

func TestPatientExaminationRoundTrip(t *testing.T) {
	cat := kbtest.Catalog()
	led := newFakeLedger()
	in := sampleExamination()

	deep, err := types.PatientExaminationFromShallow(in, cat, led)
	require.NoError(t, err)
	assert.Same(t, led.patients["p-1"], deep.Patient)
	assert.Equal(t, "Ehrlich", deep.Examiner.LastName)
	require.Len(t, deep.Findings, 1)
	choice := deep.Findings[0].Classifications.Choices[0]
	assert.Equal(t, 12.0, *choice.Descriptors[0].Value.Numeric)

	assert.Equal(t, in, deep.ToShallow())

	again, err := types.PatientExaminationFromShallow(deep.ToShallow(), cat, led)
	require.NoError(t, err)
	assert.Equal(t, deep, again)
}

func TestLedgerRootsRoundTrip(t *testing.T) {
	led := newFakeLedger()

	c := led.centers["c-1"]
	cs := c.ToShallow()
	back, err := types.CenterFromShallow(cs)
	require.NoError(t, err)
	assert.Equal(t, c, back)

	p := led.patients["p-1"]
	ps := p.ToShallow()
	assert.Equal(t, "c-1", ps.CenterUUID)
	pback, err := types.PatientFromShallow(ps, led)
	require.NoError(t, err)
	assert.Equal(t, p, pback)
}

func TestLedgerFromShallowFailures(t *testing.T) {
	cat := kbtest.Catalog()
	led := newFakeLedger()

	tests := []struct {
		name    string
		mutate  func(e *types.PatientExaminationShallow)
		wantErr error
		wantRef string
	}{
		{
			name:    "unknown catalog finding",
			mutate:  func(e *types.PatientExaminationShallow) { e.Findings[0].Finding = "colon_polyp" },
			wantErr: types.ErrReferenceNotFound,
			wantRef: "colon_polyp",
		},
		{
			name:    "unknown patient",
			mutate:  func(e *types.PatientExaminationShallow) { e.PatientUUID = "p-404" },
			wantErr: types.ErrReferenceNotFound,
			wantRef: "p-404",
		},
		{
			name:    "unknown examiner",
			mutate:  func(e *types.PatientExaminationShallow) { e.ExaminerUUID = "e-404" },
			wantErr: types.ErrReferenceNotFound,
			wantRef: "e-404",
		},
		{
			name:    "unknown indication",
			mutate:  func(e *types.PatientExaminationShallow) { e.Indications[0].Indication = "fever" },
			wantErr: types.ErrReferenceNotFound,
			wantRef: "fever",
		},
		{
			name:    "missing examination name",
			mutate:  func(e *types.PatientExaminationShallow) { e.Examination = "" },
			wantErr: types.ErrValidation,
		},
		{
			name: "choice outside its classification",
			mutate: func(e *types.PatientExaminationShallow) {
				e.Findings[0].Classifications.Choices[0].Choice = kbtest.ChoiceSigmoid
				e.Findings[0].Classifications.Choices[0].Descriptors = nil
			},
			wantErr: types.ErrValidation,
		},
		{
			name: "descriptor not declared by the choice",
			mutate: func(e *types.PatientExaminationShallow) {
				e.Findings[0].Classifications.Choices[0].Choice = kbtest.ChoiceParisIIa
			},
			wantErr: types.ErrValidation,
		},
		{
			name: "classification not declared by the finding",
			mutate: func(e *types.PatientExaminationShallow) {
				ch := e.Findings[0].Classifications.Choices[0]
				ch.Classification, ch.Choice, ch.Descriptors = kbtest.ClassificationBowelPrep, "bbps_3", nil
			},
			wantErr: types.ErrValidation,
		},
		{
			name: "two selections for a single-selection descriptor",
			mutate: func(e *types.PatientExaminationShallow) {
				e.Findings[0].Classifications.Choices[0].Descriptors[1].Value = []string{"Is", "IIa"}
			},
			wantErr: types.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleExamination()
			tt.mutate(in)
			_, err := types.PatientExaminationFromShallow(in, cat, led)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			if tt.wantRef != "" {
				var ref *types.ReferenceError
				require.True(t, errors.As(err, &ref))
				assert.Equal(t, tt.wantRef, ref.Ref)
			}
		})
	}
}

func TestLedgerRecordTree(t *testing.T) {
	e := sampleExamination()

	d := e.Detached().(*types.PatientExaminationShallow)
	assert.Nil(t, d.Findings)
	assert.Nil(t, d.Indications)
	assert.Len(t, e.Findings, 1, "Detached leaves the original intact")

	children := e.Children()
	require.Len(t, children, 2)
	assert.Equal(t, types.KindPatientFinding, children[0].Kind())
	assert.Equal(t, types.KindPatientIndication, children[1].Kind())
	assert.Equal(t, "x-1", children[0].ParentUUID())

	f := e.Findings[0]
	err := f.AppendChild(&types.PatientFindingClassificationsShallow{UUID: "fc-2"})
	assert.True(t, errors.Is(err, types.ErrValidation), "a finding has one classifications record")

	err = e.AppendChild(&types.PatientShallow{})
	assert.True(t, errors.Is(err, types.ErrInvalidData))
}

func TestKindRegistry(t *testing.T) {
	r := types.NewKindRegistry()

	assert.Len(t, r.CatalogKinds(), 16)
	assert.Equal(t, types.KindInformationSourceType, r.CatalogKinds()[0])
	assert.Equal(t, types.KindCenter, r.LedgerKinds()[0])
	assert.Equal(t, []types.Kind{types.KindPatientFinding, types.KindPatientIndication},
		r.Children(types.KindPatientExamination))
	assert.Empty(t, r.Children(""))

	k, err := r.Parse("patient_finding")
	require.NoError(t, err)
	rec, err := r.NewLedgerRecord(k)
	require.NoError(t, err)
	assert.IsType(t, &types.PatientFindingShallow{}, rec)

	_, err = r.Parse("polyp")
	assert.True(t, errors.Is(err, types.ErrUnknownKind))
	_, err = r.NewLedgerRecord(types.KindFinding)
	assert.True(t, errors.Is(err, types.ErrUnknownKind))

	info, ok := r.Lookup(types.KindFinding)
	require.True(t, ok)
	assert.IsType(t, &types.FindingShallow{}, info.NewRecord())
}
