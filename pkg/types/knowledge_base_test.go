package types

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kbWith(t *testing.T, records ...any) *KnowledgeBase {
	t.Helper()
	kb := NewKnowledgeBase()
	for _, r := range records {
		require.NoError(t, kb.Add(r))
	}
	return kb
}

func TestKnowledgeBaseMerge(t *testing.T) {
	tests := []struct {
		name      string
		policy    MergePolicy
		wantErr   error
		wantDesc  string
		wantCount int
	}{
		{
			name:      "overwrite keeps the later module's entity",
			policy:    MergeOverwrite,
			wantDesc:  "from b",
			wantCount: 3,
		},
		{
			name:    "error policy reports the collision",
			policy:  MergeError,
			wantErr: ErrNameCollision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := kbWith(t,
				&FindingType{Base: Base{Name: "lesion", Description: "from a"}},
				&FindingType{Base: Base{Name: "anatomy"}},
			)
			b := kbWith(t,
				&FindingType{Base: Base{Name: "lesion", Description: "from b"}},
				&UnitType{Base: Base{Name: "length"}},
			)

			err := a.Merge(b, tt.policy)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Contains(t, err.Error(), `finding_type "lesion"`)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDesc, a.FindingTypes["lesion"].Description)
			assert.Equal(t, tt.wantCount, a.Len())
		})
	}
}

func TestKnowledgeBaseAdd(t *testing.T) {
	kb := NewKnowledgeBase()

	err := kb.Add(&FindingShallow{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	err = kb.Add("not a record")
	assert.True(t, errors.Is(err, ErrInvalidData))

	f := &FindingShallow{Base: Base{Name: "colon_lesion_polyp"}}
	require.NoError(t, kb.Add(f))
	assert.NotEmpty(t, f.UUID, "Add assigns an identifier")
	assert.Equal(t, 1, kb.Counts()[KindFinding])
}

func TestKnowledgeBaseRecords(t *testing.T) {
	kb := kbWith(t,
		&UnitType{Base: Base{Name: "volume"}},
		&UnitType{Base: Base{Name: "length"}},
	)

	recs, err := kb.Records(KindUnitType)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "length", recs[0].(*UnitType).Name)

	_, err = kb.Records(KindPatient)
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestKnowledgeBaseClone(t *testing.T) {
	kb := kbWith(t, &UnitType{Base: Base{Name: "length"}})
	c := kb.Clone()
	require.NoError(t, c.Add(&UnitType{Base: Base{Name: "mass"}}))
	assert.Equal(t, 1, kb.Len())
	assert.Equal(t, 2, c.Len())
}

func TestBaseDisplayName(t *testing.T) {
	b := Base{Name: "colon_lesion_polyp", Names: map[string]string{"de": "Polyp", "fr": ""}, Tags: []string{"lesion"}}

	assert.Equal(t, "Polyp", b.DisplayName("de"))
	assert.Equal(t, "colon_lesion_polyp", b.DisplayName("en"), "missing translation falls back")
	assert.Equal(t, "colon_lesion_polyp", b.DisplayName("fr"), "empty translation falls back")
	assert.True(t, b.HasTag("lesion"))
	assert.False(t, b.HasTag("anatomy"))
}
