package kb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/lexicon/internal/kbtest"
	"github.com/mesh-intelligence/lexicon/pkg/types"
)

func findingTypes(t *testing.T, desc string, names ...string) *types.KnowledgeBase {
	t.Helper()
	kb := types.NewKnowledgeBase()
	for _, n := range names {
		require.NoError(t, kb.Add(&types.FindingType{Base: types.Base{Name: n, Description: desc}}))
	}
	return kb
}

type countingSource struct {
	MemorySource
	calls map[string]int
}

func (s *countingSource) Records(m *types.ModuleDescriptor) (*types.KnowledgeBase, error) {
	s.calls[m.Name]++
	return s.MemorySource.Records(m)
}

func testModules() map[string]*types.ModuleDescriptor {
	return map[string]*types.ModuleDescriptor{
		"root":   {Name: "root", Version: "1.0.0", Modules: []string{"colo", "gastro"}},
		"colo":   {Name: "colo", Version: "1.0.0", DependsOn: []string{"base"}, Modules: []string{"common"}},
		"gastro": {Name: "gastro", Version: "1.0.0", Modules: []string{"common"}},
		"common": {Name: "common", Version: "1.0.0"},
		"base":   {Name: "base", Version: "1.0.0"},
		"unused": {Name: "unused", Version: "1.0.0"},
	}
}

func TestLoaderLoad(t *testing.T) {
	src := &countingSource{
		MemorySource: MemorySource{
			"root":   findingTypes(t, "root", "lesion", "anatomy"),
			"base":   findingTypes(t, "base", "lesion", "quality"),
			"colo":   findingTypes(t, "colo", "lesion"),
			"common": findingTypes(t, "common", "anatomy"),
			"unused": findingTypes(t, "unused", "artifact"),
		},
		calls: map[string]int{},
	}
	l := NewLoader(testModules(), src, WithLogger(zap.NewNop().Sugar()))

	order, err := l.Order("root")
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "common", "gastro", "base", "colo"}, order)

	kb, err := l.Load("root")
	require.NoError(t, err)
	assert.Equal(t, 3, kb.Len())
	assert.Equal(t, "colo", kb.FindingTypes["lesion"].Description, "later module wins")
	assert.Equal(t, "common", kb.FindingTypes["anatomy"].Description)
	assert.Equal(t, "base", kb.FindingTypes["quality"].Description)
	assert.NotContains(t, kb.FindingTypes, "artifact")

	_, err = l.Load("root")
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls["common"], "module records are read once")
	assert.Equal(t, "root", src.MemorySource["root"].FindingTypes["lesion"].Description,
		"loading does not modify the source")
}

func TestLoaderRootOverridesItsDependencies(t *testing.T) {
	mods := map[string]*types.ModuleDescriptor{
		"root": {Name: "root", Version: "1.0.0", DependsOn: []string{"base"}},
		"base": {Name: "base", Version: "1.0.0"},
	}
	src := MemorySource{
		"root": findingTypes(t, "root", "lesion"),
		"base": findingTypes(t, "base", "lesion", "quality"),
	}
	l := NewLoader(mods, src)

	order, err := l.Order("root")
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "root"}, order)

	kb, err := l.Load("root")
	require.NoError(t, err)
	assert.Equal(t, "root", kb.FindingTypes["lesion"].Description)
	assert.Equal(t, "base", kb.FindingTypes["quality"].Description)
}

func TestLoaderPreferredOrder(t *testing.T) {
	src := MemorySource{
		"colo":   findingTypes(t, "colo", "lesion"),
		"gastro": findingTypes(t, "gastro", "lesion"),
	}
	l := NewLoader(testModules(), src, WithPreferredOrder([]string{"gastro", "colo"}))

	order, err := l.Order("root")
	require.NoError(t, err)
	assert.Equal(t, []string{"gastro", "root", "common", "base", "colo"}, order)

	kb, err := l.Load("root")
	require.NoError(t, err)
	assert.Equal(t, "colo", kb.FindingTypes["lesion"].Description)
}

func TestLoaderFailures(t *testing.T) {
	t.Run("strict policy reports collisions", func(t *testing.T) {
		src := MemorySource{
			"colo":   findingTypes(t, "colo", "lesion"),
			"gastro": findingTypes(t, "gastro", "lesion"),
		}
		_, err := NewLoader(testModules(), src, WithPolicy(types.MergeError)).Load("root")
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrNameCollision))
	})

	t.Run("unknown module", func(t *testing.T) {
		_, err := NewLoader(testModules(), MemorySource{}).Load("nope")
		assert.True(t, errors.Is(err, types.ErrNotFound))
	})

	t.Run("root dependency missing", func(t *testing.T) {
		mods := testModules()
		mods["root"].DependsOn = []string{"ghost"}
		_, err := NewLoader(mods, MemorySource{}).Load("root")
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrMissingDependency))
		assert.Contains(t, err.Error(), `"ghost"`)
	})

	t.Run("descendant dependency missing", func(t *testing.T) {
		mods := testModules()
		delete(mods, "base")
		_, err := NewLoader(mods, MemorySource{}).Load("root")
		assert.True(t, errors.Is(err, types.ErrMissingDependency))
	})

	t.Run("dependency cycle", func(t *testing.T) {
		mods := testModules()
		mods["base"].DependsOn = []string{"colo"}
		_, err := NewLoader(mods, MemorySource{}).Load("root")
		assert.True(t, errors.Is(err, types.ErrCircularDependency))
	})

	t.Run("catalog with dangling reference", func(t *testing.T) {
		bad := types.NewKnowledgeBase()
		require.NoError(t, bad.Add(&types.ExaminationShallow{
			Base: types.Base{Name: "colonoscopy"}, Findings: []string{"colon_polyp"},
		}))
		_, err := NewLoader(testModules(), MemorySource{"common": bad}).Catalog("root")
		assert.True(t, errors.Is(err, types.ErrReferenceNotFound))
	})
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	write("data/unit_type/types.yaml", "- name: length\n")
	write("data/unit/units.yml", "- name: mm\n  abbreviation: mm\n  types: [length]\n")
	write("data/classification_choice_descriptor/size.yaml", `- name: polyp_size_mm
  uuid: 0192f7d6-0000-7000-8000-000000000001
  value_kind: numeric
  unit: mm
  numeric_min: 0
  numeric_max: 100
  names:
    de: Polypengröße
`)
	write("data/classification_choice/choices.yaml", "- name: paris_is\n  descriptors: [polyp_size_mm]\n")
	write("data/classification/classes.yaml", "- name: paris\n  choices: [paris_is]\n")
	write("data/finding/findings.yaml", "- name: colon_lesion_polyp\n  classifications: [paris]\n  tags: [lesion]\n")
	write("data/finding/notes.txt", "ignored")
	write("data/scratch/whatever.yaml", "- not: a kind\n")

	mods := map[string]*types.ModuleDescriptor{"colo": {Name: "colo", Version: "1.0.0", Dir: dir}}
	l := NewLoader(mods, NewDirSource(types.NewKindRegistry(), nil))

	kb, err := l.Load("colo")
	require.NoError(t, err)
	assert.Equal(t, 6, kb.Len())
	d := kb.ClassificationChoiceDescriptors["polyp_size_mm"]
	require.NotNil(t, d)
	assert.Equal(t, "0192f7d6-0000-7000-8000-000000000001", d.UUID)
	assert.Equal(t, types.DescriptorNumeric, d.ValueKind)
	assert.Equal(t, 100.0, *d.Max)
	assert.Equal(t, "Polypengröße", d.DisplayName("de"))
	assert.NotEmpty(t, kb.Findings["colon_lesion_polyp"].UUID, "missing identifiers are generated")

	cat, err := l.Catalog("colo")
	require.NoError(t, err)
	f, ok := cat.Finding("colon_lesion_polyp")
	require.True(t, ok)
	assert.Equal(t, "mm", f.Classifications["paris"].Choices["paris_is"].Descriptors["polyp_size_mm"].Unit.Name)
}

func TestDirSourceErrors(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "data", "finding", "bad.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("name: not-a-list\n"), 0o644))

	src := NewDirSource(types.NewKindRegistry(), nil)
	_, err := src.Records(&types.ModuleDescriptor{Name: "bad", Dir: dir})
	assert.True(t, errors.Is(err, types.ErrInvalidData))

	empty, err := src.Records(&types.ModuleDescriptor{Name: "empty", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}

func TestSampleCatalogLoads(t *testing.T) {
	mods := map[string]*types.ModuleDescriptor{"colo": {Name: "colo", Version: "1.0.0"}}
	cat, err := NewLoader(mods, MemorySource{"colo": kbtest.Sample()}).Catalog("colo")
	require.NoError(t, err)
	_, ok := cat.Examination(kbtest.Examination)
	assert.True(t, ok)
}
