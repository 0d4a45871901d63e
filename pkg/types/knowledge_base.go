package types

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// MergePolicy decides what happens when two modules define an entity with
// the same name in the same collection.
type MergePolicy string

// Merge policies.
const (
	// MergeOverwrite keeps the later module's entity without notice.
	MergeOverwrite MergePolicy = "overwrite"
	// MergeError fails the merge with ErrNameCollision.
	MergeError MergePolicy = "error"
)

// IsValidMergePolicy reports whether p is a recognized merge policy.
func IsValidMergePolicy(p MergePolicy) bool {
	return p == MergeOverwrite || p == MergeError
}

// KnowledgeBase is the shallow catalog: every collection holds shallow
// records keyed by entity name. It is what modules contribute and what the
// aggregator merges.
type KnowledgeBase struct {
	InformationSourceTypes          map[string]*InformationSourceType
	InformationSources              map[string]*InformationSourceShallow
	Citations                       map[string]*CitationShallow
	UnitTypes                       map[string]*UnitType
	Units                           map[string]*UnitShallow
	ClassificationChoiceDescriptors map[string]*ClassificationChoiceDescriptorShallow
	ClassificationChoices           map[string]*ClassificationChoiceShallow
	ClassificationTypes             map[string]*ClassificationType
	Classifications                 map[string]*ClassificationShallow
	FindingTypes                    map[string]*FindingType
	InterventionTypes               map[string]*InterventionType
	Interventions                   map[string]*InterventionShallow
	Findings                        map[string]*FindingShallow
	Examinations                    map[string]*ExaminationShallow
	IndicationTypes                 map[string]*IndicationType
	Indications                     map[string]*IndicationShallow
}

// NewKnowledgeBase returns an empty knowledge base with every collection
// initialized.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		InformationSourceTypes:          map[string]*InformationSourceType{},
		InformationSources:              map[string]*InformationSourceShallow{},
		Citations:                       map[string]*CitationShallow{},
		UnitTypes:                       map[string]*UnitType{},
		Units:                           map[string]*UnitShallow{},
		ClassificationChoiceDescriptors: map[string]*ClassificationChoiceDescriptorShallow{},
		ClassificationChoices:           map[string]*ClassificationChoiceShallow{},
		ClassificationTypes:             map[string]*ClassificationType{},
		Classifications:                 map[string]*ClassificationShallow{},
		FindingTypes:                    map[string]*FindingType{},
		InterventionTypes:               map[string]*InterventionType{},
		Interventions:                   map[string]*InterventionShallow{},
		Findings:                        map[string]*FindingShallow{},
		Examinations:                    map[string]*ExaminationShallow{},
		IndicationTypes:                 map[string]*IndicationType{},
		Indications:                     map[string]*IndicationShallow{},
	}
}

// Add stores a shallow catalog record in its collection, replacing any
// record of the same name. Records without a name are rejected.
func (kb *KnowledgeBase) Add(record any) error {
	switch r := record.(type) {
	case *InformationSourceType:
		return put(kb.InformationSourceTypes, KindInformationSourceType, &r.Base, r)
	case *InformationSourceShallow:
		return put(kb.InformationSources, KindInformationSource, &r.Base, r)
	case *CitationShallow:
		return put(kb.Citations, KindCitation, &r.Base, r)
	case *UnitType:
		return put(kb.UnitTypes, KindUnitType, &r.Base, r)
	case *UnitShallow:
		return put(kb.Units, KindUnit, &r.Base, r)
	case *ClassificationChoiceDescriptorShallow:
		return put(kb.ClassificationChoiceDescriptors, KindClassificationChoiceDescriptor, &r.Base, r)
	case *ClassificationChoiceShallow:
		return put(kb.ClassificationChoices, KindClassificationChoice, &r.Base, r)
	case *ClassificationType:
		return put(kb.ClassificationTypes, KindClassificationType, &r.Base, r)
	case *ClassificationShallow:
		return put(kb.Classifications, KindClassification, &r.Base, r)
	case *FindingType:
		return put(kb.FindingTypes, KindFindingType, &r.Base, r)
	case *InterventionType:
		return put(kb.InterventionTypes, KindInterventionType, &r.Base, r)
	case *InterventionShallow:
		return put(kb.Interventions, KindIntervention, &r.Base, r)
	case *FindingShallow:
		return put(kb.Findings, KindFinding, &r.Base, r)
	case *ExaminationShallow:
		return put(kb.Examinations, KindExamination, &r.Base, r)
	case *IndicationType:
		return put(kb.IndicationTypes, KindIndicationType, &r.Base, r)
	case *IndicationShallow:
		return put(kb.Indications, KindIndication, &r.Base, r)
	default:
		return errors.Wrapf(ErrInvalidData, "not a shallow catalog record: %T", record)
	}
}

func put[T any](m map[string]T, kind Kind, b *Base, v T) error {
	if b.Name == "" {
		return ValidationFailure(kind, b.UUID, "name", "must not be empty")
	}
	b.EnsureUUID()
	m[b.Name] = v
	return nil
}

// Merge folds other into kb collection by collection. Under MergeOverwrite
// an entity from other replaces the entity of the same name in kb. Under
// MergeError the first collision aborts the merge; kb may already hold
// entities from other's earlier collections at that point.
func (kb *KnowledgeBase) Merge(other *KnowledgeBase, policy MergePolicy) error {
	steps := []func() error{
		func() error { return mergeInto(kb.InformationSourceTypes, other.InformationSourceTypes, KindInformationSourceType, policy) },
		func() error { return mergeInto(kb.InformationSources, other.InformationSources, KindInformationSource, policy) },
		func() error { return mergeInto(kb.Citations, other.Citations, KindCitation, policy) },
		func() error { return mergeInto(kb.UnitTypes, other.UnitTypes, KindUnitType, policy) },
		func() error { return mergeInto(kb.Units, other.Units, KindUnit, policy) },
		func() error { return mergeInto(kb.ClassificationChoiceDescriptors, other.ClassificationChoiceDescriptors, KindClassificationChoiceDescriptor, policy) },
		func() error { return mergeInto(kb.ClassificationChoices, other.ClassificationChoices, KindClassificationChoice, policy) },
		func() error { return mergeInto(kb.ClassificationTypes, other.ClassificationTypes, KindClassificationType, policy) },
		func() error { return mergeInto(kb.Classifications, other.Classifications, KindClassification, policy) },
		func() error { return mergeInto(kb.FindingTypes, other.FindingTypes, KindFindingType, policy) },
		func() error { return mergeInto(kb.InterventionTypes, other.InterventionTypes, KindInterventionType, policy) },
		func() error { return mergeInto(kb.Interventions, other.Interventions, KindIntervention, policy) },
		func() error { return mergeInto(kb.Findings, other.Findings, KindFinding, policy) },
		func() error { return mergeInto(kb.Examinations, other.Examinations, KindExamination, policy) },
		func() error { return mergeInto(kb.IndicationTypes, other.IndicationTypes, KindIndicationType, policy) },
		func() error { return mergeInto(kb.Indications, other.Indications, KindIndication, policy) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto[T any](dst, src map[string]T, kind Kind, policy MergePolicy) error {
	names := make([]string, 0, len(src))
	for n := range src {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if _, exists := dst[n]; exists && policy == MergeError {
			return errors.Wrapf(ErrNameCollision, "%s %q defined by more than one module", kind, n)
		}
		dst[n] = src[n]
	}
	return nil
}

// Clone returns a knowledge base holding the same records in fresh maps.
// Records are shared, not copied.
func (kb *KnowledgeBase) Clone() *KnowledgeBase {
	out := NewKnowledgeBase()
	_ = out.Merge(kb, MergeOverwrite)
	return out
}

// Len returns the total number of records across all collections.
func (kb *KnowledgeBase) Len() int {
	total := 0
	for _, n := range kb.Counts() {
		total += n
	}
	return total
}

// Counts returns the number of records per catalog kind.
func (kb *KnowledgeBase) Counts() map[Kind]int {
	return map[Kind]int{
		KindInformationSourceType:          len(kb.InformationSourceTypes),
		KindInformationSource:              len(kb.InformationSources),
		KindCitation:                       len(kb.Citations),
		KindUnitType:                       len(kb.UnitTypes),
		KindUnit:                           len(kb.Units),
		KindClassificationChoiceDescriptor: len(kb.ClassificationChoiceDescriptors),
		KindClassificationChoice:           len(kb.ClassificationChoices),
		KindClassificationType:             len(kb.ClassificationTypes),
		KindClassification:                 len(kb.Classifications),
		KindFindingType:                    len(kb.FindingTypes),
		KindInterventionType:               len(kb.InterventionTypes),
		KindIntervention:                   len(kb.Interventions),
		KindFinding:                        len(kb.Findings),
		KindExamination:                    len(kb.Examinations),
		KindIndicationType:                 len(kb.IndicationTypes),
		KindIndication:                     len(kb.Indications),
	}
}

// Records returns the shallow records of kind sorted by name.
func (kb *KnowledgeBase) Records(kind Kind) ([]any, error) {
	switch kind {
	case KindInformationSourceType:
		return sortedRecords(kb.InformationSourceTypes), nil
	case KindInformationSource:
		return sortedRecords(kb.InformationSources), nil
	case KindCitation:
		return sortedRecords(kb.Citations), nil
	case KindUnitType:
		return sortedRecords(kb.UnitTypes), nil
	case KindUnit:
		return sortedRecords(kb.Units), nil
	case KindClassificationChoiceDescriptor:
		return sortedRecords(kb.ClassificationChoiceDescriptors), nil
	case KindClassificationChoice:
		return sortedRecords(kb.ClassificationChoices), nil
	case KindClassificationType:
		return sortedRecords(kb.ClassificationTypes), nil
	case KindClassification:
		return sortedRecords(kb.Classifications), nil
	case KindFindingType:
		return sortedRecords(kb.FindingTypes), nil
	case KindInterventionType:
		return sortedRecords(kb.InterventionTypes), nil
	case KindIntervention:
		return sortedRecords(kb.Interventions), nil
	case KindFinding:
		return sortedRecords(kb.Findings), nil
	case KindExamination:
		return sortedRecords(kb.Examinations), nil
	case KindIndicationType:
		return sortedRecords(kb.IndicationTypes), nil
	case KindIndication:
		return sortedRecords(kb.Indications), nil
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "%q is not a catalog kind", kind)
	}
}

func sortedRecords[T any](m map[string]T) []any {
	names := namesOf(m)
	out := make([]any, 0, len(names))
	for _, n := range names {
		out = append(out, m[n])
	}
	return out
}
