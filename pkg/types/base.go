package types

import (
	"maps"
	"slices"
	"sort"

	"github.com/google/uuid"
)

// Kind names an entity type. Kind values double as record directory names
// in module data and as stems for exported tables.
type Kind string

// Catalog kinds, in materialization order: every kind only references
// kinds listed before it.
const (
	KindInformationSourceType          Kind = "information_source_type"
	KindInformationSource              Kind = "information_source"
	KindCitation                       Kind = "citation"
	KindUnitType                       Kind = "unit_type"
	KindUnit                           Kind = "unit"
	KindClassificationChoiceDescriptor Kind = "classification_choice_descriptor"
	KindClassificationChoice           Kind = "classification_choice"
	KindClassificationType             Kind = "classification_type"
	KindClassification                 Kind = "classification"
	KindFindingType                    Kind = "finding_type"
	KindInterventionType               Kind = "intervention_type"
	KindIntervention                   Kind = "intervention"
	KindFinding                        Kind = "finding"
	KindExamination                    Kind = "examination"
	KindIndicationType                 Kind = "indication_type"
	KindIndication                     Kind = "indication"
)

// Ledger kinds, parents before children.
const (
	KindCenter                                       Kind = "center"
	KindExaminer                                     Kind = "examiner"
	KindPatient                                      Kind = "patient"
	KindPatientExamination                           Kind = "patient_examination"
	KindPatientFinding                               Kind = "patient_finding"
	KindPatientFindingClassifications                Kind = "patient_finding_classifications"
	KindPatientFindingClassificationChoice           Kind = "patient_finding_classification_choice"
	KindPatientFindingClassificationChoiceDescriptor Kind = "patient_finding_classification_choice_descriptor"
	KindPatientIndication                            Kind = "patient_indication"
)

// Base carries the identity, naming and tagging shared by every catalog
// entity. Names holds localized display names keyed by language code.
type Base struct {
	UUID        string            `json:"uuid" yaml:"uuid"`
	Name        string            `json:"name" yaml:"name"`
	Names       map[string]string `json:"names,omitempty" yaml:"names,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// GetName returns the unique name of the entity within its kind.
func (b *Base) GetName() string { return b.Name }

// DisplayName returns the localized name for lang. Missing translations
// fall back to the primary name.
func (b *Base) DisplayName(lang string) string {
	if n, ok := b.Names[lang]; ok && n != "" {
		return n
	}
	return b.Name
}

// HasTag reports whether tag is attached to the entity.
func (b *Base) HasTag(tag string) bool {
	return slices.Contains(b.Tags, tag)
}

// EnsureUUID assigns a new identifier if none is set.
func (b *Base) EnsureUUID() {
	if b.UUID == "" {
		b.UUID = NewUUID()
	}
}

func (b Base) clone() Base {
	b.Names = maps.Clone(b.Names)
	b.Tags = slices.Clone(b.Tags)
	return b
}

// NewUUID generates a UUID v7 string.
func NewUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// namesOf returns the sorted keys of a deep relation map, or nil when the
// relation is empty.
func namesOf[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// resolveNames looks up every name through lookup and returns the deep
// relation map. The first unresolved name fails the whole conversion.
func resolveNames[T any](lookup func(string) (T, bool), kind Kind, owner string, names []string) (map[string]T, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make(map[string]T, len(names))
	for _, n := range names {
		v, ok := lookup(n)
		if !ok {
			return nil, ReferenceNotFound(kind, n, owner)
		}
		out[n] = v
	}
	return out, nil
}
