package types

// FindingType groups findings (lesion, anatomy, quality).
type FindingType struct {
	Base `yaml:",inline"`
}

// ToShallow returns a copy of t.
func (t *FindingType) ToShallow() *FindingType {
	return &FindingType{Base: t.Base.clone()}
}

// FindingTypeFromShallow returns a copy of s.
func FindingTypeFromShallow(s *FindingType) (*FindingType, error) {
	return &FindingType{Base: s.Base.clone()}, nil
}

// InterventionType groups interventions (resection, biopsy, marking).
type InterventionType struct {
	Base `yaml:",inline"`
}

// ToShallow returns a copy of t.
func (t *InterventionType) ToShallow() *InterventionType {
	return &InterventionType{Base: t.Base.clone()}
}

// InterventionTypeFromShallow returns a copy of s.
func InterventionTypeFromShallow(s *InterventionType) (*InterventionType, error) {
	return &InterventionType{Base: s.Base.clone()}, nil
}

// Intervention is a procedure that can follow a finding.
type Intervention struct {
	Base  `yaml:",inline"`
	Types map[string]*InterventionType `json:"types,omitempty" yaml:"types,omitempty"`
}

// InterventionShallow is the shallow form of Intervention.
type InterventionShallow struct {
	Base  `yaml:",inline"`
	Types []string `json:"types,omitempty" yaml:"types,omitempty"`
}

// ToShallow replaces the type relation with its names.
func (i *Intervention) ToShallow() *InterventionShallow {
	return &InterventionShallow{Base: i.Base.clone(), Types: namesOf(i.Types)}
}

// InterventionFromShallow resolves the type names through r.
func InterventionFromShallow(s *InterventionShallow, r CatalogResolver) (*Intervention, error) {
	typ, err := resolveNames(r.InterventionType, KindInterventionType, ownerOf(KindIntervention, s.Name), s.Types)
	if err != nil {
		return nil, err
	}
	return &Intervention{Base: s.Base.clone(), Types: typ}, nil
}

// Finding is an observation that can be recorded during an examination,
// together with the classifications that describe it.
type Finding struct {
	Base            `yaml:",inline"`
	Classifications map[string]*Classification `json:"classifications,omitempty" yaml:"classifications,omitempty"`
	Types           map[string]*FindingType    `json:"types,omitempty" yaml:"types,omitempty"`
	Interventions   map[string]*Intervention   `json:"interventions,omitempty" yaml:"interventions,omitempty"`
}

// FindingShallow is the shallow form of Finding.
type FindingShallow struct {
	Base            `yaml:",inline"`
	Classifications []string `json:"classifications,omitempty" yaml:"classifications,omitempty"`
	Types           []string `json:"types,omitempty" yaml:"types,omitempty"`
	Interventions   []string `json:"interventions,omitempty" yaml:"interventions,omitempty"`
}

// ToShallow replaces every relation with its names.
func (f *Finding) ToShallow() *FindingShallow {
	return &FindingShallow{
		Base:            f.Base.clone(),
		Classifications: namesOf(f.Classifications),
		Types:           namesOf(f.Types),
		Interventions:   namesOf(f.Interventions),
	}
}

// FindingFromShallow resolves classification, type and intervention names
// through r.
func FindingFromShallow(s *FindingShallow, r CatalogResolver) (*Finding, error) {
	owner := ownerOf(KindFinding, s.Name)
	cls, err := resolveNames(r.Classification, KindClassification, owner, s.Classifications)
	if err != nil {
		return nil, err
	}
	typ, err := resolveNames(r.FindingType, KindFindingType, owner, s.Types)
	if err != nil {
		return nil, err
	}
	iv, err := resolveNames(r.Intervention, KindIntervention, owner, s.Interventions)
	if err != nil {
		return nil, err
	}
	return &Finding{Base: s.Base.clone(), Classifications: cls, Types: typ, Interventions: iv}, nil
}

// HasClassification reports whether the finding can be described by the
// named classification.
func (f *Finding) HasClassification(name string) bool {
	_, ok := f.Classifications[name]
	return ok
}
