package types

// Examination is a kind of procedure (colonoscopy, gastroscopy) and the
// findings that can be recorded during it.
type Examination struct {
	Base     `yaml:",inline"`
	Findings map[string]*Finding `json:"findings,omitempty" yaml:"findings,omitempty"`
}

// ExaminationShallow is the shallow form of Examination.
type ExaminationShallow struct {
	Base     `yaml:",inline"`
	Findings []string `json:"findings,omitempty" yaml:"findings,omitempty"`
}

// ToShallow replaces the finding relation with its names.
func (e *Examination) ToShallow() *ExaminationShallow {
	return &ExaminationShallow{Base: e.Base.clone(), Findings: namesOf(e.Findings)}
}

// ExaminationFromShallow resolves the finding names through r.
func ExaminationFromShallow(s *ExaminationShallow, r CatalogResolver) (*Examination, error) {
	f, err := resolveNames(r.Finding, KindFinding, ownerOf(KindExamination, s.Name), s.Findings)
	if err != nil {
		return nil, err
	}
	return &Examination{Base: s.Base.clone(), Findings: f}, nil
}

// HasFinding reports whether the finding can be recorded during e.
func (e *Examination) HasFinding(name string) bool {
	_, ok := e.Findings[name]
	return ok
}

// IndicationType groups indications (screening, surveillance, symptom).
type IndicationType struct {
	Base `yaml:",inline"`
}

// ToShallow returns a copy of t.
func (t *IndicationType) ToShallow() *IndicationType {
	return &IndicationType{Base: t.Base.clone()}
}

// IndicationTypeFromShallow returns a copy of s.
func IndicationTypeFromShallow(s *IndicationType) (*IndicationType, error) {
	return &IndicationType{Base: s.Base.clone()}, nil
}

// Indication is a reason for performing an examination.
type Indication struct {
	Base          `yaml:",inline"`
	Types         map[string]*IndicationType `json:"types,omitempty" yaml:"types,omitempty"`
	Examinations  map[string]*Examination    `json:"examinations,omitempty" yaml:"examinations,omitempty"`
	Interventions map[string]*Intervention   `json:"interventions,omitempty" yaml:"interventions,omitempty"`
}

// IndicationShallow is the shallow form of Indication.
type IndicationShallow struct {
	Base          `yaml:",inline"`
	Types         []string `json:"types,omitempty" yaml:"types,omitempty"`
	Examinations  []string `json:"examinations,omitempty" yaml:"examinations,omitempty"`
	Interventions []string `json:"interventions,omitempty" yaml:"interventions,omitempty"`
}

// ToShallow replaces every relation with its names.
func (i *Indication) ToShallow() *IndicationShallow {
	return &IndicationShallow{
		Base:          i.Base.clone(),
		Types:         namesOf(i.Types),
		Examinations:  namesOf(i.Examinations),
		Interventions: namesOf(i.Interventions),
	}
}

// IndicationFromShallow resolves type, examination and intervention names
// through r.
func IndicationFromShallow(s *IndicationShallow, r CatalogResolver) (*Indication, error) {
	owner := ownerOf(KindIndication, s.Name)
	typ, err := resolveNames(r.IndicationType, KindIndicationType, owner, s.Types)
	if err != nil {
		return nil, err
	}
	ex, err := resolveNames(r.Examination, KindExamination, owner, s.Examinations)
	if err != nil {
		return nil, err
	}
	iv, err := resolveNames(r.Intervention, KindIntervention, owner, s.Interventions)
	if err != nil {
		return nil, err
	}
	return &Indication{Base: s.Base.clone(), Types: typ, Examinations: ex, Interventions: iv}, nil
}
