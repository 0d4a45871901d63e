package types

// Catalog is the deep, materialized form of a knowledge base. Relations
// point directly at other catalog entities. A Catalog is read-only after
// Materialize returns and may be shared across goroutines.
type Catalog struct {
	InformationSourceTypes          map[string]*InformationSourceType
	InformationSources              map[string]*InformationSource
	Citations                       map[string]*Citation
	UnitTypes                       map[string]*UnitType
	Units                           map[string]*Unit
	ClassificationChoiceDescriptors map[string]*ClassificationChoiceDescriptor
	ClassificationChoices           map[string]*ClassificationChoice
	ClassificationTypes             map[string]*ClassificationType
	Classifications                 map[string]*Classification
	FindingTypes                    map[string]*FindingType
	InterventionTypes               map[string]*InterventionType
	Interventions                   map[string]*Intervention
	Findings                        map[string]*Finding
	Examinations                    map[string]*Examination
	IndicationTypes                 map[string]*IndicationType
	Indications                     map[string]*Indication
}

var _ CatalogResolver = (*Catalog)(nil)

// NewCatalog returns an empty catalog with every collection initialized.
func NewCatalog() *Catalog {
	return &Catalog{
		InformationSourceTypes:          map[string]*InformationSourceType{},
		InformationSources:              map[string]*InformationSource{},
		Citations:                       map[string]*Citation{},
		UnitTypes:                       map[string]*UnitType{},
		Units:                           map[string]*Unit{},
		ClassificationChoiceDescriptors: map[string]*ClassificationChoiceDescriptor{},
		ClassificationChoices:           map[string]*ClassificationChoice{},
		ClassificationTypes:             map[string]*ClassificationType{},
		Classifications:                 map[string]*Classification{},
		FindingTypes:                    map[string]*FindingType{},
		InterventionTypes:               map[string]*InterventionType{},
		Interventions:                   map[string]*Intervention{},
		Findings:                        map[string]*Finding{},
		Examinations:                    map[string]*Examination{},
		IndicationTypes:                 map[string]*IndicationType{},
		Indications:                     map[string]*Indication{},
	}
}

// Materialize converts every shallow record into its deep form. Kinds are
// converted leaves first so that each conversion resolves against entities
// already placed in the catalog. Any dangling name fails the whole call.
func (kb *KnowledgeBase) Materialize() (*Catalog, error) {
	c := NewCatalog()
	steps := []func() error{
		func() error {
			return materialize(kb.InformationSourceTypes, c.InformationSourceTypes, InformationSourceTypeFromShallow)
		},
		func() error {
			return materialize(kb.InformationSources, c.InformationSources, withResolver(InformationSourceFromShallow, c))
		},
		func() error { return materialize(kb.Citations, c.Citations, withResolver(CitationFromShallow, c)) },
		func() error { return materialize(kb.UnitTypes, c.UnitTypes, UnitTypeFromShallow) },
		func() error { return materialize(kb.Units, c.Units, withResolver(UnitFromShallow, c)) },
		func() error {
			return materialize(kb.ClassificationChoiceDescriptors, c.ClassificationChoiceDescriptors,
				withResolver(ClassificationChoiceDescriptorFromShallow, c))
		},
		func() error {
			return materialize(kb.ClassificationChoices, c.ClassificationChoices, withResolver(ClassificationChoiceFromShallow, c))
		},
		func() error { return materialize(kb.ClassificationTypes, c.ClassificationTypes, ClassificationTypeFromShallow) },
		func() error {
			return materialize(kb.Classifications, c.Classifications, withResolver(ClassificationFromShallow, c))
		},
		func() error { return materialize(kb.FindingTypes, c.FindingTypes, FindingTypeFromShallow) },
		func() error { return materialize(kb.InterventionTypes, c.InterventionTypes, InterventionTypeFromShallow) },
		func() error {
			return materialize(kb.Interventions, c.Interventions, withResolver(InterventionFromShallow, c))
		},
		func() error { return materialize(kb.Findings, c.Findings, withResolver(FindingFromShallow, c)) },
		func() error { return materialize(kb.Examinations, c.Examinations, withResolver(ExaminationFromShallow, c)) },
		func() error { return materialize(kb.IndicationTypes, c.IndicationTypes, IndicationTypeFromShallow) },
		func() error { return materialize(kb.Indications, c.Indications, withResolver(IndicationFromShallow, c)) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func materialize[S, D any](src map[string]S, dst map[string]D, conv func(S) (D, error)) error {
	// Sorted so that the first failure reported is deterministic.
	for _, name := range namesOf(src) {
		d, err := conv(src[name])
		if err != nil {
			return err
		}
		dst[name] = d
	}
	return nil
}

func withResolver[S, D any](conv func(S, CatalogResolver) (D, error), r CatalogResolver) func(S) (D, error) {
	return func(s S) (D, error) { return conv(s, r) }
}

// Shallow converts every deep entity back to its shallow form.
func (c *Catalog) Shallow() *KnowledgeBase {
	kb := NewKnowledgeBase()
	dematerialize(c.InformationSourceTypes, kb.InformationSourceTypes, (*InformationSourceType).ToShallow)
	dematerialize(c.InformationSources, kb.InformationSources, (*InformationSource).ToShallow)
	dematerialize(c.Citations, kb.Citations, (*Citation).ToShallow)
	dematerialize(c.UnitTypes, kb.UnitTypes, (*UnitType).ToShallow)
	dematerialize(c.Units, kb.Units, (*Unit).ToShallow)
	dematerialize(c.ClassificationChoiceDescriptors, kb.ClassificationChoiceDescriptors, (*ClassificationChoiceDescriptor).ToShallow)
	dematerialize(c.ClassificationChoices, kb.ClassificationChoices, (*ClassificationChoice).ToShallow)
	dematerialize(c.ClassificationTypes, kb.ClassificationTypes, (*ClassificationType).ToShallow)
	dematerialize(c.Classifications, kb.Classifications, (*Classification).ToShallow)
	dematerialize(c.FindingTypes, kb.FindingTypes, (*FindingType).ToShallow)
	dematerialize(c.InterventionTypes, kb.InterventionTypes, (*InterventionType).ToShallow)
	dematerialize(c.Interventions, kb.Interventions, (*Intervention).ToShallow)
	dematerialize(c.Findings, kb.Findings, (*Finding).ToShallow)
	dematerialize(c.Examinations, kb.Examinations, (*Examination).ToShallow)
	dematerialize(c.IndicationTypes, kb.IndicationTypes, (*IndicationType).ToShallow)
	dematerialize(c.Indications, kb.Indications, (*Indication).ToShallow)
	return kb
}

func dematerialize[D, S any](src map[string]D, dst map[string]S, conv func(D) S) {
	for name, d := range src {
		dst[name] = conv(d)
	}
}

// Resolver methods.

func (c *Catalog) InformationSourceType(name string) (*InformationSourceType, bool) {
	v, ok := c.InformationSourceTypes[name]
	return v, ok
}

func (c *Catalog) InformationSource(name string) (*InformationSource, bool) {
	v, ok := c.InformationSources[name]
	return v, ok
}

func (c *Catalog) Citation(name string) (*Citation, bool) {
	v, ok := c.Citations[name]
	return v, ok
}

func (c *Catalog) UnitType(name string) (*UnitType, bool) {
	v, ok := c.UnitTypes[name]
	return v, ok
}

func (c *Catalog) Unit(name string) (*Unit, bool) {
	v, ok := c.Units[name]
	return v, ok
}

func (c *Catalog) ClassificationChoiceDescriptor(name string) (*ClassificationChoiceDescriptor, bool) {
	v, ok := c.ClassificationChoiceDescriptors[name]
	return v, ok
}

func (c *Catalog) ClassificationChoice(name string) (*ClassificationChoice, bool) {
	v, ok := c.ClassificationChoices[name]
	return v, ok
}

func (c *Catalog) ClassificationType(name string) (*ClassificationType, bool) {
	v, ok := c.ClassificationTypes[name]
	return v, ok
}

func (c *Catalog) Classification(name string) (*Classification, bool) {
	v, ok := c.Classifications[name]
	return v, ok
}

func (c *Catalog) FindingType(name string) (*FindingType, bool) {
	v, ok := c.FindingTypes[name]
	return v, ok
}

func (c *Catalog) InterventionType(name string) (*InterventionType, bool) {
	v, ok := c.InterventionTypes[name]
	return v, ok
}

func (c *Catalog) Intervention(name string) (*Intervention, bool) {
	v, ok := c.Interventions[name]
	return v, ok
}

func (c *Catalog) Finding(name string) (*Finding, bool) {
	v, ok := c.Findings[name]
	return v, ok
}

func (c *Catalog) Examination(name string) (*Examination, bool) {
	v, ok := c.Examinations[name]
	return v, ok
}

func (c *Catalog) IndicationType(name string) (*IndicationType, bool) {
	v, ok := c.IndicationTypes[name]
	return v, ok
}

func (c *Catalog) Indication(name string) (*Indication, bool) {
	v, ok := c.Indications[name]
	return v, ok
}
