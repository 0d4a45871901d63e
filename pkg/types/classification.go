package types

import "slices"

// ClassificationChoiceDescriptor declares one typed value that can be
// recorded alongside a classification choice, e.g. the size of a polyp in
// millimetres or its Paris morphology.
type ClassificationChoiceDescriptor struct {
	Base             `yaml:",inline"`
	ValueKind        DescriptorKind `json:"value_kind" yaml:"value_kind"`
	Unit             *Unit          `json:"unit,omitempty" yaml:"unit,omitempty"`
	Min              *float64       `json:"numeric_min,omitempty" yaml:"numeric_min,omitempty"`
	Max              *float64       `json:"numeric_max,omitempty" yaml:"numeric_max,omitempty"`
	Options          []string       `json:"selection_options,omitempty" yaml:"selection_options,omitempty"`
	Multiple         bool           `json:"selection_multiple,omitempty" yaml:"selection_multiple,omitempty"`
	Required         bool           `json:"required,omitempty" yaml:"required,omitempty"`
	DefaultNumeric   *float64       `json:"default_numeric,omitempty" yaml:"default_numeric,omitempty"`
	DefaultText      *string        `json:"default_text,omitempty" yaml:"default_text,omitempty"`
	DefaultBoolean   *bool          `json:"default_boolean,omitempty" yaml:"default_boolean,omitempty"`
	DefaultSelection []string       `json:"default_selection,omitempty" yaml:"default_selection,omitempty"`
}

// ClassificationChoiceDescriptorShallow is the shallow form of
// ClassificationChoiceDescriptor; Unit holds the unit name.
type ClassificationChoiceDescriptorShallow struct {
	Base             `yaml:",inline"`
	ValueKind        DescriptorKind `json:"value_kind" yaml:"value_kind"`
	Unit             string         `json:"unit,omitempty" yaml:"unit,omitempty"`
	Min              *float64       `json:"numeric_min,omitempty" yaml:"numeric_min,omitempty"`
	Max              *float64       `json:"numeric_max,omitempty" yaml:"numeric_max,omitempty"`
	Options          []string       `json:"selection_options,omitempty" yaml:"selection_options,omitempty"`
	Multiple         bool           `json:"selection_multiple,omitempty" yaml:"selection_multiple,omitempty"`
	Required         bool           `json:"required,omitempty" yaml:"required,omitempty"`
	DefaultNumeric   *float64       `json:"default_numeric,omitempty" yaml:"default_numeric,omitempty"`
	DefaultText      *string        `json:"default_text,omitempty" yaml:"default_text,omitempty"`
	DefaultBoolean   *bool          `json:"default_boolean,omitempty" yaml:"default_boolean,omitempty"`
	DefaultSelection []string       `json:"default_selection,omitempty" yaml:"default_selection,omitempty"`
}

// ToShallow replaces the unit with its name.
func (d *ClassificationChoiceDescriptor) ToShallow() *ClassificationChoiceDescriptorShallow {
	s := &ClassificationChoiceDescriptorShallow{
		Base:             d.Base.clone(),
		ValueKind:        d.ValueKind,
		Min:              d.Min,
		Max:              d.Max,
		Options:          slices.Clone(d.Options),
		Multiple:         d.Multiple,
		Required:         d.Required,
		DefaultNumeric:   d.DefaultNumeric,
		DefaultText:      d.DefaultText,
		DefaultBoolean:   d.DefaultBoolean,
		DefaultSelection: slices.Clone(d.DefaultSelection),
	}
	if d.Unit != nil {
		s.Unit = d.Unit.Name
	}
	return s
}

// ClassificationChoiceDescriptorFromShallow resolves the unit through r and
// checks the declared kind and defaults for consistency.
func ClassificationChoiceDescriptorFromShallow(s *ClassificationChoiceDescriptorShallow, r CatalogResolver) (*ClassificationChoiceDescriptor, error) {
	if !IsValidDescriptorKind(s.ValueKind) {
		return nil, ValidationFailure(KindClassificationChoiceDescriptor, s.Name, "value_kind",
			"must be one of numeric, text, boolean, selection")
	}
	d := &ClassificationChoiceDescriptor{
		Base:             s.Base.clone(),
		ValueKind:        s.ValueKind,
		Min:              s.Min,
		Max:              s.Max,
		Options:          slices.Clone(s.Options),
		Multiple:         s.Multiple,
		Required:         s.Required,
		DefaultNumeric:   s.DefaultNumeric,
		DefaultText:      s.DefaultText,
		DefaultBoolean:   s.DefaultBoolean,
		DefaultSelection: slices.Clone(s.DefaultSelection),
	}
	if s.Unit != "" {
		u, ok := r.Unit(s.Unit)
		if !ok {
			return nil, ReferenceNotFound(KindUnit, s.Unit, ownerOf(KindClassificationChoiceDescriptor, s.Name))
		}
		d.Unit = u
	}
	if d.Min != nil && d.Max != nil && *d.Min > *d.Max {
		return nil, ValidationFailure(KindClassificationChoiceDescriptor, s.Name, "numeric_min",
			"exceeds numeric_max")
	}
	if d.ValueKind == DescriptorSelection && len(d.Options) == 0 {
		return nil, ValidationFailure(KindClassificationChoiceDescriptor, s.Name, "selection_options",
			"selection descriptors need at least one option")
	}
	if d.ValueKind == DescriptorSelection && len(d.DefaultSelection) > 0 {
		if _, err := d.Validate(d.DefaultSelection); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// ClassificationChoice is one option of a classification, e.g. "paris_is"
// within the Paris classification.
type ClassificationChoice struct {
	Base        `yaml:",inline"`
	Descriptors map[string]*ClassificationChoiceDescriptor `json:"descriptors,omitempty" yaml:"descriptors,omitempty"`
}

// ClassificationChoiceShallow is the shallow form of ClassificationChoice.
type ClassificationChoiceShallow struct {
	Base        `yaml:",inline"`
	Descriptors []string `json:"descriptors,omitempty" yaml:"descriptors,omitempty"`
}

// ToShallow replaces the descriptor relation with its names.
func (c *ClassificationChoice) ToShallow() *ClassificationChoiceShallow {
	return &ClassificationChoiceShallow{Base: c.Base.clone(), Descriptors: namesOf(c.Descriptors)}
}

// ClassificationChoiceFromShallow resolves the descriptor names through r.
func ClassificationChoiceFromShallow(s *ClassificationChoiceShallow, r CatalogResolver) (*ClassificationChoice, error) {
	desc, err := resolveNames(r.ClassificationChoiceDescriptor, KindClassificationChoiceDescriptor,
		ownerOf(KindClassificationChoice, s.Name), s.Descriptors)
	if err != nil {
		return nil, err
	}
	return &ClassificationChoice{Base: s.Base.clone(), Descriptors: desc}, nil
}

// HasDescriptor reports whether the choice declares the named descriptor.
func (c *ClassificationChoice) HasDescriptor(name string) bool {
	_, ok := c.Descriptors[name]
	return ok
}

// ClassificationType groups classifications (morphology, location, size).
type ClassificationType struct {
	Base `yaml:",inline"`
}

// ToShallow returns a copy of t.
func (t *ClassificationType) ToShallow() *ClassificationType {
	return &ClassificationType{Base: t.Base.clone()}
}

// ClassificationTypeFromShallow returns a copy of s.
func ClassificationTypeFromShallow(s *ClassificationType) (*ClassificationType, error) {
	return &ClassificationType{Base: s.Base.clone()}, nil
}

// Classification is a named scheme with a fixed set of choices.
type Classification struct {
	Base    `yaml:",inline"`
	Choices map[string]*ClassificationChoice `json:"choices,omitempty" yaml:"choices,omitempty"`
	Types   map[string]*ClassificationType   `json:"types,omitempty" yaml:"types,omitempty"`
}

// ClassificationShallow is the shallow form of Classification.
type ClassificationShallow struct {
	Base    `yaml:",inline"`
	Choices []string `json:"choices,omitempty" yaml:"choices,omitempty"`
	Types   []string `json:"types,omitempty" yaml:"types,omitempty"`
}

// ToShallow replaces the choice and type relations with their names.
func (c *Classification) ToShallow() *ClassificationShallow {
	return &ClassificationShallow{
		Base:    c.Base.clone(),
		Choices: namesOf(c.Choices),
		Types:   namesOf(c.Types),
	}
}

// ClassificationFromShallow resolves choice and type names through r.
func ClassificationFromShallow(s *ClassificationShallow, r CatalogResolver) (*Classification, error) {
	owner := ownerOf(KindClassification, s.Name)
	choices, err := resolveNames(r.ClassificationChoice, KindClassificationChoice, owner, s.Choices)
	if err != nil {
		return nil, err
	}
	typ, err := resolveNames(r.ClassificationType, KindClassificationType, owner, s.Types)
	if err != nil {
		return nil, err
	}
	return &Classification{Base: s.Base.clone(), Choices: choices, Types: typ}, nil
}

// HasChoice reports whether name is one of the classification's choices.
func (c *Classification) HasChoice(name string) bool {
	_, ok := c.Choices[name]
	return ok
}
