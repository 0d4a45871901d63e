package types

// UnitType groups units by measured quantity (length, volume, count).
type UnitType struct {
	Base `yaml:",inline"`
}

// ToShallow returns a copy of t.
func (t *UnitType) ToShallow() *UnitType {
	return &UnitType{Base: t.Base.clone()}
}

// UnitTypeFromShallow returns a copy of s.
func UnitTypeFromShallow(s *UnitType) (*UnitType, error) {
	return &UnitType{Base: s.Base.clone()}, nil
}

// Unit is a unit of measure referenced by numeric descriptors.
type Unit struct {
	Base         `yaml:",inline"`
	Abbreviation string               `json:"abbreviation,omitempty" yaml:"abbreviation,omitempty"`
	Types        map[string]*UnitType `json:"types,omitempty" yaml:"types,omitempty"`
}

// UnitShallow is the shallow form of Unit.
type UnitShallow struct {
	Base         `yaml:",inline"`
	Abbreviation string   `json:"abbreviation,omitempty" yaml:"abbreviation,omitempty"`
	Types        []string `json:"types,omitempty" yaml:"types,omitempty"`
}

// ToShallow replaces the type relation with its names.
func (u *Unit) ToShallow() *UnitShallow {
	return &UnitShallow{
		Base:         u.Base.clone(),
		Abbreviation: u.Abbreviation,
		Types:        namesOf(u.Types),
	}
}

// UnitFromShallow resolves the unit type names through r.
func UnitFromShallow(s *UnitShallow, r CatalogResolver) (*Unit, error) {
	typ, err := resolveNames(r.UnitType, KindUnitType, ownerOf(KindUnit, s.Name), s.Types)
	if err != nil {
		return nil, err
	}
	return &Unit{Base: s.Base.clone(), Abbreviation: s.Abbreviation, Types: typ}, nil
}
