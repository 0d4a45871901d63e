package types

// CatalogResolver looks up deep catalog entities by name. *Catalog
// implements it; FromShallow conversions take it as an injected dependency.
type CatalogResolver interface {
	InformationSourceType(name string) (*InformationSourceType, bool)
	InformationSource(name string) (*InformationSource, bool)
	Citation(name string) (*Citation, bool)
	UnitType(name string) (*UnitType, bool)
	Unit(name string) (*Unit, bool)
	ClassificationChoiceDescriptor(name string) (*ClassificationChoiceDescriptor, bool)
	ClassificationChoice(name string) (*ClassificationChoice, bool)
	ClassificationType(name string) (*ClassificationType, bool)
	Classification(name string) (*Classification, bool)
	FindingType(name string) (*FindingType, bool)
	InterventionType(name string) (*InterventionType, bool)
	Intervention(name string) (*Intervention, bool)
	Finding(name string) (*Finding, bool)
	Examination(name string) (*Examination, bool)
	IndicationType(name string) (*IndicationType, bool)
	Indication(name string) (*Indication, bool)
}

// LedgerResolver looks up persisted ledger entities that other ledger
// entities reference without owning them.
type LedgerResolver interface {
	Center(uuid string) (*Center, error)
	Examiner(uuid string) (*Examiner, error)
	Patient(uuid string) (*Patient, error)
}
