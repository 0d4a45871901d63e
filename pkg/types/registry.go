package types

import (
	"slices"

	"github.com/cockroachdb/errors"
)

// KindInfo describes one entity kind.
type KindInfo struct {
	Kind    Kind
	Catalog bool   // catalog kinds are merged from modules; ledger kinds are persisted
	Table   string // store table name, ledger kinds only
	Parent  Kind   // owning kind, ledger kinds only
	Nested  bool   // records are embedded in the parent's shallow form

	newRecord func() any
}

// NewRecord returns a zero shallow record of the kind, ready for decoding.
func (k KindInfo) NewRecord() any { return k.newRecord() }

// KindRegistry maps kind names to their descriptions. It is built once by
// NewKindRegistry and never modified afterwards.
type KindRegistry struct {
	order  []Kind
	byKind map[Kind]KindInfo
}

// NewKindRegistry returns the registry of every catalog and ledger kind.
// Catalog kinds are listed in materialization order and ledger kinds parents
// first.
func NewKindRegistry() *KindRegistry {
	infos := []KindInfo{
		catalogKind(KindInformationSourceType, func() any { return &InformationSourceType{} }),
		catalogKind(KindInformationSource, func() any { return &InformationSourceShallow{} }),
		catalogKind(KindCitation, func() any { return &CitationShallow{} }),
		catalogKind(KindUnitType, func() any { return &UnitType{} }),
		catalogKind(KindUnit, func() any { return &UnitShallow{} }),
		catalogKind(KindClassificationChoiceDescriptor, func() any { return &ClassificationChoiceDescriptorShallow{} }),
		catalogKind(KindClassificationChoice, func() any { return &ClassificationChoiceShallow{} }),
		catalogKind(KindClassificationType, func() any { return &ClassificationType{} }),
		catalogKind(KindClassification, func() any { return &ClassificationShallow{} }),
		catalogKind(KindFindingType, func() any { return &FindingType{} }),
		catalogKind(KindInterventionType, func() any { return &InterventionType{} }),
		catalogKind(KindIntervention, func() any { return &InterventionShallow{} }),
		catalogKind(KindFinding, func() any { return &FindingShallow{} }),
		catalogKind(KindExamination, func() any { return &ExaminationShallow{} }),
		catalogKind(KindIndicationType, func() any { return &IndicationType{} }),
		catalogKind(KindIndication, func() any { return &IndicationShallow{} }),

		ledgerKind(KindCenter, "", false, func() any { return &CenterShallow{} }),
		ledgerKind(KindExaminer, KindCenter, true, func() any { return &ExaminerShallow{} }),
		ledgerKind(KindPatient, "", false, func() any { return &PatientShallow{} }),
		ledgerKind(KindPatientExamination, KindPatient, false, func() any { return &PatientExaminationShallow{} }),
		ledgerKind(KindPatientFinding, KindPatientExamination, true, func() any { return &PatientFindingShallow{} }),
		ledgerKind(KindPatientFindingClassifications, KindPatientFinding, true,
			func() any { return &PatientFindingClassificationsShallow{} }),
		ledgerKind(KindPatientFindingClassificationChoice, KindPatientFindingClassifications, true,
			func() any { return &PatientFindingClassificationChoiceShallow{} }),
		ledgerKind(KindPatientFindingClassificationChoiceDescriptor, KindPatientFindingClassificationChoice, true,
			func() any { return &PatientFindingClassificationChoiceDescriptorShallow{} }),
		ledgerKind(KindPatientIndication, KindPatientExamination, true, func() any { return &PatientIndicationShallow{} }),
	}
	r := &KindRegistry{byKind: make(map[Kind]KindInfo, len(infos))}
	for _, info := range infos {
		r.order = append(r.order, info.Kind)
		r.byKind[info.Kind] = info
	}
	return r
}

func catalogKind(k Kind, newRecord func() any) KindInfo {
	return KindInfo{Kind: k, Catalog: true, newRecord: newRecord}
}

func ledgerKind(k Kind, parent Kind, nested bool, newRecord func() any) KindInfo {
	return KindInfo{Kind: k, Table: string(k), Parent: parent, Nested: nested, newRecord: newRecord}
}

// Lookup returns the description of kind.
func (r *KindRegistry) Lookup(kind Kind) (KindInfo, bool) {
	info, ok := r.byKind[kind]
	return info, ok
}

// Parse converts a user-supplied kind name. Returns ErrUnknownKind for
// names that are not registered.
func (r *KindRegistry) Parse(name string) (Kind, error) {
	k := Kind(name)
	if _, ok := r.byKind[k]; !ok {
		return "", errors.Wrapf(ErrUnknownKind, "%q", name)
	}
	return k, nil
}

// CatalogKinds returns the catalog kinds in materialization order.
func (r *KindRegistry) CatalogKinds() []Kind {
	return r.filter(func(i KindInfo) bool { return i.Catalog })
}

// LedgerKinds returns the ledger kinds, parents first.
func (r *KindRegistry) LedgerKinds() []Kind {
	return r.filter(func(i KindInfo) bool { return !i.Catalog })
}

// Children returns the ledger kinds owned by kind.
func (r *KindRegistry) Children(kind Kind) []Kind {
	return r.filter(func(i KindInfo) bool { return !i.Catalog && i.Parent == kind && kind != "" })
}

// NewLedgerRecord returns a zero shallow record of a ledger kind.
func (r *KindRegistry) NewLedgerRecord(kind Kind) (LedgerRecord, error) {
	info, ok := r.byKind[kind]
	if !ok || info.Catalog {
		return nil, errors.Wrapf(ErrUnknownKind, "%q is not a ledger kind", kind)
	}
	return info.newRecord().(LedgerRecord), nil
}

func (r *KindRegistry) filter(keep func(KindInfo) bool) []Kind {
	var out []Kind
	for _, k := range r.order {
		if keep(r.byKind[k]) {
			out = append(out, k)
		}
	}
	return slices.Clip(out)
}
