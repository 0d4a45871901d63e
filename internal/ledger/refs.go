package ledger

import (
	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// ref is a foreign-key-shaped field taken out of a shallow record before it
// is written. The concrete types are the only implementations.
type ref interface {
	field() string
}

// catalogRef names a catalog entity.
type catalogRef struct {
	kind types.Kind
	name string
	fld  string
}

// ledgerRef identifies a ledger entity the record points at without
// owning or being owned by it. An empty identifier means no reference.
type ledgerRef struct {
	kind types.Kind
	id   string
	fld  string
}

// parentRef identifies the record's owner. It is always required.
type parentRef struct {
	kind types.Kind
	id   string
	fld  string
}

func (r catalogRef) field() string { return r.fld }
func (r ledgerRef) field() string  { return r.fld }
func (r parentRef) field() string  { return r.fld }

// extractRefs lists the references held by rec. Required names and
// identifiers that are empty fail validation here.
func extractRefs(rec types.LedgerRecord) ([]ref, error) {
	var refs []ref
	switch r := rec.(type) {
	case *types.CenterShallow:
	case *types.ExaminerShallow:
		refs = append(refs, parentRef{types.KindCenter, r.CenterUUID, "center_uuid"})
	case *types.PatientShallow:
		refs = append(refs, ledgerRef{types.KindCenter, r.CenterUUID, "center_uuid"})
	case *types.PatientExaminationShallow:
		refs = append(refs,
			parentRef{types.KindPatient, r.PatientUUID, "patient_uuid"},
			catalogRef{types.KindExamination, r.Examination, "examination"},
			ledgerRef{types.KindExaminer, r.ExaminerUUID, "examiner_uuid"})
	case *types.PatientFindingShallow:
		refs = append(refs,
			parentRef{types.KindPatientExamination, r.PatientExaminationUUID, "patient_examination_uuid"},
			catalogRef{types.KindFinding, r.Finding, "finding"})
	case *types.PatientFindingClassificationsShallow:
		refs = append(refs, parentRef{types.KindPatientFinding, r.PatientFindingUUID, "patient_finding_uuid"})
	case *types.PatientFindingClassificationChoiceShallow:
		refs = append(refs,
			parentRef{types.KindPatientFindingClassifications, r.ClassificationsUUID, "classifications_uuid"},
			catalogRef{types.KindClassification, r.Classification, "classification"},
			catalogRef{types.KindClassificationChoice, r.Choice, "choice"})
	case *types.PatientFindingClassificationChoiceDescriptorShallow:
		refs = append(refs,
			parentRef{types.KindPatientFindingClassificationChoice, r.ChoiceUUID, "choice_uuid"},
			catalogRef{types.KindClassificationChoiceDescriptor, r.Descriptor, "descriptor"})
	case *types.PatientIndicationShallow:
		refs = append(refs,
			parentRef{types.KindPatientExamination, r.PatientExaminationUUID, "patient_examination_uuid"},
			catalogRef{types.KindIndication, r.Indication, "indication"})
	default:
		return nil, errors.Wrapf(types.ErrUnknownKind, "%T is not a ledger record", rec)
	}

	for _, r := range refs {
		switch r := r.(type) {
		case catalogRef:
			if r.name == "" {
				return nil, types.ValidationFailure(rec.Kind(), rec.GetUUID(), r.fld, "must not be empty")
			}
		case parentRef:
			if r.id == "" {
				return nil, types.ValidationFailure(rec.Kind(), rec.GetUUID(), r.fld, "must not be empty")
			}
		}
	}
	return refs, nil
}

// pendingKey identifies a record that is part of the subtree being synced
// but not yet written.
type pendingKey struct {
	kind types.Kind
	id   string
}

// resolver resolves references against the catalog, the records pending in
// the current sync call and the store, in that order for ledger records.
type resolver struct {
	ledger  *Ledger
	pending map[pendingKey]types.LedgerRecord
}

func newResolver(l *Ledger) *resolver {
	return &resolver{ledger: l, pending: make(map[pendingKey]types.LedgerRecord)}
}

func (r *resolver) add(rec types.LedgerRecord) {
	r.pending[pendingKey{rec.Kind(), rec.GetUUID()}] = rec
}

// resolve checks that ref points at an existing entity. For ledger
// references it returns the referenced shallow record; catalog references
// return nil.
func (r *resolver) resolve(rf ref, from types.LedgerRecord) (types.LedgerRecord, error) {
	switch rf := rf.(type) {
	case catalogRef:
		if !r.catalogHas(rf.kind, rf.name) {
			return nil, types.ReferenceNotFound(rf.kind, rf.name, owner(from))
		}
		return nil, nil
	case ledgerRef:
		if rf.id == "" {
			return nil, nil
		}
		return r.record(rf.kind, rf.id, from)
	case parentRef:
		return r.record(rf.kind, rf.id, from)
	}
	return nil, errors.AssertionFailedf("unhandled reference %T", rf)
}

// record returns the pending or stored record of kind. A missing record is
// a ReferenceError naming from as the owner.
func (r *resolver) record(kind types.Kind, id string, from types.LedgerRecord) (types.LedgerRecord, error) {
	if rec, ok := r.pending[pendingKey{kind, id}]; ok {
		return rec, nil
	}
	rec, err := r.ledger.Record(kind, id)
	if errors.Is(err, types.ErrNotFound) {
		return nil, types.ReferenceNotFound(kind, id, owner(from))
	}
	return rec, err
}

func (r *resolver) catalogHas(kind types.Kind, name string) bool {
	c := r.ledger.catalog
	var ok bool
	switch kind {
	case types.KindExamination:
		_, ok = c.Examination(name)
	case types.KindFinding:
		_, ok = c.Finding(name)
	case types.KindClassification:
		_, ok = c.Classification(name)
	case types.KindClassificationChoice:
		_, ok = c.ClassificationChoice(name)
	case types.KindClassificationChoiceDescriptor:
		_, ok = c.ClassificationChoiceDescriptor(name)
	case types.KindIndication:
		_, ok = c.Indication(name)
	}
	return ok
}

// The resolver also serves deep conversions, preferring pending records so
// that a subtree can be validated before its first write.

func (r *resolver) Center(id string) (*types.Center, error) {
	if rec, ok := r.pending[pendingKey{types.KindCenter, id}]; ok {
		return types.CenterFromShallow(rec.Detached().(*types.CenterShallow))
	}
	return r.ledger.Center(id)
}

func (r *resolver) Examiner(id string) (*types.Examiner, error) {
	if rec, ok := r.pending[pendingKey{types.KindExaminer, id}]; ok {
		return types.ExaminerFromShallow(rec.(*types.ExaminerShallow))
	}
	return r.ledger.Examiner(id)
}

func (r *resolver) Patient(id string) (*types.Patient, error) {
	if rec, ok := r.pending[pendingKey{types.KindPatient, id}]; ok {
		return types.PatientFromShallow(rec.(*types.PatientShallow), r)
	}
	return r.ledger.Patient(id)
}
