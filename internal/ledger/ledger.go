// Package ledger reads, writes and deletes patient ledger entities.
//
// Ledger loads deep entities out of a types.Store, reassembling nested
// shallow records from their parent_uuid links and converting them against
// the catalog. Syncer implements the upsert protocol that brings shallow
// records from import adapters into the store.
package ledger

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// Ledger is a read view over a store, resolved against a catalog.
// Ledger implements types.LedgerResolver.
type Ledger struct {
	store   types.Store
	catalog types.CatalogResolver
	kinds   *types.KindRegistry
}

var _ types.LedgerResolver = (*Ledger)(nil)

// New returns a Ledger over an attached store.
func New(store types.Store, catalog types.CatalogResolver, kinds *types.KindRegistry) *Ledger {
	if kinds == nil {
		kinds = types.NewKindRegistry()
	}
	return &Ledger{store: store, catalog: catalog, kinds: kinds}
}

func (l *Ledger) table(kind types.Kind) (types.Table, error) {
	return l.store.GetTable(kind)
}

// Record returns the stored, detached shallow record.
func (l *Ledger) Record(kind types.Kind, id string) (types.LedgerRecord, error) {
	t, err := l.table(kind)
	if err != nil {
		return nil, err
	}
	return t.Get(id)
}

// ShallowTree returns the stored record with its nested children attached,
// recursively. Children that are owned but not nested, such as a patient's
// examinations, are not attached.
func (l *Ledger) ShallowTree(kind types.Kind, id string) (types.LedgerRecord, error) {
	rec, err := l.Record(kind, id)
	if err != nil {
		return nil, err
	}
	if err := l.attachChildren(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (l *Ledger) attachChildren(rec types.LedgerRecord) error {
	for _, child := range l.kinds.Children(rec.Kind()) {
		info, _ := l.kinds.Lookup(child)
		if !info.Nested {
			continue
		}
		children, err := l.Children(child, rec.GetUUID())
		if err != nil {
			return err
		}
		for _, c := range children {
			if err := l.attachChildren(c); err != nil {
				return err
			}
			if err := rec.AppendChild(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Children returns the stored records of kind owned by parentID, detached,
// in insertion order.
func (l *Ledger) Children(kind types.Kind, parentID string) ([]types.LedgerRecord, error) {
	t, err := l.table(kind)
	if err != nil {
		return nil, err
	}
	return t.Fetch(types.Filter{types.FilterParentUUID: parentID})
}

// Roots returns every stored record that is not embedded in its parent's
// shallow form, with its nested children attached. Records are grouped by
// kind, parents first, and in insertion order within a kind.
func (l *Ledger) Roots() ([]types.LedgerRecord, error) {
	var out []types.LedgerRecord
	for _, kind := range l.kinds.LedgerKinds() {
		if info, _ := l.kinds.Lookup(kind); info.Nested {
			continue
		}
		t, err := l.table(kind)
		if err != nil {
			return nil, err
		}
		recs, err := t.Fetch(nil)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			if err := l.attachChildren(rec); err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

// Delete removes the record and every record it owns.
func (l *Ledger) Delete(kind types.Kind, id string) error {
	t, err := l.table(kind)
	if err != nil {
		return err
	}
	return t.Delete(id)
}

// load fetches a record of kind, optionally with its nested children, and
// converts it to its deep form.
func load[S types.LedgerRecord, D any](l *Ledger, kind types.Kind, id string, tree bool, convert func(S) (D, error)) (D, error) {
	var zero D
	var rec types.LedgerRecord
	var err error
	if tree {
		rec, err = l.ShallowTree(kind, id)
	} else {
		rec, err = l.Record(kind, id)
	}
	if err != nil {
		return zero, err
	}
	s, ok := rec.(S)
	if !ok {
		return zero, errors.Wrapf(types.ErrInvalidData, "%s %s decoded as %T", kind, id, rec)
	}
	return convert(s)
}

// Center loads a center and its examiners.
func (l *Ledger) Center(id string) (*types.Center, error) {
	return load(l, types.KindCenter, id, true, types.CenterFromShallow)
}

// Examiner loads an examiner.
func (l *Ledger) Examiner(id string) (*types.Examiner, error) {
	return load(l, types.KindExaminer, id, false, types.ExaminerFromShallow)
}

// Patient loads a patient and the center it is registered at.
func (l *Ledger) Patient(id string) (*types.Patient, error) {
	return load(l, types.KindPatient, id, false, func(s *types.PatientShallow) (*types.Patient, error) {
		return types.PatientFromShallow(s, l)
	})
}

// PatientExamination loads an examination with its findings and
// indications.
func (l *Ledger) PatientExamination(id string) (*types.PatientExamination, error) {
	return load(l, types.KindPatientExamination, id, true,
		func(s *types.PatientExaminationShallow) (*types.PatientExamination, error) {
			return types.PatientExaminationFromShallow(s, l.catalog, l)
		})
}

// PatientExaminations loads every examination of a patient in insertion
// order.
func (l *Ledger) PatientExaminations(patientID string) ([]*types.PatientExamination, error) {
	recs, err := l.Children(types.KindPatientExamination, patientID)
	if err != nil {
		return nil, err
	}
	out := make([]*types.PatientExamination, 0, len(recs))
	for _, r := range recs {
		e, err := l.PatientExamination(r.GetUUID())
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (l *Ledger) PatientFinding(id string) (*types.PatientFinding, error) {
	return load(l, types.KindPatientFinding, id, true,
		func(s *types.PatientFindingShallow) (*types.PatientFinding, error) {
			return types.PatientFindingFromShallow(s, l.catalog)
		})
}

func (l *Ledger) PatientFindingClassifications(id string) (*types.PatientFindingClassifications, error) {
	return load(l, types.KindPatientFindingClassifications, id, true,
		func(s *types.PatientFindingClassificationsShallow) (*types.PatientFindingClassifications, error) {
			return types.PatientFindingClassificationsFromShallow(s, l.catalog)
		})
}

func (l *Ledger) PatientFindingClassificationChoice(id string) (*types.PatientFindingClassificationChoice, error) {
	return load(l, types.KindPatientFindingClassificationChoice, id, true,
		func(s *types.PatientFindingClassificationChoiceShallow) (*types.PatientFindingClassificationChoice, error) {
			return types.PatientFindingClassificationChoiceFromShallow(s, l.catalog)
		})
}

// PatientFindingClassificationChoiceDescriptor loads a descriptor value. The
// descriptor is checked against the catalog choice of its stored parent.
func (l *Ledger) PatientFindingClassificationChoiceDescriptor(id string) (*types.PatientFindingClassificationChoiceDescriptor, error) {
	return load(l, types.KindPatientFindingClassificationChoiceDescriptor, id, false,
		func(s *types.PatientFindingClassificationChoiceDescriptorShallow) (*types.PatientFindingClassificationChoiceDescriptor, error) {
			choice, err := l.catalogChoiceOf(s.ChoiceUUID)
			if err != nil {
				return nil, err
			}
			return types.PatientFindingClassificationChoiceDescriptorFromShallow(s, l.catalog, choice)
		})
}

func (l *Ledger) PatientIndication(id string) (*types.PatientIndication, error) {
	return load(l, types.KindPatientIndication, id, false,
		func(s *types.PatientIndicationShallow) (*types.PatientIndication, error) {
			return types.PatientIndicationFromShallow(s, l.catalog)
		})
}

// Load loads any ledger kind by identifier and returns its deep form.
func (l *Ledger) Load(kind types.Kind, id string) (any, error) {
	switch kind {
	case types.KindCenter:
		return l.Center(id)
	case types.KindExaminer:
		return l.Examiner(id)
	case types.KindPatient:
		return l.Patient(id)
	case types.KindPatientExamination:
		return l.PatientExamination(id)
	case types.KindPatientFinding:
		return l.PatientFinding(id)
	case types.KindPatientFindingClassifications:
		return l.PatientFindingClassifications(id)
	case types.KindPatientFindingClassificationChoice:
		return l.PatientFindingClassificationChoice(id)
	case types.KindPatientFindingClassificationChoiceDescriptor:
		return l.PatientFindingClassificationChoiceDescriptor(id)
	case types.KindPatientIndication:
		return l.PatientIndication(id)
	}
	return nil, errors.Wrapf(types.ErrUnknownKind, "%q is not a ledger kind", kind)
}

// catalogChoiceOf returns the catalog choice recorded by a stored patient
// choice, or nil when the patient choice is not stored.
func (l *Ledger) catalogChoiceOf(choiceID string) (*types.ClassificationChoice, error) {
	rec, err := l.Record(types.KindPatientFindingClassificationChoice, choiceID)
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s := rec.(*types.PatientFindingClassificationChoiceShallow)
	choice, ok := l.catalog.ClassificationChoice(s.Choice)
	if !ok {
		return nil, types.ReferenceNotFound(types.KindClassificationChoice, s.Choice, owner(rec))
	}
	return choice, nil
}

// owner formats a record for error messages.
func owner(rec types.LedgerRecord) string {
	return fmt.Sprintf("%s %q", rec.Kind(), rec.GetUUID())
}
