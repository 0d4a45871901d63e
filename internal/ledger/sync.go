package ledger

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// Syncer brings shallow ledger records into the store. Each call resolves
// the record's references, validates its values, upserts it by identifier
// and then recurses into its nested children. A Syncer is not safe for
// concurrent use.
type Syncer struct {
	ledger      *Ledger
	logger      *zap.SugaredLogger
	prevalidate bool
}

// SyncOption configures a Syncer.
type SyncOption func(*Syncer)

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) SyncOption {
	return func(s *Syncer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPrevalidation controls whether the whole nested record is resolved
// and validated before the first write. It is on by default. When off, each
// record is checked just before it is written, and a failure deep in the
// tree leaves its already written ancestors in place.
func WithPrevalidation(on bool) SyncOption {
	return func(s *Syncer) { s.prevalidate = on }
}

// NewSyncer returns a Syncer writing through l.
func NewSyncer(l *Ledger, opts ...SyncOption) *Syncer {
	s := &Syncer{ledger: l, logger: zap.NewNop().Sugar(), prevalidate: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ledger returns the ledger the Syncer writes through.
func (s *Syncer) Ledger() *Ledger { return s.ledger }

// Sync upserts rec and its nested children and returns the stored record
// tree. Records without an identifier get a new UUID v7, written back to
// rec; nested children get their parent identifier set from their owner.
func (s *Syncer) Sync(rec types.LedgerRecord) (types.LedgerRecord, error) {
	if err := s.sync(rec); err != nil {
		return nil, err
	}
	return s.ledger.ShallowTree(rec.Kind(), rec.GetUUID())
}

func (s *Syncer) sync(rec types.LedgerRecord) error {
	if rec == nil {
		return errors.Wrap(types.ErrInvalidData, "nil record")
	}
	prepare(rec)

	if s.prevalidate {
		res := newResolver(s.ledger)
		if err := s.checkTree(rec, res); err != nil {
			return err
		}
	}
	return s.write(rec)
}

// prepare assigns missing identifiers and links nested children to their
// owner, recursively.
func prepare(rec types.LedgerRecord) {
	if rec.GetUUID() == "" {
		rec.SetUUID(types.NewUUID())
	}
	for _, c := range rec.Children() {
		c.SetParentUUID(rec.GetUUID())
		prepare(c)
	}
}

// checkTree validates rec and its children in write order. Each record is
// registered as pending once checked so that its children resolve it.
func (s *Syncer) checkTree(rec types.LedgerRecord, res *resolver) error {
	if err := s.check(rec, res); err != nil {
		return err
	}
	res.add(rec)
	for _, c := range rec.Children() {
		if err := s.checkTree(c, res); err != nil {
			return err
		}
	}
	return nil
}

func (s *Syncer) write(rec types.LedgerRecord) error {
	if !s.prevalidate {
		if err := s.check(rec, newResolver(s.ledger)); err != nil {
			return err
		}
	}
	t, err := s.ledger.table(rec.Kind())
	if err != nil {
		return err
	}
	_, created, err := t.UpdateOrCreate(rec.GetUUID(), rec)
	if err != nil {
		return err
	}
	s.logger.Debugw("Synced record", "kind", rec.Kind(), "uuid", rec.GetUUID(), "created", created)
	for _, c := range rec.Children() {
		if err := s.write(c); err != nil {
			return err
		}
	}
	return nil
}

// check resolves the references of a single record and validates it.
func (s *Syncer) check(rec types.LedgerRecord, res *resolver) error {
	refs, err := extractRefs(rec)
	if err != nil {
		return err
	}
	var parent types.LedgerRecord
	for _, rf := range refs {
		got, err := res.resolve(rf, rec)
		if err != nil {
			return err
		}
		if _, ok := rf.(parentRef); ok {
			parent = got
		}
	}
	return s.validate(rec, parent, res)
}

// validate applies the conversion checks of each kind together with the
// structural checks that depend on the record's owner.
func (s *Syncer) validate(rec types.LedgerRecord, parent types.LedgerRecord, res *resolver) error {
	cat := s.ledger.catalog
	switch r := rec.(type) {
	case *types.CenterShallow:
		_, err := types.CenterFromShallow(r.Detached().(*types.CenterShallow))
		return err
	case *types.ExaminerShallow:
		return nil
	case *types.PatientShallow:
		_, err := types.PatientFromShallow(r, res)
		return err
	case *types.PatientExaminationShallow:
		_, err := types.PatientExaminationFromShallow(r.Detached().(*types.PatientExaminationShallow), cat, res)
		return err
	case *types.PatientFindingShallow:
		_, err := types.PatientFindingFromShallow(r.Detached().(*types.PatientFindingShallow), cat)
		return err
	case *types.PatientFindingClassificationsShallow:
		return s.checkSingleClassifications(r)
	case *types.PatientFindingClassificationChoiceShallow:
		if _, _, err := types.ResolveChoice(r, cat); err != nil {
			return err
		}
		finding, err := res.record(types.KindPatientFinding, parent.ParentUUID(), parent)
		if err != nil {
			return err
		}
		name := finding.(*types.PatientFindingShallow).Finding
		fd, ok := cat.Finding(name)
		if !ok {
			return types.ReferenceNotFound(types.KindFinding, name, owner(finding))
		}
		return types.CheckFindingClassification(fd, r.Classification, r.UUID)
	case *types.PatientFindingClassificationChoiceDescriptorShallow:
		choiceName := parent.(*types.PatientFindingClassificationChoiceShallow).Choice
		choice, ok := cat.ClassificationChoice(choiceName)
		if !ok {
			return types.ReferenceNotFound(types.KindClassificationChoice, choiceName, owner(parent))
		}
		d, err := types.PatientFindingClassificationChoiceDescriptorFromShallow(r, cat, choice)
		if err != nil {
			return err
		}
		r.Value = d.Value.Raw()
		return nil
	case *types.PatientIndicationShallow:
		_, err := types.PatientIndicationFromShallow(r, cat)
		return err
	}
	return errors.Wrapf(types.ErrUnknownKind, "%T is not a ledger record", rec)
}

// checkSingleClassifications enforces that a patient finding owns at most
// one classifications record.
func (s *Syncer) checkSingleClassifications(r *types.PatientFindingClassificationsShallow) error {
	existing, err := s.ledger.Children(types.KindPatientFindingClassifications, r.PatientFindingUUID)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.GetUUID() != r.UUID {
			return types.ValidationFailure(r.Kind(), r.UUID, "patient_finding_uuid",
				"patient finding "+r.PatientFindingUUID+" already has classifications "+e.GetUUID())
		}
	}
	return nil
}

// SyncCenter upserts a center and its examiners.
func (s *Syncer) SyncCenter(rec *types.CenterShallow) (*types.Center, error) {
	if err := s.sync(rec); err != nil {
		return nil, err
	}
	return s.ledger.Center(rec.UUID)
}

// SyncExaminer upserts an examiner. Its center must exist.
func (s *Syncer) SyncExaminer(rec *types.ExaminerShallow) (*types.Examiner, error) {
	if err := s.sync(rec); err != nil {
		return nil, err
	}
	return s.ledger.Examiner(rec.UUID)
}

// SyncPatient upserts a patient.
func (s *Syncer) SyncPatient(rec *types.PatientShallow) (*types.Patient, error) {
	if err := s.sync(rec); err != nil {
		return nil, err
	}
	return s.ledger.Patient(rec.UUID)
}

// SyncPatientExamination upserts an examination with its findings and
// indications. The patient must exist.
func (s *Syncer) SyncPatientExamination(rec *types.PatientExaminationShallow) (*types.PatientExamination, error) {
	if err := s.sync(rec); err != nil {
		return nil, err
	}
	return s.ledger.PatientExamination(rec.UUID)
}

func (s *Syncer) SyncPatientFinding(rec *types.PatientFindingShallow) (*types.PatientFinding, error) {
	if err := s.sync(rec); err != nil {
		return nil, err
	}
	return s.ledger.PatientFinding(rec.UUID)
}

func (s *Syncer) SyncPatientFindingClassifications(rec *types.PatientFindingClassificationsShallow) (*types.PatientFindingClassifications, error) {
	if err := s.sync(rec); err != nil {
		return nil, err
	}
	return s.ledger.PatientFindingClassifications(rec.UUID)
}

func (s *Syncer) SyncPatientFindingClassificationChoice(rec *types.PatientFindingClassificationChoiceShallow) (*types.PatientFindingClassificationChoice, error) {
	if err := s.sync(rec); err != nil {
		return nil, err
	}
	return s.ledger.PatientFindingClassificationChoice(rec.UUID)
}

func (s *Syncer) SyncPatientFindingClassificationChoiceDescriptor(rec *types.PatientFindingClassificationChoiceDescriptorShallow) (*types.PatientFindingClassificationChoiceDescriptor, error) {
	if err := s.sync(rec); err != nil {
		return nil, err
	}
	return s.ledger.PatientFindingClassificationChoiceDescriptor(rec.UUID)
}

func (s *Syncer) SyncPatientIndication(rec *types.PatientIndicationShallow) (*types.PatientIndication, error) {
	if err := s.sync(rec); err != nil {
		return nil, err
	}
	return s.ledger.PatientIndication(rec.UUID)
}

// AppendFinding adds a finding to a stored examination and returns the
// updated examination.
func (s *Syncer) AppendFinding(examinationID string, f *types.PatientFindingShallow) (*types.PatientExamination, error) {
	f.PatientExaminationUUID = examinationID
	if err := s.sync(f); err != nil {
		return nil, err
	}
	return s.ledger.PatientExamination(examinationID)
}

// AppendIndication adds an indication to a stored examination and returns
// the updated examination.
func (s *Syncer) AppendIndication(examinationID string, i *types.PatientIndicationShallow) (*types.PatientExamination, error) {
	i.PatientExaminationUUID = examinationID
	if err := s.sync(i); err != nil {
		return nil, err
	}
	return s.ledger.PatientExamination(examinationID)
}

// RemoveFinding deletes a finding of an examination, with everything it
// owns, and returns the updated examination.
func (s *Syncer) RemoveFinding(examinationID, findingID string) (*types.PatientExamination, error) {
	if err := s.removeChild(types.KindPatientFinding, examinationID, findingID); err != nil {
		return nil, err
	}
	return s.ledger.PatientExamination(examinationID)
}

// RemoveIndication deletes an indication of an examination and returns the
// updated examination.
func (s *Syncer) RemoveIndication(examinationID, indicationID string) (*types.PatientExamination, error) {
	if err := s.removeChild(types.KindPatientIndication, examinationID, indicationID); err != nil {
		return nil, err
	}
	return s.ledger.PatientExamination(examinationID)
}

func (s *Syncer) removeChild(kind types.Kind, parentID, id string) error {
	rec, err := s.ledger.Record(kind, id)
	if errors.Is(err, types.ErrNotFound) {
		return types.ReferenceNotFound(kind, id, "patient_examination \""+parentID+"\"")
	}
	if err != nil {
		return err
	}
	if rec.ParentUUID() != parentID {
		return types.ReferenceNotFound(kind, id, "patient_examination \""+parentID+"\"")
	}
	if err := s.ledger.Delete(kind, id); err != nil {
		return err
	}
	s.logger.Infow("Removed record", "kind", kind, "uuid", id, "parent", parentID)
	return nil
}
