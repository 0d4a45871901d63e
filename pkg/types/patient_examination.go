package types

import "time"

// PatientExaminationShallow is the shallow form of PatientExamination.
// The patient owns the examination for lifecycle purposes. The catalog
// examination and the examiner are non-owning references. Findings and
// indications are nested.
type PatientExaminationShallow struct {
	UUID         string                      `json:"uuid" yaml:"uuid"`
	PatientUUID  string                      `json:"patient_uuid" yaml:"patient_uuid"`
	Examination  string                      `json:"examination" yaml:"examination"`
	ExaminerUUID string                      `json:"examiner_uuid,omitempty" yaml:"examiner_uuid,omitempty"`
	Date         *time.Time                  `json:"date,omitempty" yaml:"date,omitempty"`
	Findings     []*PatientFindingShallow    `json:"findings,omitempty" yaml:"findings,omitempty"`
	Indications  []*PatientIndicationShallow `json:"indications,omitempty" yaml:"indications,omitempty"`
}

func (s *PatientExaminationShallow) Kind() Kind              { return KindPatientExamination }
func (s *PatientExaminationShallow) GetUUID() string         { return s.UUID }
func (s *PatientExaminationShallow) SetUUID(id string)       { s.UUID = id }
func (s *PatientExaminationShallow) ParentUUID() string      { return s.PatientUUID }
func (s *PatientExaminationShallow) SetParentUUID(id string) { s.PatientUUID = id }

func (s *PatientExaminationShallow) Detached() LedgerRecord {
	c := *s
	c.Findings, c.Indications = nil, nil
	return &c
}

func (s *PatientExaminationShallow) Children() []LedgerRecord {
	out := make([]LedgerRecord, 0, len(s.Findings)+len(s.Indications))
	for _, f := range s.Findings {
		out = append(out, f)
	}
	for _, i := range s.Indications {
		out = append(out, i)
	}
	return out
}

func (s *PatientExaminationShallow) AppendChild(child LedgerRecord) error {
	switch c := child.(type) {
	case *PatientFindingShallow:
		s.Findings = append(s.Findings, c)
	case *PatientIndicationShallow:
		s.Indications = append(s.Indications, c)
	default:
		return wrongChild(s, child)
	}
	return nil
}

// PatientFindingShallow is the shallow form of PatientFinding.
type PatientFindingShallow struct {
	UUID                   string                               `json:"uuid" yaml:"uuid"`
	PatientExaminationUUID string                               `json:"patient_examination_uuid" yaml:"patient_examination_uuid"`
	Finding                string                               `json:"finding" yaml:"finding"`
	Classifications        *PatientFindingClassificationsShallow `json:"classifications,omitempty" yaml:"classifications,omitempty"`
}

func (s *PatientFindingShallow) Kind() Kind              { return KindPatientFinding }
func (s *PatientFindingShallow) GetUUID() string         { return s.UUID }
func (s *PatientFindingShallow) SetUUID(id string)       { s.UUID = id }
func (s *PatientFindingShallow) ParentUUID() string      { return s.PatientExaminationUUID }
func (s *PatientFindingShallow) SetParentUUID(id string) { s.PatientExaminationUUID = id }

func (s *PatientFindingShallow) Detached() LedgerRecord {
	c := *s
	c.Classifications = nil
	return &c
}

func (s *PatientFindingShallow) Children() []LedgerRecord {
	if s.Classifications == nil {
		return nil
	}
	return []LedgerRecord{s.Classifications}
}

// AppendChild sets the finding's classifications. A finding has at most
// one classifications record.
func (s *PatientFindingShallow) AppendChild(child LedgerRecord) error {
	c, ok := child.(*PatientFindingClassificationsShallow)
	if !ok {
		return wrongChild(s, child)
	}
	if s.Classifications != nil && s.Classifications.UUID != c.UUID {
		return ValidationFailure(KindPatientFinding, s.UUID, "classifications", "finding already has classifications")
	}
	s.Classifications = c
	return nil
}

// PatientFindingClassificationsShallow is the shallow form of
// PatientFindingClassifications.
type PatientFindingClassificationsShallow struct {
	UUID               string                                       `json:"uuid" yaml:"uuid"`
	PatientFindingUUID string                                       `json:"patient_finding_uuid" yaml:"patient_finding_uuid"`
	Choices            []*PatientFindingClassificationChoiceShallow `json:"choices,omitempty" yaml:"choices,omitempty"`
}

func (s *PatientFindingClassificationsShallow) Kind() Kind              { return KindPatientFindingClassifications }
func (s *PatientFindingClassificationsShallow) GetUUID() string         { return s.UUID }
func (s *PatientFindingClassificationsShallow) SetUUID(id string)       { s.UUID = id }
func (s *PatientFindingClassificationsShallow) ParentUUID() string      { return s.PatientFindingUUID }
func (s *PatientFindingClassificationsShallow) SetParentUUID(id string) { s.PatientFindingUUID = id }

func (s *PatientFindingClassificationsShallow) Detached() LedgerRecord {
	c := *s
	c.Choices = nil
	return &c
}

func (s *PatientFindingClassificationsShallow) Children() []LedgerRecord {
	out := make([]LedgerRecord, 0, len(s.Choices))
	for _, c := range s.Choices {
		out = append(out, c)
	}
	return out
}

func (s *PatientFindingClassificationsShallow) AppendChild(child LedgerRecord) error {
	c, ok := child.(*PatientFindingClassificationChoiceShallow)
	if !ok {
		return wrongChild(s, child)
	}
	s.Choices = append(s.Choices, c)
	return nil
}

// PatientFindingClassificationChoiceShallow is the shallow form of
// PatientFindingClassificationChoice.
type PatientFindingClassificationChoiceShallow struct {
	UUID                string                                                 `json:"uuid" yaml:"uuid"`
	ClassificationsUUID string                                                 `json:"classifications_uuid" yaml:"classifications_uuid"`
	Classification      string                                                 `json:"classification" yaml:"classification"`
	Choice              string                                                 `json:"choice" yaml:"choice"`
	Descriptors         []*PatientFindingClassificationChoiceDescriptorShallow `json:"descriptors,omitempty" yaml:"descriptors,omitempty"`
}

func (s *PatientFindingClassificationChoiceShallow) Kind() Kind {
	return KindPatientFindingClassificationChoice
}
func (s *PatientFindingClassificationChoiceShallow) GetUUID() string         { return s.UUID }
func (s *PatientFindingClassificationChoiceShallow) SetUUID(id string)       { s.UUID = id }
func (s *PatientFindingClassificationChoiceShallow) ParentUUID() string      { return s.ClassificationsUUID }
func (s *PatientFindingClassificationChoiceShallow) SetParentUUID(id string) { s.ClassificationsUUID = id }

func (s *PatientFindingClassificationChoiceShallow) Detached() LedgerRecord {
	c := *s
	c.Descriptors = nil
	return &c
}

func (s *PatientFindingClassificationChoiceShallow) Children() []LedgerRecord {
	out := make([]LedgerRecord, 0, len(s.Descriptors))
	for _, d := range s.Descriptors {
		out = append(out, d)
	}
	return out
}

func (s *PatientFindingClassificationChoiceShallow) AppendChild(child LedgerRecord) error {
	d, ok := child.(*PatientFindingClassificationChoiceDescriptorShallow)
	if !ok {
		return wrongChild(s, child)
	}
	s.Descriptors = append(s.Descriptors, d)
	return nil
}

// PatientFindingClassificationChoiceDescriptorShallow is the shallow form
// of PatientFindingClassificationChoiceDescriptor. Value holds a float64,
// string, bool or list of strings according to the descriptor's kind.
type PatientFindingClassificationChoiceDescriptorShallow struct {
	UUID       string `json:"uuid" yaml:"uuid"`
	ChoiceUUID string `json:"choice_uuid" yaml:"choice_uuid"`
	Descriptor string `json:"descriptor" yaml:"descriptor"`
	Value      any    `json:"value,omitempty" yaml:"value,omitempty"`
}

func (s *PatientFindingClassificationChoiceDescriptorShallow) Kind() Kind {
	return KindPatientFindingClassificationChoiceDescriptor
}
func (s *PatientFindingClassificationChoiceDescriptorShallow) GetUUID() string         { return s.UUID }
func (s *PatientFindingClassificationChoiceDescriptorShallow) SetUUID(id string)       { s.UUID = id }
func (s *PatientFindingClassificationChoiceDescriptorShallow) ParentUUID() string      { return s.ChoiceUUID }
func (s *PatientFindingClassificationChoiceDescriptorShallow) SetParentUUID(id string) { s.ChoiceUUID = id }
func (s *PatientFindingClassificationChoiceDescriptorShallow) Children() []LedgerRecord {
	return nil
}

func (s *PatientFindingClassificationChoiceDescriptorShallow) Detached() LedgerRecord {
	c := *s
	return &c
}

func (s *PatientFindingClassificationChoiceDescriptorShallow) AppendChild(child LedgerRecord) error {
	return wrongChild(s, child)
}

// PatientIndicationShallow is the shallow form of PatientIndication.
type PatientIndicationShallow struct {
	UUID                   string `json:"uuid" yaml:"uuid"`
	PatientExaminationUUID string `json:"patient_examination_uuid" yaml:"patient_examination_uuid"`
	Indication             string `json:"indication" yaml:"indication"`
}

func (s *PatientIndicationShallow) Kind() Kind                           { return KindPatientIndication }
func (s *PatientIndicationShallow) GetUUID() string                      { return s.UUID }
func (s *PatientIndicationShallow) SetUUID(id string)                    { s.UUID = id }
func (s *PatientIndicationShallow) ParentUUID() string                   { return s.PatientExaminationUUID }
func (s *PatientIndicationShallow) SetParentUUID(id string)              { s.PatientExaminationUUID = id }
func (s *PatientIndicationShallow) Children() []LedgerRecord             { return nil }
func (s *PatientIndicationShallow) AppendChild(child LedgerRecord) error { return wrongChild(s, child) }

func (s *PatientIndicationShallow) Detached() LedgerRecord {
	c := *s
	return &c
}

// PatientExamination is one examination performed on a patient.
type PatientExamination struct {
	UUID        string               `json:"uuid"`
	Patient     *Patient             `json:"patient"`
	Examination *Examination         `json:"examination"`
	Examiner    *Examiner            `json:"examiner,omitempty"`
	Date        *time.Time           `json:"date,omitempty"`
	Findings    []*PatientFinding    `json:"findings,omitempty"`
	Indications []*PatientIndication `json:"indications,omitempty"`
}

// ToShallow replaces the patient, examiner and examination with their
// identifiers and nests the children's shallow forms.
func (e *PatientExamination) ToShallow() *PatientExaminationShallow {
	s := &PatientExaminationShallow{UUID: e.UUID, Date: e.Date}
	if e.Patient != nil {
		s.PatientUUID = e.Patient.UUID
	}
	if e.Examination != nil {
		s.Examination = e.Examination.Name
	}
	if e.Examiner != nil {
		s.ExaminerUUID = e.Examiner.UUID
	}
	for _, f := range e.Findings {
		s.Findings = append(s.Findings, f.ToShallow())
	}
	for _, i := range e.Indications {
		s.Indications = append(s.Indications, i.ToShallow())
	}
	return s
}

// PatientExaminationFromShallow resolves the examination through c, the
// patient and examiner through l, and converts the nested children.
func PatientExaminationFromShallow(s *PatientExaminationShallow, c CatalogResolver, l LedgerResolver) (*PatientExamination, error) {
	owner := ownerOf(KindPatientExamination, s.UUID)
	if s.PatientUUID == "" {
		return nil, ValidationFailure(KindPatientExamination, s.UUID, "patient_uuid", "must not be empty")
	}
	if s.Examination == "" {
		return nil, ValidationFailure(KindPatientExamination, s.UUID, "examination", "must not be empty")
	}
	ex, ok := c.Examination(s.Examination)
	if !ok {
		return nil, ReferenceNotFound(KindExamination, s.Examination, owner)
	}
	p, err := lookupLedger(l.Patient, KindPatient, s.PatientUUID, owner)
	if err != nil {
		return nil, err
	}
	e := &PatientExamination{UUID: s.UUID, Patient: p, Examination: ex, Date: s.Date}
	if s.ExaminerUUID != "" {
		if e.Examiner, err = lookupLedger(l.Examiner, KindExaminer, s.ExaminerUUID, owner); err != nil {
			return nil, err
		}
	}
	for _, fs := range s.Findings {
		f, err := PatientFindingFromShallow(fs, c)
		if err != nil {
			return nil, err
		}
		e.Findings = append(e.Findings, f)
	}
	for _, is := range s.Indications {
		i, err := PatientIndicationFromShallow(is, c)
		if err != nil {
			return nil, err
		}
		e.Indications = append(e.Indications, i)
	}
	return e, nil
}

// PatientFinding is a catalog finding observed during a patient
// examination.
type PatientFinding struct {
	UUID                   string                         `json:"uuid"`
	PatientExaminationUUID string                         `json:"patient_examination_uuid"`
	Finding                *Finding                       `json:"finding"`
	Classifications        *PatientFindingClassifications `json:"classifications,omitempty"`
}

func (f *PatientFinding) ToShallow() *PatientFindingShallow {
	s := &PatientFindingShallow{UUID: f.UUID, PatientExaminationUUID: f.PatientExaminationUUID}
	if f.Finding != nil {
		s.Finding = f.Finding.Name
	}
	if f.Classifications != nil {
		s.Classifications = f.Classifications.ToShallow()
	}
	return s
}

// PatientFindingFromShallow resolves the finding through c and converts the
// nested classifications. Every classification chosen must be one the
// catalog finding declares.
func PatientFindingFromShallow(s *PatientFindingShallow, c CatalogResolver) (*PatientFinding, error) {
	fd, ok := c.Finding(s.Finding)
	if !ok {
		return nil, ReferenceNotFound(KindFinding, s.Finding, ownerOf(KindPatientFinding, s.UUID))
	}
	f := &PatientFinding{UUID: s.UUID, PatientExaminationUUID: s.PatientExaminationUUID, Finding: fd}
	if s.Classifications == nil {
		return f, nil
	}
	cls, err := PatientFindingClassificationsFromShallow(s.Classifications, c)
	if err != nil {
		return nil, err
	}
	for _, ch := range cls.Choices {
		if err := CheckFindingClassification(fd, ch.Classification.Name, ch.UUID); err != nil {
			return nil, err
		}
	}
	f.Classifications = cls
	return f, nil
}

// CheckFindingClassification fails when the catalog finding does not
// declare the named classification.
func CheckFindingClassification(f *Finding, classification, choiceUUID string) error {
	if f.HasClassification(classification) {
		return nil
	}
	return ValidationFailure(KindPatientFindingClassificationChoice, choiceUUID, "classification",
		"classification "+classification+" is not declared by finding "+f.Name)
}

// PatientFindingClassifications groups the classification choices
// recorded for one patient finding.
type PatientFindingClassifications struct {
	UUID               string                                `json:"uuid"`
	PatientFindingUUID string                                `json:"patient_finding_uuid"`
	Choices            []*PatientFindingClassificationChoice `json:"choices,omitempty"`
}

func (p *PatientFindingClassifications) ToShallow() *PatientFindingClassificationsShallow {
	s := &PatientFindingClassificationsShallow{UUID: p.UUID, PatientFindingUUID: p.PatientFindingUUID}
	for _, c := range p.Choices {
		s.Choices = append(s.Choices, c.ToShallow())
	}
	return s
}

func PatientFindingClassificationsFromShallow(s *PatientFindingClassificationsShallow, c CatalogResolver) (*PatientFindingClassifications, error) {
	p := &PatientFindingClassifications{UUID: s.UUID, PatientFindingUUID: s.PatientFindingUUID}
	for _, cs := range s.Choices {
		ch, err := PatientFindingClassificationChoiceFromShallow(cs, c)
		if err != nil {
			return nil, err
		}
		p.Choices = append(p.Choices, ch)
	}
	return p, nil
}

// PatientFindingClassificationChoice records that a classification choice
// applies to a patient finding, together with its descriptor values.
type PatientFindingClassificationChoice struct {
	UUID                string                                          `json:"uuid"`
	ClassificationsUUID string                                          `json:"classifications_uuid"`
	Classification      *Classification                                 `json:"classification"`
	Choice              *ClassificationChoice                           `json:"choice"`
	Descriptors         []*PatientFindingClassificationChoiceDescriptor `json:"descriptors,omitempty"`
}

func (p *PatientFindingClassificationChoice) ToShallow() *PatientFindingClassificationChoiceShallow {
	s := &PatientFindingClassificationChoiceShallow{UUID: p.UUID, ClassificationsUUID: p.ClassificationsUUID}
	if p.Classification != nil {
		s.Classification = p.Classification.Name
	}
	if p.Choice != nil {
		s.Choice = p.Choice.Name
	}
	for _, d := range p.Descriptors {
		s.Descriptors = append(s.Descriptors, d.ToShallow())
	}
	return s
}

// PatientFindingClassificationChoiceFromShallow resolves the
// classification and choice through c. The choice must belong to the
// classification.
func PatientFindingClassificationChoiceFromShallow(s *PatientFindingClassificationChoiceShallow, c CatalogResolver) (*PatientFindingClassificationChoice, error) {
	cl, ch, err := ResolveChoice(s, c)
	if err != nil {
		return nil, err
	}
	p := &PatientFindingClassificationChoice{UUID: s.UUID, ClassificationsUUID: s.ClassificationsUUID, Classification: cl, Choice: ch}
	for _, ds := range s.Descriptors {
		d, err := PatientFindingClassificationChoiceDescriptorFromShallow(ds, c, ch)
		if err != nil {
			return nil, err
		}
		p.Descriptors = append(p.Descriptors, d)
	}
	return p, nil
}

// ResolveChoice looks up the classification and choice named by s and
// checks that the choice belongs to the classification.
func ResolveChoice(s *PatientFindingClassificationChoiceShallow, c CatalogResolver) (*Classification, *ClassificationChoice, error) {
	owner := ownerOf(KindPatientFindingClassificationChoice, s.UUID)
	cl, ok := c.Classification(s.Classification)
	if !ok {
		return nil, nil, ReferenceNotFound(KindClassification, s.Classification, owner)
	}
	ch, ok := c.ClassificationChoice(s.Choice)
	if !ok {
		return nil, nil, ReferenceNotFound(KindClassificationChoice, s.Choice, owner)
	}
	if !cl.HasChoice(ch.Name) {
		return nil, nil, ValidationFailure(KindPatientFindingClassificationChoice, s.UUID, "choice",
			"choice "+ch.Name+" does not belong to classification "+cl.Name)
	}
	return cl, ch, nil
}

// PatientFindingClassificationChoiceDescriptor carries one typed value for
// a descriptor of the recorded choice.
type PatientFindingClassificationChoiceDescriptor struct {
	UUID       string                          `json:"uuid"`
	ChoiceUUID string                          `json:"choice_uuid"`
	Descriptor *ClassificationChoiceDescriptor `json:"descriptor"`
	Value      DescriptorValue                 `json:"value"`
}

func (p *PatientFindingClassificationChoiceDescriptor) ToShallow() *PatientFindingClassificationChoiceDescriptorShallow {
	s := &PatientFindingClassificationChoiceDescriptorShallow{UUID: p.UUID, ChoiceUUID: p.ChoiceUUID, Value: p.Value.Raw()}
	if p.Descriptor != nil {
		s.Descriptor = p.Descriptor.Name
	}
	return s
}

// PatientFindingClassificationChoiceDescriptorFromShallow resolves the
// descriptor through c and validates the value against it. When choice is
// non-nil the descriptor must be one the choice declares.
func PatientFindingClassificationChoiceDescriptorFromShallow(
	s *PatientFindingClassificationChoiceDescriptorShallow, c CatalogResolver, choice *ClassificationChoice,
) (*PatientFindingClassificationChoiceDescriptor, error) {
	d, ok := c.ClassificationChoiceDescriptor(s.Descriptor)
	if !ok {
		return nil, ReferenceNotFound(KindClassificationChoiceDescriptor, s.Descriptor,
			ownerOf(KindPatientFindingClassificationChoiceDescriptor, s.UUID))
	}
	if choice != nil && !choice.HasDescriptor(d.Name) {
		return nil, ValidationFailure(KindPatientFindingClassificationChoiceDescriptor, s.UUID, "descriptor",
			"descriptor "+d.Name+" is not declared by choice "+choice.Name)
	}
	v, err := d.Validate(s.Value)
	if err != nil {
		return nil, err
	}
	return &PatientFindingClassificationChoiceDescriptor{UUID: s.UUID, ChoiceUUID: s.ChoiceUUID, Descriptor: d, Value: v}, nil
}

// PatientIndication is a catalog indication recorded as the reason for a
// patient examination.
type PatientIndication struct {
	UUID                   string      `json:"uuid"`
	PatientExaminationUUID string      `json:"patient_examination_uuid"`
	Indication             *Indication `json:"indication"`
}

func (i *PatientIndication) ToShallow() *PatientIndicationShallow {
	s := &PatientIndicationShallow{UUID: i.UUID, PatientExaminationUUID: i.PatientExaminationUUID}
	if i.Indication != nil {
		s.Indication = i.Indication.Name
	}
	return s
}

func PatientIndicationFromShallow(s *PatientIndicationShallow, c CatalogResolver) (*PatientIndication, error) {
	ind, ok := c.Indication(s.Indication)
	if !ok {
		return nil, ReferenceNotFound(KindIndication, s.Indication, ownerOf(KindPatientIndication, s.UUID))
	}
	return &PatientIndication{UUID: s.UUID, PatientExaminationUUID: s.PatientExaminationUUID, Indication: ind}, nil
}
