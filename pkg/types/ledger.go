package types

import (
	"time"

	"github.com/cockroachdb/errors"
)

// LedgerRecord is the shallow form of a ledger entity as it travels
// between import adapters, the synchronization protocol and the store.
// References to other ledger entities are identifiers; references to
// catalog entities are names. Owned children are nested.
type LedgerRecord interface {
	Kind() Kind
	GetUUID() string
	SetUUID(id string)

	// ParentUUID identifies the owning record, or is empty for roots.
	ParentUUID() string
	SetParentUUID(id string)

	// Detached returns a copy of the record without nested children.
	Detached() LedgerRecord

	// Children returns the nested child records in order.
	Children() []LedgerRecord

	// AppendChild nests child under the record.
	AppendChild(child LedgerRecord) error
}

func wrongChild(parent, child LedgerRecord) error {
	return errors.Wrapf(ErrInvalidData, "%s cannot own %s", parent.Kind(), child.Kind())
}

// lookupLedger converts a not-found error from a LedgerResolver into a
// ReferenceError. Other errors pass through unchanged.
func lookupLedger[T any](lookup func(string) (*T, error), kind Kind, id, owner string) (*T, error) {
	v, err := lookup(id)
	if errors.Is(err, ErrNotFound) {
		return nil, ReferenceNotFound(kind, id, owner)
	}
	return v, err
}

// CenterShallow is the shallow form of Center.
type CenterShallow struct {
	UUID      string             `json:"uuid" yaml:"uuid"`
	Name      string             `json:"name" yaml:"name"`
	Examiners []*ExaminerShallow `json:"examiners,omitempty" yaml:"examiners,omitempty"`
}

func (s *CenterShallow) Kind() Kind              { return KindCenter }
func (s *CenterShallow) GetUUID() string         { return s.UUID }
func (s *CenterShallow) SetUUID(id string)       { s.UUID = id }
func (s *CenterShallow) ParentUUID() string      { return "" }
func (s *CenterShallow) SetParentUUID(id string) {}

func (s *CenterShallow) Detached() LedgerRecord {
	c := *s
	c.Examiners = nil
	return &c
}

func (s *CenterShallow) Children() []LedgerRecord {
	out := make([]LedgerRecord, 0, len(s.Examiners))
	for _, e := range s.Examiners {
		out = append(out, e)
	}
	return out
}

func (s *CenterShallow) AppendChild(child LedgerRecord) error {
	e, ok := child.(*ExaminerShallow)
	if !ok {
		return wrongChild(s, child)
	}
	s.Examiners = append(s.Examiners, e)
	return nil
}

// ExaminerShallow is the shallow form of Examiner.
type ExaminerShallow struct {
	UUID       string `json:"uuid" yaml:"uuid"`
	CenterUUID string `json:"center_uuid" yaml:"center_uuid"`
	FirstName  string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
}

func (s *ExaminerShallow) Kind() Kind                           { return KindExaminer }
func (s *ExaminerShallow) GetUUID() string                      { return s.UUID }
func (s *ExaminerShallow) SetUUID(id string)                    { s.UUID = id }
func (s *ExaminerShallow) ParentUUID() string                   { return s.CenterUUID }
func (s *ExaminerShallow) SetParentUUID(id string)              { s.CenterUUID = id }
func (s *ExaminerShallow) Children() []LedgerRecord             { return nil }
func (s *ExaminerShallow) AppendChild(child LedgerRecord) error { return wrongChild(s, child) }

func (s *ExaminerShallow) Detached() LedgerRecord {
	c := *s
	return &c
}

// PatientShallow is the shallow form of Patient. The center is a
// non-owning reference.
type PatientShallow struct {
	UUID       string     `json:"uuid" yaml:"uuid"`
	CenterUUID string     `json:"center_uuid,omitempty" yaml:"center_uuid,omitempty"`
	FirstName  string     `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName   string     `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	DOB        *time.Time `json:"dob,omitempty" yaml:"dob,omitempty"`
	Gender     string     `json:"gender,omitempty" yaml:"gender,omitempty"`
}

func (s *PatientShallow) Kind() Kind                           { return KindPatient }
func (s *PatientShallow) GetUUID() string                      { return s.UUID }
func (s *PatientShallow) SetUUID(id string)                    { s.UUID = id }
func (s *PatientShallow) ParentUUID() string                   { return "" }
func (s *PatientShallow) SetParentUUID(id string)              {}
func (s *PatientShallow) Children() []LedgerRecord             { return nil }
func (s *PatientShallow) AppendChild(child LedgerRecord) error { return wrongChild(s, child) }

func (s *PatientShallow) Detached() LedgerRecord {
	c := *s
	return &c
}

// Center is a clinic or hospital and the examiners working there.
type Center struct {
	UUID      string      `json:"uuid"`
	Name      string      `json:"name"`
	Examiners []*Examiner `json:"examiners,omitempty"`
}

// ToShallow nests the examiners' shallow forms.
func (c *Center) ToShallow() *CenterShallow {
	s := &CenterShallow{UUID: c.UUID, Name: c.Name}
	for _, e := range c.Examiners {
		s.Examiners = append(s.Examiners, e.ToShallow())
	}
	return s
}

// CenterFromShallow converts s and its nested examiners.
func CenterFromShallow(s *CenterShallow) (*Center, error) {
	if s.Name == "" {
		return nil, ValidationFailure(KindCenter, s.UUID, "name", "must not be empty")
	}
	c := &Center{UUID: s.UUID, Name: s.Name}
	for _, es := range s.Examiners {
		e, err := ExaminerFromShallow(es)
		if err != nil {
			return nil, err
		}
		c.Examiners = append(c.Examiners, e)
	}
	return c, nil
}

// Examiner is a physician who performs examinations. Examiners are owned by
// their center.
type Examiner struct {
	UUID       string `json:"uuid"`
	CenterUUID string `json:"center_uuid"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
}

func (e *Examiner) ToShallow() *ExaminerShallow {
	return &ExaminerShallow{UUID: e.UUID, CenterUUID: e.CenterUUID, FirstName: e.FirstName, LastName: e.LastName}
}

func ExaminerFromShallow(s *ExaminerShallow) (*Examiner, error) {
	return &Examiner{UUID: s.UUID, CenterUUID: s.CenterUUID, FirstName: s.FirstName, LastName: s.LastName}, nil
}

// Patient is a person whose examinations are recorded in the ledger.
type Patient struct {
	UUID      string     `json:"uuid"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	DOB       *time.Time `json:"dob,omitempty"`
	Gender    string     `json:"gender,omitempty"`
	Center    *Center    `json:"center,omitempty"`
}

// ToShallow replaces the center with its identifier.
func (p *Patient) ToShallow() *PatientShallow {
	s := &PatientShallow{UUID: p.UUID, FirstName: p.FirstName, LastName: p.LastName, DOB: p.DOB, Gender: p.Gender}
	if p.Center != nil {
		s.CenterUUID = p.Center.UUID
	}
	return s
}

// PatientFromShallow resolves the center through l.
func PatientFromShallow(s *PatientShallow, l LedgerResolver) (*Patient, error) {
	p := &Patient{UUID: s.UUID, FirstName: s.FirstName, LastName: s.LastName, DOB: s.DOB, Gender: s.Gender}
	if s.CenterUUID != "" {
		c, err := lookupLedger(l.Center, KindCenter, s.CenterUUID, ownerOf(KindPatient, s.UUID))
		if err != nil {
			return nil, err
		}
		p.Center = c
	}
	return p, nil
}
