package types

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Module graph errors.
var (
	ErrMissingDependency  = errors.New("missing dependency")
	ErrCircularDependency = errors.New("circular dependency")
	ErrInvalidDescriptor  = errors.New("invalid module descriptor")
)

// Conversion and synchronization errors.
var (
	ErrReferenceNotFound = errors.New("reference not found")
	ErrValidation        = errors.New("validation failure")
	ErrNameCollision     = errors.New("name collision")
)

// ErrPersistence marks errors raised by the storage collaborator. Callers
// receive them unmodified; errors.Is(err, ErrPersistence) identifies them.
var ErrPersistence = errors.New("persistence failure")

// Table operation errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrDuplicateID   = errors.New("duplicate entity ID")
	ErrInvalidFilter = errors.New("invalid filter value type")
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrTableNotFound   = errors.New("table not found")
	ErrUnknownKind     = errors.New("unknown entity kind")
)

// ReferenceError describes a name or identifier that did not resolve.
// It unwraps to ErrReferenceNotFound.
type ReferenceError struct {
	Kind  Kind   // expected kind of the referenced entity
	Ref   string // the unresolved name or identifier
	Owner string // the entity holding the reference, e.g. `finding "colon_polyp"`
}

func (e *ReferenceError) Error() string {
	if e.Owner == "" {
		return fmt.Sprintf("%s %q: %v", e.Kind, e.Ref, ErrReferenceNotFound)
	}
	return fmt.Sprintf("%s %q referenced by %s: %v", e.Kind, e.Ref, e.Owner, ErrReferenceNotFound)
}

func (e *ReferenceError) Unwrap() error { return ErrReferenceNotFound }

// ReferenceNotFound returns a ReferenceError for ref of the expected kind.
func ReferenceNotFound(kind Kind, ref, owner string) error {
	err := &ReferenceError{Kind: kind, Ref: ref, Owner: owner}
	return errors.WithDetailf(err, "kind=%s ref=%s owner=%s", kind, ref, owner)
}

// ValidationError describes a field value that violates its declared
// kind, bounds or selection constraints. It unwraps to ErrValidation.
type ValidationError struct {
	Kind   Kind   // kind of the entity being validated
	Entity string // name or identifier of the entity
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q field %s: %s: %v", e.Kind, e.Entity, e.Field, e.Reason, ErrValidation)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ValidationFailure returns a ValidationError for the given field.
func ValidationFailure(kind Kind, entity, field, reason string) error {
	err := &ValidationError{Kind: kind, Entity: entity, Field: field, Reason: reason}
	return errors.WithDetailf(err, "kind=%s entity=%s field=%s", kind, entity, field)
}

// MissingDependency reports that module declares a dependency on dep, which
// is not among the loaded descriptors.
func MissingDependency(module, dep string) error {
	err := errors.Wrapf(ErrMissingDependency, "module %q depends on %q", module, dep)
	return errors.WithHintf(err, "add a descriptor named %q under one of the module roots", dep)
}

// CircularDependency reports the modules that could not be ordered.
func CircularDependency(modules []string) error {
	return errors.Wrapf(ErrCircularDependency, "unresolved modules [%s]", strings.Join(modules, ", "))
}

// Persistence wraps a driver error so that it is recognizable as
// ErrPersistence while keeping the original cause.
func Persistence(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, op), ErrPersistence)
}

// ownerOf formats an entity reference for error messages.
func ownerOf(kind Kind, name string) string {
	return fmt.Sprintf("%s %q", kind, name)
}
