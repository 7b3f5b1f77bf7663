package pairing

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a referenced template or product does not exist.
var ErrNotFound = errors.New("record not found")

// Invariant names used in error codes and metrics labels.
const (
	InvariantUnexpectedPairing = "unexpected_pairing"
	InvariantRawRole           = "invalid_raw_role"
	InvariantMainRole          = "invalid_main_role"
	InvariantDeleteForbidden   = "delete_forbidden"
	InvariantAlreadyPaired     = "already_paired"
	InvariantTemplateMismatch  = "template_mismatch"
	InvariantMissingPair       = "missing_counterpart"
)

// UnexpectedPairingError: the product has a raw or main counterpart but its
// template is not marked "has raw products".
type UnexpectedPairingError struct {
	ProductID uuid.UUID
	Product   string
}

func (e *UnexpectedPairingError) Error() string {
	return fmt.Sprintf("variant %q has a raw or main variant but its template is not marked as having raw variants", e.Product)
}

// InvalidRawRoleError: a raw product references another raw product.
type InvalidRawRoleError struct {
	ProductID uuid.UUID
	Product   string
}

func (e *InvalidRawRoleError) Error() string {
	return fmt.Sprintf("variant %q has a raw variant but is itself a raw variant", e.Product)
}

// InvalidMainRoleError: a product that is not raw references a main product.
type InvalidMainRoleError struct {
	ProductID uuid.UUID
	Product   string
}

func (e *InvalidMainRoleError) Error() string {
	return fmt.Sprintf("variant %q has a main variant but is not a raw variant", e.Product)
}

// DeleteForbiddenError: a pairing member was deleted while its counterpart
// stays alive.
type DeleteForbiddenError struct {
	ProductID     uuid.UUID
	Product       string
	CounterpartID uuid.UUID
	Counterpart   string
	// Raw is true when the product being deleted is the raw member.
	Raw bool
}

func (e *DeleteForbiddenError) Error() string {
	if e.Raw {
		return fmt.Sprintf("cannot delete variant %q: it is the raw variant of %q", e.Product, e.Counterpart)
	}
	return fmt.Sprintf("cannot delete variant %q: its raw variant %q must be deleted with it", e.Product, e.Counterpart)
}

// AlreadyPairedError: the requested counterpart already belongs to another pairing.
type AlreadyPairedError struct {
	ProductID     uuid.UUID
	Product       string
	CounterpartID uuid.UUID
	Counterpart   string
}

func (e *AlreadyPairedError) Error() string {
	return fmt.Sprintf("variant %q cannot be paired with %q: %q already has a counterpart", e.Product, e.Counterpart, e.Counterpart)
}

// TemplateMismatchError: both members of a pairing must share the template.
type TemplateMismatchError struct {
	ProductID     uuid.UUID
	Product       string
	CounterpartID uuid.UUID
	Counterpart   string
}

func (e *TemplateMismatchError) Error() string {
	return fmt.Sprintf("variant %q cannot be paired with %q: they belong to different templates", e.Product, e.Counterpart)
}

// MissingCounterpartError: a variant of a raw-enabled template ended a batch
// without a counterpart.
type MissingCounterpartError struct {
	ProductID uuid.UUID
	Product   string
}

func (e *MissingCounterpartError) Error() string {
	return fmt.Sprintf("variant %q belongs to a template with raw variants but has no raw or main counterpart", e.Product)
}

// Invariant returns the invariant name violated by err, or "" when err is not
// a pairing validation error.
func Invariant(err error) string {
	var (
		unexpected *UnexpectedPairingError
		rawRole    *InvalidRawRoleError
		mainRole   *InvalidMainRoleError
		forbidden  *DeleteForbiddenError
		paired     *AlreadyPairedError
		mismatch   *TemplateMismatchError
		missing    *MissingCounterpartError
	)
	switch {
	case errors.As(err, &unexpected):
		return InvariantUnexpectedPairing
	case errors.As(err, &rawRole):
		return InvariantRawRole
	case errors.As(err, &mainRole):
		return InvariantMainRole
	case errors.As(err, &forbidden):
		return InvariantDeleteForbidden
	case errors.As(err, &paired):
		return InvariantAlreadyPaired
	case errors.As(err, &mismatch):
		return InvariantTemplateMismatch
	case errors.As(err, &missing):
		return InvariantMissingPair
	}
	return ""
}

// IsValidation reports whether err is a user facing pairing validation failure.
func IsValidation(err error) bool {
	return Invariant(err) != ""
}
