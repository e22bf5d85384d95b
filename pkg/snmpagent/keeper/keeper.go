// Package keeper defines the shared contract implemented by scalar and
// table object keepers (spec.md §4.2, §4.3): the operations the OidMap
// dispatches to, the transaction protocol, and the error kinds the agent
// dispatch loop maps onto RFC 3416 error-status codes.
package keeper

import (
	"errors"

	"github.com/vpbank/snmpagent/models"
)

// Kind classifies why an operation failed (spec.md §7).
type Kind int

const (
	NoAccess Kind = iota
	NoSuchName
	NoSuchInstance
	OutOfRange
	WrongType
	NotWritable
	InconsistentValue
)

func (k Kind) String() string {
	switch k {
	case NoAccess:
		return "NoAccess"
	case NoSuchName:
		return "NoSuchName"
	case NoSuchInstance:
		return "NoSuchInstance"
	case OutOfRange:
		return "OutOfRange"
	case WrongType:
		return "WrongType"
	case NotWritable:
		return "NotWritable"
	case InconsistentValue:
		return "InconsistentValue"
	default:
		return "Unknown"
	}
}

// Error wraps a Kind as an error value so keepers can return it directly.
type Error struct {
	Kind Kind
}

func (e *Error) Error() string { return "keeper: " + e.Kind.String() }

func New(k Kind) error { return &Error{Kind: k} }

// As extracts the Kind from err, if err is (or wraps) a *Error.
func As(err error) (Kind, bool) {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind, true
	}
	return 0, false
}

// PDU error-status codes (RFC 3416 §3).
const (
	ErrStatusNoError             = 0
	ErrStatusTooBig              = 1
	ErrStatusNoSuchName          = 2
	ErrStatusBadValue            = 3
	ErrStatusReadOnly            = 4
	ErrStatusGenErr              = 5
	ErrStatusNoAccess            = 6
	ErrStatusWrongType           = 7
	ErrStatusWrongLength         = 8
	ErrStatusWrongEncoding       = 9
	ErrStatusWrongValue          = 10
	ErrStatusNoCreation          = 11
	ErrStatusInconsistentValue   = 12
	ErrStatusResourceUnavailable = 13
	ErrStatusCommitFailed        = 14
	ErrStatusUndoFailed          = 15
	ErrStatusAuthorizationError  = 16
	ErrStatusNotWritable         = 17
	ErrStatusInconsistentName    = 18
)

// ErrorStatusFor maps an internal Kind to the RFC 3416 error-status code
// used in SNMPv3 responses.
func ErrorStatusFor(k Kind) int32 {
	switch k {
	case NoAccess:
		return ErrStatusNoAccess
	case NoSuchName:
		return ErrStatusNoSuchName
	case WrongType:
		return ErrStatusWrongType
	case NotWritable:
		return ErrStatusNotWritable
	case InconsistentValue:
		return ErrStatusInconsistentValue
	default:
		return ErrStatusGenErr
	}
}

// Keeper is the capability interface every scalar or table object exposes
// to the OidMap/dispatch layer. o is always the full request OID; keepers
// compute their own suffix relative to their registered base.
type Keeper interface {
	// IsScalar reports whether this keeper is a scalar (true) or a
	// conceptual table (false); used by dispatch to pick traversal rules.
	IsScalar() bool

	// Get returns the value addressed by o, or an error Kind.
	Get(o models.OID) (models.Value, error)

	// GetNext returns the (name, value) of the lexicographically next
	// object strictly after o within this keeper's managed subtree, or
	// OutOfRange if none remains (dispatch then advances to the next
	// keeper in the OidMap). Scalar keepers always return OutOfRange;
	// dispatch reads a scalar's instance with Get when a walk enters it.
	GetNext(o models.OID) (models.OID, models.Value, error)

	// Access returns the access mode that would govern a read/write at o.
	Access(o models.OID) (models.Access, error)

	// Set stages v at o into the open transaction's shadow state.
	Set(o models.OID, v models.Value) error

	BeginTransaction() error
	Commit() error
	Rollback() error
}
