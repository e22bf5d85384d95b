package models

// Access is the MIB access mode of a scalar or table column.
type Access int

const (
	NoAccess Access = iota
	NotificationOnly
	ReadOnly
	ReadWrite
	ReadCreate
)

// String returns the canonical SMIv2 access keyword.
func (a Access) String() string {
	switch a {
	case NoAccess:
		return "not-accessible"
	case NotificationOnly:
		return "accessible-for-notify"
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	case ReadCreate:
		return "read-create"
	default:
		return "unknown"
	}
}

// Readable reports whether Access permits Get/GetNext.
func (a Access) Readable() bool {
	return a == ReadOnly || a == ReadWrite || a == ReadCreate
}

// Writable reports whether Access permits Set.
func (a Access) Writable() bool {
	return a == ReadWrite || a == ReadCreate
}

// RowStatus is the SMIv2 textual convention governing conceptual row
// lifecycle (RFC 2579 §2).
type RowStatus int32

const (
	RowActive        RowStatus = 1
	RowNotInService  RowStatus = 2
	RowNotReady      RowStatus = 3
	RowCreateAndGo   RowStatus = 4
	RowCreateAndWait RowStatus = 5
	RowDestroy       RowStatus = 6
)

// Valid reports whether r is one of the six defined RowStatus values.
func (r RowStatus) Valid() bool {
	return r >= RowActive && r <= RowDestroy
}
