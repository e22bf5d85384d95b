package models

import "fmt"

// OType is the type tag that governs which Value variants a keeper accepts.
// RowStatus is a constrained Integer used only inside tables.
type OType int

const (
	Integer OType = iota
	Counter
	BigCounter // 64-bit
	Ticks      // 32-bit
	String     // octet string
	ObjectId
	Address
	RowStatusType
	TestAndIncrType // RFC 2579 advisory lock, a constrained Integer
)

// String returns the human-readable name of the type tag.
func (t OType) String() string {
	switch t {
	case Integer:
		return "Integer"
	case Counter:
		return "Counter"
	case BigCounter:
		return "BigCounter"
	case Ticks:
		return "Ticks"
	case String:
		return "String"
	case ObjectId:
		return "ObjectId"
	case Address:
		return "Address"
	case RowStatusType:
		return "RowStatus"
	case TestAndIncrType:
		return "TestAndIncr"
	default:
		return fmt.Sprintf("OType(%d)", int(t))
	}
}

// Value is a tagged union matching the SMIv2 ObjectSyntax. Exactly one field
// is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	IntVal  int32
	UintVal uint32 // Counter32 / Gauge32 / TimeTicks
	Uint64  uint64 // Counter64
	Bytes   []byte // OctetString / Opaque
	OID     OID
	IP      [4]byte // IpAddress
}

// Kind selects which field of Value is populated.
type Kind int

const (
	KindInteger Kind = iota
	KindOctetString
	KindObjectId
	KindCounter32
	KindCounter64
	KindGauge32
	KindTimeTicks
	KindIPAddress
	KindOpaque
)

// VInt constructs an Integer value.
func VInt(v int32) Value { return Value{Kind: KindInteger, IntVal: v} }

// VOctets constructs an OctetString value.
func VOctets(b []byte) Value { return Value{Kind: KindOctetString, Bytes: b} }

// VOid constructs an ObjectId value.
func VOid(o OID) Value { return Value{Kind: KindObjectId, OID: o} }

// VCounter32 constructs a Counter32 value.
func VCounter32(v uint32) Value { return Value{Kind: KindCounter32, UintVal: v} }

// VCounter64 constructs a Counter64 value.
func VCounter64(v uint64) Value { return Value{Kind: KindCounter64, Uint64: v} }

// VGauge32 constructs a Gauge32 value.
func VGauge32(v uint32) Value { return Value{Kind: KindGauge32, UintVal: v} }

// VTimeTicks constructs a TimeTicks value.
func VTimeTicks(v uint32) Value { return Value{Kind: KindTimeTicks, UintVal: v} }

// VIPAddress constructs an IpAddress value from 4 octets.
func VIPAddress(a [4]byte) Value { return Value{Kind: KindIPAddress, IP: a} }

// MatchesType reports whether the Value's variant satisfies otype, the
// type-check predicate required by spec.md §3 ("a keeper rejects a Value
// whose variant does not satisfy its declared OType").
func (v Value) MatchesType(otype OType) bool {
	switch otype {
	case Integer, TestAndIncrType:
		return v.Kind == KindInteger
	case RowStatusType:
		return v.Kind == KindInteger && v.IntVal >= 1 && v.IntVal <= 6
	case Counter:
		return v.Kind == KindCounter32 || v.Kind == KindGauge32
	case BigCounter:
		return v.Kind == KindCounter64
	case Ticks:
		return v.Kind == KindTimeTicks
	case String:
		return v.Kind == KindOctetString || v.Kind == KindOpaque
	case ObjectId:
		return v.Kind == KindObjectId
	case Address:
		return v.Kind == KindIPAddress
	default:
		return false
	}
}

// AsUint32 returns the unsigned 32-bit arc representation of an Integer or
// Counter-family value, used by table index encoding (spec.md §4.3.1).
func (v Value) AsUint32() (uint32, bool) {
	switch v.Kind {
	case KindInteger:
		return uint32(v.IntVal), true
	case KindCounter32, KindGauge32, KindTimeTicks:
		return v.UintVal, true
	default:
		return 0, false
	}
}

// String implements fmt.Stringer for debugging and log lines.
func (v Value) String() string {
	switch v.Kind {
	case KindInteger:
		return fmt.Sprintf("%d", v.IntVal)
	case KindOctetString, KindOpaque:
		return fmt.Sprintf("%q", v.Bytes)
	case KindObjectId:
		return v.OID.String()
	case KindCounter32:
		return fmt.Sprintf("Counter32(%d)", v.UintVal)
	case KindCounter64:
		return fmt.Sprintf("Counter64(%d)", v.Uint64)
	case KindGauge32:
		return fmt.Sprintf("Gauge32(%d)", v.UintVal)
	case KindTimeTicks:
		return fmt.Sprintf("TimeTicks(%d)", v.UintVal)
	case KindIPAddress:
		return fmt.Sprintf("%d.%d.%d.%d", v.IP[0], v.IP[1], v.IP[2], v.IP[3])
	default:
		return "?"
	}
}
