package ber

import (
	"fmt"

	"github.com/vpbank/snmpagent/models"
)

// VarBindKind selects which alternative of the VarBind CHOICE is present.
type VarBindKind int

const (
	VBValue VarBindKind = iota
	VBUnspecified
	VBNoSuchObject
	VBNoSuchInstance
	VBEndOfMibView
)

// VarBind is the wire representation of a (name, value) pair (RFC 3416 §2).
type VarBind struct {
	Name models.OID
	Kind VarBindKind
	Val  models.Value // meaningful only when Kind == VBValue
}

// NewVarBind builds a VarBind carrying an actual value.
func NewVarBind(name models.OID, v models.Value) VarBind {
	return VarBind{Name: name, Kind: VBValue, Val: v}
}

// NewExceptionVarBind builds a VarBind carrying one of the three exception
// markers (noSuchObject, noSuchInstance, endOfMibView).
func NewExceptionVarBind(name models.OID, kind VarBindKind) VarBind {
	return VarBind{Name: name, Kind: kind}
}

// Encode renders the VarBind as a SEQUENCE { name, value }.
func (vb VarBind) Encode() ([]byte, error) {
	nameBytes, err := EncodeOID(vb.Name)
	if err != nil {
		return nil, fmt.Errorf("ber: varbind name: %w", err)
	}
	var valBytes []byte
	switch vb.Kind {
	case VBValue:
		valBytes, err = EncodeValue(vb.Val)
		if err != nil {
			return nil, fmt.Errorf("ber: varbind value: %w", err)
		}
	case VBUnspecified:
		valBytes = encodeTLV(TagNull, nil)
	case VBNoSuchObject:
		valBytes = encodeTLV(TagNoSuchObject, nil)
	case VBNoSuchInstance:
		valBytes = encodeTLV(TagNoSuchInstance, nil)
	case VBEndOfMibView:
		valBytes = encodeTLV(TagEndOfMibView, nil)
	default:
		return nil, fmt.Errorf("ber: unknown varbind kind %d", vb.Kind)
	}
	content := append(nameBytes, valBytes...)
	return encodeTLV(TagSequence, content), nil
}

// decodeVarBind parses a single VarBind SEQUENCE at buf[pos].
func decodeVarBind(buf []byte, pos int) (VarBind, int, error) {
	tag, content, _, next, err := decodeTLV(buf, pos)
	if err != nil {
		return VarBind{}, 0, err
	}
	if tag != TagSequence {
		return VarBind{}, 0, fmt.Errorf("ber: expected VarBind SEQUENCE, got 0x%02X", tag)
	}
	name, innerNext, err := DecodeOID(content, 0)
	if err != nil {
		return VarBind{}, 0, fmt.Errorf("ber: varbind name: %w", err)
	}
	vtag, vcontent, _, _, err := decodeTLV(content, innerNext)
	if err != nil {
		return VarBind{}, 0, fmt.Errorf("ber: varbind value: %w", err)
	}
	switch vtag {
	case TagNull:
		return VarBind{Name: name, Kind: VBUnspecified}, next, nil
	case TagNoSuchObject:
		return VarBind{Name: name, Kind: VBNoSuchObject}, next, nil
	case TagNoSuchInstance:
		return VarBind{Name: name, Kind: VBNoSuchInstance}, next, nil
	case TagEndOfMibView:
		return VarBind{Name: name, Kind: VBEndOfMibView}, next, nil
	default:
		val, err := DecodeValue(vtag, vcontent)
		if err != nil {
			return VarBind{}, 0, err
		}
		return VarBind{Name: name, Kind: VBValue, Val: val}, next, nil
	}
}

// EncodeVarBindList renders a SEQUENCE OF VarBind.
func EncodeVarBindList(vbs []VarBind) ([]byte, error) {
	var content []byte
	for i, vb := range vbs {
		b, err := vb.Encode()
		if err != nil {
			return nil, fmt.Errorf("ber: varbind %d: %w", i, err)
		}
		content = append(content, b...)
	}
	return encodeTLV(TagSequence, content), nil
}

// decodeVarBindList parses a SEQUENCE OF VarBind given the SEQUENCE's
// content bytes (tag already stripped by the caller).
func decodeVarBindList(content []byte) ([]VarBind, error) {
	var out []VarBind
	pos := 0
	for pos < len(content) {
		vb, next, err := decodeVarBind(content, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, vb)
		pos = next
	}
	return out, nil
}
