package ber

import (
	"fmt"

	"github.com/vpbank/snmpagent/models"
)

// encodeOID renders an OID's arcs per X.690 §8.19: the first two arcs are
// combined into a single subidentifier (arc0*40 + arc1), and every
// subidentifier is base-128 encoded with the continuation bit (0x80) set on
// all but the last byte.
func encodeOID(o models.OID) ([]byte, error) {
	if len(o) < 2 {
		return nil, fmt.Errorf("ber: OID must have at least 2 arcs, got %d", len(o))
	}
	var out []byte
	out = appendBase128(out, uint64(o[0])*40+uint64(o[1]))
	for _, arc := range o[2:] {
		out = appendBase128(out, uint64(arc))
	}
	return out, nil
}

func appendBase128(out []byte, v uint64) []byte {
	var chunk [10]byte
	n := 0
	chunk[n] = byte(v & 0x7F)
	n++
	v >>= 7
	for v > 0 {
		chunk[n] = byte(v&0x7F) | 0x80
		n++
		v >>= 7
	}
	for i := n - 1; i >= 0; i-- {
		out = append(out, chunk[i])
	}
	return out
}

// decodeOID is the inverse of encodeOID.
func decodeOID(content []byte) (models.OID, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("ber: empty OID content")
	}
	var arcs []uint64
	var cur uint64
	for _, b := range content {
		cur = cur<<7 | uint64(b&0x7F)
		if b&0x80 == 0 {
			arcs = append(arcs, cur)
			cur = 0
		}
	}
	if len(arcs) == 0 {
		return nil, fmt.Errorf("ber: truncated OID content")
	}
	out := make(models.OID, 0, len(arcs)+1)
	first := arcs[0]
	if first < 80 {
		out = append(out, uint32(first/40), uint32(first%40))
	} else {
		out = append(out, 2, uint32(first-80))
	}
	for _, a := range arcs[1:] {
		out = append(out, uint32(a))
	}
	return out, nil
}

// EncodeOID renders a full OBJECT IDENTIFIER TLV.
func EncodeOID(o models.OID) ([]byte, error) {
	content, err := encodeOID(o)
	if err != nil {
		return nil, err
	}
	return encodeTLV(TagObjectIdentifier, content), nil
}

// DecodeOID parses a full OBJECT IDENTIFIER TLV starting at buf[pos].
func DecodeOID(buf []byte, pos int) (models.OID, int, error) {
	tag, content, _, next, err := decodeTLV(buf, pos)
	if err != nil {
		return nil, 0, err
	}
	if tag != TagObjectIdentifier {
		return nil, 0, fmt.Errorf("ber: expected OBJECT IDENTIFIER tag, got 0x%02X", tag)
	}
	o, err := decodeOID(content)
	if err != nil {
		return nil, 0, err
	}
	return o, next, nil
}
