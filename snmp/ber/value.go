package ber

import (
	"fmt"

	"github.com/vpbank/snmpagent/models"
)

// EncodeValue renders a models.Value as a full TLV matching its Kind.
func EncodeValue(v models.Value) ([]byte, error) {
	switch v.Kind {
	case models.KindInteger:
		return encodeTLV(TagInteger, encodeInteger(int64(v.IntVal))), nil
	case models.KindOctetString:
		return encodeTLV(TagOctetString, v.Bytes), nil
	case models.KindOpaque:
		return encodeTLV(TagOpaque, v.Bytes), nil
	case models.KindObjectId:
		return EncodeOID(v.OID)
	case models.KindCounter32:
		return encodeTLV(TagCounter32, encodeInteger(int64(v.UintVal))), nil
	case models.KindCounter64:
		return encodeTLV(TagCounter64, encodeUint64(v.Uint64)), nil
	case models.KindGauge32:
		return encodeTLV(TagGauge32, encodeInteger(int64(v.UintVal))), nil
	case models.KindTimeTicks:
		return encodeTLV(TagTimeTicks, encodeInteger(int64(v.UintVal))), nil
	case models.KindIPAddress:
		return encodeTLV(TagIPAddress, v.IP[:]), nil
	default:
		return nil, fmt.Errorf("ber: unknown value kind %d", v.Kind)
	}
}

// DecodeValue converts an already-split tag/content pair into a models.Value.
func DecodeValue(tag byte, content []byte) (models.Value, error) {
	switch tag {
	case TagInteger:
		return models.VInt(int32(decodeInteger(content))), nil
	case TagOctetString:
		return models.VOctets(append([]byte(nil), content...)), nil
	case TagOpaque:
		return models.Value{Kind: models.KindOpaque, Bytes: append([]byte(nil), content...)}, nil
	case TagObjectIdentifier:
		o, err := decodeOID(content)
		if err != nil {
			return models.Value{}, err
		}
		return models.VOid(o), nil
	case TagCounter32:
		return models.VCounter32(uint32(decodeInteger(content))), nil
	case TagCounter64:
		return models.VCounter64(decodeUint64(content)), nil
	case TagGauge32:
		return models.VGauge32(uint32(decodeInteger(content))), nil
	case TagTimeTicks:
		return models.VTimeTicks(uint32(decodeInteger(content))), nil
	case TagIPAddress:
		if len(content) != 4 {
			return models.Value{}, fmt.Errorf("ber: IpAddress must be 4 bytes, got %d", len(content))
		}
		var ip [4]byte
		copy(ip[:], content)
		return models.VIPAddress(ip), nil
	default:
		return models.Value{}, fmt.Errorf("ber: unsupported value tag 0x%02X", tag)
	}
}

func encodeUint64(v uint64) []byte {
	if v == 0 {
		return []byte{0x00}
	}
	var out []byte
	for v > 0 {
		out = append([]byte{byte(v & 0xFF)}, out...)
		v >>= 8
	}
	// Unsigned value: prepend a zero byte if the high bit would otherwise
	// be mistaken for a sign bit.
	if out[0]&0x80 != 0 {
		out = append([]byte{0x00}, out...)
	}
	return out
}

func decodeUint64(content []byte) uint64 {
	var v uint64
	for _, b := range content {
		v = v<<8 | uint64(b)
	}
	return v
}
