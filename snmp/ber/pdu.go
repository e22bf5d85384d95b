package ber

import "fmt"

// PDU is the RFC 3416 protocol data unit. GetBulkRequest reuses the
// error-status/error-index wire positions for non-repeaters/max-repetitions,
// matching the ASN.1 grammar (BulkPDU has the same SEQUENCE shape as PDU).
type PDU struct {
	Tag         byte
	RequestID   int32
	ErrorStatus int32 // GetBulkRequest: non-repeaters
	ErrorIndex  int32 // GetBulkRequest: max-repetitions
	VarBinds    []VarBind
}

func (p PDU) NonRepeaters() int32   { return p.ErrorStatus }
func (p PDU) MaxRepetitions() int32 { return p.ErrorIndex }

// Encode renders the PDU as its context-tagged SEQUENCE.
func (p PDU) Encode() ([]byte, error) {
	var content []byte
	content = append(content, encodeIntegerTLV(int64(p.RequestID))...)
	content = append(content, encodeIntegerTLV(int64(p.ErrorStatus))...)
	content = append(content, encodeIntegerTLV(int64(p.ErrorIndex))...)
	vbs, err := EncodeVarBindList(p.VarBinds)
	if err != nil {
		return nil, fmt.Errorf("ber: pdu varbinds: %w", err)
	}
	content = append(content, vbs...)
	return encodeTLV(p.Tag, content), nil
}

// decodePDU parses a PDU given its tag and content bytes (already split by
// the ScopedPDU decoder).
func decodePDU(tag byte, content []byte) (PDU, error) {
	pos := 0
	reqTag, reqContent, _, next, err := decodeTLV(content, pos)
	if err != nil || reqTag != TagInteger {
		return PDU{}, fmt.Errorf("ber: pdu request-id: %w", err)
	}
	pos = next
	requestID := int32(decodeInteger(reqContent))

	_, esContent, _, next, err := decodeTLV(content, pos)
	if err != nil {
		return PDU{}, fmt.Errorf("ber: pdu error-status: %w", err)
	}
	pos = next
	errorStatus := int32(decodeInteger(esContent))

	_, eiContent, _, next, err := decodeTLV(content, pos)
	if err != nil {
		return PDU{}, fmt.Errorf("ber: pdu error-index: %w", err)
	}
	pos = next
	errorIndex := int32(decodeInteger(eiContent))

	vbTag, vbContent, _, _, err := decodeTLV(content, pos)
	if err != nil {
		return PDU{}, fmt.Errorf("ber: pdu varbind list: %w", err)
	}
	if vbTag != TagSequence {
		return PDU{}, fmt.Errorf("ber: expected varbind-list SEQUENCE, got 0x%02X", vbTag)
	}
	vbs, err := decodeVarBindList(vbContent)
	if err != nil {
		return PDU{}, err
	}

	return PDU{
		Tag:         tag,
		RequestID:   requestID,
		ErrorStatus: errorStatus,
		ErrorIndex:  errorIndex,
		VarBinds:    vbs,
	}, nil
}
