package ber

import "fmt"

// ScopedPDU carries the context identification plus the enclosed PDU
// (RFC 3412 §6.1).
type ScopedPDU struct {
	ContextEngineID []byte
	ContextName     []byte
	PDU             PDU
}

// Encode renders the ScopedPDU SEQUENCE.
func (s ScopedPDU) Encode() ([]byte, error) {
	var content []byte
	content = append(content, encodeTLV(TagOctetString, s.ContextEngineID)...)
	content = append(content, encodeTLV(TagOctetString, s.ContextName)...)
	pduBytes, err := s.PDU.Encode()
	if err != nil {
		return nil, fmt.Errorf("ber: scoped pdu: %w", err)
	}
	content = append(content, pduBytes...)
	return encodeTLV(TagSequence, content), nil
}

// DecodeScopedPDU parses a ScopedPDU SEQUENCE starting at buf[pos].
func DecodeScopedPDU(buf []byte, pos int) (ScopedPDU, int, error) {
	tag, content, _, next, err := decodeTLV(buf, pos)
	if err != nil {
		return ScopedPDU{}, 0, err
	}
	if tag != TagSequence {
		return ScopedPDU{}, 0, fmt.Errorf("ber: expected ScopedPDU SEQUENCE, got 0x%02X", tag)
	}

	cpos := 0
	ceTag, ceContent, _, cnext, err := decodeTLV(content, cpos)
	if err != nil || ceTag != TagOctetString {
		return ScopedPDU{}, 0, fmt.Errorf("ber: scoped pdu contextEngineID: %w", err)
	}
	cpos = cnext

	cnTag, cnContent, _, cnext, err := decodeTLV(content, cpos)
	if err != nil || cnTag != TagOctetString {
		return ScopedPDU{}, 0, fmt.Errorf("ber: scoped pdu contextName: %w", err)
	}
	cpos = cnext

	pduTag, pduContent, _, _, err := decodeTLV(content, cpos)
	if err != nil {
		return ScopedPDU{}, 0, fmt.Errorf("ber: scoped pdu body: %w", err)
	}
	pdu, err := decodePDU(pduTag, pduContent)
	if err != nil {
		return ScopedPDU{}, 0, err
	}

	return ScopedPDU{
		ContextEngineID: append([]byte(nil), ceContent...),
		ContextName:     append([]byte(nil), cnContent...),
		PDU:             pdu,
	}, next, nil
}
