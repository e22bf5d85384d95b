package ber

import "fmt"

// USP is the USMSecurityParameters SEQUENCE (RFC 3414 §2.4). It is carried
// inside the Message's msgSecurityParameters OCTET STRING.
type USP struct {
	EngineID    []byte
	EngineBoots int32
	EngineTime  int32
	UserName    []byte
	AuthParams  []byte // 0 or 12 bytes
	PrivParams  []byte // 0 or 8 bytes
}

// Encode renders the USP SEQUENCE and also returns the offset of
// AuthParams' content bytes within the returned slice, so the caller can
// later overwrite just that region with the computed HMAC digest without
// re-encoding (spec.md §4.4.1: the authParams slot has fixed size whether
// it holds zeros or a digest).
func (u USP) Encode() (out []byte, authParamsOffset int, privParamsOffset int) {
	var content []byte
	content = append(content, encodeTLV(TagOctetString, u.EngineID)...)
	content = append(content, encodeIntegerTLV(int64(u.EngineBoots))...)
	content = append(content, encodeIntegerTLV(int64(u.EngineTime))...)
	content = append(content, encodeTLV(TagOctetString, u.UserName)...)

	authTLV := encodeTLV(TagOctetString, u.AuthParams)
	authOffsetInContent := len(content) + (len(authTLV) - len(u.AuthParams))
	content = append(content, authTLV...)

	privTLV := encodeTLV(TagOctetString, u.PrivParams)
	privOffsetInContent := len(content) + (len(privTLV) - len(u.PrivParams))
	content = append(content, privTLV...)

	out = encodeTLV(TagSequence, content)
	headerLen := len(out) - len(content)
	return out, headerLen + authOffsetInContent, headerLen + privOffsetInContent
}

// decodeUSP parses a USP SEQUENCE starting at buf[pos]. authParamsStart and
// authParamsLen locate the AuthenticationParameters content within buf
// itself (an absolute offset, not relative to the SEQUENCE), which is what
// the authentication pipeline needs to zero-and-rehash the received bytes.
func decodeUSP(buf []byte, pos int) (usp USP, authParamsStart, authParamsLen int, next int, err error) {
	tag, content, contentAbsStart, outerNext, err := decodeTLV(buf, pos)
	if err != nil {
		return USP{}, 0, 0, 0, err
	}
	if tag != TagSequence {
		return USP{}, 0, 0, 0, fmt.Errorf("ber: expected USP SEQUENCE, got 0x%02X", tag)
	}

	cpos := 0
	eidTag, eidContent, _, cnext, err := decodeTLV(content, cpos)
	if err != nil || eidTag != TagOctetString {
		return USP{}, 0, 0, 0, fmt.Errorf("ber: usp engineID: %w", err)
	}
	cpos = cnext

	_, bootsContent, _, cnext, err := decodeTLV(content, cpos)
	if err != nil {
		return USP{}, 0, 0, 0, fmt.Errorf("ber: usp engineBoots: %w", err)
	}
	cpos = cnext
	boots := int32(decodeInteger(bootsContent))

	_, timeContent, _, cnext, err := decodeTLV(content, cpos)
	if err != nil {
		return USP{}, 0, 0, 0, fmt.Errorf("ber: usp engineTime: %w", err)
	}
	cpos = cnext
	engTime := int32(decodeInteger(timeContent))

	unTag, unContent, _, cnext, err := decodeTLV(content, cpos)
	if err != nil || unTag != TagOctetString {
		return USP{}, 0, 0, 0, fmt.Errorf("ber: usp userName: %w", err)
	}
	cpos = cnext

	authTag, authContent, authContentStart, cnext, err := decodeTLV(content, cpos)
	if err != nil || authTag != TagOctetString {
		return USP{}, 0, 0, 0, fmt.Errorf("ber: usp authParams: %w", err)
	}
	cpos = cnext

	privTag, privContent, _, _, err := decodeTLV(content, cpos)
	if err != nil || privTag != TagOctetString {
		return USP{}, 0, 0, 0, fmt.Errorf("ber: usp privParams: %w", err)
	}

	usp = USP{
		EngineID:    append([]byte(nil), eidContent...),
		EngineBoots: boots,
		EngineTime:  engTime,
		UserName:    append([]byte(nil), unContent...),
		AuthParams:  append([]byte(nil), authContent...),
		PrivParams:  append([]byte(nil), privContent...),
	}
	return usp, contentAbsStart + authContentStart, len(authContent), outerNext, nil
}
