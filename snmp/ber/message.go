package ber

import "fmt"

// Version3 is the msgVersion value for SNMPv3 (RFC 3412 §6).
const Version3 int32 = 3

// HeaderData is the msgGlobalData field of a Message (RFC 3412 §6.3).
type HeaderData struct {
	MsgID         int32
	MsgMaxSize    int32
	Flags         byte // bit0=auth, bit1=priv, bit2=reportable
	SecurityModel int32
}

const UsmSecurityModel int32 = 3

func (h HeaderData) Encode() []byte {
	var content []byte
	content = append(content, encodeIntegerTLV(int64(h.MsgID))...)
	content = append(content, encodeIntegerTLV(int64(h.MsgMaxSize))...)
	content = append(content, encodeTLV(TagOctetString, []byte{h.Flags})...)
	content = append(content, encodeIntegerTLV(int64(h.SecurityModel))...)
	return encodeTLV(TagSequence, content)
}

func decodeHeaderData(buf []byte, pos int) (HeaderData, int, error) {
	tag, content, _, next, err := decodeTLV(buf, pos)
	if err != nil {
		return HeaderData{}, 0, err
	}
	if tag != TagSequence {
		return HeaderData{}, 0, fmt.Errorf("ber: expected HeaderData SEQUENCE, got 0x%02X", tag)
	}
	cpos := 0
	_, idContent, _, cnext, err := decodeTLV(content, cpos)
	if err != nil {
		return HeaderData{}, 0, fmt.Errorf("ber: header msgID: %w", err)
	}
	cpos = cnext
	_, maxContent, _, cnext, err := decodeTLV(content, cpos)
	if err != nil {
		return HeaderData{}, 0, fmt.Errorf("ber: header msgMaxSize: %w", err)
	}
	cpos = cnext
	flagsTag, flagsContent, _, cnext, err := decodeTLV(content, cpos)
	if err != nil || flagsTag != TagOctetString || len(flagsContent) != 1 {
		return HeaderData{}, 0, fmt.Errorf("ber: header msgFlags: %w", err)
	}
	cpos = cnext
	_, smContent, _, _, err := decodeTLV(content, cpos)
	if err != nil {
		return HeaderData{}, 0, fmt.Errorf("ber: header msgSecurityModel: %w", err)
	}
	return HeaderData{
		MsgID:         int32(decodeInteger(idContent)),
		MsgMaxSize:    int32(decodeInteger(maxContent)),
		Flags:         flagsContent[0],
		SecurityModel: int32(decodeInteger(smContent)),
	}, next, nil
}

// Message is the top-level SNMPv3 envelope (RFC 3412 §6.3). Exactly one of
// ScopedPlain / ScopedEncrypted is populated, selected by Header.Flags bit1.
type Message struct {
	Header          HeaderData
	Security        USP
	ScopedPlain     *ScopedPDU
	ScopedEncrypted []byte // ciphertext (BER-encoded ScopedPDU once decrypted)
}

// EncodeResult carries the encoded bytes plus the absolute offsets the USM
// pipeline needs to stamp authentication and privacy parameters in place.
type EncodeResult struct {
	Bytes             []byte
	AuthParamsOffset  int
	PrivParamsOffset  int
}

// Encode renders the full Message SEQUENCE. AuthParamsOffset/PrivParamsOffset
// index into Bytes and locate the content region of the respective
// USP field, so the caller can patch in the real digest/salt after the fact
// without needing the total length to change (spec.md §4.4.1, §4.4.2).
func Encode(msg Message) (EncodeResult, error) {
	uspBytes, authOff, privOff := msg.Security.Encode()
	secParamsTLV := encodeTLV(TagOctetString, uspBytes)
	secParamsHeaderLen := len(secParamsTLV) - len(uspBytes)

	var scopedBytes []byte
	var err error
	if msg.ScopedPlain != nil {
		scopedBytes, err = msg.ScopedPlain.Encode()
		if err != nil {
			return EncodeResult{}, fmt.Errorf("ber: message scoped pdu: %w", err)
		}
	} else {
		scopedBytes = encodeTLV(TagOctetString, msg.ScopedEncrypted)
	}

	var content []byte
	content = append(content, encodeIntegerTLV(int64(Version3))...)
	content = append(content, msg.Header.Encode()...)

	secParamsAbsOffsetInContent := len(content) + secParamsHeaderLen + authOff
	privParamsAbsOffsetInContent := len(content) + secParamsHeaderLen + privOff
	content = append(content, secParamsTLV...)
	content = append(content, scopedBytes...)

	full := encodeTLV(TagSequence, content)
	outerHeaderLen := len(full) - len(content)

	return EncodeResult{
		Bytes:            full,
		AuthParamsOffset: outerHeaderLen + secParamsAbsOffsetInContent,
		PrivParamsOffset: outerHeaderLen + privParamsAbsOffsetInContent,
	}, nil
}

// DecodeResult carries the decoded Message plus the absolute offset/length
// of the AuthenticationParameters field within the original buffer, which
// authentication verification needs to zero-and-rehash in place.
type DecodeResult struct {
	Msg              Message
	AuthParamsStart  int
	AuthParamsLen    int
	ScopedPDUStart   int // absolute offset where the (possibly encrypted) scoped PDU TLV begins
}

// Decode parses a full SNMPv3 Message from buf.
func Decode(buf []byte) (DecodeResult, error) {
	tag, content, contentAbsStart, _, err := decodeTLV(buf, 0)
	if err != nil {
		return DecodeResult{}, err
	}
	if tag != TagSequence {
		return DecodeResult{}, fmt.Errorf("ber: expected Message SEQUENCE, got 0x%02X", tag)
	}

	cpos := 0
	verTag, verContent, _, cnext, err := decodeTLV(content, cpos)
	if err != nil || verTag != TagInteger {
		return DecodeResult{}, fmt.Errorf("ber: message msgVersion: %w", err)
	}
	if decodeInteger(verContent) != int64(Version3) {
		return DecodeResult{}, fmt.Errorf("ber: unsupported msgVersion %d", decodeInteger(verContent))
	}
	cpos = cnext

	header, cnext, err := decodeHeaderData(content, cpos)
	if err != nil {
		return DecodeResult{}, err
	}
	cpos = cnext

	secTag, secContent, secContentAbsStart, cnext, err := decodeTLV(content, cpos)
	if err != nil || secTag != TagOctetString {
		return DecodeResult{}, fmt.Errorf("ber: message msgSecurityParameters: %w", err)
	}
	usp, authStartInSec, authLen, _, err := decodeUSP(secContent, 0)
	if err != nil {
		return DecodeResult{}, fmt.Errorf("ber: message security parameters: %w", err)
	}
	// secContentAbsStart is relative to `content`; add contentAbsStart to
	// land in buf's own coordinate space.
	authParamsAbsStart := contentAbsStart + secContentAbsStart + authStartInSec
	cpos = cnext

	scopedTag, scopedContent, scopedContentStart, _, err := decodeTLV(content, cpos)
	if err != nil {
		return DecodeResult{}, fmt.Errorf("ber: message scoped pdu data: %w", err)
	}

	msg := Message{Header: header, Security: usp}
	scopedPDUAbsStart := contentAbsStart + scopedContentStart - tlvHeaderLen(scopedContent)

	switch scopedTag {
	case TagSequence:
		spdu, _, err := DecodeScopedPDU(content, cpos)
		if err != nil {
			return DecodeResult{}, err
		}
		msg.ScopedPlain = &spdu
	case TagOctetString:
		msg.ScopedEncrypted = append([]byte(nil), scopedContent...)
	default:
		return DecodeResult{}, fmt.Errorf("ber: unexpected scoped-pdu-data tag 0x%02X", scopedTag)
	}

	return DecodeResult{
		Msg:             msg,
		AuthParamsStart: authParamsAbsStart,
		AuthParamsLen:   authLen,
		ScopedPDUStart:  scopedPDUAbsStart,
	}, nil
}

// tlvHeaderLen returns the number of bytes a TLV's tag+length header would
// occupy given a content slice of this length (used to recover absolute
// offsets without re-decoding).
func tlvHeaderLen(content []byte) int {
	return len(encodeLength(len(content))) + 1
}
