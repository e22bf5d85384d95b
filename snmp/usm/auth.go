// Package usm implements the User-based Security Model's authentication and
// privacy protocols (RFC 3414 §6, §8): HMAC-SHA-1-96 message digesting with
// the classic K1/K2 pad construction, and AES-128-CFB encryption of the
// scoped PDU. Grounded on the pack's own gosnmp v3_usm.go (digestRFC3414,
// encryptPacket/decryptPacket), adapted from MD5/DES-era defaults to the
// SHA-1/AES profile this agent exposes.
package usm

import (
	"crypto/sha1"
	"crypto/subtle"
	"fmt"

	"github.com/vpbank/snmpagent/models"
)

// AuthDigestLen is the wire size of the truncated HMAC-SHA-1-96 digest.
const AuthDigestLen = 12

// ZeroAuthParams is the 12-byte placeholder authenticationParameters is set
// to before the digest is computed (spec.md §4.4.1).
var ZeroAuthParams = make([]byte, AuthDigestLen)

// digest computes the classic two-pass HMAC-SHA-1 over msg using the
// caller's precomputed K1/K2 pads (RFC 3414 §6.3.1):
//
//	inner  = SHA1(K1 || msg)
//	digest = SHA1(K2 || inner)[:12]
func digest(k1, k2 *[64]byte, msg []byte) [AuthDigestLen]byte {
	inner := sha1.New()
	inner.Write(k1[:])
	inner.Write(msg)
	innerSum := inner.Sum(nil)

	outer := sha1.New()
	outer.Write(k2[:])
	outer.Write(innerSum)
	outerSum := outer.Sum(nil)

	var out [AuthDigestLen]byte
	copy(out[:], outerSum[:AuthDigestLen])
	return out
}

// Stamp computes the HMAC-SHA-1-96 digest over msgBytes (which must already
// have its authenticationParameters field zeroed to ZeroAuthParams) and
// writes it in place at msgBytes[authParamsOffset:authParamsOffset+12].
//
// This relies on the BER encoder producing a fixed-size OCTET STRING for the
// authParams slot regardless of whether it holds zeros or a real digest, so
// overwriting in place never perturbs any length or offset elsewhere in the
// message (spec.md §4.4.1).
func Stamp(user *models.User, msgBytes []byte, authParamsOffset int) error {
	if authParamsOffset+AuthDigestLen > len(msgBytes) {
		return fmt.Errorf("usm: auth params offset %d out of range (len %d)", authParamsOffset, len(msgBytes))
	}
	d := digest(&user.K1, &user.K2, msgBytes)
	copy(msgBytes[authParamsOffset:authParamsOffset+AuthDigestLen], d[:])
	return nil
}

// Verify checks the authenticationParameters embedded in a received message.
// rawMsgBytes is the full message exactly as received; authParamsStart/Len
// locate the 12-byte digest within it. Verify copies rawMsgBytes, zeroes the
// digest region in the copy, recomputes the expected digest over that copy,
// and compares it against the original bytes in constant time — it never
// mutates the caller's buffer.
func Verify(user *models.User, rawMsgBytes []byte, authParamsStart, authParamsLen int) (bool, error) {
	if authParamsLen != AuthDigestLen {
		return false, fmt.Errorf("usm: authParams length %d, want %d", authParamsLen, AuthDigestLen)
	}
	if authParamsStart+AuthDigestLen > len(rawMsgBytes) {
		return false, fmt.Errorf("usm: authParams offset %d out of range (len %d)", authParamsStart, len(rawMsgBytes))
	}

	var received [AuthDigestLen]byte
	copy(received[:], rawMsgBytes[authParamsStart:authParamsStart+AuthDigestLen])

	zeroed := append([]byte(nil), rawMsgBytes...)
	copy(zeroed[authParamsStart:authParamsStart+AuthDigestLen], ZeroAuthParams)

	expected := digest(&user.K1, &user.K2, zeroed)
	return subtle.ConstantTimeCompare(expected[:], received[:]) == 1, nil
}
