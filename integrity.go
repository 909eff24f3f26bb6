package stun

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // mandated by RFC 5389 MESSAGE-INTEGRITY, not a new design choice.
	"encoding/binary"
	"hash/crc32"
)

// fingerprintXor is XOR-ed into the CRC-32 so a FINGERPRINT attribute
// never accidentally matches a coincidental CRC-32 in application data
// sharing the same port.
const fingerprintXor uint32 = 0x5354554E

// crc32Table is the ITU V.42 polynomial (the same one used by Ethernet,
// gzip, and zip), computed once at package init.
var crc32Table = crc32.MakeTable(crc32.IEEE)

// computeFingerprint returns the FINGERPRINT attribute value for a
// message whose bytes up to (not including) the FINGERPRINT attribute
// are prefix.
func computeFingerprint(prefix []byte) uint32 {
	return crc32.Checksum(prefix, crc32Table) ^ fingerprintXor
}

// computeHMAC returns the MESSAGE-INTEGRITY attribute value: HMAC-SHA1
// over prefix using key.
func computeHMAC(key, prefix []byte) [20]byte {
	mac := hmac.New(sha1.New, key)
	mac.Write(prefix)
	var out [20]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// integrityPrefixLength computes the header Length field value a
// MESSAGE-INTEGRITY computation must use: the message as if it ended
// right after the MI attribute, regardless of what (if anything) was
// actually appended after it (i.e. FINGERPRINT).
//
// miOffset is the byte offset of the MI attribute's 4-byte header
// within the whole message (header included).
func integrityPrefixLength(miOffset int) uint16 {
	const miAttrSize = 4 + 20 // header + 20-byte HMAC-SHA1 digest
	return uint16(miOffset - messageHeaderLength + miAttrSize)
}

// withPatchedLength returns a copy of raw[:upto] with the header's
// length field overwritten to length. Used so MESSAGE-INTEGRITY
// validation on decode reconstructs exactly the bytes that were hashed
// on encode, even though the wire's actual header.Length reflects the
// full message (possibly including a trailing FINGERPRINT).
func withPatchedLength(raw []byte, upto int, length uint16) []byte {
	patched := make([]byte, upto)
	copy(patched, raw[:upto])
	binary.BigEndian.PutUint16(patched[2:4], length)
	return patched
}
