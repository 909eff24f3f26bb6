package stun

// ByteStringAttr is the variable-length byte-string layout shared by
// SOFTWARE, USERNAME, REALM, and NONCE.
type ByteStringAttr []byte

func (a ByteStringAttr) encode([16]byte) []byte { return []byte(a) }

func (a ByteStringAttr) String() string { return string(a) }

func decodeSoftwareAttr(v []byte, _ [16]byte) (AttrValue, error) {
	return ByteStringAttr(append([]byte(nil), v...)), nil
}

func decodeRealmAttr(v []byte, _ [16]byte) (AttrValue, error) {
	return ByteStringAttr(append([]byte(nil), v...)), nil
}

func decodeNonceAttr(v []byte, _ [16]byte) (AttrValue, error) {
	return ByteStringAttr(append([]byte(nil), v...)), nil
}

// decodeUsernameAttr tolerates a known peer quirk: some implementations
// pad USERNAME with trailing zero bytes instead of (or in addition to)
// ordinary 4-byte padding, and declare the zero bytes as part of the
// attribute's length. Shrink the reported value while a trailing zero
// byte remains, so "alice\0\0\0" decodes to "alice".
func decodeUsernameAttr(v []byte, _ [16]byte) (AttrValue, error) {
	n := len(v)
	for n > 0 && v[n-1] == 0 {
		n--
	}
	return ByteStringAttr(append([]byte(nil), v[:n]...)), nil
}
