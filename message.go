package stun

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// IntegrityStatus reports the outcome of validating a content-dependent
// attribute (MESSAGE-INTEGRITY or, implicitly, FINGERPRINT) on decode.
type IntegrityStatus int

const (
	// IntegrityAbsent means the attribute was not present.
	IntegrityAbsent IntegrityStatus = iota
	// IntegrityValid means the attribute was present and validated.
	IntegrityValid
	// IntegrityInvalid means the attribute was present and the
	// recomputed value did not match.
	IntegrityInvalid
	// IntegrityUnknown means MESSAGE-INTEGRITY was present but no
	// credentials collaborator could supply a key for the USERNAME on
	// the message, so validation was skipped.
	IntegrityUnknown
)

// Message is a complete STUN message: header fields plus an ordered
// list of attributes. MESSAGE-INTEGRITY and FINGERPRINT are handled
// outside Attributes because their value depends on the bytes that
// precede them; see SetIntegrityKey and AddFingerprint.
type Message struct {
	Type          MessageType
	TransactionID [12]byte
	Attributes    []Attribute

	// NoPadData selects the older TURN dialect that forbids padding on
	// the DATA attribute's value. Most peers want this false (the
	// default, 4-byte-aligned like every other attribute).
	NoPadData bool

	// Legacy is set by Decode when the message's first four ID bytes
	// did not match the magic cookie, marking it as a pre-RFC-5389
	// message whose 16-byte transaction id has no cookie structure.
	// LegacyIDPrefix preserves those four bytes so re-encoding keeps
	// the peer's full 16-byte id. XOR attributes are never used by such
	// peers, so Legacy does not otherwise change how this Message is
	// handled.
	Legacy         bool
	LegacyIDPrefix [4]byte

	integrityKey   []byte
	addFingerprint bool

	raw               []byte
	IntegrityStatus   IntegrityStatus
	FingerprintStatus IntegrityStatus
}

// New creates an empty Message of the given type with a fresh,
// cryptographically random transaction id.
func New(t MessageType) *Message {
	m := &Message{Type: t}
	if _, err := rand.Read(m.TransactionID[:]); err != nil {
		panic("stun: crypto/rand unavailable: " + err.Error())
	}
	return m
}

// NewRequest creates a Request message for the given method.
func NewRequest(method Method) *Message {
	return New(MessageType{Class: ClassRequest, Method: method})
}

// NewIndication creates an Indication message for the given method.
func NewIndication(method Method) *Message {
	return New(MessageType{Class: ClassIndication, Method: method})
}

// NewSuccessResponse creates a Success Response to req, copying its
// transaction id and method.
func NewSuccessResponse(req *Message) *Message {
	m := &Message{Type: MessageType{Class: ClassSuccessResponse, Method: req.Type.Method}}
	m.TransactionID = req.TransactionID
	return m
}

// NewErrorResponse creates an Error Response to req carrying the given
// STUN error code and reason phrase.
func NewErrorResponse(req *Message, code int, reason string) *Message {
	m := &Message{Type: MessageType{Class: ClassErrorResponse, Method: req.Type.Method}}
	m.TransactionID = req.TransactionID
	m.Add(AttrErrorCode, ErrorCodeAttr{Code: code, Reason: reason})
	return m
}

// Add appends attr to the message, replacing any existing attribute of
// the same type in place (so ordering of the first occurrence is kept),
// matching the "ordered vector with replace-on-same-type" data model.
func (m *Message) Add(t AttrType, v AttrValue) {
	for i, a := range m.Attributes {
		if a.Type == t {
			m.Attributes[i].Value = v
			return
		}
	}
	m.Attributes = append(m.Attributes, Attribute{Type: t, Value: v})
}

// Get returns the first attribute of type t, if present.
func (m *Message) Get(t AttrType) (Attribute, bool) {
	for _, a := range m.Attributes {
		if a.Type == t {
			return a, true
		}
	}
	return Attribute{}, false
}

// Username returns the decoded USERNAME attribute's value, if present.
func (m *Message) Username() (string, bool) {
	a, ok := m.Get(AttrUsername)
	if !ok {
		return "", false
	}
	bs, ok := a.Value.(ByteStringAttr)
	return bs.String(), ok
}

// SetIntegrityKey arranges for Encode to append a MESSAGE-INTEGRITY
// attribute computed with key. Per the error-handling design, callers
// normally also set USERNAME (and REALM/NONCE for long-term
// credentials) before calling Encode.
func (m *Message) SetIntegrityKey(key []byte) { m.integrityKey = key }

// AddFingerprint arranges for Encode to append a FINGERPRINT attribute
// as the final attribute in the message.
func (m *Message) AddFingerprint() { m.addFingerprint = true }

// fullID returns magic-cookie||transaction-id, the 16-byte key material
// XOR address attributes are computed against. This always uses the
// fixed magic cookie constant, even for a Legacy message, since XOR
// attributes are an RFC-5389 concept a legacy peer would never send.
func (m *Message) fullID() [16]byte {
	var id [16]byte
	binary.BigEndian.PutUint32(id[0:4], magicCookie)
	copy(id[4:], m.TransactionID[:])
	return id
}

// Class reports the message's class (request / indication / success /
// error).
func (m *Message) Class() Class { return m.Type.Class }

// UnknownComprehensionRequired returns the comprehension-required
// attribute types this message carries that were not recognized (and
// so were preserved as RawAttr). A server handling a Request should
// respond 420 with these types listed in UNKNOWN-ATTRIBUTES if the
// slice is non-empty; the codec itself never raises this as a decode
// error (see design note on unknown attributes).
func (m *Message) UnknownComprehensionRequired() []AttrType {
	var out []AttrType
	for _, a := range m.Attributes {
		if _, ok := a.Value.(RawAttr); ok && a.Type.Comprehensible() {
			out = append(out, a.Type)
		}
	}
	return out
}

func (m *Message) String() string {
	return fmt.Sprintf("%s len=%d attrs=%d id=%s",
		m.Type, len(m.raw), len(m.Attributes),
		base64.StdEncoding.EncodeToString(m.TransactionID[:]))
}

// Encode serializes the message: header, attributes in insertion order,
// then MESSAGE-INTEGRITY (if SetIntegrityKey was called), then
// FINGERPRINT (if AddFingerprint was called). The header's length field
// is patched at each stage so it always reflects the message as encoded
// so far, per the content-dependent-attribute design.
func (m *Message) Encode() []byte {
	id := m.fullID()

	buf := make([]byte, messageHeaderLength, messageHeaderLength+64)
	binary.BigEndian.PutUint16(buf[0:2], m.Type.Value())
	if m.Legacy {
		copy(buf[4:8], m.LegacyIDPrefix[:])
	} else {
		binary.BigEndian.PutUint32(buf[4:8], magicCookie)
	}
	copy(buf[8:messageHeaderLength], m.TransactionID[:])

	for _, a := range m.Attributes {
		if a.Type == AttrData && m.NoPadData {
			buf = append(buf, encodeUnpadded(a, id)...)
			continue
		}
		buf = append(buf, a.encode(id)...)
	}
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(buf)-messageHeaderLength))

	if m.integrityKey != nil {
		miOffset := len(buf)
		binary.BigEndian.PutUint16(buf[2:4], integrityPrefixLength(miOffset))
		mac := computeHMAC(m.integrityKey, buf)

		miHeader := make([]byte, 4)
		binary.BigEndian.PutUint16(miHeader[0:2], uint16(AttrMessageIntegrity))
		binary.BigEndian.PutUint16(miHeader[2:4], 20)
		buf = append(buf, miHeader...)
		buf = append(buf, mac[:]...)
	}

	if m.addFingerprint {
		fpOffset := len(buf)
		const fpAttrSize = 4 + 4
		binary.BigEndian.PutUint16(buf[2:4], uint16(fpOffset-messageHeaderLength+fpAttrSize))
		crc := computeFingerprint(buf[:fpOffset])

		fpHeader := make([]byte, 8)
		binary.BigEndian.PutUint16(fpHeader[0:2], uint16(AttrFingerprint))
		binary.BigEndian.PutUint16(fpHeader[2:4], 4)
		binary.BigEndian.PutUint32(fpHeader[4:8], crc)
		buf = append(buf, fpHeader...)
	}

	m.raw = buf
	return buf
}

// encodeUnpadded writes an attribute's header and value with no
// trailing padding, for the NoPadData DATA dialect.
func encodeUnpadded(a Attribute, fullID [16]byte) []byte {
	body := a.Value.encode(fullID)
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint16(buf[0:2], uint16(a.Type))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(body)))
	copy(buf[4:], body)
	return buf
}

// Decode parses buf into a Message. creds may be nil, in which case any
// MESSAGE-INTEGRITY attribute is flagged IntegrityUnknown rather than
// validated. A nil *DecodeError means success.
func Decode(buf []byte, creds Credentials) (*Message, *DecodeError) {
	return decode(buf, creds, false)
}

// DecodeNoPad is Decode for the dialect that forbids padding on the
// DATA attribute. The returned Message has NoPadData set, so
// re-encoding it stays in the same dialect.
func DecodeNoPad(buf []byte, creds Credentials) (*Message, *DecodeError) {
	return decode(buf, creds, true)
}

func decode(buf []byte, creds Credentials, noPadData bool) (*Message, *DecodeError) {
	if len(buf) < messageHeaderLength {
		return nil, &DecodeError{Err: ErrShortBuffer}
	}
	if buf[0]&0xC0 != 0 {
		return nil, &DecodeError{Err: ErrNotAMessage}
	}

	typeVal := binary.BigEndian.Uint16(buf[0:2])
	declared := int(binary.BigEndian.Uint16(buf[2:4]))
	cookie := binary.BigEndian.Uint32(buf[4:8])

	var txID [12]byte
	copy(txID[:], buf[8:messageHeaderLength])

	total := messageHeaderLength + declared
	if total > len(buf) {
		return nil, &DecodeError{Code: CodeBadRequest, TransactionID: txID,
			Err: &MalformedError{Expected: total, Actual: len(buf)}}
	}

	m := &Message{
		Type:          messageTypeFromValue(typeVal),
		TransactionID: txID,
		Legacy:        cookie != magicCookie,
		NoPadData:     noPadData,
		raw:           buf[:total],
	}
	if m.Legacy {
		copy(m.LegacyIDPrefix[:], buf[4:8])
	}
	id := m.fullID()

	offset := messageHeaderLength
	miOffset, fpOffset := -1, -1
	var miValue, fpValue []byte

	for offset < total {
		if offset+4 > total {
			return nil, &DecodeError{Code: CodeBadRequest, TransactionID: txID,
				Err: &MalformedError{Expected: 4, Actual: total - offset}}
		}
		t := AttrType(binary.BigEndian.Uint16(m.raw[offset : offset+2]))
		declLen := int(binary.BigEndian.Uint16(m.raw[offset+2 : offset+4]))
		valStart := offset + 4
		valEnd := valStart + declLen
		if valEnd > total {
			return nil, &DecodeError{Code: CodeBadRequest, TransactionID: txID,
				Err: &MalformedError{AttrType: t, Expected: declLen, Actual: total - valStart}}
		}
		value := m.raw[valStart:valEnd]

		switch t {
		case AttrFingerprint:
			if declLen != 4 {
				return nil, &DecodeError{Code: CodeBadRequest, TransactionID: txID,
					Err: &MalformedError{AttrType: t, Expected: 4, Actual: declLen}}
			}
			fpOffset = offset
			fpValue = value
		case AttrMessageIntegrity:
			if declLen != 20 {
				return nil, &DecodeError{Code: CodeBadRequest, TransactionID: txID,
					Err: &MalformedError{AttrType: t, Expected: 20, Actual: declLen}}
			}
			miOffset = offset
			miValue = value
		default:
			av, err := decodeOneAttr(t, value, id)
			if err != nil {
				return nil, &DecodeError{Code: CodeBadRequest, TransactionID: txID,
					Attr: &Attribute{Type: t}, Err: err}
			}
			m.Attributes = append(m.Attributes, Attribute{Type: t, Value: av})
		}

		pad := pad4(declLen)
		if t == AttrData && m.NoPadData {
			pad = 0
		}
		offset = valEnd + pad
	}

	if fpOffset >= 0 {
		if fpOffset+8 != total {
			return nil, &DecodeError{Code: 0, TransactionID: txID,
				Err: fmt.Errorf("stun: FINGERPRINT is not the last attribute")}
		}
		want := computeFingerprint(m.raw[:fpOffset])
		got := binary.BigEndian.Uint32(fpValue)
		if want != got {
			wantBuf := make([]byte, 4)
			binary.BigEndian.PutUint32(wantBuf, want)
			m.FingerprintStatus = IntegrityInvalid
			return nil, &DecodeError{Code: 0, TransactionID: txID,
				Err: &IntegrityError{Kind: IntegrityFingerprint, Expected: wantBuf, Actual: fpValue}}
		}
		m.FingerprintStatus = IntegrityValid
	}

	if miOffset >= 0 {
		switch {
		case creds == nil:
			m.IntegrityStatus = IntegrityUnknown
		default:
			username, _ := m.Username()
			key, known := creds.GetKey(username)
			if !known {
				m.IntegrityStatus = IntegrityUnknown
			} else {
				patched := withPatchedLength(m.raw, miOffset, integrityPrefixLength(miOffset))
				want := computeHMAC(key, patched)
				if hmac.Equal(want[:], miValue) {
					m.IntegrityStatus = IntegrityValid
				} else {
					m.IntegrityStatus = IntegrityInvalid
					code := 0
					if m.Type.Class == ClassRequest {
						code = CodeUnauthorized
					}
					return nil, &DecodeError{Code: code, TransactionID: txID,
						Err: &IntegrityError{Kind: IntegrityHMAC, Expected: want[:], Actual: miValue}}
				}
			}
		}
	}

	return m, nil
}
