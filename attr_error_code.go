package stun

import "fmt"

// ErrorCodeAttr carries a STUN error-response code and a human-readable
// reason phrase. Code is the full three-digit number (e.g. 420, 401);
// Class and Number are derived from it on encode.
type ErrorCodeAttr struct {
	Code   int
	Reason string
}

func (a ErrorCodeAttr) class() byte  { return byte(a.Code / 100) }
func (a ErrorCodeAttr) number() byte { return byte(a.Code % 100) }

func (a ErrorCodeAttr) encode([16]byte) []byte {
	buf := make([]byte, 4+len(a.Reason))
	// buf[0:2] are reserved and left zero.
	buf[2] = a.class()
	buf[3] = a.number()
	copy(buf[4:], a.Reason)
	return buf
}

func decodeErrorCodeAttr(v []byte, _ [16]byte) (AttrValue, error) {
	if len(v) < 4 {
		return nil, &MalformedError{AttrType: AttrErrorCode, Expected: 4, Actual: len(v)}
	}
	class := v[2]
	if class < 3 || class > 6 {
		return nil, &MalformedError{AttrType: AttrErrorCode, Expected: 4, Actual: len(v)}
	}
	number := v[3]
	return ErrorCodeAttr{
		Code:   int(class)*100 + int(number),
		Reason: string(v[4:]),
	}, nil
}

func (a ErrorCodeAttr) String() string {
	return fmt.Sprintf("%d: %s", a.Code, a.Reason)
}

// Well-known error codes from the error-handling design (section 7).
const (
	CodeBadRequest                = 400
	CodeUnauthorized              = 401
	CodeUnknownAttribute          = 420
	CodeStaleNonce                = 438
	CodeServerError               = 500
	CodeAllocationMismatch        = 437
	CodeWrongCredentials          = 441
	CodeUnsupportedTransportProto = 442
	CodeAllocationQuotaReached    = 486
	CodeInsufficientCapacity      = 508
)
