// Package stun implements the Session Traversal Utilities for NAT (STUN)
// message format defined in RFC 5389, plus the TURN (RFC 5766) attribute
// and framing extensions needed to relay traffic through it. It is the
// wire codec the sibling transaction and demux packages, and the
// stungate client/server binaries, are built on.
//
// STUN lets a client discover its server-reflexive transport address —
// what the outside world sees it as, through any NAT in between — which
// is the basic building block peer-to-peer protocols like ICE and WebRTC
// use to find a path between two hosts that cannot otherwise reach each
// other directly. TURN extends it with a relay: when no direct path
// exists, a TURN server allocates a transport address on the client's
// behalf and forwards traffic to and from a peer through it.
//
// Key Features:
//   - Full STUN message codec (RFC 5389): header, attributes, padding
//   - MESSAGE-INTEGRITY (HMAC-SHA1) and FINGERPRINT (CRC-32) support
//   - TURN attribute set and ChannelData framing (RFC 5766)
//   - Short-term and long-term credential key derivation
//   - Structured logging with configurable levels
//   - Typed decode errors distinguishing malformed input from integrity failures
//
// Basic Usage:
//
//	req := stun.NewRequest(stun.MethodBinding)
//	req.AddFingerprint()
//	buf := req.Encode()
//
//	// ... send buf, read a response into respBuf ...
//
//	resp, derr := stun.Decode(respBuf, nil)
//	if derr != nil {
//		log.Fatal(derr)
//	}
//	addr, _ := resp.Get(stun.AttrXorMappedAddress)
//	xor := addr.Value.(stun.XorAddressAttr)
//	fmt.Printf("Public IP: %s:%d\n", xor.IP, xor.Port)
//
// A synchronous Client/Server pair wraps this for the simplest case of a
// classic Binding responder; see Client.Dial and Server.Listen. Anything
// that needs RFC 5389 retransmission timing, server-side retransmission
// absorption, or demultiplexing STUN traffic off a socket shared with
// other protocols belongs in the transaction and demux packages instead.
//
// Logging:
//
//	logger := stun.NewLogger(stun.LoggerConfig{
//		Level:      stun.DebugLevel,
//		Format:     "json",
//		ShowCaller: false,
//	})
//
// For protocol details see RFC 5389 (https://tools.ietf.org/html/rfc5389)
// and RFC 5766 (https://tools.ietf.org/html/rfc5766).
package stun
