package stun

import "fmt"

// AttrType is the 16-bit type code tagging a STUN attribute.
type AttrType uint16

// The closed set of attribute types this core recognizes. Types at or
// above 0x8000 are comprehension-optional; types below are
// comprehension-required (a server encountering an unrecognized
// comprehension-required attribute in a request should answer 420 with
// UNKNOWN-ATTRIBUTES, per the error-handling design — the codec itself
// never raises this as a decode failure, it always preserves the
// unrecognized bytes as RawAttr).
const (
	AttrMappedAddress      AttrType = 0x0001
	AttrResponseAddress    AttrType = 0x0002
	AttrChangeRequest      AttrType = 0x0003
	AttrSourceAddress      AttrType = 0x0004
	AttrChangedAddress     AttrType = 0x0005
	AttrUsername           AttrType = 0x0006
	AttrMessageIntegrity   AttrType = 0x0008
	AttrErrorCode          AttrType = 0x0009
	AttrUnknownAttributes  AttrType = 0x000A
	AttrReflectedFrom      AttrType = 0x000B
	AttrChannelNumber      AttrType = 0x000C
	AttrLifetime           AttrType = 0x000D
	AttrMagicCookie        AttrType = 0x000F
	AttrDestinationAddr    AttrType = 0x0011
	AttrXorPeerAddress     AttrType = 0x0012
	AttrData               AttrType = 0x0013
	AttrRealm              AttrType = 0x0014
	AttrNonce              AttrType = 0x0015
	AttrXorRelayedAddress  AttrType = 0x0016
	AttrEvenPort           AttrType = 0x0018
	AttrRequestedTransport AttrType = 0x0019
	AttrDontFragment       AttrType = 0x001A
	AttrXorMappedAddress   AttrType = 0x0020
	AttrXorOnly            AttrType = 0x0021
	AttrReservationToken   AttrType = 0x0022
	AttrPriority           AttrType = 0x0024
	AttrSoftware           AttrType = 0x8022
	AttrAlternateServer    AttrType = 0x8023
	AttrFingerprint        AttrType = 0x8028
	AttrIceControlled      AttrType = 0x8029
	AttrIceControlling     AttrType = 0x802A
)

var attrTypeNames = map[AttrType]string{
	AttrMappedAddress:      "MAPPED-ADDRESS",
	AttrResponseAddress:    "RESPONSE-ADDRESS",
	AttrChangeRequest:      "CHANGE-REQUEST",
	AttrSourceAddress:      "SOURCE-ADDRESS",
	AttrChangedAddress:     "CHANGED-ADDRESS",
	AttrUsername:           "USERNAME",
	AttrMessageIntegrity:   "MESSAGE-INTEGRITY",
	AttrErrorCode:          "ERROR-CODE",
	AttrUnknownAttributes:  "UNKNOWN-ATTRIBUTES",
	AttrReflectedFrom:      "REFLECTED-FROM",
	AttrChannelNumber:      "CHANNEL-NUMBER",
	AttrLifetime:           "LIFETIME",
	AttrMagicCookie:        "MAGIC-COOKIE",
	AttrDestinationAddr:    "DESTINATION-ADDRESS",
	AttrXorPeerAddress:     "XOR-PEER-ADDRESS",
	AttrData:               "DATA",
	AttrRealm:              "REALM",
	AttrNonce:              "NONCE",
	AttrXorRelayedAddress:  "XOR-RELAYED-ADDRESS",
	AttrEvenPort:           "EVEN-PORT",
	AttrRequestedTransport: "REQUESTED-TRANSPORT",
	AttrDontFragment:       "DONT-FRAGMENT",
	AttrXorMappedAddress:   "XOR-MAPPED-ADDRESS",
	AttrXorOnly:            "XOR-ONLY",
	AttrReservationToken:   "RESERVATION-TOKEN",
	AttrPriority:           "PRIORITY",
	AttrSoftware:           "SOFTWARE",
	AttrAlternateServer:    "ALTERNATE-SERVER",
	AttrFingerprint:        "FINGERPRINT",
	AttrIceControlled:      "ICE-CONTROLLED",
	AttrIceControlling:     "ICE-CONTROLLING",
}

func (t AttrType) String() string {
	if name, ok := attrTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%04x)", uint16(t))
}

// Comprehensible reports whether t is comprehension-required (below
// 0x8000). A request carrying an unrecognized comprehension-required
// attribute is the trigger for a 420 UnknownMandatoryAttribute response.
func (t AttrType) Comprehensible() bool {
	return t < 0x8000
}

// pad4 returns the number of zero bytes needed to round n up to the
// next multiple of 4.
func pad4(n int) int {
	if r := n % 4; r != 0 {
		return 4 - r
	}
	return 0
}
