package stun

import (
	"fmt"
	"net"
)

// Client is a minimal synchronous STUN client: it sends one Binding
// request per Dial call and waits for the matching response. Retried,
// concurrent transactions are the job of the transaction package, which
// does not use this type.
type Client struct {
	ServerAddr string
	logger     *Logger
}

// NewClient creates a new STUN client with the specified server address.
// The server address should be in the format "host:port".
func NewClient(addr string) *Client {
	return &Client{
		ServerAddr: addr,
		logger:     NewDefaultLogger(),
	}
}

// NewClientWithLogger creates a new STUN client with a custom logger.
func NewClientWithLogger(addr string, logger *Logger) *Client {
	return &Client{
		ServerAddr: addr,
		logger:     logger,
	}
}

// Dial sends m to the server and returns the response. m's class is
// forced to Request and it is given a fresh transaction id before
// sending, so callers only need to set Type.Method and any attributes.
func (client *Client) Dial(m *Message) (*Message, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", client.ServerAddr)
	if err != nil {
		client.logger.LogError("Failed to resolve server address", err, map[string]interface{}{
			"server_addr": client.ServerAddr,
		})
		return nil, err
	}

	m.Type.Class = ClassRequest
	fresh := New(m.Type)
	fresh.Attributes = m.Attributes
	fresh.NoPadData = m.NoPadData
	fresh.integrityKey = m.integrityKey
	fresh.addFingerprint = m.addFingerprint
	*m = *fresh

	client.logger.LogClientRequest(client.ServerAddr, m.Type, m.TransactionID)

	c, err := net.DialUDP("udp4", nil, udpAddr)
	if err != nil {
		client.logger.LogError("Failed to dial UDP connection", err, map[string]interface{}{
			"server_addr": client.ServerAddr,
		})
		return nil, err
	}
	defer c.Close()

	client.logger.LogConnection(c.LocalAddr().String(), udpAddr.String(), "stun_client")

	if _, err := c.Write(m.Encode()); err != nil {
		client.logger.LogError("Failed to write request to server", err, map[string]interface{}{
			"server_addr":    client.ServerAddr,
			"transaction_id": m.TransactionID,
		})
		return nil, err
	}

	buff := make([]byte, 2048)
	n, _, err := c.ReadFromUDP(buff)
	if err != nil {
		client.logger.LogError("Failed to read response from server", err, map[string]interface{}{
			"server_addr":    client.ServerAddr,
			"transaction_id": m.TransactionID,
		})
		return nil, err
	}

	resp, derr := Decode(buff[:n], nil)
	if derr != nil {
		client.logger.LogError("Failed to parse response message", derr, map[string]interface{}{
			"server_addr":    client.ServerAddr,
			"transaction_id": m.TransactionID,
		})
		return nil, derr
	}
	if resp.TransactionID != m.TransactionID {
		return nil, fmt.Errorf("stun: transaction id mismatch in response from %s", client.ServerAddr)
	}

	var xorAddr *XorAddressAttr
	if a, ok := resp.Get(AttrXorMappedAddress); ok {
		if xa, ok := a.Value.(XorAddressAttr); ok {
			xorAddr = &xa
		}
	}
	client.logger.LogClientResponse(client.ServerAddr, resp.Type, xorAddr)

	return resp, nil
}
