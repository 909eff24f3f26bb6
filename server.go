package stun

import (
	"net"
	"time"
)

// Server is a minimal synchronous STUN Binding server: one goroutine
// reading datagrams and replying with a reflexive address. It has no
// retransmission absorption or multiplexing (the transaction and demux
// packages provide those and do not use this type); it is what a caller
// reaches for when all it needs is a classic Binding responder.
type Server struct {
	addr    string
	port    string
	timeout time.Duration
	logger  *Logger
	creds   Credentials
}

// ServerConfig holds configuration options for creating a STUN server.
type ServerConfig struct {
	// Addr is the IP address to bind to (e.g., "127.0.0.1", "0.0.0.0")
	Addr string
	// Port is the port number to listen on (e.g., "3478")
	Port string
	// Timeout is reported in the startup log line; Listen applies no
	// read or connection timeout.
	Timeout time.Duration
	// Logger is the logger instance to use for logging
	Logger *Logger
	// Credentials validates MESSAGE-INTEGRITY on incoming requests, if
	// any carry it. May be left nil for an anonymous Binding server.
	Credentials Credentials
}

// NewServer creates a new STUN server with the specified configuration.
// If no logger is provided, a default logger will be used.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}

	return &Server{
		addr:    cfg.Addr,
		port:    cfg.Port,
		timeout: cfg.Timeout,
		logger:  logger,
		creds:   cfg.Credentials,
	}
}

// Listen starts the STUN server and begins listening for incoming
// connections. It returns only if resolving or binding the address
// fails; once listening, read errors are logged and it keeps serving.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.addr, s.port)
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		s.logger.LogError("Failed to resolve UDP address", err, map[string]interface{}{
			"address": addr,
		})
		return err
	}

	s.logger.Info("STUN server starting", map[string]interface{}{
		"address": addr,
		"timeout": s.timeout.String(),
	})

	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		s.logger.LogError("Failed to listen on UDP address", err, map[string]interface{}{
			"address": addr,
		})
		return err
	}
	defer conn.Close()

	s.logger.LogConnection(conn.LocalAddr().String(), "", "stun_server")

	for {
		s.HandleUDPConn(conn)
	}
}

// HandleUDPConn reads and answers one incoming datagram: a malformed
// message is logged and dropped (never answered), matching the silent-
// discard edge case; a well-formed Binding request gets a Success
// Response carrying its reflexive XOR-MAPPED-ADDRESS.
func (s *Server) HandleUDPConn(con *net.UDPConn) {
	buff := make([]byte, 1500)
	n, remoteAddr, err := con.ReadFromUDP(buff)
	if err != nil {
		s.logger.LogError("Failed to read from UDP connection", err, nil)
		return
	}

	s.logger.Debug("Received UDP packet", map[string]interface{}{
		"remote_addr": remoteAddr.String(),
		"bytes_read":  n,
		"local_addr":  con.LocalAddr().String(),
	})

	if IsChannelData(buff[:n]) {
		s.logger.Debug("Dropping ChannelData frame on Binding-only server", map[string]interface{}{
			"remote_addr": remoteAddr.String(),
		})
		return
	}

	packet, err := NewPacket(con, buff[:n], remoteAddr, s.creds)
	if err != nil {
		s.logger.LogError("Failed to decode incoming message", err, map[string]interface{}{
			"remote_addr": remoteAddr.String(),
			"bytes_read":  n,
		})
		return
	}

	req := packet.Message
	s.logger.LogRequest(remoteAddr.String(), req.Type, req.TransactionID)

	if req.Type.Class != ClassRequest || req.Type.Method != MethodBinding {
		s.logger.Debug("Ignoring non-Binding-request message", map[string]interface{}{
			"remote_addr": remoteAddr.String(),
			"message":     req.Type.String(),
		})
		return
	}

	resp := NewSuccessResponse(req)
	xorAddr := XorAddressAttr{
		Family: packet.Remote.Family(),
		IP:     packet.Remote.IP,
		Port:   uint16(packet.Remote.Port),
	}
	resp.Add(AttrXorMappedAddress, xorAddr)

	s.logger.LogResponse(remoteAddr.String(), resp.Type, req.TransactionID, &xorAddr)

	written, err := packet.WriteMessage(resp, remoteAddr)
	if err != nil {
		s.logger.LogError("Failed to write response", err, map[string]interface{}{
			"remote_addr":    remoteAddr.String(),
			"transaction_id": req.TransactionID,
			"bytes_written":  written,
		})
		return
	}

	s.logger.Debug("Response sent successfully", map[string]interface{}{
		"remote_addr":   remoteAddr.String(),
		"bytes_written": written,
	})
}

// Shutdown logs a shutdown event. It does not stop a running Listen
// loop or close its socket.
func (s *Server) Shutdown() error {
	s.logger.LogShutdown("stun_server", 0)
	return nil
}
