// Command stungate-server runs a STUN Binding responder on top of the
// demux and transaction packages, configured from a TOML file.
//
// Usage:
//
//	stungate-server run --config /etc/stungate/config.toml
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/kuuji/stungate"
	"github.com/kuuji/stungate/demux"
	"github.com/kuuji/stungate/internal/config"
	"github.com/kuuji/stungate/transaction"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "stungate-server",
	Short: "STUN Binding server",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the server and block until it exits",
	RunE:  runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (defaults to built-in server settings)")
	rootCmd.AddCommand(runCmd, versionCmd)
}

// stunServer holds the pieces a Binding request is answered through:
// a demux-filtered view of the shared socket and the transaction
// manager that absorbs a client's retransmissions of a request not yet
// answered, and replays the cached answer to one already answered when
// keep_cached_after_response is set.
type stunServer struct {
	sock   *demux.Socket
	stun   *demux.VirtualSocket
	mgr    *transaction.Manager
	creds  stun.Credentials
	logger *stun.Logger
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	logger := stun.NewLogger(stun.LoggerConfig{
		Level:  stun.LogLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: "stdout",
	})

	var creds stun.Credentials
	if len(cfg.Server.Users) > 0 {
		creds = stun.StaticCredentials{Realm: cfg.Server.Realm, Passwords: cfg.Server.Users}
	}

	sock, err := demux.Listen(cfg.Server.ListenAddr, demux.Options{
		ReusePort: cfg.Server.ReusePort,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Server.ListenAddr, err)
	}
	defer sock.Close()

	stunSocket := sock.NewVirtualSocket(demux.StunFilter)

	txCfg := transaction.DefaultConfig()
	t := cfg.Server.Transaction
	if t.FirstRetransAfter != "" {
		txCfg.FirstRetransAfter = config.Duration(t.FirstRetransAfter, txCfg.FirstRetransAfter)
	}
	if t.MaxRetransTimer != "" {
		txCfg.MaxRetransTimer = config.Duration(t.MaxRetransTimer, txCfg.MaxRetransTimer)
	}
	if t.MaxRetransCount > 0 {
		txCfg.MaxRetransCount = t.MaxRetransCount
	}
	txCfg.PropagateReceivedRetransmissions = t.PropagateReceivedRetransmissions
	txCfg.KeepCachedAfterResponse = t.KeepCachedAfterResponse
	txCfg.Logger = logger

	srv := &stunServer{sock: sock, stun: stunSocket, creds: creds, logger: logger}
	srv.mgr = transaction.NewManager(txCfg, stunSocket, srv.handleRequest)

	logger.Info("stungate-server starting", map[string]interface{}{
		"listen_addr": cfg.Server.ListenAddr,
		"realm":       cfg.Server.Realm,
	})

	return srv.serve()
}

// serve reads decoded STUN datagrams off the virtual socket and routes
// them through the transaction manager, which either answers a
// retransmission from cache or calls handleRequest for a new one.
func (s *stunServer) serve() error {
	buf := make([]byte, 1500)
	for {
		n, addr, err := s.stun.ReadFrom(buf)
		if err != nil {
			return err
		}

		msg, derr := stun.Decode(buf[:n], s.creds)
		if derr != nil {
			s.logger.LogError("failed to decode incoming message", derr, map[string]interface{}{
				"remote_addr": addr.String(),
			})
			continue
		}

		s.logger.LogRequest(addr.String(), msg.Type, msg.TransactionID)
		s.mgr.HandlePacket(addr, msg)
	}
}

// handleRequest is the transaction manager's callback for a request
// with no cached response yet: it builds the Binding Success Response
// carrying the caller's reflexive address and hands it to Respond to
// be sent (and cached, when keep_cached_after_response is set).
func (s *stunServer) handleRequest(remote net.Addr, req *stun.Message) {
	if req.Type.Method != stun.MethodBinding {
		s.logger.Debug("ignoring non-Binding request", map[string]interface{}{
			"remote_addr": remote.String(),
			"message":     req.Type.String(),
		})
		return
	}

	remoteAddr, err := stun.AddrFromNetAddr(remote)
	if err != nil {
		s.logger.LogError("unresolvable remote address", err, map[string]interface{}{
			"remote_addr": remote.String(),
		})
		return
	}

	resp := stun.NewSuccessResponse(req)
	xorAddr := stun.XorAddressAttr{
		Family: remoteAddr.Family(),
		IP:     remoteAddr.IP,
		Port:   uint16(remoteAddr.Port),
	}
	resp.Add(stun.AttrXorMappedAddress, xorAddr)

	s.logger.LogResponse(remote.String(), resp.Type, req.TransactionID, &xorAddr)

	if err := s.mgr.Respond(remote, req, resp); err != nil {
		s.logger.LogError("failed to send response", err, map[string]interface{}{
			"remote_addr":    remote.String(),
			"transaction_id": req.TransactionID,
		})
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
