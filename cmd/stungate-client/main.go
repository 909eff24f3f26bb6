// Command stungate-client sends a STUN Binding request to a server and
// prints the reflexive transport address it reports back. The request
// is driven through the transaction package, so it is retried on that
// package's exponential-backoff schedule if the server does not answer.
//
// Usage:
//
//	stungate-client bind --server stun.l.google.com:19302
package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuuji/stungate"
	"github.com/kuuji/stungate/demux"
	"github.com/kuuji/stungate/internal/config"
	"github.com/kuuji/stungate/transaction"
)

var version = "dev"

var (
	configPath string
	serverAddr string
)

var rootCmd = &cobra.Command{
	Use:   "stungate-client",
	Short: "STUN/TURN client",
}

var bindCmd = &cobra.Command{
	Use:   "bind",
	Short: "Send a Binding request and print the reflexive address",
	RunE:  runBind,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml")
	bindCmd.Flags().StringVar(&serverAddr, "server", "", "STUN server address (overrides config)")
	rootCmd.AddCommand(bindCmd, versionCmd)
}

func runBind(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	addr := serverAddr
	if addr == "" {
		addr = cfg.Client.ServerAddr
	}

	logger := stun.NewLogger(stun.LoggerConfig{
		Level:  stun.LogLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: "stdout",
	})

	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", addr, err)
	}

	conn, err := net.ListenPacket("udp4", "0.0.0.0:0")
	if err != nil {
		return fmt.Errorf("opening local socket: %w", err)
	}
	defer conn.Close()

	sock := demux.NewSocket(conn)
	sock.Logger = logger
	defer sock.Close()

	stunSocket := sock.NewVirtualSocket(demux.StunFromServerFilter(mustAddr(udpAddr)))

	txCfg := transaction.DefaultConfig()
	t := cfg.Client.Transaction
	if t.FirstRetransAfter != "" {
		txCfg.FirstRetransAfter = config.Duration(t.FirstRetransAfter, txCfg.FirstRetransAfter)
	}
	if t.MaxRetransTimer != "" {
		txCfg.MaxRetransTimer = config.Duration(t.MaxRetransTimer, txCfg.MaxRetransTimer)
	}
	if t.MaxRetransCount > 0 {
		txCfg.MaxRetransCount = t.MaxRetransCount
	}
	txCfg.Logger = logger

	req := stun.NewRequest(stun.MethodBinding)
	if cfg.Client.Software != "" {
		req.Add(stun.AttrSoftware, stun.ByteStringAttr(cfg.Client.Software))
	}
	if cfg.Client.AlwaysSign && cfg.Client.Username != "" {
		req.Add(stun.AttrUsername, stun.ByteStringAttr(cfg.Client.Username))
		req.SetIntegrityKey([]byte(cfg.Client.Password))
	}
	req.AddFingerprint()

	logger.LogClientRequest(addr, req.Type, req.TransactionID)

	mgr := transaction.NewManager(txCfg, stunSocket, nil)

	respc := make(chan *stun.Message, 1)
	failc := make(chan stun.ErrorKind, 1)
	ct := mgr.StartClient(udpAddr, req, func(resp *stun.Message) {
		respc <- resp
	}, func(kind stun.ErrorKind) {
		failc <- kind
	})
	defer ct.Cancel()

	go readLoop(stunSocket, mgr)

	select {
	case resp := <-respc:
		return printBindingResult(addr, resp, logger)
	case kind := <-failc:
		return fmt.Errorf("binding request to %s failed: %s", addr, kind)
	case <-time.After(10 * time.Second):
		return fmt.Errorf("binding request to %s timed out", addr)
	}
}

func readLoop(sock *demux.VirtualSocket, mgr *transaction.Manager) {
	buf := make([]byte, 2048)
	for {
		n, remote, err := sock.ReadFrom(buf)
		if err != nil {
			return
		}
		msg, derr := stun.Decode(buf[:n], nil)
		if derr != nil {
			continue
		}
		mgr.HandlePacket(remote, msg)
	}
}

func printBindingResult(addr string, resp *stun.Message, logger *stun.Logger) error {
	if resp.Type.Class == stun.ClassErrorResponse {
		ec, ok := resp.Get(stun.AttrErrorCode)
		if ok {
			return fmt.Errorf("server returned error: %v", ec.Value)
		}
		return fmt.Errorf("server returned an error response")
	}

	attr, ok := resp.Get(stun.AttrXorMappedAddress)
	if !ok {
		return fmt.Errorf("response had no XOR-MAPPED-ADDRESS")
	}
	xor := attr.Value.(stun.XorAddressAttr)
	logger.LogClientResponse(addr, resp.Type, &xor)
	fmt.Printf("%s:%d\n", xor.IP, xor.Port)
	return nil
}

func mustAddr(udpAddr *net.UDPAddr) stun.Addr {
	a, err := stun.AddrFromNetAddr(udpAddr)
	if err != nil {
		panic("stun: resolved UDP address rejected by AddrFromNetAddr: " + err.Error())
	}
	return a
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
