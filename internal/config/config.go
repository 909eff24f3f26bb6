// Package config loads stungate's server and client configuration from a
// TOML file, following the split-by-concern layout the rest of the
// retrieved pack uses for its own TOML configs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level stungate configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Client ClientConfig `toml:"client"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig configures a stungate-server process.
type ServerConfig struct {
	// ListenAddr is the address to bind the STUN/TURN UDP socket to.
	ListenAddr string `toml:"listen_addr"`
	// Realm is the long-term-credential realm used to derive each user's
	// key from Users (see stun.StaticCredentials).
	Realm string `toml:"realm"`
	// ReusePort enables SO_REUSEPORT so several processes can share
	// ListenAddr.
	ReusePort bool `toml:"reuse_port"`
	// RelayAddr names an address for TURN relay allocations.
	// stungate-server does not read it and makes no relay allocations.
	RelayAddr string `toml:"relay_addr"`
	// Users maps username to password for static long-term credentials.
	Users map[string]string `toml:"users"`
	// Transaction tunes the retransmission schedule and the server-side
	// caching toggles.
	Transaction TransactionTimeouts `toml:"transaction"`
}

// ClientConfig configures a stungate-client process.
type ClientConfig struct {
	// ServerAddr is the STUN/TURN server to contact.
	ServerAddr string `toml:"server_addr"`
	// Username/Password are long-term credentials, if the server requires them.
	Username string `toml:"username"`
	Password string `toml:"password"`
	// AlwaysSign, if true, appends MESSAGE-INTEGRITY and USERNAME to
	// every outbound request using Username/Password.
	AlwaysSign bool `toml:"always_sign"`
	// Software, if nonempty, is sent as a SOFTWARE attribute on every
	// outbound message.
	Software    string              `toml:"software"`
	Transaction TransactionTimeouts `toml:"transaction"`
}

// LogConfig configures the shared logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// TransactionTimeouts configures the retransmission timers, expressed in
// a TOML-friendly duration-string form, plus the two server-side
// cache-behavior toggles.
type TransactionTimeouts struct {
	FirstRetransAfter string `toml:"first_retrans_after"`
	MaxRetransTimer   string `toml:"max_retrans_timer"`
	MaxRetransCount   int    `toml:"max_retrans_count"`
	// PropagateReceivedRetransmissions, when true, redelivers a
	// retransmitted request to the server's request listener instead
	// of absorbing it.
	PropagateReceivedRetransmissions bool `toml:"propagate_received_retransmissions"`
	// KeepCachedAfterResponse, when true, keeps a server transaction's
	// cached response alive (for transaction.Config's TransactionLifetime)
	// after it is sent, so a retransmitted request is answered from cache.
	KeepCachedAfterResponse bool `toml:"keep_cached_after_response"`
}

// Duration parses s as a time.Duration, used for the TOML string-typed
// timeout fields above.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// Default returns a Config with sane defaults for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: "0.0.0.0:3478",
			Realm:      "stungate",
		},
		Client: ClientConfig{
			ServerAddr: "127.0.0.1:3478",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and decodes the TOML file at path over Default(), so any
// fields the file omits keep their default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: file not found: %w", err)
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating the file if needed.
func Save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: creating %s: %w", path, err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
