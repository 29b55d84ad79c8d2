// Package config resolves runtime configuration for the chat server and
// client binaries. It keeps the teacher's env-vars-with-defaults loader
// shape (Load returns a populated struct, erroring only on a malformed
// override) and layers spec §6's command-line flags on top, since the
// federation binaries are meant to be started by hand against concrete
// peers rather than purely from an environment file.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// ServerConfig lists the tunable parameters for the chatserver binary.
type ServerConfig struct {
	ClientPort    int    // --cport: UDP port clients send requests to
	ClientListen  string // --clisten: bind address for the client-facing socket
	ServerPort    int    // --sport: UDP port peer servers send federation traffic to
	ServerListen  string // --slisten: bind address for the server-facing socket
	AuditDBPath   string
	LogLevel      string
	FederationOff bool
}

const (
	defaultClientPort   = 4666
	defaultClientListen = "0.0.0.0"
	defaultServerPort   = 4667
	defaultServerListen = "0.0.0.0"
	defaultAuditDBPath  = "data/chatserver-audit.db"
	defaultLogLevel     = "info"
)

// LoadServerConfig derives server configuration from environment variables,
// falling back to defaults, then applies command-line flags from args (not
// including the program name) over whatever the environment produced.
func LoadServerConfig(args []string) (ServerConfig, error) {
	cfg := ServerConfig{
		ClientPort:   defaultClientPort,
		ClientListen: defaultClientListen,
		ServerPort:   defaultServerPort,
		ServerListen: defaultServerListen,
		AuditDBPath:  defaultAuditDBPath,
		LogLevel:     defaultLogLevel,
	}

	if v := os.Getenv("CHATSERVER_CLIENT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("invalid CHATSERVER_CLIENT_PORT: %w", err)
		}
		cfg.ClientPort = port
	}
	if v := os.Getenv("CHATSERVER_CLIENT_LISTEN"); v != "" {
		cfg.ClientListen = v
	}
	if v := os.Getenv("CHATSERVER_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("invalid CHATSERVER_SERVER_PORT: %w", err)
		}
		cfg.ServerPort = port
	}
	if v := os.Getenv("CHATSERVER_SERVER_LISTEN"); v != "" {
		cfg.ServerListen = v
	}
	if v := os.Getenv("CHATSERVER_AUDIT_DB"); v != "" {
		cfg.AuditDBPath = v
	}
	if v := os.Getenv("CHATSERVER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CHATSERVER_NO_FEDERATION"); v != "" {
		cfg.FederationOff = true
	}

	fs := flag.NewFlagSet("chatserver", flag.ContinueOnError)
	fs.IntVar(&cfg.ClientPort, "cport", cfg.ClientPort, "UDP port for client requests")
	fs.StringVar(&cfg.ClientListen, "clisten", cfg.ClientListen, "bind address for the client-facing socket")
	fs.IntVar(&cfg.ServerPort, "sport", cfg.ServerPort, "UDP port for federation traffic")
	fs.StringVar(&cfg.ServerListen, "slisten", cfg.ServerListen, "bind address for the server-facing socket")
	fs.StringVar(&cfg.AuditDBPath, "audit-db", cfg.AuditDBPath, "path to the diagnostic audit database")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.FederationOff, "no-federation", cfg.FederationOff, "disable the federation (server-to-server) resolution path")
	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, fmt.Errorf("parsing flags: %w", err)
	}

	return cfg, nil
}

// ClientConfig lists the tunable parameters for the chatclient binary.
type ClientConfig struct {
	Name string // --name: the display name to register under
	Host string // --host: server host to connect to
	Port int    // --port: server's client-facing UDP port
}

const (
	defaultClientHost = "127.0.0.1"
)

// LoadClientConfig mirrors LoadServerConfig's env-then-flags layering for
// the client binary. Name has no default: an empty Name after parsing means
// the caller must prompt for one or fail, mirroring the original client's
// "name is mandatory" registration flow.
func LoadClientConfig(args []string) (ClientConfig, error) {
	cfg := ClientConfig{
		Host: defaultClientHost,
		Port: defaultClientPort,
	}

	if v := os.Getenv("CHATCLIENT_NAME"); v != "" {
		cfg.Name = v
	}
	if v := os.Getenv("CHATCLIENT_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("CHATCLIENT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return ClientConfig{}, fmt.Errorf("invalid CHATCLIENT_PORT: %w", err)
		}
		cfg.Port = port
	}

	fs := flag.NewFlagSet("chatclient", flag.ContinueOnError)
	fs.StringVar(&cfg.Name, "name", cfg.Name, "display name to register under")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "chat server host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "chat server's client-facing UDP port")
	if err := fs.Parse(args); err != nil {
		return ClientConfig{}, fmt.Errorf("parsing flags: %w", err)
	}

	return cfg, nil
}
