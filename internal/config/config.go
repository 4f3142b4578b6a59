package config

import (
	"fmt"
	"os"
)

// Default configuration values (production)
const (
	DefaultDomain = "blt.owasp.org"
	DefaultSTUN   = "stun:stun.l.google.com:19302"
)

// Config holds client configuration: where the signaling server lives
// and which NAT-traversal helpers the transport layer gets.
type Config struct {
	// Domain is the signaling server host (host or host:port).
	Domain string

	// Insecure selects ws/http instead of wss/https, for local runs.
	Insecure bool

	// ICE servers for the peer connection
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	// ForceRelay restricts ICE to TURN relay candidates.
	ForceRelay bool
}

// Options carries CLI flag overrides into Load.
type Options struct {
	Domain     string
	Insecure   bool
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	cfg := &Config{
		Domain:     firstOf(opts.Domain, os.Getenv("DOMAIN"), DefaultDomain),
		STUNServer: firstOf(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN),
		TURNServer: firstOf(opts.TURNServer, os.Getenv("TURN_SERVER"), ""),
		TURNUser:   firstOf(opts.TURNUser, os.Getenv("TURN_USERNAME"), ""),
		TURNPass:   firstOf(opts.TURNPass, os.Getenv("TURN_PASSWORD"), ""),
		Insecure:   opts.Insecure || os.Getenv("INSECURE") == "1",
		ForceRelay: opts.ForceRelay,
	}

	if cfg.ForceRelay && cfg.TURNServers() == nil {
		return nil, fmt.Errorf("cannot force relay mode without TURN server configured")
	}

	return cfg, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Config) wsScheme() string {
	if c.Insecure {
		return "ws"
	}
	return "wss"
}

func (c *Config) httpScheme() string {
	if c.Insecure {
		return "http"
	}
	return "https"
}

// WebSocketURL is the signaling endpoint for a room; the room ID is a
// path segment.
func (c *Config) WebSocketURL(roomID string) string {
	return fmt.Sprintf("%s://%s/ws/%s", c.wsScheme(), c.Domain, roomID)
}

// RoomsURL is the endpoint that mints room IDs for the host flow.
func (c *Config) RoomsURL() string {
	return fmt.Sprintf("%s://%s/rooms", c.httpScheme(), c.Domain)
}

// RoomLink is the shareable call link; the room ID travels as a query
// parameter, which is what the joiner flow parses back out.
func (c *Config) RoomLink(roomID string) string {
	return fmt.Sprintf("%s://%s/call?room=%s", c.httpScheme(), c.Domain, roomID)
}

// STUNServers returns STUN server URLs.
func (c *Config) STUNServers() []string {
	return []string{c.STUNServer}
}

// TURNServers returns TURN server URLs if configured.
func (c *Config) TURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
		fmt.Sprintf("turns:%s:5349?transport=tcp", c.TURNServer),
	}
}

// TURNCredentials returns the TURN username and password.
func (c *Config) TURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}
