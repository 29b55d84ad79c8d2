// Package discovery advertises and browses for chatserver peers over mDNS,
// so federation neighbors on the same local network can find each other
// without being told each other's address up front. This is new surface
// SPEC_FULL.md adds beyond the distilled spec's "route_to resolves a known
// route" contract — the original source expects peers to be pre-configured.
// Grounded on the teacher's internal/app/mdns.go: the same zeroconf.Register
// call, the same instance/host sanitizing helpers, generalized from the
// HTTP+MQTT dual-port TXT record to the client+server dual-UDP-port one
// this domain needs.
package discovery

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/grandcat/zeroconf"
)

const (
	serviceType = "_chatserver._tcp"
	domain      = "local."
)

// Advertisement owns the lifecycle of one mDNS service registration.
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise publishes this node's presence: its federation-facing UDP port,
// and (via TXT records) the client-facing port and server id peers need to
// dial in and exchange Announce messages.
func Advertise(serverPort, clientPort int, serverID string) (*Advertisement, error) {
	if serverPort <= 0 {
		return nil, fmt.Errorf("invalid server port %d", serverPort)
	}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "chatserver"
	}

	instance := sanitizeInstance(fmt.Sprintf("Chat Server (%s)", hostname))
	txt := []string{
		fmt.Sprintf("server_port=%d", serverPort),
		fmt.Sprintf("client_port=%d", clientPort),
		fmt.Sprintf("server_id=%s", serverID),
		"proto=v1",
	}

	server, err := zeroconf.Register(instance, serviceType, domain, serverPort, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("register mdns service: %w", err)
	}
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the advertisement. Safe to call on a nil Advertisement.
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
}

// Peer describes one discovered chatserver instance.
type Peer struct {
	Host       string
	ServerPort int
	ClientPort int
	ServerID   string
}

// Browse collects peers visible on the local network for up to the
// lifetime of ctx, returning whatever was found when ctx is done.
func Browse(ctx context.Context) ([]Peer, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("create mdns resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var peers []Peer
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			peers = append(peers, peerFromEntry(entry))
		}
	}()

	if err := resolver.Browse(ctx, serviceType, domain, entries); err != nil {
		return nil, fmt.Errorf("browse mdns: %w", err)
	}
	<-ctx.Done()
	<-done
	return peers, nil
}

func peerFromEntry(entry *zeroconf.ServiceEntry) Peer {
	p := Peer{
		Host:       entry.HostName,
		ServerPort: entry.Port,
	}
	for _, kv := range entry.Text {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case "client_port":
			fmt.Sscanf(v, "%d", &p.ClientPort)
		case "server_id":
			p.ServerID = v
		}
	}
	return p
}

func sanitizeInstance(name string) string {
	cleaned := strings.TrimSpace(name)
	cleaned = strings.ReplaceAll(cleaned, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	cleaned = strings.ReplaceAll(cleaned, ".", " ")
	cleaned = strings.ReplaceAll(cleaned, "_", " ")
	if cleaned == "" {
		cleaned = "Chat Server"
	}
	runes := []rune(cleaned)
	const maxLen = 63
	if len(runes) > maxLen {
		cleaned = string(runes[:maxLen])
	}
	return cleaned
}
