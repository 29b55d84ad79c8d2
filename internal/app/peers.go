package app

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/sony-level/chatserver-lab/internal/discovery"
	"github.com/sony-level/chatserver-lab/internal/ids"
)

// peerDirectory maps a known ServerId to the UDP address of its
// server-facing socket, kept fresh by periodically browsing mDNS. This is
// new infrastructure SPEC_FULL.md needs that the distilled spec leaves
// implicit ("route_to resolves a known route" presumes peer addresses are
// already known by some means).
type peerDirectory struct {
	mu    sync.RWMutex
	addrs map[ids.ServerId]*net.UDPAddr
}

func newPeerDirectory() *peerDirectory {
	return &peerDirectory{addrs: make(map[ids.ServerId]*net.UDPAddr)}
}

func (d *peerDirectory) lookup(id ids.ServerId) (*net.UDPAddr, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.addrs[id]
	return a, ok
}

// run browses mDNS every interval and merges discovered peers in, until ctx
// is done.
func (d *peerDirectory) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.refresh(ctx)
		}
	}
}

func (d *peerDirectory) refresh(ctx context.Context) {
	bctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	peers, err := discovery.Browse(bctx)
	if err != nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range peers {
		sid, err := ids.ServerIdFromString(p.ServerID)
		if err != nil {
			continue
		}
		addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(p.Host, strconv.Itoa(p.ServerPort)))
		if err != nil {
			continue
		}
		d.addrs[sid] = addr
	}
}
