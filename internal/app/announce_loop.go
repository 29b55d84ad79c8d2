package app

import (
	"bytes"
	"context"
	"time"

	"github.com/sony-level/chatserver-lab/internal/proto"
	"github.com/sony-level/chatserver-lab/internal/wire"
)

// announceLoop periodically pushes this node's own Announce (route of
// length one: just this server) to every peer currently known via mDNS,
// so newly discovered neighbors learn about this node's clients and vice
// versa. Re-announcing on an interval, rather than only once on peer
// discovery, lets peers learn about clients that register after the first
// announce. Receivers only add or replace entries; nothing is removed.
func (a *App) announceLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.announceToPeers()
		}
	}
}

func (a *App) announceToPeers() {
	announce := a.broker.BuildAnnounce(nil)
	msg := proto.ServerMessage{Kind: proto.ServerMessageAnnounce, Announce: announce}

	var buf bytes.Buffer
	if err := wire.EncodeServerMessage(&buf, msg); err != nil {
		a.logger.Error("encode announce", "error", err)
		return
	}

	a.peers.mu.RLock()
	defer a.peers.mu.RUnlock()
	for _, addr := range a.peers.addrs {
		if _, err := a.serverConn.WriteTo(buf.Bytes(), addr); err != nil {
			a.logger.Debug("announce send failed", "peer", addr, "error", err)
		}
	}
}
