package app

import (
	"bytes"
	"context"
	"net"

	"github.com/sony-level/chatserver-lab/internal/wire"
)

func (a *App) serveServers(ctx context.Context, conn net.PacketConn) error {
	buf := make([]byte, datagramBufferSize)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		data := append([]byte(nil), buf[:n]...)
		go a.handleServerDatagram(ctx, addr, data)
	}
}

func (a *App) handleServerDatagram(ctx context.Context, addr net.Addr, data []byte) {
	r := wire.Reader(data)
	msg, err := wire.DecodeServerMessage(r)
	if err != nil {
		a.logger.Debug("malformed server message", "from", addr, "error", err)
		return
	}

	reply := a.broker.HandleServerMessage(msg)
	if a.auditl != nil {
		a.auditl.Record(ctx, "server_message_handled", "", "", addr.String())
	}

	for _, out := range reply.Outgoing {
		var buf bytes.Buffer
		if err := wire.EncodeServerMessage(&buf, out.Message); err != nil {
			a.logger.Error("encode outgoing server message", "error", err)
			continue
		}
		peerAddr, ok := a.peers.lookup(out.NextHop)
		if !ok {
			a.logger.Debug("no known address for outgoing hop", "server", out.NextHop)
			continue
		}
		if _, err := a.serverConn.WriteTo(buf.Bytes(), peerAddr); err != nil {
			a.logger.Debug("relay to peer failed", "peer", out.NextHop, "error", err)
		}
	}
}
