package app

import (
	"bytes"
	"context"
	"net"

	"github.com/sony-level/chatserver-lab/internal/broker"
	"github.com/sony-level/chatserver-lab/internal/ids"
	"github.com/sony-level/chatserver-lab/internal/proto"
	"github.com/sony-level/chatserver-lab/internal/wire"
)

// Client-facing datagrams carry one framing byte ahead of the wire codec
// payload, distinguishing the one request a not-yet-registered client may
// send (frameRegister, a bare ClientQuery) from everything a registered
// client sends afterward (frameSequenced, a Sequence[ClientQuery]) —
// needed because a minimal-width u128 tag and a ClientQueryKind tag are
// not otherwise self-distinguishing on the wire.
const (
	frameRegister byte = 0
	frameSequenced byte = 1
)

func (a *App) serveClients(ctx context.Context, conn net.PacketConn) error {
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
		go a.handleClientDatagram(ctx, conn, addr, data)
	}
}

func (a *App) handleClientDatagram(ctx context.Context, conn net.PacketConn, addr net.Addr, data []byte) {
	if len(data) == 0 {
		return
	}
	frame, body := data[0], data[1:]
	r := wire.Reader(body)

	var reply proto.QueryReply
	switch frame {
	case frameRegister:
		reply = a.handleRegister(ctx, r)
	case frameSequenced:
		reply = a.handleSequencedQuery(ctx, r)
	default:
		return
	}

	var out bytes.Buffer
	if err := wire.EncodeQueryReply(&out, reply); err != nil {
		a.logger.Error("encode query reply", "error", err)
		return
	}
	if _, err := conn.WriteTo(out.Bytes(), addr); err != nil {
		a.logger.Debug("write to client failed", "error", err)
	}
}

func (a *App) handleRegister(ctx context.Context, r wire.ByteReader) proto.QueryReply {
	q, err := wire.DecodeClientQuery(r)
	if err != nil || q.Kind != proto.ClientQueryRegister {
		return proto.QueryReply{Kind: proto.QueryReplyError, Err: proto.ClientError{Kind: proto.ClientErrorInternal}}
	}
	cid := a.broker.RegisterLocalClient(q.RegisterName)
	if a.auditl != nil {
		a.auditl.Record(ctx, "client_registered", cid.String(), "", q.RegisterName)
	}
	return proto.QueryReply{Kind: proto.QueryReplyRegistered, Registered: cid}
}

func (a *App) handleSequencedQuery(ctx context.Context, r wire.ByteReader) proto.QueryReply {
	seq, err := wire.DecodeSequence(r, wire.DecodeClientQuery)
	if err != nil {
		return proto.QueryReply{Kind: proto.QueryReplyError, Err: proto.ClientError{Kind: proto.ClientErrorInternal}}
	}

	content, clientErr := broker.HandleSequencedMessage(a.broker, seq)
	if clientErr != nil {
		if a.auditl != nil {
			a.auditl.Record(ctx, "sequence_rejected", seq.Src.String(), "", clientErr.Error())
		}
		return proto.QueryReply{Kind: proto.QueryReplyError, Err: *clientErr}
	}

	switch content.Kind {
	case proto.ClientQueryMessage:
		replies := a.broker.HandleClientMessage(seq.Src, content.Message)
		a.forwardTransfers(ctx, replies)
		return proto.QueryReply{Kind: proto.QueryReplyMessage, Replies: replies}
	case proto.ClientQueryPoll:
		return proto.QueryReply{Kind: proto.QueryReplyPoll, Poll: a.broker.ClientPoll(seq.Src)}
	case proto.ClientQueryListUsers:
		return proto.QueryReply{Kind: proto.QueryReplyUsers, Users: a.broker.ListUsers()}
	case proto.ClientQueryRegister:
		// A registered client re-sending Register is treated as a no-op
		// acknowledgement rather than a second registration: identity is
		// fixed at first contact.
		return proto.QueryReply{Kind: proto.QueryReplyRegistered, Registered: seq.Src}
	default:
		return proto.QueryReply{Kind: proto.QueryReplyError, Err: proto.ClientError{Kind: proto.ClientErrorInternal}}
	}
}

// forwardTransfers sends every Transfer reply's embedded ServerMessage on
// to its NextHop over the server-facing socket. A peer this node has not
// yet discovered is dropped silently; the sender still gets a Transfer
// reply and may retry once federation catches up.
func (a *App) forwardTransfers(ctx context.Context, replies []proto.ClientReply) {
	for _, rep := range replies {
		if rep.Kind != proto.ClientReplyTransfer {
			continue
		}
		a.sendServerMessage(ctx, rep.NextHop, rep.Transfer)
	}
}

func (a *App) sendServerMessage(ctx context.Context, nextHop ids.ServerId, msg proto.ServerMessage) {
	if a.peers == nil {
		return
	}
	addr, ok := a.peers.lookup(nextHop)
	if !ok {
		a.logger.Debug("no known address for next hop", "server", nextHop)
		return
	}

	var out bytes.Buffer
	if err := wire.EncodeServerMessage(&out, msg); err != nil {
		a.logger.Error("encode server message", "error", err)
		return
	}
	if a.serverConn == nil {
		return
	}
	if _, err := a.serverConn.WriteTo(out.Bytes(), addr); err != nil {
		a.logger.Debug("write to peer failed", "peer", nextHop, "error", err)
	}
}
