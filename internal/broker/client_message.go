package broker

import (
	"github.com/sony-level/chatserver-lab/internal/ids"
	"github.com/sony-level/chatserver-lab/internal/proto"
)

// destinations flattens a ClientMessage's Text/MText shape into an ordered
// slice, so the rest of handle_client_message does not care which variant
// it was asked to deliver.
func destinations(msg proto.ClientMessage) []ids.ClientId {
	if msg.Kind == proto.ClientMessageText {
		return []ids.ClientId{msg.Dest}
	}
	return msg.Dests
}

// HandleClientMessage resolves a client message into one ClientReply per
// destination, in the order destinations were listed in msg. Resolution for
// each destination, per spec §4.4, is:
//
//  1. a known local client: append to its mailbox, or report BoxFull if the
//     mailbox is already at MailboxSize;
//  2. (federation enabled only) a known remote client whose home server has
//     a known route: produce a Transfer reply carrying the next hop and a
//     single-destination FullyQualifiedMessage;
//  3. anything else (unknown identity, or remote without a route, or
//     federation disabled): queue the text in pending and report Delayed.
func (b *Broker) HandleClientMessage(src ids.ClientId, msg proto.ClientMessage) []proto.ClientReply {
	dests := destinations(msg)
	replies := make([]proto.ClientReply, 0, len(dests))

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, dest := range dests {
		replies = append(replies, b.resolveOneLocked(src, dest, msg.Content))
	}
	return replies
}

func (b *Broker) resolveOneLocked(src, dest ids.ClientId, content string) proto.ClientReply {
	if local, ok := b.localClients[dest]; ok {
		if len(local.mailbox) >= MailboxSize {
			return proto.ClientReply{
				Kind: proto.ClientReplyError,
				Err:  proto.ClientError{Kind: proto.ClientErrorBoxFull, BoxFullClient: dest},
			}
		}
		local.mailbox = append(local.mailbox, mailboxEntry{src: src, content: content})
		return proto.ClientReply{Kind: proto.ClientReplyDelivered}
	}

	if b.federationEnabled {
		if remote, ok := b.remoteClients[dest]; ok {
			if nextHop, ok := b.nextHopToLocked(remote.home); ok {
				return proto.ClientReply{
					Kind:    proto.ClientReplyTransfer,
					NextHop: nextHop,
					Transfer: proto.ServerMessage{
						Kind: proto.ServerMessageMessage,
						Message: proto.FullyQualifiedMessage{
							Src:     src,
							SrcSrv:  b.serverID,
							Dsts:    []proto.Dst{{Client: dest, Server: remote.home}},
							Content: content,
						},
					},
				}
			}
		}
	}

	b.pending[dest] = append(b.pending[dest], pendingEntry{src: src, content: content})
	return proto.ClientReply{Kind: proto.ClientReplyDelayed}
}
