// Federation handling: route aggregation from multi-hop Announce messages
// and forwarding of FullyQualifiedMessage traffic, grounded on the original
// source's chatproto::core route-table bookkeeping and on solutions/sample.rs's
// notes on flushing pending messages once a destination becomes reachable.
package broker

import (
	"github.com/sony-level/chatserver-lab/internal/ids"
	"github.com/sony-level/chatserver-lab/internal/proto"
)

// RouteTo returns the known path to destination, ordered farthest->closest,
// and whether one is known at all.
func (b *Broker) RouteTo(destination ids.ServerId) ([]ids.ServerId, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.routeToLocked(destination)
}

func (b *Broker) routeToLocked(destination ids.ServerId) ([]ids.ServerId, bool) {
	route, ok := b.routes[destination]
	if !ok {
		return nil, false
	}
	out := make([]ids.ServerId, len(route))
	copy(out, route)
	return out, true
}

// nextHopToLocked returns the immediate neighbor to forward to in order to
// eventually reach destination: the closest element of its known route,
// i.e. the peer that handed us the announce for it.
func (b *Broker) nextHopToLocked(destination ids.ServerId) (ids.ServerId, bool) {
	route, ok := b.routes[destination]
	if !ok || len(route) == 0 {
		return ids.ServerId{}, false
	}
	return route[len(route)-1], true
}

// HandleServerMessage dispatches a federation envelope: an Announce updates
// routes and remote-client bookkeeping and flushes any pending mail now
// deliverable; a Message either lands in a local mailbox or is forwarded
// one hop further along its destination's route.
func (b *Broker) HandleServerMessage(msg proto.ServerMessage) proto.ServerReply {
	switch msg.Kind {
	case proto.ServerMessageAnnounce:
		return b.handleAnnounce(msg.Announce)
	case proto.ServerMessageMessage:
		return b.handleForward(msg.Message)
	default:
		return proto.ServerReply{Kind: proto.ServerReplyError, ErrorText: "unknown server message kind"}
	}
}

// handleAnnounce records the announcing route for every hop it passes
// through (not just its origin), since each suffix route[i:] (from that hop
// to the closest neighbor) is itself a valid, shorter route to the
// corresponding intermediate server,
// registers the announced clients as remote, and flushes anything queued
// in pending for a client the announce just made reachable.
func (b *Broker) handleAnnounce(a proto.Announce) proto.ServerReply {
	if len(a.Route) == 0 {
		return proto.ServerReply{Kind: proto.ServerReplyEmptyRoute}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	origin := a.Route[0]
	for i, srv := range a.Route {
		sub := a.Route[i:]
		if existing, ok := b.routes[srv]; !ok || len(sub) < len(existing) {
			route := make([]ids.ServerId, len(sub))
			copy(route, sub)
			b.routes[srv] = route
		}
	}

	for cid, name := range a.Clients {
		b.remoteClients[cid] = remoteClient{name: name, home: origin}
	}

	var outgoing []proto.Outgoing
	for cid := range a.Clients {
		queue := b.pending[cid]
		if len(queue) == 0 {
			continue
		}
		delete(b.pending, cid)

		nextHop, ok := b.nextHopToLocked(origin)
		if !ok {
			continue
		}
		for _, entry := range queue {
			outgoing = append(outgoing, proto.Outgoing{
				NextHop: nextHop,
				Message: proto.FullyQualifiedMessage{
					Src:     entry.src,
					SrcSrv:  b.serverID,
					Dsts:    []proto.Dst{{Client: cid, Server: origin}},
					Content: entry.content,
				},
			})
		}
	}

	b.logger.Debug("processed announce", "origin", origin, "hops", len(a.Route), "clients", len(a.Clients))
	return proto.ServerReply{Kind: proto.ServerReplyOutgoing, Outgoing: outgoing}
}

// BuildAnnounce constructs the Announce this server would publish to a
// neighbor it just connected to: its own clients (local and, so routes stay
// transitive, everything already known as remote), with route extended by
// this server's own id as the new closest hop.
func (b *Broker) BuildAnnounce(routeSoFar []ids.ServerId) proto.Announce {
	b.mu.RLock()
	defer b.mu.RUnlock()

	route := make([]ids.ServerId, len(routeSoFar), len(routeSoFar)+1)
	copy(route, routeSoFar)
	route = append(route, b.serverID)

	clients := make(map[ids.ClientId]string, len(b.localClients)+len(b.remoteClients))
	for cid, c := range b.localClients {
		clients[cid] = c.name
	}
	for cid, c := range b.remoteClients {
		clients[cid] = c.name
	}
	return proto.Announce{Route: route, Clients: clients}
}

// handleForward either lands msg's content in every local destination's
// mailbox, or groups the remaining destinations by home server and
// produces one Outgoing per group, per spec §4.5. A destination whose
// server we have no route to is dropped silently; federated reliability
// is not guaranteed.
func (b *Broker) handleForward(msg proto.FullyQualifiedMessage) proto.ServerReply {
	b.mu.Lock()
	defer b.mu.Unlock()

	var remoteOrder []ids.ServerId
	grouped := make(map[ids.ServerId][]proto.Dst)

	for _, dst := range msg.Dsts {
		if dst.Server == b.serverID {
			if local, ok := b.localClients[dst.Client]; ok && len(local.mailbox) < MailboxSize {
				local.mailbox = append(local.mailbox, mailboxEntry{src: msg.Src, content: msg.Content})
			}
			continue
		}
		if _, seen := grouped[dst.Server]; !seen {
			remoteOrder = append(remoteOrder, dst.Server)
		}
		grouped[dst.Server] = append(grouped[dst.Server], dst)
	}

	var outgoing []proto.Outgoing
	for _, home := range remoteOrder {
		nextHop, ok := b.nextHopToLocked(home)
		if !ok {
			continue
		}
		outgoing = append(outgoing, proto.Outgoing{
			NextHop: nextHop,
			Message: proto.FullyQualifiedMessage{
				Src:     msg.Src,
				SrcSrv:  msg.SrcSrv,
				Dsts:    grouped[home],
				Content: msg.Content,
			},
		})
	}
	return proto.ServerReply{Kind: proto.ServerReplyOutgoing, Outgoing: outgoing}
}
