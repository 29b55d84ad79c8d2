package broker

import (
	"testing"

	"github.com/sony-level/chatserver-lab/internal/chatclient"
	"github.com/sony-level/chatserver-lab/internal/ids"
	"github.com/sony-level/chatserver-lab/internal/proto"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func newTestBroker() *Broker {
	return New(ids.NewServerId())
}

func TestHandleSequencedMessageRejectsReusedSeqId(t *testing.T) {
	b := newTestBroker()
	u1 := b.RegisterLocalClient("alice")
	u2 := b.RegisterLocalClient("bob")

	seq1 := chatclient.New(u1)
	seq2 := chatclient.New(u2)

	var last proto.Sequence[proto.ClientQuery]
	for i := 0; i < 50; i++ {
		env := seq1.Sequence(proto.ClientQuery{Kind: proto.ClientQueryPoll})
		_, clientErr := HandleSequencedMessage(b, env)
		require.Nil(t, clientErr)
		last = env

		env2 := seq2.Sequence(proto.ClientQuery{Kind: proto.ClientQueryPoll})
		_, clientErr = HandleSequencedMessage(b, env2)
		require.Nil(t, clientErr)
	}

	// Replaying the very last envelope must be rejected: its seqid is no
	// longer greater than that client's last_seq.
	_, clientErr := HandleSequencedMessage(b, last)
	require.NotNil(t, clientErr)
	require.Equal(t, proto.ClientErrorSequence, clientErr.Kind)
}

func TestHandleSequencedMessageWorkproofCheckedBeforeIdentity(t *testing.T) {
	b := newTestBroker()
	registered := b.RegisterLocalClient("alice")
	unregistered := ids.NewClientId()

	for _, cid := range []ids.ClientId{registered, unregistered} {
		env := proto.Sequence[proto.ClientQuery]{
			SeqId:     uint128.From64(1),
			Src:       cid,
			Workproof: uint128.Zero,
			Content:   proto.ClientQuery{Kind: proto.ClientQueryPoll},
		}
		_, clientErr := HandleSequencedMessage(b, env)
		require.NotNil(t, clientErr)
		require.Equal(t, proto.ClientErrorWorkProof, clientErr.Kind,
			"an invalid workproof must be reported even for an unknown client")
	}
}

func TestHandleSequencedMessageRejectsUnknownClient(t *testing.T) {
	b := newTestBroker()
	unregistered := ids.NewClientId()
	seq := chatclient.New(unregistered)
	env := seq.Sequence(proto.ClientQuery{Kind: proto.ClientQueryPoll})

	_, clientErr := HandleSequencedMessage(b, env)
	require.NotNil(t, clientErr)
	require.Equal(t, proto.ClientErrorUnknownClient, clientErr.Kind)
}

func TestMailboxCap(t *testing.T) {
	b := newTestBroker()
	u1 := b.RegisterLocalClient("alice")
	u2 := b.RegisterLocalClient("bob")

	for i := 0; i < MailboxSize; i++ {
		replies := b.HandleClientMessage(u1, proto.ClientMessage{Kind: proto.ClientMessageText, Dest: u2, Content: "hi"})
		require.Len(t, replies, 1)
		require.Equal(t, proto.ClientReplyDelivered, replies[0].Kind)
	}

	replies := b.HandleClientMessage(u1, proto.ClientMessage{Kind: proto.ClientMessageText, Dest: u2, Content: "one too many"})
	require.Len(t, replies, 1)
	require.Equal(t, proto.ClientReplyError, replies[0].Kind)
	require.Equal(t, proto.ClientErrorBoxFull, replies[0].Err.Kind)
	require.Equal(t, u2, replies[0].Err.BoxFullClient)
}

func TestMixedMulticast(t *testing.T) {
	b := newTestBroker()
	u1 := b.RegisterLocalClient("alice")
	u2 := b.RegisterLocalClient("bob")
	u3 := ids.NewClientId() // unregistered

	replies := b.HandleClientMessage(u1, proto.ClientMessage{
		Kind:    proto.ClientMessageMText,
		Dests:   []ids.ClientId{u2, u3},
		Content: "Hello",
	})

	require.Len(t, replies, 2)
	require.Equal(t, proto.ClientReplyDelivered, replies[0].Kind)
	require.Equal(t, proto.ClientReplyDelayed, replies[1].Kind)
}

func TestFederationRouteAndDelayedDelivery(t *testing.T) {
	b := newTestBroker()
	u1 := b.RegisterLocalClient("alice")
	eu := ids.NewClientId()
	s1, s2, s3 := ids.NewServerId(), ids.NewServerId(), ids.NewServerId()

	replies := b.HandleClientMessage(u1, proto.ClientMessage{Kind: proto.ClientMessageText, Dest: eu, Content: "Hello"})
	require.Len(t, replies, 1)
	require.Equal(t, proto.ClientReplyDelayed, replies[0].Kind)

	reply := b.HandleServerMessage(proto.ServerMessage{
		Kind: proto.ServerMessageAnnounce,
		Announce: proto.Announce{
			Route:   []ids.ServerId{s1, s2, s3},
			Clients: map[ids.ClientId]string{eu: "external"},
		},
	})

	require.Equal(t, proto.ServerReplyOutgoing, reply.Kind)
	require.Len(t, reply.Outgoing, 1)
	out := reply.Outgoing[0]
	require.Equal(t, s3, out.NextHop)
	require.Equal(t, u1, out.Message.Src)
	require.Equal(t, b.ServerID(), out.Message.SrcSrv)
	require.Equal(t, []proto.Dst{{Client: eu, Server: s1}}, out.Message.Dsts)
	require.Equal(t, "Hello", out.Message.Content)
}

func TestListUsersHasNoDedup(t *testing.T) {
	b := newTestBroker()
	u1 := b.RegisterLocalClient("alice")

	s1 := ids.NewServerId()
	remote := ids.NewClientId()
	b.HandleServerMessage(proto.ServerMessage{
		Kind: proto.ServerMessageAnnounce,
		Announce: proto.Announce{
			Route:   []ids.ServerId{s1},
			Clients: map[ids.ClientId]string{remote: "alice"},
		},
	})

	users := b.ListUsers()
	require.Len(t, users, 2)
	require.Equal(t, "alice", users[u1])
	require.Equal(t, "alice", users[remote])
}

func TestHandleForwardGroupsDestinationsByHomeServer(t *testing.T) {
	b := newTestBroker()
	s1, s2 := ids.NewServerId(), ids.NewServerId()
	c1, c2, c3 := ids.NewClientId(), ids.NewClientId(), ids.NewClientId()

	// Routes must exist for both home servers before forwarding can pick a
	// next hop for either group.
	b.HandleServerMessage(proto.ServerMessage{
		Kind:     proto.ServerMessageAnnounce,
		Announce: proto.Announce{Route: []ids.ServerId{s1}, Clients: map[ids.ClientId]string{}},
	})
	b.HandleServerMessage(proto.ServerMessage{
		Kind:     proto.ServerMessageAnnounce,
		Announce: proto.Announce{Route: []ids.ServerId{s2}, Clients: map[ids.ClientId]string{}},
	})

	reply := b.HandleServerMessage(proto.ServerMessage{
		Kind: proto.ServerMessageMessage,
		Message: proto.FullyQualifiedMessage{
			Src: ids.NewClientId(),
			Dsts: []proto.Dst{
				{Client: c1, Server: s1},
				{Client: c2, Server: s1},
				{Client: c3, Server: s2},
			},
			Content: "broadcast",
		},
	})

	require.Equal(t, proto.ServerReplyOutgoing, reply.Kind)
	require.Len(t, reply.Outgoing, 2, "destinations sharing a home server must be grouped into one Outgoing")

	bySrv := map[ids.ServerId][]proto.Dst{}
	for _, out := range reply.Outgoing {
		bySrv[out.NextHop] = out.Message.Dsts
	}
	require.ElementsMatch(t, []proto.Dst{{Client: c1, Server: s1}, {Client: c2, Server: s1}}, bySrv[s1])
	require.ElementsMatch(t, []proto.Dst{{Client: c3, Server: s2}}, bySrv[s2])
}

func TestHandleAnnounceWithEmptyRoute(t *testing.T) {
	b := newTestBroker()
	reply := b.HandleServerMessage(proto.ServerMessage{Kind: proto.ServerMessageAnnounce, Announce: proto.Announce{}})
	require.Equal(t, proto.ServerReplyEmptyRoute, reply.Kind)
}

func TestClientPollPriorityOrder(t *testing.T) {
	b := newTestBroker()
	u1 := b.RegisterLocalClient("alice")
	u2 := b.RegisterLocalClient("bob")

	b.HandleClientMessage(u2, proto.ClientMessage{Kind: proto.ClientMessageText, Dest: u1, Content: "hi"})

	// No broker operation queues a DelayedError, so seed one directly and
	// check that it is served ahead of the waiting mailbox message.
	unreachable := ids.NewClientId()
	b.mu.Lock()
	b.localClients[u1].delayedErrs = append(b.localClients[u1].delayedErrs, unreachable)
	b.mu.Unlock()

	delayed := b.ClientPoll(u1)
	require.Equal(t, proto.ClientPollReplyDelayedError, delayed.Kind)
	require.Equal(t, unreachable, delayed.UnknownRecipientClient)

	reply := b.ClientPoll(u1)
	require.Equal(t, proto.ClientPollReplyMessage, reply.Kind)
	require.Equal(t, u2, reply.Src)
	require.Equal(t, "hi", reply.Content)

	require.Equal(t, proto.ClientPollReplyNothing, b.ClientPoll(u1).Kind)
}

func TestClientPollUnknownClientYieldsNothing(t *testing.T) {
	b := newTestBroker()
	reply := b.ClientPoll(ids.NewClientId())
	require.Equal(t, proto.ClientPollReplyNothing, reply.Kind)
}

func TestFederationDisabledAlwaysDelays(t *testing.T) {
	b := New(ids.NewServerId(), WithFederation(false))
	u1 := b.RegisterLocalClient("alice")
	s1 := ids.NewServerId()
	remote := ids.NewClientId()

	b.HandleServerMessage(proto.ServerMessage{
		Kind: proto.ServerMessageAnnounce,
		Announce: proto.Announce{
			Route:   []ids.ServerId{s1},
			Clients: map[ids.ClientId]string{remote: "external"},
		},
	})

	replies := b.HandleClientMessage(u1, proto.ClientMessage{Kind: proto.ClientMessageText, Dest: remote, Content: "hi"})
	require.Len(t, replies, 1)
	require.Equal(t, proto.ClientReplyDelayed, replies[0].Kind)
}
