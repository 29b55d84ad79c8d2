// Package broker holds the in-memory broker state of spec §3-§4: local
// clients and their mailboxes, remote clients learned via federation,
// known routes, and the pending queue for not-yet-known recipients.
//
// The whole state is guarded by one sync.RWMutex per spec §5 ("the
// invariants span multiple fields ... need a single critical section"),
// mirroring the teacher's mqttbroker.Broker shape: a constructor New, a
// single mutex field, and methods that take the lock for their full duration
// and never call back into another exported method while holding it.
//
// Go cannot express a generic method on an interface the way the original
// source's `async fn handle_sequenced_message<A: Send>` trait method does,
// so HandleSequencedMessage is a package-level generic function operating
// on *Broker rather than an interface method; every other operation in
// spec §9's {register, list, handle_sequenced, handle_client, handle_server,
// poll, route_to} capability set is a concrete method.
package broker

import (
	"log/slog"
	"sync"

	"github.com/sony-level/chatserver-lab/internal/ids"
	"github.com/sony-level/chatserver-lab/internal/proto"
	"github.com/sony-level/chatserver-lab/internal/workproof"
	"lukechampine.com/uint128"
)

const (
	// MailboxSize is MAILBOX_SIZE from spec §3: the bound on a local
	// client's undelivered-message queue.
	MailboxSize = 256
	// WorkproofStrength is WORKPROOF_STRENGTH from spec §3: minimum
	// leading zero bits a sequenced envelope's workproof must exhibit.
	WorkproofStrength = 8
)

type mailboxEntry struct {
	src     ids.ClientId
	content string
}

type localClient struct {
	name    string
	lastSeq uint128.Uint128
	mailbox []mailboxEntry
	// delayedErrs queues DelayedError notices the broker owes this client
	// ahead of ordinary mailbox messages per spec §4.4. Nothing in the
	// specified operation set currently produces one (see DESIGN.md); the
	// plumbing is wired so client_poll's priority rule is already correct
	// the day something does.
	delayedErrs []ids.ClientId
}

type remoteClient struct {
	name string
	home ids.ServerId
}

type pendingEntry struct {
	src     ids.ClientId
	content string
}

// Broker is the concrete implementation of the broker core and federation
// layer. The zero value is not usable; construct with New.
type Broker struct {
	logger *slog.Logger

	mu            sync.RWMutex
	serverID      ids.ServerId
	localClients  map[ids.ClientId]*localClient
	remoteClients map[ids.ClientId]remoteClient
	routes        map[ids.ServerId][]ids.ServerId
	pending       map[ids.ClientId][]pendingEntry

	// federationEnabled gates the middle resolution branch of
	// handle_client_message (remote client + known route => Transfer).
	// When false, unknown destinations always produce Delayed, per spec
	// §4.4's "When federation is disabled the middle bullet does not
	// apply".
	federationEnabled bool
}

// Option configures a Broker at construction time.
type Option func(*Broker)

// WithFederation enables or disables the federation resolution branch of
// handle_client_message. Federation is enabled by default.
func WithFederation(enabled bool) Option {
	return func(b *Broker) { b.federationEnabled = enabled }
}

// WithLogger attaches a logger; a discarding logger is used if omitted.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Broker) { b.logger = logger }
}

// New constructs a Broker identified by id.
func New(id ids.ServerId, opts ...Option) *Broker {
	b := &Broker{
		serverID:          id,
		localClients:      make(map[ids.ClientId]*localClient),
		remoteClients:     make(map[ids.ClientId]remoteClient),
		routes:            make(map[ids.ServerId][]ids.ServerId),
		pending:           make(map[ids.ClientId][]pendingEntry),
		federationEnabled: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewTextHandler(discard{}, nil))
	}
	return b
}

// ServerID returns this node's own identity.
func (b *Broker) ServerID() ids.ServerId { return b.serverID }

// RegisterLocalClient allocates a fresh ClientId, inserts a LocalClient with
// an empty mailbox and last_seq 0, and returns the id. Colliding names
// remain distinct: names are not unique.
func (b *Broker) RegisterLocalClient(name string) ids.ClientId {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := ids.NewClientId()
	b.localClients[id] = &localClient{name: name}
	b.logger.Debug("registered local client", "client", id, "name", name)
	return id
}

// HandleSequencedMessage validates a sequenced envelope in the contractual
// order of spec §4.4: workproof, then client identity, then sequence
// monotonicity. On success it returns the unwrapped content and updates
// last_seq; on failure it returns the error without mutating state.
func HandleSequencedMessage[T any](b *Broker, env proto.Sequence[T]) (T, *proto.ClientError) {
	var zero T

	nonce := env.Src.U128()
	if !workproof.Verify(nonce, env.Workproof, WorkproofStrength) {
		return zero, &proto.ClientError{Kind: proto.ClientErrorWorkProof}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	client, known := b.localClients[env.Src]
	if !known {
		return zero, &proto.ClientError{Kind: proto.ClientErrorUnknownClient}
	}

	if env.SeqId.Cmp(client.lastSeq) <= 0 {
		return zero, &proto.ClientError{Kind: proto.ClientErrorSequence}
	}
	client.lastSeq = env.SeqId

	return env.Content, nil
}

// ListUsers returns the union of local and remote client names. Names are
// not deduplicated across identities.
func (b *Broker) ListUsers() map[ids.ClientId]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[ids.ClientId]string, len(b.localClients)+len(b.remoteClients))
	for cid, c := range b.localClients {
		out[cid] = c.name
	}
	for cid, c := range b.remoteClients {
		out[cid] = c.name
	}
	return out
}

// ClientPoll pops the next item owed to client: a queued DelayedError takes
// priority, then the mailbox head in FIFO order, then Nothing. Polling an
// identity this node does not know locally is not an error channel for
// identity — it simply yields Nothing.
func (b *Broker) ClientPoll(client ids.ClientId) proto.ClientPollReply {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, known := b.localClients[client]
	if !known {
		return proto.ClientPollReply{Kind: proto.ClientPollReplyNothing}
	}

	if len(c.delayedErrs) > 0 {
		cid := c.delayedErrs[0]
		c.delayedErrs = c.delayedErrs[1:]
		return proto.ClientPollReply{Kind: proto.ClientPollReplyDelayedError, UnknownRecipientClient: cid}
	}

	if len(c.mailbox) == 0 {
		return proto.ClientPollReply{Kind: proto.ClientPollReplyNothing}
	}

	entry := c.mailbox[0]
	c.mailbox = c.mailbox[1:]
	return proto.ClientPollReply{Kind: proto.ClientPollReplyMessage, Src: entry.src, Content: entry.content}
}

// Counts reports the current size of each broker table, for periodic
// diagnostic logging.
func (b *Broker) Counts() (local, remote, routes, pending int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	pendingTotal := 0
	for _, q := range b.pending {
		pendingTotal += len(q)
	}
	return len(b.localClients), len(b.remoteClients), len(b.routes), pendingTotal
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
