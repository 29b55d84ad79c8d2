// Package proto defines the data model shared by the broker, the client
// sequencer, and the wire codec: the data model of spec §3 (Sequence,
// ClientQuery/ClientMessage, FullyQualifiedMessage, ServerMessage) plus the
// reply and error types servers hand back. It is grounded on the original
// source's chatproto::messages module — the field names and the enum
// shapes (even where Rust used a sum type and Go needs a tag + payload
// struct) carry over directly.
package proto

import (
	"fmt"

	"github.com/sony-level/chatserver-lab/internal/ids"
	"lukechampine.com/uint128"
)

// Sequence wraps a payload with the identity, strict sequence number, and
// workproof a client attaches to every command it submits.
type Sequence[T any] struct {
	SeqId     uint128.Uint128
	Src       ids.ClientId
	Workproof uint128.Uint128
	Content   T
}

// AuthMessage is the (currently unused by the broker core) handshake
// variant set carried over from the original source; kept because spec §4.2
// fixes its wire discriminants as part of the wire contract.
type AuthMessage struct {
	Kind  AuthKind
	Hello AuthHello
	Nonce AuthNonce
	Auth  AuthAuth
}

type AuthKind byte

const (
	AuthKindHello AuthKind = 0
	AuthKindNonce AuthKind = 1
	AuthKindAuth  AuthKind = 2
)

type AuthHello struct {
	User  ids.ClientId
	Nonce [8]byte
}

type AuthNonce struct {
	Server ids.ServerId
	Nonce  [8]byte
}

type AuthAuth struct {
	Response [16]byte
}

// ClientQuery is the top-level request a client submits inside a Sequence.
type ClientQuery struct {
	Kind         ClientQueryKind
	RegisterName string
	Message      ClientMessage
}

type ClientQueryKind byte

const (
	ClientQueryRegister  ClientQueryKind = 0
	ClientQueryMessage   ClientQueryKind = 1
	ClientQueryPoll      ClientQueryKind = 2
	ClientQueryListUsers ClientQueryKind = 3
)

// ClientMessage is either a single- or multi-recipient text command.
type ClientMessage struct {
	Kind    ClientMessageKind
	Dest    ids.ClientId   // Text
	Dests   []ids.ClientId // MText
	Content string
}

type ClientMessageKind byte

const (
	ClientMessageText  ClientMessageKind = 0
	ClientMessageMText ClientMessageKind = 1
)

// FullyQualifiedMessage is the server-to-server form of a chat message: the
// source client/server, every (destination client, destination home server)
// pair, and the text content.
type FullyQualifiedMessage struct {
	Src     ids.ClientId
	SrcSrv  ids.ServerId
	Dsts    []Dst
	Content string
}

// Dst pairs a destination client with the server it is registered on.
type Dst struct {
	Client ids.ClientId
	Server ids.ServerId
}

// ServerMessage is either a federation announce or a relayed chat message.
type ServerMessage struct {
	Kind     ServerMessageKind
	Announce Announce
	Message  FullyQualifiedMessage
}

type ServerMessageKind byte

const (
	ServerMessageAnnounce ServerMessageKind = 0
	ServerMessageMessage  ServerMessageKind = 1
)

// Announce publishes an originating server's clients and the route by which
// the receiver learned of it. Route is ordered farthest->closest: element 0
// is the originating server, the last element the immediate neighbor that
// handed us the announce.
type Announce struct {
	Route   []ids.ServerId
	Clients map[ids.ClientId]string
}

// ClientError is the taxonomy of terminal, client-visible request failures.
type ClientError struct {
	Kind          ClientErrorKind
	BoxFullClient ids.ClientId // only meaningful when Kind == ClientErrorBoxFull
}

type ClientErrorKind byte

const (
	ClientErrorWorkProof     ClientErrorKind = 0
	ClientErrorUnknownClient ClientErrorKind = 1
	ClientErrorSequence      ClientErrorKind = 2
	ClientErrorBoxFull       ClientErrorKind = 3
	ClientErrorInternal      ClientErrorKind = 4
)

func (e ClientError) Error() string {
	switch e.Kind {
	case ClientErrorWorkProof:
		return "WorkProofError"
	case ClientErrorUnknownClient:
		return "UnknownClient"
	case ClientErrorSequence:
		return "SequenceError"
	case ClientErrorBoxFull:
		return fmt.Sprintf("BoxFull(%s)", e.BoxFullClient)
	case ClientErrorInternal:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// ClientReply is returned once per destination from handle_client_message.
type ClientReply struct {
	Kind     ClientReplyKind
	Err      ClientError   // Error
	NextHop  ids.ServerId  // Transfer
	Transfer ServerMessage // Transfer
}

type ClientReplyKind byte

const (
	ClientReplyDelivered ClientReplyKind = 0
	ClientReplyError     ClientReplyKind = 1
	ClientReplyDelayed   ClientReplyKind = 2
	ClientReplyTransfer  ClientReplyKind = 3
)

// ClientPollReply is returned from client_poll.
type ClientPollReply struct {
	Kind                   ClientPollReplyKind
	Src                    ids.ClientId // Message
	Content                string       // Message
	UnknownRecipientClient ids.ClientId // DelayedError(UnknownRecipient)
}

type ClientPollReplyKind byte

const (
	ClientPollReplyMessage      ClientPollReplyKind = 0
	ClientPollReplyDelayedError ClientPollReplyKind = 1
	ClientPollReplyNothing      ClientPollReplyKind = 2
)

// Outgoing pairs a fully qualified message with the next-hop server it
// should be forwarded to.
type Outgoing struct {
	NextHop ids.ServerId
	Message FullyQualifiedMessage
}

// ServerReply is returned from handle_server_message.
type ServerReply struct {
	Kind      ServerReplyKind
	Outgoing  []Outgoing
	ErrorText string
}

type ServerReplyKind byte

const (
	ServerReplyOutgoing   ServerReplyKind = 0
	ServerReplyEmptyRoute ServerReplyKind = 1
	ServerReplyError      ServerReplyKind = 2
)

// QueryReply is the top-level datagram a client reads back for any
// ClientQuery it sent: either the sequencing/workproof error that aborted
// processing before the query kind was even looked at, or the
// kind-specific result. This envelope is not part of spec §4.2's
// per-message wire table (which only fixes the discriminants of the
// nested types); it is the outermost framing the UDP transport layer
// needs to tell "which of the four query shapes is this reply for".
type QueryReply struct {
	Kind       QueryReplyKind
	Err        ClientError          // Error
	Registered ids.ClientId         // Registered
	Replies    []ClientReply        // Message
	Poll       ClientPollReply      // Poll
	Users      map[ids.ClientId]string // Users
}

type QueryReplyKind byte

const (
	QueryReplyError      QueryReplyKind = 0
	QueryReplyRegistered QueryReplyKind = 1
	QueryReplyMessage    QueryReplyKind = 2
	QueryReplyPoll       QueryReplyKind = 3
	QueryReplyUsers      QueryReplyKind = 4
)
