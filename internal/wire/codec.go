package wire

import (
	"fmt"
	"io"

	"github.com/sony-level/chatserver-lab/internal/ids"
	"github.com/sony-level/chatserver-lab/internal/proto"
	"lukechampine.com/uint128"
)

// EncodeSequence writes seqid, src, workproof, then the caller-supplied
// encoding of content, per spec §4.2.
func EncodeSequence[T any](w io.Writer, s proto.Sequence[T], encContent func(io.Writer, T) error) error {
	if err := WriteU128(w, s.SeqId); err != nil {
		return err
	}
	if err := WriteClientId(w, s.Src); err != nil {
		return err
	}
	if err := WriteU128(w, s.Workproof); err != nil {
		return err
	}
	return encContent(w, s.Content)
}

// DecodeSequence is the decoder counterpart of EncodeSequence.
func DecodeSequence[T any](r ByteReader, decContent func(ByteReader) (T, error)) (proto.Sequence[T], error) {
	var s proto.Sequence[T]
	seqid, err := ReadU128(r)
	if err != nil {
		return s, fmt.Errorf("decode sequence seqid: %w", err)
	}
	src, err := ReadClientId(r)
	if err != nil {
		return s, fmt.Errorf("decode sequence src: %w", err)
	}
	wp, err := ReadU128(r)
	if err != nil {
		return s, fmt.Errorf("decode sequence workproof: %w", err)
	}
	content, err := decContent(r)
	if err != nil {
		return s, fmt.Errorf("decode sequence content: %w", err)
	}
	s.SeqId, s.Src, s.Workproof, s.Content = seqid, src, wp, content
	return s, nil
}

// EncodeClientQuery encodes one of Register/Message/Poll/ListUsers.
func EncodeClientQuery(w io.Writer, q proto.ClientQuery) error {
	switch q.Kind {
	case proto.ClientQueryRegister:
		if _, err := w.Write([]byte{byte(proto.ClientQueryRegister)}); err != nil {
			return err
		}
		return WriteString(w, q.RegisterName)
	case proto.ClientQueryMessage:
		if _, err := w.Write([]byte{byte(proto.ClientQueryMessage)}); err != nil {
			return err
		}
		return EncodeClientMessage(w, q.Message)
	case proto.ClientQueryPoll:
		_, err := w.Write([]byte{byte(proto.ClientQueryPoll)})
		return err
	case proto.ClientQueryListUsers:
		_, err := w.Write([]byte{byte(proto.ClientQueryListUsers)})
		return err
	default:
		return fmt.Errorf("unknown ClientQuery kind %d", q.Kind)
	}
}

// DecodeClientQuery is the decoder counterpart of EncodeClientQuery.
func DecodeClientQuery(r ByteReader) (proto.ClientQuery, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return proto.ClientQuery{}, fmt.Errorf("decode client query tag: %w", err)
	}
	switch proto.ClientQueryKind(tag) {
	case proto.ClientQueryRegister:
		name, err := ReadString(r)
		if err != nil {
			return proto.ClientQuery{}, err
		}
		return proto.ClientQuery{Kind: proto.ClientQueryRegister, RegisterName: name}, nil
	case proto.ClientQueryMessage:
		msg, err := DecodeClientMessage(r)
		if err != nil {
			return proto.ClientQuery{}, err
		}
		return proto.ClientQuery{Kind: proto.ClientQueryMessage, Message: msg}, nil
	case proto.ClientQueryPoll:
		return proto.ClientQuery{Kind: proto.ClientQueryPoll}, nil
	case proto.ClientQueryListUsers:
		return proto.ClientQuery{Kind: proto.ClientQueryListUsers}, nil
	default:
		return proto.ClientQuery{}, fmt.Errorf("invalid ClientQuery tag %d", tag)
	}
}

// EncodeClientMessage encodes either a Text or MText variant.
func EncodeClientMessage(w io.Writer, m proto.ClientMessage) error {
	switch m.Kind {
	case proto.ClientMessageText:
		if _, err := w.Write([]byte{byte(proto.ClientMessageText)}); err != nil {
			return err
		}
		if err := WriteClientId(w, m.Dest); err != nil {
			return err
		}
		return WriteString(w, m.Content)
	case proto.ClientMessageMText:
		if _, err := w.Write([]byte{byte(proto.ClientMessageMText)}); err != nil {
			return err
		}
		if err := WriteU128(w, uint128.From64(uint64(len(m.Dests)))); err != nil {
			return err
		}
		for _, d := range m.Dests {
			if err := WriteClientId(w, d); err != nil {
				return err
			}
		}
		return WriteString(w, m.Content)
	default:
		return fmt.Errorf("unknown ClientMessage kind %d", m.Kind)
	}
}

// DecodeClientMessage is the decoder counterpart of EncodeClientMessage.
func DecodeClientMessage(r ByteReader) (proto.ClientMessage, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return proto.ClientMessage{}, fmt.Errorf("decode client message tag: %w", err)
	}
	switch proto.ClientMessageKind(tag) {
	case proto.ClientMessageText:
		dest, err := ReadClientId(r)
		if err != nil {
			return proto.ClientMessage{}, err
		}
		content, err := ReadString(r)
		if err != nil {
			return proto.ClientMessage{}, err
		}
		return proto.ClientMessage{Kind: proto.ClientMessageText, Dest: dest, Content: content}, nil
	case proto.ClientMessageMText:
		count, err := ReadU128(r)
		if err != nil {
			return proto.ClientMessage{}, err
		}
		if count.Hi != 0 || count.Lo > maxCollectionLen {
			return proto.ClientMessage{}, fmt.Errorf("MText dest count overflow")
		}
		dests := make([]ids.ClientId, count.Lo)
		for i := range dests {
			d, err := ReadClientId(r)
			if err != nil {
				return proto.ClientMessage{}, err
			}
			dests[i] = d
		}
		content, err := ReadString(r)
		if err != nil {
			return proto.ClientMessage{}, err
		}
		return proto.ClientMessage{Kind: proto.ClientMessageMText, Dests: dests, Content: content}, nil
	default:
		return proto.ClientMessage{}, fmt.Errorf("invalid ClientMessage tag %d", tag)
	}
}

// maxCollectionLen bounds decoded slice/map sizes well above any legitimate
// announce or multicast to prevent a malformed length prefix from causing a
// huge allocation.
const maxCollectionLen = 1 << 20

// EncodeFQM encodes a FullyQualifiedMessage: src, srcsrv, dsts, content.
func EncodeFQM(w io.Writer, m proto.FullyQualifiedMessage) error {
	if err := WriteClientId(w, m.Src); err != nil {
		return err
	}
	if err := WriteServerId(w, m.SrcSrv); err != nil {
		return err
	}
	if err := WriteU128(w, uint128.From64(uint64(len(m.Dsts)))); err != nil {
		return err
	}
	for _, d := range m.Dsts {
		if err := WriteClientId(w, d.Client); err != nil {
			return err
		}
		if err := WriteServerId(w, d.Server); err != nil {
			return err
		}
	}
	return WriteString(w, m.Content)
}

// DecodeFQM is the decoder counterpart of EncodeFQM.
func DecodeFQM(r ByteReader) (proto.FullyQualifiedMessage, error) {
	var m proto.FullyQualifiedMessage
	src, err := ReadClientId(r)
	if err != nil {
		return m, err
	}
	srcsrv, err := ReadServerId(r)
	if err != nil {
		return m, err
	}
	count, err := ReadU128(r)
	if err != nil {
		return m, err
	}
	if count.Hi != 0 || count.Lo > maxCollectionLen {
		return m, fmt.Errorf("FullyQualifiedMessage dsts count overflow")
	}
	dsts := make([]proto.Dst, count.Lo)
	for i := range dsts {
		c, err := ReadClientId(r)
		if err != nil {
			return m, err
		}
		s, err := ReadServerId(r)
		if err != nil {
			return m, err
		}
		dsts[i] = proto.Dst{Client: c, Server: s}
	}
	content, err := ReadString(r)
	if err != nil {
		return m, err
	}
	m.Src, m.SrcSrv, m.Dsts, m.Content = src, srcsrv, dsts, content
	return m, nil
}

// EncodeServerMessage encodes an Announce or a Message variant.
func EncodeServerMessage(w io.Writer, m proto.ServerMessage) error {
	switch m.Kind {
	case proto.ServerMessageAnnounce:
		if _, err := w.Write([]byte{byte(proto.ServerMessageAnnounce)}); err != nil {
			return err
		}
		if err := WriteU128(w, uint128.From64(uint64(len(m.Announce.Route)))); err != nil {
			return err
		}
		for _, s := range m.Announce.Route {
			if err := WriteServerId(w, s); err != nil {
				return err
			}
		}
		if err := WriteU128(w, uint128.From64(uint64(len(m.Announce.Clients)))); err != nil {
			return err
		}
		for cid, name := range m.Announce.Clients {
			if err := WriteClientId(w, cid); err != nil {
				return err
			}
			if err := WriteString(w, name); err != nil {
				return err
			}
		}
		return nil
	case proto.ServerMessageMessage:
		if _, err := w.Write([]byte{byte(proto.ServerMessageMessage)}); err != nil {
			return err
		}
		return EncodeFQM(w, m.Message)
	default:
		return fmt.Errorf("unknown ServerMessage kind %d", m.Kind)
	}
}

// DecodeServerMessage is the decoder counterpart of EncodeServerMessage.
func DecodeServerMessage(r ByteReader) (proto.ServerMessage, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return proto.ServerMessage{}, fmt.Errorf("decode server message tag: %w", err)
	}
	switch proto.ServerMessageKind(tag) {
	case proto.ServerMessageAnnounce:
		routeLen, err := ReadU128(r)
		if err != nil {
			return proto.ServerMessage{}, err
		}
		if routeLen.Hi != 0 || routeLen.Lo > maxCollectionLen {
			return proto.ServerMessage{}, fmt.Errorf("announce route length overflow")
		}
		route := make([]ids.ServerId, routeLen.Lo)
		for i := range route {
			s, err := ReadServerId(r)
			if err != nil {
				return proto.ServerMessage{}, err
			}
			route[i] = s
		}
		mapLen, err := ReadU128(r)
		if err != nil {
			return proto.ServerMessage{}, err
		}
		if mapLen.Hi != 0 || mapLen.Lo > maxCollectionLen {
			return proto.ServerMessage{}, fmt.Errorf("announce client map length overflow")
		}
		clients := make(map[ids.ClientId]string, mapLen.Lo)
		for i := uint64(0); i < mapLen.Lo; i++ {
			cid, err := ReadClientId(r)
			if err != nil {
				return proto.ServerMessage{}, err
			}
			name, err := ReadString(r)
			if err != nil {
				return proto.ServerMessage{}, err
			}
			clients[cid] = name
		}
		return proto.ServerMessage{
			Kind:     proto.ServerMessageAnnounce,
			Announce: proto.Announce{Route: route, Clients: clients},
		}, nil
	case proto.ServerMessageMessage:
		fqm, err := DecodeFQM(r)
		if err != nil {
			return proto.ServerMessage{}, err
		}
		return proto.ServerMessage{Kind: proto.ServerMessageMessage, Message: fqm}, nil
	default:
		return proto.ServerMessage{}, fmt.Errorf("invalid ServerMessage tag %d", tag)
	}
}

// EncodeClientError encodes the ClientError taxonomy, tags 0..4.
func EncodeClientError(w io.Writer, e proto.ClientError) error {
	if _, err := w.Write([]byte{byte(e.Kind)}); err != nil {
		return err
	}
	if e.Kind == proto.ClientErrorBoxFull {
		return WriteClientId(w, e.BoxFullClient)
	}
	return nil
}

// DecodeClientError is the decoder counterpart of EncodeClientError.
func DecodeClientError(r ByteReader) (proto.ClientError, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return proto.ClientError{}, fmt.Errorf("decode client error tag: %w", err)
	}
	kind := proto.ClientErrorKind(tag)
	switch kind {
	case proto.ClientErrorWorkProof, proto.ClientErrorUnknownClient, proto.ClientErrorSequence, proto.ClientErrorInternal:
		return proto.ClientError{Kind: kind}, nil
	case proto.ClientErrorBoxFull:
		cid, err := ReadClientId(r)
		if err != nil {
			return proto.ClientError{}, err
		}
		return proto.ClientError{Kind: kind, BoxFullClient: cid}, nil
	default:
		return proto.ClientError{}, fmt.Errorf("invalid ClientError tag %d", tag)
	}
}

// EncodeClientReply encodes a single reply: Delivered/Error/Delayed/Transfer.
func EncodeClientReply(w io.Writer, r proto.ClientReply) error {
	switch r.Kind {
	case proto.ClientReplyDelivered:
		_, err := w.Write([]byte{byte(proto.ClientReplyDelivered)})
		return err
	case proto.ClientReplyError:
		if _, err := w.Write([]byte{byte(proto.ClientReplyError)}); err != nil {
			return err
		}
		return EncodeClientError(w, r.Err)
	case proto.ClientReplyDelayed:
		_, err := w.Write([]byte{byte(proto.ClientReplyDelayed)})
		return err
	case proto.ClientReplyTransfer:
		if _, err := w.Write([]byte{byte(proto.ClientReplyTransfer)}); err != nil {
			return err
		}
		if err := WriteServerId(w, r.NextHop); err != nil {
			return err
		}
		return EncodeServerMessage(w, r.Transfer)
	default:
		return fmt.Errorf("unknown ClientReply kind %d", r.Kind)
	}
}

// DecodeClientReply is the decoder counterpart of EncodeClientReply.
func DecodeClientReply(r ByteReader) (proto.ClientReply, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return proto.ClientReply{}, fmt.Errorf("decode client reply tag: %w", err)
	}
	switch proto.ClientReplyKind(tag) {
	case proto.ClientReplyDelivered:
		return proto.ClientReply{Kind: proto.ClientReplyDelivered}, nil
	case proto.ClientReplyError:
		e, err := DecodeClientError(r)
		if err != nil {
			return proto.ClientReply{}, err
		}
		return proto.ClientReply{Kind: proto.ClientReplyError, Err: e}, nil
	case proto.ClientReplyDelayed:
		return proto.ClientReply{Kind: proto.ClientReplyDelayed}, nil
	case proto.ClientReplyTransfer:
		nh, err := ReadServerId(r)
		if err != nil {
			return proto.ClientReply{}, err
		}
		sm, err := DecodeServerMessage(r)
		if err != nil {
			return proto.ClientReply{}, err
		}
		return proto.ClientReply{Kind: proto.ClientReplyTransfer, NextHop: nh, Transfer: sm}, nil
	default:
		return proto.ClientReply{}, fmt.Errorf("invalid ClientReply tag %d", tag)
	}
}

// EncodeClientReplies encodes a length-prefixed list of replies, the wire
// shape of a Message query's response.
func EncodeClientReplies(w io.Writer, replies []proto.ClientReply) error {
	if err := WriteU128(w, uint128.From64(uint64(len(replies)))); err != nil {
		return err
	}
	for _, r := range replies {
		if err := EncodeClientReply(w, r); err != nil {
			return err
		}
	}
	return nil
}

// DecodeClientReplies is the decoder counterpart of EncodeClientReplies.
func DecodeClientReplies(r ByteReader) ([]proto.ClientReply, error) {
	count, err := ReadU128(r)
	if err != nil {
		return nil, err
	}
	if count.Hi != 0 || count.Lo > maxCollectionLen {
		return nil, fmt.Errorf("client replies count overflow")
	}
	out := make([]proto.ClientReply, count.Lo)
	for i := range out {
		rep, err := DecodeClientReply(r)
		if err != nil {
			return nil, err
		}
		out[i] = rep
	}
	return out, nil
}

// EncodeClientPollReply encodes Message/DelayedError(UnknownRecipient)/Nothing.
// DelayedError nests the UnknownRecipient tag 0 under the outer tag 1, per
// spec §4.2's "1,0" discriminant pair.
func EncodeClientPollReply(w io.Writer, r proto.ClientPollReply) error {
	switch r.Kind {
	case proto.ClientPollReplyMessage:
		if _, err := w.Write([]byte{byte(proto.ClientPollReplyMessage)}); err != nil {
			return err
		}
		if err := WriteClientId(w, r.Src); err != nil {
			return err
		}
		return WriteString(w, r.Content)
	case proto.ClientPollReplyDelayedError:
		if _, err := w.Write([]byte{byte(proto.ClientPollReplyDelayedError), 0}); err != nil {
			return err
		}
		return WriteClientId(w, r.UnknownRecipientClient)
	case proto.ClientPollReplyNothing:
		_, err := w.Write([]byte{byte(proto.ClientPollReplyNothing)})
		return err
	default:
		return fmt.Errorf("unknown ClientPollReply kind %d", r.Kind)
	}
}

// DecodeClientPollReply is the decoder counterpart of EncodeClientPollReply.
func DecodeClientPollReply(r ByteReader) (proto.ClientPollReply, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return proto.ClientPollReply{}, fmt.Errorf("decode client poll reply tag: %w", err)
	}
	switch proto.ClientPollReplyKind(tag) {
	case proto.ClientPollReplyMessage:
		src, err := ReadClientId(r)
		if err != nil {
			return proto.ClientPollReply{}, err
		}
		content, err := ReadString(r)
		if err != nil {
			return proto.ClientPollReply{}, err
		}
		return proto.ClientPollReply{Kind: proto.ClientPollReplyMessage, Src: src, Content: content}, nil
	case proto.ClientPollReplyDelayedError:
		inner, err := r.ReadByte()
		if err != nil {
			return proto.ClientPollReply{}, fmt.Errorf("decode delayed error inner tag: %w", err)
		}
		if inner != 0 {
			return proto.ClientPollReply{}, fmt.Errorf("invalid DelayedError inner tag %d", inner)
		}
		cid, err := ReadClientId(r)
		if err != nil {
			return proto.ClientPollReply{}, err
		}
		return proto.ClientPollReply{Kind: proto.ClientPollReplyDelayedError, UnknownRecipientClient: cid}, nil
	case proto.ClientPollReplyNothing:
		return proto.ClientPollReply{Kind: proto.ClientPollReplyNothing}, nil
	default:
		return proto.ClientPollReply{}, fmt.Errorf("invalid ClientPollReply tag %d", tag)
	}
}

// EncodeUserList encodes the map<ClientId,String> returned by ListUsers.
func EncodeUserList(w io.Writer, m map[ids.ClientId]string) error {
	if err := WriteU128(w, uint128.From64(uint64(len(m)))); err != nil {
		return err
	}
	for cid, name := range m {
		if err := WriteClientId(w, cid); err != nil {
			return err
		}
		if err := WriteString(w, name); err != nil {
			return err
		}
	}
	return nil
}

// DecodeUserList is the decoder counterpart of EncodeUserList.
func DecodeUserList(r ByteReader) (map[ids.ClientId]string, error) {
	count, err := ReadU128(r)
	if err != nil {
		return nil, err
	}
	if count.Hi != 0 || count.Lo > maxCollectionLen {
		return nil, fmt.Errorf("user list length overflow")
	}
	out := make(map[ids.ClientId]string, count.Lo)
	for i := uint64(0); i < count.Lo; i++ {
		cid, err := ReadClientId(r)
		if err != nil {
			return nil, err
		}
		name, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		out[cid] = name
	}
	return out, nil
}

// EncodeQueryReply encodes the top-level per-query response envelope.
func EncodeQueryReply(w io.Writer, r proto.QueryReply) error {
	switch r.Kind {
	case proto.QueryReplyError:
		if _, err := w.Write([]byte{byte(proto.QueryReplyError)}); err != nil {
			return err
		}
		return EncodeClientError(w, r.Err)
	case proto.QueryReplyRegistered:
		if _, err := w.Write([]byte{byte(proto.QueryReplyRegistered)}); err != nil {
			return err
		}
		return WriteClientId(w, r.Registered)
	case proto.QueryReplyMessage:
		if _, err := w.Write([]byte{byte(proto.QueryReplyMessage)}); err != nil {
			return err
		}
		return EncodeClientReplies(w, r.Replies)
	case proto.QueryReplyPoll:
		if _, err := w.Write([]byte{byte(proto.QueryReplyPoll)}); err != nil {
			return err
		}
		return EncodeClientPollReply(w, r.Poll)
	case proto.QueryReplyUsers:
		if _, err := w.Write([]byte{byte(proto.QueryReplyUsers)}); err != nil {
			return err
		}
		return EncodeUserList(w, r.Users)
	default:
		return fmt.Errorf("unknown QueryReply kind %d", r.Kind)
	}
}

// DecodeQueryReply is the decoder counterpart of EncodeQueryReply.
func DecodeQueryReply(r ByteReader) (proto.QueryReply, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return proto.QueryReply{}, fmt.Errorf("decode query reply tag: %w", err)
	}
	switch proto.QueryReplyKind(tag) {
	case proto.QueryReplyError:
		e, err := DecodeClientError(r)
		if err != nil {
			return proto.QueryReply{}, err
		}
		return proto.QueryReply{Kind: proto.QueryReplyError, Err: e}, nil
	case proto.QueryReplyRegistered:
		cid, err := ReadClientId(r)
		if err != nil {
			return proto.QueryReply{}, err
		}
		return proto.QueryReply{Kind: proto.QueryReplyRegistered, Registered: cid}, nil
	case proto.QueryReplyMessage:
		replies, err := DecodeClientReplies(r)
		if err != nil {
			return proto.QueryReply{}, err
		}
		return proto.QueryReply{Kind: proto.QueryReplyMessage, Replies: replies}, nil
	case proto.QueryReplyPoll:
		poll, err := DecodeClientPollReply(r)
		if err != nil {
			return proto.QueryReply{}, err
		}
		return proto.QueryReply{Kind: proto.QueryReplyPoll, Poll: poll}, nil
	case proto.QueryReplyUsers:
		users, err := DecodeUserList(r)
		if err != nil {
			return proto.QueryReply{}, err
		}
		return proto.QueryReply{Kind: proto.QueryReplyUsers, Users: users}, nil
	default:
		return proto.QueryReply{}, fmt.Errorf("invalid QueryReply tag %d", tag)
	}
}

// EncodeAuthMessage encodes the handshake variant set (Hello/Nonce/Auth).
func EncodeAuthMessage(w io.Writer, m proto.AuthMessage) error {
	switch m.Kind {
	case proto.AuthKindHello:
		if _, err := w.Write([]byte{byte(proto.AuthKindHello)}); err != nil {
			return err
		}
		if err := WriteClientId(w, m.Hello.User); err != nil {
			return err
		}
		return WriteRawBytes(w, m.Hello.Nonce[:])
	case proto.AuthKindNonce:
		if _, err := w.Write([]byte{byte(proto.AuthKindNonce)}); err != nil {
			return err
		}
		if err := WriteServerId(w, m.Nonce.Server); err != nil {
			return err
		}
		return WriteRawBytes(w, m.Nonce.Nonce[:])
	case proto.AuthKindAuth:
		if _, err := w.Write([]byte{byte(proto.AuthKindAuth)}); err != nil {
			return err
		}
		return WriteRawBytes(w, m.Auth.Response[:])
	default:
		return fmt.Errorf("unknown AuthMessage kind %d", m.Kind)
	}
}

// DecodeAuthMessage is the decoder counterpart of EncodeAuthMessage.
func DecodeAuthMessage(r ByteReader) (proto.AuthMessage, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return proto.AuthMessage{}, fmt.Errorf("decode auth message tag: %w", err)
	}
	switch proto.AuthKind(tag) {
	case proto.AuthKindHello:
		user, err := ReadClientId(r)
		if err != nil {
			return proto.AuthMessage{}, err
		}
		nonce, err := ReadRawBytes(r, 8)
		if err != nil {
			return proto.AuthMessage{}, err
		}
		var n [8]byte
		copy(n[:], nonce)
		return proto.AuthMessage{Kind: proto.AuthKindHello, Hello: proto.AuthHello{User: user, Nonce: n}}, nil
	case proto.AuthKindNonce:
		server, err := ReadServerId(r)
		if err != nil {
			return proto.AuthMessage{}, err
		}
		nonce, err := ReadRawBytes(r, 8)
		if err != nil {
			return proto.AuthMessage{}, err
		}
		var n [8]byte
		copy(n[:], nonce)
		return proto.AuthMessage{Kind: proto.AuthKindNonce, Nonce: proto.AuthNonce{Server: server, Nonce: n}}, nil
	case proto.AuthKindAuth:
		resp, err := ReadRawBytes(r, 16)
		if err != nil {
			return proto.AuthMessage{}, err
		}
		var rsp [16]byte
		copy(rsp[:], resp)
		return proto.AuthMessage{Kind: proto.AuthKindAuth, Auth: proto.AuthAuth{Response: rsp}}, nil
	default:
		return proto.AuthMessage{}, fmt.Errorf("invalid AuthMessage tag %d", tag)
	}
}
