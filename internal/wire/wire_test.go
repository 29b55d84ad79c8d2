package wire

import (
	"bytes"
	"testing"

	"github.com/sony-level/chatserver-lab/internal/ids"
	"github.com/sony-level/chatserver-lab/internal/proto"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestU128Fixtures(t *testing.T) {
	cases := []struct {
		v    uint128.Uint128
		want []byte
	}{
		{uint128.From64(1), []byte{1}},
		{uint128.From64(0x1234), []byte{251, 52, 18}},
		{uint128.From64(0x12345678), []byte{252, 120, 86, 52, 18}},
		{uint128.From64(0x123456789abcdef0), []byte{253, 240, 222, 188, 154, 120, 86, 52, 18}},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		require.NoError(t, WriteU128(&buf, c.v))
		require.Equal(t, c.want, buf.Bytes())

		got, err := ReadU128(Reader(buf.Bytes()))
		require.NoError(t, err)
		require.Equal(t, 0, got.Cmp(c.v))
	}
}

func TestStringFixture(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, "Hello World ;)"))
	want := append([]byte{14}, []byte("Hello World ;)")...)
	require.Equal(t, want, buf.Bytes())

	got, err := ReadString(Reader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, "Hello World ;)", got)
}

func TestStringUTF8RoundTrip(t *testing.T) {
	const s = "😘😙😚"
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, s))

	got, err := ReadString(Reader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestClientQueryPollFixture(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeClientQuery(&buf, proto.ClientQuery{Kind: proto.ClientQueryPoll}))
	require.Equal(t, []byte{2}, buf.Bytes())
}

func TestClientQueryRegisterFixture(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeClientQuery(&buf, proto.ClientQuery{Kind: proto.ClientQueryRegister, RegisterName: "Bob"}))
	require.Equal(t, []byte{0, 3, 'B', 'o', 'b'}, buf.Bytes())
}

func TestClientMessageTextFixture(t *testing.T) {
	uuidBytes := [16]byte{0x73, 0x20, 0x37, 0xaf, 0xd3, 0x84, 0x4d, 0x93, 0xab, 0x4e, 0xeb, 0xaf, 0x64, 0xde, 0x87, 0x1b}
	dest := ids.ClientIdFromBytes(uuidBytes)

	var buf bytes.Buffer
	require.NoError(t, EncodeClientMessage(&buf, proto.ClientMessage{
		Kind:    proto.ClientMessageText,
		Dest:    dest,
		Content: "P2s6ERp2",
	}))

	want := []byte{0, 16}
	want = append(want, uuidBytes[:]...)
	want = append(want, 8, 'P', '2', 's', '6', 'E', 'R', 'p', '2')
	require.Equal(t, want, buf.Bytes())

	got, err := DecodeClientMessage(Reader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, dest, got.Dest)
	require.Equal(t, "P2s6ERp2", got.Content)
}

func TestClientMessageMTextRoundTrip(t *testing.T) {
	msg := proto.ClientMessage{
		Kind:    proto.ClientMessageMText,
		Dests:   []ids.ClientId{ids.NewClientId(), ids.NewClientId(), ids.NewClientId()},
		Content: "hi all",
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeClientMessage(&buf, msg))

	got, err := DecodeClientMessage(Reader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, msg.Dests, got.Dests)
	require.Equal(t, msg.Content, got.Content)
}

func TestSequenceRoundTrip(t *testing.T) {
	env := proto.Sequence[proto.ClientQuery]{
		SeqId:     uint128.From64(7),
		Src:       ids.NewClientId(),
		Workproof: uint128.From64(1234),
		Content:   proto.ClientQuery{Kind: proto.ClientQueryPoll},
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeSequence(&buf, env, EncodeClientQuery))

	got, err := DecodeSequence(Reader(buf.Bytes()), DecodeClientQuery)
	require.NoError(t, err)
	require.Equal(t, env.SeqId, got.SeqId)
	require.Equal(t, env.Src, got.Src)
	require.Equal(t, env.Workproof, got.Workproof)
	require.Equal(t, env.Content, got.Content)
}

func TestServerMessageAnnounceRoundTrip(t *testing.T) {
	s1, s2 := ids.NewServerId(), ids.NewServerId()
	c1 := ids.NewClientId()
	msg := proto.ServerMessage{
		Kind: proto.ServerMessageAnnounce,
		Announce: proto.Announce{
			Route:   []ids.ServerId{s1, s2},
			Clients: map[ids.ClientId]string{c1: "alice"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeServerMessage(&buf, msg))

	got, err := DecodeServerMessage(Reader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, msg.Announce.Route, got.Announce.Route)
	require.Equal(t, msg.Announce.Clients, got.Announce.Clients)
}

func TestClientPollReplyDelayedErrorFixtureShape(t *testing.T) {
	// ClientPollReply::DelayedError(UnknownRecipient) nests the inner
	// UnknownRecipient tag 0 ahead of the client id, per spec §4.2.
	cid := ids.NewClientId()
	reply := proto.ClientPollReply{Kind: proto.ClientPollReplyDelayedError, UnknownRecipientClient: cid}

	var buf bytes.Buffer
	require.NoError(t, EncodeClientPollReply(&buf, reply))
	require.Equal(t, byte(1), buf.Bytes()[0])
	require.Equal(t, byte(0), buf.Bytes()[1])

	got, err := DecodeClientPollReply(Reader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, proto.ClientPollReplyDelayedError, got.Kind)
	require.Equal(t, cid, got.UnknownRecipientClient)
}

func TestReadU128RejectsUnknownTag(t *testing.T) {
	_, err := ReadU128(Reader([]byte{255}))
	require.Error(t, err)
}

func TestReadStringRejectsInvalidUTF8(t *testing.T) {
	var lenBuf bytes.Buffer
	require.NoError(t, WriteU128(&lenBuf, uint128.From64(1)))
	data := append(lenBuf.Bytes(), 0xff)

	_, err := ReadString(Reader(data))
	require.Error(t, err)
}
