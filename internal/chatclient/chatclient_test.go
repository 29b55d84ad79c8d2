package chatclient

import (
	"testing"

	"github.com/sony-level/chatserver-lab/internal/ids"
	"github.com/sony-level/chatserver-lab/internal/proto"
	"github.com/sony-level/chatserver-lab/internal/workproof"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestSequenceMonotonicAndWorkproofValid(t *testing.T) {
	id := ids.NewClientId()
	seq := New(id)

	var last uint128.Uint128
	for i := 0; i < 20; i++ {
		env := seq.Sequence(proto.ClientQuery{Kind: proto.ClientQueryPoll})
		require.Equal(t, id, env.Src)
		require.Equal(t, 1, env.SeqId.Cmp(last), "seq id must strictly increase")
		require.True(t, workproof.Verify(id.U128(), env.Workproof, workproofStrength))
		last = env.SeqId
	}
}

func TestSequenceStartsAtOne(t *testing.T) {
	seq := New(ids.NewClientId())
	env := seq.Sequence(proto.ClientQuery{Kind: proto.ClientQueryPoll})
	require.Equal(t, 0, env.SeqId.Cmp(uint128.From64(1)))
}

func TestSequencersAreIndependent(t *testing.T) {
	a := New(ids.NewClientId())
	b := New(ids.NewClientId())

	a.Sequence(proto.ClientQuery{Kind: proto.ClientQueryPoll})
	envB := b.Sequence(proto.ClientQuery{Kind: proto.ClientQueryPoll})
	require.Equal(t, 0, envB.SeqId.Cmp(uint128.From64(1)))
}
