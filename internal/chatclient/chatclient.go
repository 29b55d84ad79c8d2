// Package chatclient implements the client-side sequencing primitive: a
// monotonic per-identity counter that wraps outgoing payloads with an
// identifier, a sequence id, and a generated workproof. Grounded on the
// original source's chatproto::client::Client.
package chatclient

import (
	"github.com/sony-level/chatserver-lab/internal/ids"
	"github.com/sony-level/chatserver-lab/internal/proto"
	"github.com/sony-level/chatserver-lab/internal/workproof"
	"lukechampine.com/uint128"
)

const workproofStrength = 8 // WORKPROOF_STRENGTH, mirrored from internal/broker

// Sequencer holds one client's identity and its monotonic counter. Callers
// must not share a Sequencer across identities: the counter is scoped to
// the id it was constructed with.
type Sequencer struct {
	id    ids.ClientId
	curId uint128.Uint128
}

// New constructs a Sequencer for id, with its counter initialized to zero.
func New(id ids.ClientId) *Sequencer {
	return &Sequencer{id: id}
}

// Sequence pre-increments the counter, generates a workproof keyed on the
// client's own id, and returns the wrapped envelope. The counter never
// decreases.
func (s *Sequencer) Sequence(content proto.ClientQuery) proto.Sequence[proto.ClientQuery] {
	s.curId = s.curId.Add(uint128.From64(1))

	nonce := s.id.U128()
	wp, ok := workproof.Generate(nonce, workproofStrength, uint128.Max)
	if !ok {
		// Max is effectively unreachable at strength 8; Generate only fails
		// to find a proof within the supplied limit.
		panic("workproof: exhausted search space at u128::MAX, this should never happen")
	}

	return proto.Sequence[proto.ClientQuery]{
		SeqId:     s.curId,
		Src:       s.id,
		Workproof: wp,
		Content:   content,
	}
}
