// Package ids defines the opaque 128-bit identifiers used throughout the
// broker and wire codec: ClientId for registered chat clients, ServerId for
// federation peers. Both are backed by a UUID; conversion to and from the
// 128-bit integer form used by the workproof and wire layers goes through
// lukechampine.com/uint128, the same fixed-width 128-bit integer helper already
// pulled in transitively by this module's sqlite driver.
package ids

import (
	"github.com/google/uuid"
	"lukechampine.com/uint128"
)

// ClientId uniquely identifies a registered client, local or remote.
type ClientId uuid.UUID

// ServerId uniquely identifies a federation node.
type ServerId uuid.UUID

// NewClientId allocates a fresh, uniformly random client identifier.
func NewClientId() ClientId {
	return ClientId(uuid.New())
}

// NewServerId allocates a fresh, uniformly random server identifier.
func NewServerId() ServerId {
	return ServerId(uuid.New())
}

func (c ClientId) String() string { return uuid.UUID(c).String() }
func (s ServerId) String() string { return uuid.UUID(s).String() }

// Bytes returns the 16 raw bytes in UUID wire order.
func (c ClientId) Bytes() [16]byte { return uuid.UUID(c) }
func (s ServerId) Bytes() [16]byte { return uuid.UUID(s) }

// ClientIdFromBytes reconstructs a ClientId from 16 raw UUID-order bytes.
func ClientIdFromBytes(b [16]byte) ClientId { return ClientId(b) }

// ServerIdFromBytes reconstructs a ServerId from 16 raw UUID-order bytes.
func ServerIdFromBytes(b [16]byte) ServerId { return ServerId(b) }

// ServerIdFromString parses a ServerId from its canonical UUID text form,
// the form it is advertised in over mDNS TXT records.
func ServerIdFromString(s string) (ServerId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ServerId{}, err
	}
	return ServerId(u), nil
}

// U128 reinterprets the UUID's 16 bytes as a little-endian 128-bit integer,
// the representation the workproof hash and sequencer operate on. This
// mirrors the original source's Uuid::to_u128_le.
func (c ClientId) U128() uint128.Uint128 { return u128FromUUIDBytes(uuid.UUID(c)) }
func (s ServerId) U128() uint128.Uint128 { return u128FromUUIDBytes(uuid.UUID(s)) }

// ClientIdFromU128 builds a ClientId from a little-endian 128-bit value.
func ClientIdFromU128(v uint128.Uint128) ClientId { return ClientId(uuidBytesFromU128(v)) }

// ServerIdFromU128 builds a ServerId from a little-endian 128-bit value.
func ServerIdFromU128(v uint128.Uint128) ServerId { return ServerId(uuidBytesFromU128(v)) }

func u128FromUUIDBytes(b [16]byte) uint128.Uint128 {
	lo := le64(b[0:8])
	hi := le64(b[8:16])
	return uint128.New(lo, hi)
}

func uuidBytesFromU128(v uint128.Uint128) [16]byte {
	var b [16]byte
	putLE64(b[0:8], v.Lo)
	putLE64(b[8:16], v.Hi)
	return b
}

func le64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func putLE64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Less gives ClientId a total order for deterministic iteration and sorting.
func (c ClientId) Less(o ClientId) bool {
	for i := 0; i < 16; i++ {
		if c[i] != o[i] {
			return c[i] < o[i]
		}
	}
	return false
}

// Less gives ServerId a total order.
func (s ServerId) Less(o ServerId) bool {
	for i := 0; i < 16; i++ {
		if s[i] != o[i] {
			return s[i] < o[i]
		}
	}
	return false
}
