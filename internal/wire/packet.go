// Package wire defines the packet value type and MAVLink message-type
// identifier handling shared by the scheduler, filter and router.
package wire

import (
	"errors"
	"time"
)

// MaxPayload is the largest payload a single outgoing packet may carry.
const MaxPayload = 255

// NodeID identifies a node on either radio link.
type NodeID uint8

// MsgID is a MAVLink message-type identifier (24 bits on the wire in v2).
type MsgID uint32

// ErrPayloadTooLarge is returned when a payload exceeds MaxPayload bytes.
var ErrPayloadTooLarge = errors.New("payload exceeds 255 bytes")

// Packet is a single outgoing application message. The payload is held
// inline in a fixed array so queue slots never allocate per packet; a
// Packet is owned by whichever queue slot currently holds it and is
// destroyed on transmission, eviction or rejection.
type Packet struct {
	Data    [MaxPayload]byte
	Len     uint8
	Dest    NodeID
	Msg     MsgID
	Relay   bool
	Arrived time.Time
}

// NewPacket copies payload into a Packet value. The message identifier is
// not extracted here; callers that need it use ExtractMsgID first.
func NewPacket(payload []byte, dest NodeID, relay bool) (Packet, error) {
	if len(payload) > MaxPayload {
		return Packet{}, ErrPayloadTooLarge
	}
	p := Packet{
		Len:   uint8(len(payload)),
		Dest:  dest,
		Relay: relay,
	}
	copy(p.Data[:], payload)
	return p, nil
}

// Payload returns the occupied slice of the inline payload array. The
// returned slice aliases the packet and is only valid while the packet
// stays in its slot.
func (p *Packet) Payload() []byte {
	return p.Data[:p.Len]
}
