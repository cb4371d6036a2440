// Package link defines the radio driver interfaces the scheduler talks to,
// plus bench implementations used when no radio hardware is attached.
package link

// TxStatus is the outcome of a long-range transmit attempt.
type TxStatus int

const (
	TxOK TxStatus = iota
	TxBusy
	TxError
)

func (s TxStatus) String() string {
	switch s {
	case TxOK:
		return "ok"
	case TxBusy:
		return "busy"
	case TxError:
		return "error"
	default:
		return "unknown"
	}
}

// ShortRange is the ESP-NOW-class transport: best effort, non-blocking,
// full link rate. Send reports acceptance by the driver, not delivery.
type ShortRange interface {
	Send(payload []byte) bool
	// Receive returns the next pending inbound payload, or false when
	// nothing is waiting. It must not block.
	Receive() ([]byte, bool)
}

// LongRange is the LoRa-class radio driver consulted by the queue engine's
// drain path. Transmit must report busy or error immediately rather than
// wait for the channel.
type LongRange interface {
	Transmit(payload []byte) TxStatus
}

// NullShortRange discards everything and never receives. Used for runs
// without an attached short-range bench peer.
type NullShortRange struct{}

func (NullShortRange) Send([]byte) bool        { return true }
func (NullShortRange) Receive() ([]byte, bool) { return nil, false }

// NullLongRange accepts and discards every transmit.
type NullLongRange struct{}

func (NullLongRange) Transmit([]byte) TxStatus { return TxOK }
