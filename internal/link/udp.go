package link

import (
	"fmt"
	"net"
	"time"
)

// UDPShortRange is the bench stand-in for the ESP-NOW driver: sealed frames
// over a local UDP socket. Send and Receive are both non-blocking, matching
// the radio driver contract.
type UDPShortRange struct {
	conn   *net.UDPConn
	remote *net.UDPAddr
	codec  *FrameCodec
	buf    [2048]byte
}

// DialUDPShortRange binds local and targets remote. Either side of a bench
// pair is constructed the same way with the addresses swapped.
func DialUDPShortRange(local, remote string, codec *FrameCodec) (*UDPShortRange, error) {
	laddr, err := net.ResolveUDPAddr("udp", local)
	if err != nil {
		return nil, fmt.Errorf("resolve local addr: %w", err)
	}
	raddr, err := net.ResolveUDPAddr("udp", remote)
	if err != nil {
		return nil, fmt.Errorf("resolve remote addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("bind short-range socket: %w", err)
	}
	return &UDPShortRange{conn: conn, remote: raddr, codec: codec}, nil
}

// Send seals payload and writes one datagram. Best effort: any socket error
// reports false and the packet is gone.
func (u *UDPShortRange) Send(payload []byte) bool {
	frame := u.codec.Seal(payload)
	_, err := u.conn.WriteToUDP(frame, u.remote)
	return err == nil
}

// Receive polls the socket for one frame without blocking. Frames that fail
// authentication are dropped silently.
func (u *UDPShortRange) Receive() ([]byte, bool) {
	u.conn.SetReadDeadline(time.Now().Add(time.Millisecond))
	n, _, err := u.conn.ReadFromUDP(u.buf[:])
	if err != nil {
		return nil, false
	}
	_, payload, err := u.codec.Open(u.buf[:n])
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Close releases the socket.
func (u *UDPShortRange) Close() error {
	return u.conn.Close()
}
