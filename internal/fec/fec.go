// Package fec provides Reed-Solomon forward error correction for payloads
// crossing the lossy long-range link, plus a loss-driven controller that
// adapts the parity overhead.
package fec

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// Codec splits a payload into k data shards plus r parity shards and
// reconstructs the payload from any k of them.
type Codec struct {
	k  int
	r  int
	rs reedsolomon.Encoder
}

// NewCodec creates a codec with k data and r parity shards.
func NewCodec(k, r int) (*Codec, error) {
	if k < 1 || k > 128 {
		return nil, fmt.Errorf("data shards must be between 1 and 128, got %d", k)
	}
	if r < 1 || r > 128 {
		return nil, fmt.Errorf("parity shards must be between 1 and 128, got %d", r)
	}
	rs, err := reedsolomon.New(k, r)
	if err != nil {
		return nil, fmt.Errorf("create reed-solomon encoder: %w", err)
	}
	return &Codec{k: k, r: r, rs: rs}, nil
}

// Parameters returns the configured k and r.
func (c *Codec) Parameters() (k, r int) {
	return c.k, c.r
}

// Split length-prefixes payload, pads it to a shard boundary and returns
// k+r equally sized shards (data first, then parity).
func (c *Codec) Split(payload []byte) ([][]byte, error) {
	buf := make([]byte, 2+len(payload))
	binary.LittleEndian.PutUint16(buf, uint16(len(payload)))
	copy(buf[2:], payload)

	shardSize := (len(buf) + c.k - 1) / c.k
	shards := make([][]byte, c.k+c.r)
	for i := range shards {
		shards[i] = make([]byte, shardSize)
	}
	for i := 0; i < c.k; i++ {
		lo := i * shardSize
		if lo >= len(buf) {
			break
		}
		hi := lo + shardSize
		if hi > len(buf) {
			hi = len(buf)
		}
		copy(shards[i], buf[lo:hi])
	}
	if err := c.rs.Encode(shards); err != nil {
		return nil, fmt.Errorf("encode parity: %w", err)
	}
	return shards, nil
}

// Join reconstructs the payload from shards, with lost shards set to nil.
// Fails when fewer than k shards survived.
func (c *Codec) Join(shards [][]byte) ([]byte, error) {
	if len(shards) != c.k+c.r {
		return nil, fmt.Errorf("expected %d shards, got %d", c.k+c.r, len(shards))
	}
	if err := c.rs.ReconstructData(shards); err != nil {
		return nil, fmt.Errorf("reconstruct: %w", err)
	}
	var buf []byte
	for i := 0; i < c.k; i++ {
		buf = append(buf, shards[i]...)
	}
	if len(buf) < 2 {
		return nil, fmt.Errorf("reconstructed data too short")
	}
	n := int(binary.LittleEndian.Uint16(buf))
	if n > len(buf)-2 {
		return nil, fmt.Errorf("corrupt length prefix: %d > %d", n, len(buf)-2)
	}
	return buf[2 : 2+n], nil
}
