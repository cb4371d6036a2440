package link

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/aerolink/relay/internal/fec"
	"github.com/aerolink/relay/internal/ratelimit"
)

func TestQUICLongRange_LoopbackRoundTrip(t *testing.T) {
	ln, err := ListenQUICLongRange("127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenQUICLongRange failed: %v", err)
	}
	defer ln.Close()

	codec, err := fec.NewCodec(2, 1)
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	ctl := fec.NewController(2, 1, 1, 4)
	budget := ratelimit.NewAirtimeBudget(1.0, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	lr, err := DialQUICLongRange(ctx, ln.Addr().String(), codec, ctl, budget)
	if err != nil {
		t.Fatalf("DialQUICLongRange failed: %v", err)
	}
	defer lr.Close()

	payload := []byte("long-range bench payload")
	if s := lr.Transmit(payload); s != TxOK {
		t.Fatalf("Transmit returned %v", s)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got, ok := ln.Receive(); ok {
			if !bytes.Equal(got, payload) {
				t.Fatalf("payload mismatch: %q", got)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("no payload reconstructed before deadline")
}

func shardDatagram(frameID uint32, idx, k, r uint8, body []byte) []byte {
	dgram := make([]byte, shardHeaderLen+len(body))
	binary.LittleEndian.PutUint32(dgram, frameID)
	dgram[4] = idx
	dgram[5] = k
	dgram[6] = r
	copy(dgram[shardHeaderLen:], body)
	return dgram
}

func TestListener_PartialsBoundedUnderSustainedLoss(t *testing.T) {
	l := &QUICLongRangeListener{
		out:      make(chan []byte, 4),
		partials: make(map[uint32]*partialFrame),
	}

	// Every frame loses all but one of its k=2 shards, so nothing ever
	// completes; reassembly state must still stay bounded.
	for id := uint32(1); id <= 4*maxPartials; id++ {
		l.ingest(shardDatagram(id, 0, 2, 1, []byte{byte(id), 0}))
	}
	if len(l.partials) > maxPartials {
		t.Errorf("partials grew to %d, limit %d", len(l.partials), maxPartials)
	}

	// A frame inside the window still completes from k real shards.
	codec, err := fec.NewCodec(2, 1)
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	payload := []byte{0x42, 0x43, 0x44}
	shards, err := codec.Split(payload)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	next := uint32(4*maxPartials + 1)
	l.ingest(shardDatagram(next, 0, 2, 1, shards[0]))
	l.ingest(shardDatagram(next, 1, 2, 1, shards[1]))

	select {
	case got := <-l.out:
		if !bytes.Equal(got, payload) {
			t.Errorf("reconstructed payload mismatch: %v", got)
		}
	default:
		t.Error("frame with enough shards must still reconstruct")
	}
}
