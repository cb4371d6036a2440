package link

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/aerolink/relay/internal/fec"
	"github.com/aerolink/relay/internal/ratelimit"
)

// Shard datagram layout: [4 frame id][1 shard idx][1 k][1 r][shard bytes].
const shardHeaderLen = 7

// Partial-frame bookkeeping bounds on the receive side. Frame ids are
// monotonic per sender, so an incomplete frame more than partialWindow ids
// behind the newest one has lost its remaining shards for good.
const (
	maxPartials   = 1024
	partialWindow = maxPartials / 2
)

// QUICLongRange is the bench stand-in for the LoRa driver: each payload is
// FEC-coded into k+r shards sent as QUIC datagrams, and every transmit
// spends from an airtime budget so the driver reports busy exactly the way
// a duty-cycle-limited radio would.
type QUICLongRange struct {
	conn    *quic.Conn
	codec   *fec.Codec
	ctl     *fec.Controller
	budget  *ratelimit.AirtimeBudget
	frameID uint32
}

// DialQUICLongRange connects to a bench listener at addr.
func DialQUICLongRange(ctx context.Context, addr string, codec *fec.Codec, ctl *fec.Controller, budget *ratelimit.AirtimeBudget) (*QUICLongRange, error) {
	conn, err := quic.DialAddr(ctx, addr, benchClientTLS(), &quic.Config{
		EnableDatagrams: true,
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("dial long-range bench: %w", err)
	}
	return &QUICLongRange{conn: conn, codec: codec, ctl: ctl, budget: budget}, nil
}

// SetCodec swaps the FEC parameters. Called by the owning loop after the
// adaptive controller changes the parity count; in-flight frames keep the
// parameters stamped in their shard headers.
func (q *QUICLongRange) SetCodec(codec *fec.Codec) {
	q.codec = codec
}

// Transmit FEC-codes payload and sends every shard. Busy when the airtime
// budget cannot cover the transmission; the caller retries the same packet
// on its next drain.
func (q *QUICLongRange) Transmit(payload []byte) TxStatus {
	if q.conn == nil {
		return TxError
	}
	if !q.budget.Allow(ratelimit.AirtimeForPayload(len(payload))) {
		return TxBusy
	}

	shards, err := q.codec.Split(payload)
	if err != nil {
		return TxError
	}
	k, r := q.codec.Parameters()
	q.frameID++

	status := TxOK
	for i, shard := range shards {
		dgram := make([]byte, shardHeaderLen+len(shard))
		binary.LittleEndian.PutUint32(dgram, q.frameID)
		dgram[4] = uint8(i)
		dgram[5] = uint8(k)
		dgram[6] = uint8(r)
		copy(dgram[shardHeaderLen:], shard)

		if q.ctl != nil {
			q.ctl.OnSent(1)
		}
		if err := q.conn.SendDatagram(dgram); err != nil {
			if q.ctl != nil {
				q.ctl.OnLost(1)
			}
			status = TxError
		}
	}
	return status
}

// Close tears down the connection.
func (q *QUICLongRange) Close() error {
	if q.conn == nil {
		return nil
	}
	return q.conn.CloseWithError(0, "shutdown")
}

// QUICLongRangeListener is the receive side of the bench link: it accepts
// one connection at a time, regroups shard datagrams by frame id and
// reconstructs payloads as soon as k shards of a frame have arrived.
type QUICLongRangeListener struct {
	ln       *quic.Listener
	out      chan []byte
	cancel   context.CancelFunc
	partials map[uint32]*partialFrame
}

type partialFrame struct {
	shards [][]byte
	k      int
	have   int
	done   bool
}

// ListenQUICLongRange starts a bench listener on addr. Reconstructed
// payloads are drained with Receive.
func ListenQUICLongRange(addr string) (*QUICLongRangeListener, error) {
	tlsConf, err := benchServerTLS()
	if err != nil {
		return nil, err
	}
	ln, err := quic.ListenAddr(addr, tlsConf, &quic.Config{EnableDatagrams: true})
	if err != nil {
		return nil, fmt.Errorf("listen long-range bench: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &QUICLongRangeListener{
		ln:       ln,
		out:      make(chan []byte, 256),
		cancel:   cancel,
		partials: make(map[uint32]*partialFrame),
	}
	go l.acceptLoop(ctx)
	return l, nil
}

// prune evicts completed frames and incomplete frames that fell out of the
// reassembly window, keeping the partials map bounded under sustained loss.
func (l *QUICLongRangeListener) prune(newest uint32) {
	if len(l.partials) < maxPartials {
		return
	}
	for id, p := range l.partials {
		if p.done || id+partialWindow < newest {
			delete(l.partials, id)
		}
	}
}

// Addr returns the bound listen address.
func (l *QUICLongRangeListener) Addr() net.Addr {
	return l.ln.Addr()
}

// Receive returns the next reconstructed payload without blocking.
func (l *QUICLongRangeListener) Receive() ([]byte, bool) {
	select {
	case p := <-l.out:
		return p, true
	default:
		return nil, false
	}
}

// Close stops the listener.
func (l *QUICLongRangeListener) Close() error {
	l.cancel()
	return l.ln.Close()
}

func (l *QUICLongRangeListener) acceptLoop(ctx context.Context) {
	for {
		conn, err := l.ln.Accept(ctx)
		if err != nil {
			return
		}
		l.pump(ctx, conn)
	}
}

func (l *QUICLongRangeListener) pump(ctx context.Context, conn *quic.Conn) {
	for {
		dgram, err := conn.ReceiveDatagram(ctx)
		if err != nil {
			return
		}
		l.ingest(dgram)
	}
}

func (l *QUICLongRangeListener) ingest(dgram []byte) {
	if len(dgram) <= shardHeaderLen {
		return
	}
	frameID := binary.LittleEndian.Uint32(dgram)
	idx := int(dgram[4])
	k := int(dgram[5])
	r := int(dgram[6])
	if k < 1 || r < 1 || idx >= k+r {
		return
	}

	pf, ok := l.partials[frameID]
	if !ok {
		l.prune(frameID)
		pf = &partialFrame{shards: make([][]byte, k+r), k: k}
		l.partials[frameID] = pf
	}
	if pf.done || len(pf.shards) != k+r || pf.shards[idx] != nil {
		return
	}
	shard := make([]byte, len(dgram)-shardHeaderLen)
	copy(shard, dgram[shardHeaderLen:])
	pf.shards[idx] = shard
	pf.have++

	if pf.have < pf.k {
		return
	}
	codec, err := fec.NewCodec(k, r)
	if err != nil {
		return
	}
	payload, err := codec.Join(pf.shards)
	if err != nil {
		return
	}
	pf.done = true
	select {
	case l.out <- payload:
	default:
		// Receiver not draining; drop rather than block the pump.
	}
}
