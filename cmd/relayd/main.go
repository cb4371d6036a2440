// Command relayd runs the dual-radio telemetry relay: it ingests outgoing
// application messages from a local UDP socket, fans them across the
// short-range and long-range links, and owns the single-threaded scheduler
// loop that drains the priority queue and ticks the reachability tracker.
package main

import (
	"context"
	"flag"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"golang.org/x/term"

	"github.com/aerolink/relay/internal/config"
	"github.com/aerolink/relay/internal/fec"
	"github.com/aerolink/relay/internal/filter"
	"github.com/aerolink/relay/internal/link"
	"github.com/aerolink/relay/internal/observability"
	"github.com/aerolink/relay/internal/peer"
	"github.com/aerolink/relay/internal/qos"
	"github.com/aerolink/relay/internal/ratelimit"
	"github.com/aerolink/relay/internal/router"
	"github.com/aerolink/relay/internal/wire"
)

const version = "1.0.0"

// ingestBatch bounds how many datagrams one tick pulls off the ingest and
// receive sockets, so a flood cannot monopolize the loop.
const ingestBatch = 64

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	logLevel := flag.String("log-level", "", "override configured log level")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	var out io.Writer = os.Stdout
	if term.IsTerminal(int(os.Stderr.Fd())) {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	logger := observability.NewLogger("aerolink-relayd", version, out)

	instanceID := uuid.New()
	logger.Info("relay daemon starting, instance " + instanceID.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if shutdown, err := observability.InitTracing(ctx, "aerolink-relayd"); err == nil {
		defer shutdown(context.Background())
	} else {
		logger.Error(err, "tracing init failed, continuing without")
	}
	tracer := otel.Tracer("aerolink-relayd")
	_, span := tracer.Start(ctx, "relayd.start")

	// Long-range path: FEC codec, adaptive parity, airtime budget.
	fecCtl := fec.NewController(cfg.FECDataShards, cfg.FECParityShards, cfg.FECParityShards, cfg.FECMaxParity)
	fecCtl.OnChange = logger.FECAdjusted
	fecCodec, err := fec.NewCodec(fecCtl.Parameters())
	if err != nil {
		logger.Fatal(err, "build FEC codec")
	}
	budget := ratelimit.NewAirtimeBudget(cfg.DutyCycle, cfg.AirtimeBurst.Std())

	var longRange link.LongRange = link.NullLongRange{}
	var longRangeBench *link.QUICLongRange
	if cfg.LongRangeAddress != "" {
		longRangeBench, err = link.DialQUICLongRange(ctx, cfg.LongRangeAddress, fecCodec, fecCtl, budget)
		if err != nil {
			logger.Fatal(err, "dial long-range bench link")
		}
		defer longRangeBench.Close()
		longRange = longRangeBench
		logger.WithLink("lora").Info("long-range bench link up: " + cfg.LongRangeAddress)
	} else {
		logger.WithLink("lora").Warn("no long-range address configured, using null driver")
	}

	var shortRange link.ShortRange = link.NullShortRange{}
	if cfg.ShortRangeLocal != "" && cfg.ShortRangeRemote != "" {
		codec, err := link.NewFrameCodec([]byte(cfg.LinkPSK), instanceID)
		if err != nil {
			logger.Fatal(err, "build short-range frame codec")
		}
		udp, err := link.DialUDPShortRange(cfg.ShortRangeLocal, cfg.ShortRangeRemote, codec)
		if err != nil {
			logger.Fatal(err, "dial short-range bench link")
		}
		defer udp.Close()
		shortRange = udp
		logger.WithLink("espnow").Info("short-range bench link up: " + cfg.ShortRangeRemote)
	} else {
		logger.WithLink("espnow").Warn("no short-range addresses configured, using null driver")
	}

	// Core components.
	engine := qos.NewEngine(longRange)
	essFilter := filter.New()
	tracker := peer.NewTracker()
	tracker.OnChange = func(node wire.NodeID, reachable bool) {
		logger.PeerStateChanged(uint8(node), reachable)
	}
	rt := router.New(shortRange, engine, essFilter, tracker, wire.NodeID(cfg.PrimaryPeer))

	// Observability surface.
	metrics := observability.NewMetrics()
	health := observability.NewHealthChecker(version)
	health.RegisterCheck("peer_reachability", observability.ReachabilityCheck(rt.ESPNowAvailable))
	health.RegisterCheck("queue_saturation", observability.QueueSaturationCheck(func() (depth, usable [3]int) {
		m := engine.QueueMetrics()
		for i := range m.Tiers {
			depth[i] = m.Tiers[i].Depth
		}
		return depth, qos.UsableCapacities()
	}, 0.9))

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/healthz", health.Handler())
	httpSrv := &http.Server{Addr: cfg.HTTPAddress, Handler: mux}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(err, "http server stopped")
		}
	}()
	logger.Info("metrics and health on http://" + cfg.HTTPAddress)

	// Ingest socket: the upstream bridge writes raw MAVLink frames here.
	ingestAddr, err := net.ResolveUDPAddr("udp", cfg.IngestAddress)
	if err != nil {
		logger.Fatal(err, "resolve ingest address")
	}
	ingest, err := net.ListenUDP("udp", ingestAddr)
	if err != nil {
		logger.Fatal(err, "bind ingest socket")
	}
	defer ingest.Close()
	logger.Info("ingesting on udp://" + cfg.IngestAddress)
	span.End()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	run(ctx, cfg, logger, metrics, rt, engine, tracker, shortRange, fecCtl, longRangeBench, ingest)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)
	logger.Info("relay daemon stopped")
}

// run is the scheduler loop. Everything that touches the queue engine, the
// router or the tracker happens here, on one goroutine: ingest, receive
// polling, the reachability tick, the bounded drain and metric publication.
func run(
	ctx context.Context,
	cfg *config.Config,
	logger *observability.Logger,
	metrics *observability.Metrics,
	rt *router.Router,
	engine *qos.Engine,
	tracker *peer.Tracker,
	shortRange link.ShortRange,
	fecCtl *fec.Controller,
	longRangeBench *link.QUICLongRange,
	ingest *net.UDPConn,
) {
	ticker := time.NewTicker(cfg.TickInterval.Std())
	defer ticker.Stop()

	fecEvery := int64(time.Second / cfg.TickInterval.Std())
	if fecEvery < 1 {
		fecEvery = 1
	}

	var buf [wire.MaxPayload + 16]byte
	var tick int64
	var prevDropFull [3]uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		tick++

		// Pull outgoing messages from the bridge.
		ingested, rejected := 0, 0
		for i := 0; i < ingestBatch; i++ {
			ingest.SetReadDeadline(time.Now().Add(time.Millisecond))
			n, _, err := ingest.ReadFromUDP(buf[:])
			if err != nil {
				break
			}
			ingested++
			metrics.IngestedTotal.Inc()
			if !rt.Send(buf[:n], wire.NodeID(cfg.PrimaryPeer)) {
				rejected++
				metrics.RejectedTotal.Inc()
			}
		}

		// Inbound short-range traffic feeds the reachability tracker.
		// Payload forwarding to the bridge belongs to the receive-side
		// protocol layer, out of scope here.
		for i := 0; i < ingestBatch; i++ {
			if _, ok := shortRange.Receive(); !ok {
				break
			}
			tracker.Observe(wire.NodeID(cfg.PrimaryPeer))
		}

		tracker.Check()
		drained := engine.DrainUpTo(cfg.DrainPerTick)

		if tick%fecEvery == 0 {
			metrics.LongRangeLossRate.Set(fecCtl.LossRate())
			if fecCtl.Tick() && longRangeBench != nil {
				if codec, err := fec.NewCodec(fecCtl.Parameters()); err == nil {
					longRangeBench.SetCodec(codec)
				}
			}
			_, r := fecCtl.Parameters()
			metrics.FECParityShards.Set(float64(r))
		}

		publish(metrics, rt, engine)
		m := engine.QueueMetrics()
		for i, name := range qos.TierNames() {
			if m.Tiers[i].DropFull > prevDropFull[i] {
				logger.QueueSaturated(name, m.Tiers[i].DropFull)
			}
			prevDropFull[i] = m.Tiers[i].DropFull
		}
		logger.TickSummary(ingested, rejected, drained, m.Tiers[0].Depth, m.Tiers[1].Depth, m.Tiers[2].Depth)
	}
}

func publish(metrics *observability.Metrics, rt *router.Router, engine *qos.Engine) {
	m := engine.QueueMetrics()
	snap := observability.QueueSnapshot{
		TierNames: qos.TierNames(),
		Blacklist: m.DropsBlacklist,
	}
	for i := range m.Tiers {
		snap.Depth[i] = m.Tiers[i].Depth
		snap.DropFull[i] = m.Tiers[i].DropFull
		snap.DropStale[i] = m.Tiers[i].DropStale
	}
	metrics.PublishQueue(snap)

	rs := rt.Stats()
	metrics.PublishRouter(rs.ESPNowSent, rs.LoRaSent, rs.LoRaFiltered)
	metrics.SetPeerReachable(rt.ESPNowAvailable())
}
