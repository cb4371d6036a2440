// Command linksink is the receive-side bench peer for the long-range link:
// it listens for QUIC shard datagrams, reconstructs payloads from whatever
// shards survive, and logs them. Stands in for the ground-station radio
// opposite a relayd instance.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aerolink/relay/internal/link"
	"github.com/aerolink/relay/internal/wire"
)

func main() {
	listen := flag.String("listen", "127.0.0.1:14600", "QUIC listen address")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ln, err := link.ListenQUICLongRange(*listen)
	if err != nil {
		logger.Fatal().Err(err).Msg("listen long-range bench")
	}
	defer ln.Close()
	logger.Info().Str("listen", *listen).Msg("long-range sink up")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	received := 0
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-sigChan:
			logger.Info().Int("received", received).Msg("sink stopped")
			return
		case <-ticker.C:
			for {
				payload, ok := ln.Receive()
				if !ok {
					break
				}
				received++
				if id, parsed := wire.ExtractMsgID(payload); parsed {
					logger.Info().Uint32("msg", uint32(id)).Int("bytes", len(payload)).Msg("payload reconstructed")
				} else {
					logger.Warn().Int("bytes", len(payload)).Msg("unparseable payload")
				}
			}
		}
	}
}
