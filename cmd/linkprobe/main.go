// Command linkprobe feeds a relayd ingest socket with synthetic MAVLink
// traffic: a realistic mix of heartbeat, telemetry, command and high-rate
// sensor messages for exercising the scheduler under load.
package main

import (
	"flag"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/aerolink/relay/internal/wire"
)

// trafficMix approximates a flight controller's downlink: mostly routine
// sensor chatter, a steady telemetry core, occasional commands.
var trafficMix = []struct {
	id     wire.MsgID
	weight int
	body   int // payload body size
}{
	{wire.MsgHeartbeat, 10, 9},
	{wire.MsgAttitude, 20, 28},
	{wire.MsgGlobalPositionInt, 15, 28},
	{wire.MsgGPSRawInt, 10, 30},
	{wire.MsgVFRHUD, 10, 20},
	{wire.MsgBatteryStatus, 5, 36},
	{wire.MsgStatusText, 2, 51},
	{wire.MsgCommandLong, 1, 33},
	{wire.MsgCommandAck, 1, 3},
	{wire.MsgRawIMU, 15, 29},
	{wire.MsgRCChannels, 8, 42},
	{wire.MsgServoOutputRaw, 3, 21},
}

func main() {
	target := flag.String("target", "127.0.0.1:14550", "relayd ingest address")
	rate := flag.Int("rate", 50, "packets per second")
	count := flag.Int("count", 0, "packets to send, 0 for unlimited")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	conn, err := net.Dial("udp", *target)
	if err != nil {
		logger.Fatal().Err(err).Msg("dial ingest socket")
	}
	defer conn.Close()

	var total int
	for _, m := range trafficMix {
		total += m.weight
	}

	logger.Info().Str("target", *target).Int("rate", *rate).Msg("probe started")

	interval := time.Second / time.Duration(*rate)
	var seq uint8
	sent := 0
	for *count == 0 || sent < *count {
		pick := rand.Intn(total)
		var id wire.MsgID
		var bodyLen int
		for _, m := range trafficMix {
			if pick < m.weight {
				id, bodyLen = m.id, m.body
				break
			}
			pick -= m.weight
		}

		body := make([]byte, bodyLen)
		rand.Read(body)
		frame := wire.BuildV2(seq, 1, 1, id, body)
		seq++

		if _, err := conn.Write(frame); err != nil {
			logger.Error().Err(err).Msg("write failed")
		}
		sent++
		time.Sleep(interval)
	}

	logger.Info().Int("sent", sent).Msg("probe finished")
}
