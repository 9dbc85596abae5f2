package network

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/banshee-data/ncom.report/internal/ingest"
	"github.com/banshee-data/ncom.report/internal/monitoring"
	"github.com/banshee-data/ncom.report/internal/timeutil"
)

// PCAPReplayConfig configures PCAP replay.
type PCAPReplayConfig struct {
	// UDPPort selects datagrams sent to or from this port (default 3000).
	UDPPort int

	// Realtime paces delivery by the capture timestamps.
	Realtime bool

	// SpeedMultiplier controls realtime replay speed (1.0 = real-time, 2.0 = 2x speed)
	SpeedMultiplier float64

	// Clock paces realtime replay; nil uses the wall clock.
	Clock timeutil.Clock
}

// PCAPResult summarises a replay.
type PCAPResult struct {
	Frames  int // capture frames read
	Packets int // UDP payloads handed to the handler
}

type packetDataReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

var pcapngMagic = []byte{0x0A, 0x0D, 0x0D, 0x0A}

// ReadPCAPFile replays NCOM UDP payloads from a pcap or pcapng file into
// handler. Capture timestamps become the packets' receive times. Reading is
// pure Go, so no libpcap is required.
func ReadPCAPFile(ctx context.Context, pcapFile string, config PCAPReplayConfig, handler ingest.PacketHandler) (PCAPResult, error) {
	f, err := os.Open(pcapFile)
	if err != nil {
		return PCAPResult{}, fmt.Errorf("failed to open PCAP file %s: %w", pcapFile, err)
	}
	defer f.Close()

	return ReadPCAP(ctx, f, "pcap:"+pcapFile, config, handler)
}

// ReadPCAP is ReadPCAPFile over an arbitrary reader.
func ReadPCAP(ctx context.Context, r io.Reader, source string, config PCAPReplayConfig, handler ingest.PacketHandler) (PCAPResult, error) {
	if config.UDPPort == 0 {
		config.UDPPort = DefaultNCOMPort
	}
	if config.SpeedMultiplier <= 0 {
		config.SpeedMultiplier = 1.0
	}
	clock := config.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	br := bufio.NewReader(r)
	reader, err := newPacketDataReader(br)
	if err != nil {
		return PCAPResult{}, err
	}

	port := layers.UDPPort(config.UDPPort)
	var result PCAPResult
	var firstCapture time.Time
	replayStart := clock.Now()
	startTime := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			monitoring.Logf("PCAP reader stopping due to context cancellation (processed %d packets)", result.Packets)
			return result, err
		}

		data, ci, err := reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			monitoring.Logf("PCAP file reading complete: %d NCOM packets from %d frames in %v",
				result.Packets, result.Frames, time.Since(startTime))
			return result, nil
		}
		if err != nil {
			return result, fmt.Errorf("reading %s: %w", source, err)
		}
		result.Frames++

		packet := gopacket.NewPacket(data, reader.LinkType(), gopacket.DecodeOptions{Lazy: true, NoCopy: true})
		udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		if !ok || (udp.DstPort != port && udp.SrcPort != port) {
			continue
		}
		payload := udp.Payload
		if len(payload) == 0 {
			continue
		}

		if config.Realtime {
			if firstCapture.IsZero() {
				firstCapture = ci.Timestamp
			}
			offset := time.Duration(float64(ci.Timestamp.Sub(firstCapture)) / config.SpeedMultiplier)
			if wait := clock.Until(replayStart.Add(offset)); wait > 0 {
				select {
				case <-ctx.Done():
					return result, ctx.Err()
				case <-clock.After(wait):
				}
			}
		}

		result.Packets++
		meta := ingest.Meta{ReceivedAt: ci.Timestamp, Source: source}
		if err := handler.HandlePacket(ctx, payload, meta); err != nil {
			monitoring.Logf("Error handling PCAP packet %d: %v", result.Frames, err)
		}

		if result.Packets%10000 == 0 {
			elapsed := time.Since(startTime)
			monitoring.Logf("PCAP progress: %d packets processed in %v (%.0f pkt/s)",
				result.Packets, elapsed, float64(result.Packets)/elapsed.Seconds())
		}
	}
}

func newPacketDataReader(br *bufio.Reader) (packetDataReader, error) {
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}
	if bytes.Equal(magic, pcapngMagic) {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to open pcapng stream: %w", err)
		}
		return ng, nil
	}
	r, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap stream: %w", err)
	}
	return r, nil
}
