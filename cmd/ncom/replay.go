package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/banshee-data/ncom.report/internal/ingest"
	"github.com/banshee-data/ncom.report/internal/network"
)

// runReplay decodes the NCOM traffic in a pcap or pcapng capture into a
// database session, or to stdout with -jsonl.
func (a *app) runReplay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	udpPort := fs.Int("udp-port", a.cfg.GetUDPPort(), "UDP port carrying NCOM in the capture")
	realtime := fs.Bool("realtime", false, "Pace packets by their capture timestamps")
	speed := fs.Float64("speed", 1.0, "Realtime replay speed multiplier")
	jsonl := fs.Bool("jsonl", false, "Write JSON lines to stdout instead of the database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("replay requires exactly one capture file")
	}
	path := fs.Arg(0)

	var rec *recording
	var sinks []ingest.Sink
	if *jsonl {
		sinks = append(sinks, ingest.NewJSONLSink(a.stdout))
	} else {
		var err error
		if rec, err = a.startRecording("pcap:" + path); err != nil {
			return err
		}
		defer rec.Close()
		sinks = rec.Sinks()
	}

	stats := ingest.NewStats()
	pipeline := ingest.NewPipeline(ingest.PipelineConfig{Stats: stats, Sinks: sinks})
	result, err := network.ReadPCAPFile(ctx, path, network.PCAPReplayConfig{
		UDPPort:         *udpPort,
		Realtime:        *realtime,
		SpeedMultiplier: *speed,
	}, pipeline)
	logTotals(stats, fmt.Sprintf("replay of %s (%d frames)", path, result.Frames))
	return err
}
