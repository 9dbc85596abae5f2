package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/banshee-data/ncom.report/internal/ingest"
	"github.com/banshee-data/ncom.report/internal/ncom"
)

// runDecode decodes one hex packet, or every packet in the named files
// ("-" or no file reads stdin), writing one JSON object per record.
func (a *app) runDecode(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	hexPacket := fs.String("hex", "", "Decode a single packet given as hex (whitespace ignored)")
	store := fs.Bool("store", false, "Also record the decoded packets as a database session")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *hexPacket != "" {
		buf, err := hex.DecodeString(strings.Join(strings.Fields(*hexPacket), ""))
		if err != nil {
			return fmt.Errorf("invalid -hex value: %w", err)
		}
		rec, err := ncom.Decode(buf)
		if err != nil {
			return err
		}
		return json.NewEncoder(a.stdout).Encode(rec)
	}

	files := fs.Args()
	if len(files) == 0 {
		files = []string{"-"}
	}

	var errs []error
	for _, name := range files {
		if err := a.decodeFile(ctx, name, *store); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) decodeFile(ctx context.Context, name string, store bool) error {
	source := "file:" + name
	in := a.stdin
	if name == "-" {
		source = "stdin"
	} else {
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer f.Close()
		in = f
	}

	var rec *recording
	if store {
		var err error
		if rec, err = a.startRecording(source); err != nil {
			return err
		}
		defer rec.Close()
	}

	stats := ingest.NewStats()
	pipeline := ingest.NewPipeline(ingest.PipelineConfig{
		Stats: stats,
		Sinks: append(rec.Sinks(), ingest.NewJSONLSink(a.stdout)),
	})
	_, err := ingest.ReadPackets(ctx, in, pipeline, source)
	logTotals(stats, source)
	return err
}
