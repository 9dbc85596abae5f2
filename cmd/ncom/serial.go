package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"sync"

	"github.com/banshee-data/ncom.report/internal/ingest"
	"github.com/banshee-data/ncom.report/internal/ncom"
	"github.com/banshee-data/ncom.report/internal/serialmux"
)

// runSerial records packets from an RS-232 port (or a mock port with -mock)
// and serves the HTTP API until interrupted.
func (a *app) runSerial(ctx context.Context, args []string) error {
	opts := serialmux.PortOptions{}
	defaultPort := ""
	if s := a.cfg.Serial; s != nil {
		defaultPort = s.Path
		opts = serialmux.PortOptions{BaudRate: s.BaudRate, DataBits: s.DataBits, StopBits: s.StopBits, Parity: s.Parity}
	}

	fs := flag.NewFlagSet("serial", flag.ContinueOnError)
	port := fs.String("port", defaultPort, "Serial port path")
	baud := fs.Int("baud", opts.BaudRate, "Baud rate (default 115200)")
	mock := fs.Bool("mock", false, "Replay a synthetic packet instead of opening a port")
	listen := fs.String("listen", a.cfg.GetHTTPAddress(), "HTTP listen address (empty disables the API)")
	statsInterval := fs.Duration("stats-interval", a.cfg.GetStatsInterval(), "Statistics logging interval")
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts.BaudRate = *baud

	var mux serialmux.SerialMuxInterface
	source := "serial:" + *port
	if *mock {
		mux = serialmux.NewMockSerialMux(mockPacket())
		source = "serial:mock"
	} else {
		if *port == "" {
			return errors.New("serial requires -port or a serial section in the config")
		}
		m, err := serialmux.OpenSerialMux(nil, *port, opts)
		if err != nil {
			return err
		}
		log.Printf("opened %s at %s", *port, opts)
		mux = m
	}
	defer mux.Close()

	rec, err := a.startRecording(source)
	if err != nil {
		return err
	}
	defer rec.Close()

	stats := ingest.NewStats()
	pipeline := ingest.NewPipeline(ingest.PipelineConfig{Stats: stats, Sinks: rec.Sinks()})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// subscribe before monitoring so no packet is missed
	id, ch := mux.Subscribe()
	defer mux.Unsubscribe(id)

	var wg sync.WaitGroup
	var monitorErr, httpErr error

	// run the monitor routine to manage IO on the serial port
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		if err := mux.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			monitorErr = err
		}
		log.Print("monitor routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		n := serialmux.Forward(ctx, ch, pipeline, source)
		log.Printf("forward routine terminated after %d packets", n)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		stats.LogEvery(ctx, *statsInterval, nil)
	}()

	if *listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			httpErr = serveHTTP(ctx, *listen, rec.DB(), stats, mux.AttachAdminRoutes)
		}()
	}

	wg.Wait()
	logTotals(stats, source)
	return errors.Join(monitorErr, httpErr)
}

// mockPacket is a locked, stationary fix used by -mock.
func mockPacket() []byte {
	raw := ncom.NewRawPacket()
	raw.Time = 30000
	raw.AccZ = -98100
	raw.NavStat = 4
	raw.Lat = 0.8990 // ~51.5 degrees
	raw.Long = -0.0209
	raw.Alti = 100
	raw.Heading = 1570796 // ~90 degrees
	return ncom.Encode(raw)
}
