package main

import (
	"context"
	"errors"
	"flag"
	"sync"

	"github.com/banshee-data/ncom.report/internal/ingest"
	"github.com/banshee-data/ncom.report/internal/network"
)

// runListen receives packets over UDP into a database session and serves
// the HTTP API until interrupted.
func (a *app) runListen(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("listen", flag.ContinueOnError)
	udpAddress := fs.String("udp-addr", a.cfg.GetUDPAddress(), "UDP address to receive NCOM packets on")
	rcvBuf := fs.Int("rcvbuf", a.cfg.GetUDPRcvBuf(), "UDP receive buffer size in bytes (0 keeps the system default)")
	listen := fs.String("listen", a.cfg.GetHTTPAddress(), "HTTP listen address (empty disables the API)")
	statsInterval := fs.Duration("stats-interval", a.cfg.GetStatsInterval(), "Statistics logging interval")
	noDB := fs.Bool("no-db", false, "Do not record packets to the database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var rec *recording
	if !*noDB {
		var err error
		if rec, err = a.startRecording("udp:" + *udpAddress); err != nil {
			return err
		}
		defer rec.Close()
	}

	stats := ingest.NewStats()
	pipeline := ingest.NewPipeline(ingest.PipelineConfig{Stats: stats, Sinks: rec.Sinks()})
	listener := network.NewUDPListener(network.UDPListenerConfig{
		Address:     *udpAddress,
		RcvBuf:      *rcvBuf,
		LogInterval: *statsInterval,
		Stats:       stats,
		Handler:     pipeline,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var listenErr, httpErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		if err := listener.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			listenErr = err
		}
	}()

	if *listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			httpErr = serveHTTP(ctx, *listen, rec.DB(), stats)
		}()
	}

	wg.Wait()
	logTotals(stats, "UDP listener")
	return errors.Join(listenErr, httpErr)
}
