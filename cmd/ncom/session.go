package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/banshee-data/ncom.report/internal/api"
	"github.com/banshee-data/ncom.report/internal/db"
	"github.com/banshee-data/ncom.report/internal/ingest"
)

// recording is an open database with one session receiving records.
type recording struct {
	db   *db.DB
	sink *db.RecordSink
}

// startRecording opens the database and starts a session for source.
func (a *app) startRecording(source string) (*recording, error) {
	database, err := db.NewDB(a.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	id, err := database.CreateSession(source)
	if err != nil {
		database.Close()
		return nil, err
	}
	log.Printf("recording session %s from %s into %s", id, source, a.dbPath)
	return &recording{db: database, sink: database.RecordSink(id)}, nil
}

// Close ends the session and closes the database.
func (r *recording) Close() error {
	if r == nil {
		return nil
	}
	endErr := r.db.EndSession(r.sink.SessionID())
	return errors.Join(endErr, r.db.Close())
}

// Sinks returns the session sink, or nothing when not recording.
func (r *recording) Sinks() []ingest.Sink {
	if r == nil {
		return nil
	}
	return []ingest.Sink{r.sink}
}

// DB returns the database, or nil when not recording.
func (r *recording) DB() *db.DB {
	if r == nil {
		return nil
	}
	return r.db
}

// serveHTTP runs the API server on addr until ctx is cancelled. extra
// attaches additional routes (such as debug tails) to the mux.
func serveHTTP(ctx context.Context, addr string, database *db.DB, stats *ingest.Stats, extra ...func(*http.ServeMux)) error {
	mux := api.NewServer(database, stats).ServeMux()
	if database != nil {
		if err := database.AttachAdminRoutes(mux); err != nil {
			return fmt.Errorf("failed to attach database admin routes: %w", err)
		}
	}
	for _, attach := range extra {
		attach(mux)
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// logTotals reports the totals of a finished ingest run.
func logTotals(stats *ingest.Stats, what string) {
	c, elapsed := stats.Snapshot()
	log.Printf("%s: %d packets, %d decoded, %d rejected (%d length, %d sync), %d sink errors in %v",
		what, c.Packets, c.Decoded, c.Rejected(), c.LengthMismatches, c.SyncMismatches, c.SinkErrors,
		elapsed.Round(time.Millisecond))
}
