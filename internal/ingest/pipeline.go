package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/ncom.report/internal/ncom"
)

// Meta describes where and when a packet was received.
type Meta struct {
	ReceivedAt time.Time
	Source     string // e.g. "udp:192.168.2.62:3000", "pcap:drive.pcap", "serial:/dev/ttyUSB0"
}

// Sink consumes decoded records.
type Sink interface {
	WriteRecord(ctx context.Context, rec *ncom.Record, meta Meta) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, rec *ncom.Record, meta Meta) error

func (f SinkFunc) WriteRecord(ctx context.Context, rec *ncom.Record, meta Meta) error {
	return f(ctx, rec, meta)
}

// PacketHandler is implemented by anything that accepts raw packets. The
// network listener, pcap reader and serial source all feed one.
type PacketHandler interface {
	HandlePacket(ctx context.Context, payload []byte, meta Meta) error
}

// Pipeline decodes packets, records statistics and fans records out to sinks.
type Pipeline struct {
	decoder *ncom.Decoder
	stats   *Stats
	sinks   []Sink
}

// PipelineConfig contains configuration options for a Pipeline
type PipelineConfig struct {
	Decoder *ncom.Decoder // defaults to ncom.DefaultDecoder()
	Stats   *Stats        // defaults to a private Stats
	Sinks   []Sink
}

// NewPipeline creates a Pipeline from config.
func NewPipeline(config PipelineConfig) *Pipeline {
	decoder := config.Decoder
	if decoder == nil {
		decoder = ncom.DefaultDecoder()
	}
	stats := config.Stats
	if stats == nil {
		stats = NewStats()
	}
	return &Pipeline{
		decoder: decoder,
		stats:   stats,
		sinks:   config.Sinks,
	}
}

// Stats returns the pipeline's statistics.
func (p *Pipeline) Stats() *Stats { return p.stats }

// HandlePacket decodes one packet and writes it to every sink. A decode
// failure is counted and returned; the record is dropped. Sink failures do
// not stop delivery to the remaining sinks and are returned joined.
func (p *Pipeline) HandlePacket(ctx context.Context, payload []byte, meta Meta) error {
	p.stats.AddPacket(len(payload))

	rec, err := p.decoder.Decode(payload)
	if err != nil {
		switch {
		case errors.Is(err, ncom.ErrLengthMismatch):
			p.stats.AddLengthMismatch()
		case errors.Is(err, ncom.ErrSyncMismatch):
			p.stats.AddSyncMismatch()
		default:
			p.stats.AddOtherError()
		}
		return err
	}
	p.stats.AddDecoded()

	var errs []error
	for _, sink := range p.sinks {
		if err := sink.WriteRecord(ctx, rec, meta); err != nil {
			p.stats.AddSinkError()
			errs = append(errs, fmt.Errorf("sink %T: %w", sink, err))
		}
	}
	return errors.Join(errs...)
}
