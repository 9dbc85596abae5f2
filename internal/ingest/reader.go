package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/ncom.report/internal/monitoring"
)

// ReadPackets feeds every packet in r to h. Per-packet failures are logged
// and skipped; the first read error (or ErrTruncated) stops the loop. It
// returns the number of packets read.
func ReadPackets(ctx context.Context, r io.Reader, h PacketHandler, source string) (int, error) {
	scan := NewPacketScanner(r)
	count := 0
	for scan.Scan() {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		count++
		meta := Meta{ReceivedAt: time.Now(), Source: source}
		if err := h.HandlePacket(ctx, scan.Bytes(), meta); err != nil {
			monitoring.Logf("Error handling packet %d from %s: %v", count, source, err)
		}
	}
	if err := scan.Err(); err != nil {
		return count, fmt.Errorf("reading %s: %w", source, err)
	}
	return count, nil
}
