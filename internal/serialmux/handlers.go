package serialmux

import (
	"context"
	"time"

	"github.com/banshee-data/ncom.report/internal/ingest"
	"github.com/banshee-data/ncom.report/internal/monitoring"
)

// Forward hands every packet received on ch to h until ch is closed or ctx
// is cancelled, and returns the number of packets forwarded. Handler errors
// are logged; the stream continues.
func Forward(ctx context.Context, ch <-chan []byte, h ingest.PacketHandler, source string) int {
	count := 0
	for {
		select {
		case <-ctx.Done():
			return count
		case packet, ok := <-ch:
			if !ok {
				return count
			}
			count++
			meta := ingest.Meta{ReceivedAt: time.Now(), Source: source}
			if err := h.HandlePacket(ctx, packet, meta); err != nil {
				monitoring.Logf("Error handling serial packet %d from %s: %v", count, source, err)
			}
		}
	}
}
