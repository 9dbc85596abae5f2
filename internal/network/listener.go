// Package network receives NCOM packets from UDP sockets and pcap captures.
package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/banshee-data/ncom.report/internal/ingest"
	"github.com/banshee-data/ncom.report/internal/monitoring"
)

// DefaultNCOMPort is the UDP port OxTS devices broadcast NCOM on.
const DefaultNCOMPort = 3000

// UDPListener handles receiving NCOM packets from UDP and passing each
// datagram to a packet handler. One datagram carries one packet.
type UDPListener struct {
	address       string
	rcvBuf        int
	logInterval   time.Duration
	stats         *ingest.Stats
	handler       ingest.PacketHandler
	socketFactory UDPSocketFactory
}

// UDPListenerConfig contains configuration options for the UDP listener
type UDPListenerConfig struct {
	Address       string
	RcvBuf        int
	LogInterval   time.Duration
	Stats         *ingest.Stats // periodic stats logging; nil disables it
	Handler       ingest.PacketHandler
	SocketFactory UDPSocketFactory // defaults to RealUDPSocketFactory
}

// NewUDPListener creates a new UDP listener with the provided configuration
func NewUDPListener(config UDPListenerConfig) *UDPListener {
	logInterval := config.LogInterval
	if logInterval == 0 {
		logInterval = time.Minute
	}
	factory := config.SocketFactory
	if factory == nil {
		factory = RealUDPSocketFactory{}
	}
	address := config.Address
	if address == "" {
		address = fmt.Sprintf(":%d", DefaultNCOMPort)
	}

	return &UDPListener{
		address:       address,
		rcvBuf:        config.RcvBuf,
		logInterval:   logInterval,
		stats:         config.Stats,
		handler:       config.Handler,
		socketFactory: factory,
	}
}

// Start begins listening for UDP packets and processing them until ctx is
// cancelled.
func (l *UDPListener) Start(ctx context.Context) error {
	if l.handler == nil {
		return errors.New("UDP listener has no packet handler")
	}

	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := l.socketFactory.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %w", err)
	}
	defer conn.Close()

	if l.rcvBuf > 0 {
		if err := conn.SetReadBuffer(l.rcvBuf); err != nil {
			monitoring.Logf("Warning: Failed to set UDP receive buffer size to %d: %v", l.rcvBuf, err)
		}
	}

	monitoring.Logf("UDP listener started on %s with receive buffer %d bytes", conn.LocalAddr(), l.rcvBuf)

	if l.stats != nil {
		go l.stats.LogEvery(ctx, l.logInterval, nil)
	}

	// NCOM datagrams are 71 bytes; leave room to detect oversized ones.
	buffer := make([]byte, 2048)

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("UDP listener stopping due to context cancellation")
			return ctx.Err()
		default:
			// Set read deadline to allow checking context cancellation
			conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))

			n, addr, err := conn.ReadFromUDP(buffer)
			if err != nil {
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if errors.Is(err, net.ErrClosed) {
					return err
				}
				monitoring.Logf("UDP read error: %v", err)
				continue
			}

			meta := ingest.Meta{ReceivedAt: time.Now(), Source: "udp:" + addr.String()}
			if err := l.handler.HandlePacket(ctx, buffer[:n], meta); err != nil {
				monitoring.Logf("Error handling packet from %v: %v", addr, err)
			}
		}
	}
}
