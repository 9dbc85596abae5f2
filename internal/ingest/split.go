// Package ingest turns raw NCOM packets from any transport into decoded
// records and hands them to sinks.
package ingest

import (
	"bufio"
	"errors"
	"io"

	"github.com/banshee-data/ncom.report/internal/ncom"
)

// ErrTruncated is returned by a packet scanner when the input ends part way
// through a packet.
var ErrTruncated = errors.New("ingest: truncated packet at end of input")

// ScanPackets is a bufio.SplitFunc yielding consecutive ncom.PacketSize
// chunks. It assumes the input is aligned on packet boundaries and makes no
// attempt to resynchronise.
func ScanPackets(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if len(data) >= ncom.PacketSize {
		return ncom.PacketSize, data[:ncom.PacketSize], nil
	}
	if atEOF {
		if len(data) == 0 {
			return 0, nil, nil
		}
		return 0, nil, ErrTruncated
	}
	return 0, nil, nil
}

// NewPacketScanner returns a scanner over r that yields one packet per Scan.
// The slice returned by Bytes is only valid until the next call to Scan.
func NewPacketScanner(r io.Reader) *bufio.Scanner {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*ncom.PacketSize), 64*ncom.PacketSize)
	scan.Split(ScanPackets)
	return scan
}
