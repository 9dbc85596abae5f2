package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ncom.report/internal/config"
	"github.com/banshee-data/ncom.report/internal/db"
	"github.com/banshee-data/ncom.report/internal/ingest"
	"github.com/banshee-data/ncom.report/internal/monitoring"
	"github.com/banshee-data/ncom.report/internal/ncom"
)

func newTestApp(t *testing.T, stdin []byte) (*app, *bytes.Buffer) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })

	var out bytes.Buffer
	return &app{
		cfg:    config.Empty(),
		dbPath: filepath.Join(t.TempDir(), "ncom.db"),
		stdin:  bytes.NewReader(stdin),
		stdout: &out,
	}, &out
}

func packet(timeMs uint16, lat, long float64) []byte {
	raw := ncom.NewRawPacket()
	raw.Time = timeMs
	raw.NavStat = 4
	raw.Lat = lat
	raw.Long = long
	return ncom.Encode(raw)
}

// jsonLines decodes the Time field of every JSON line in out.
func jsonLines(t *testing.T, out *bytes.Buffer) []float64 {
	t.Helper()
	var times []float64
	scan := bufio.NewScanner(out)
	for scan.Scan() {
		var line struct {
			Record map[string]any `json:"record"`
		}
		require.NoError(t, json.Unmarshal(scan.Bytes(), &line))
		times = append(times, line.Record["Time"].(float64))
	}
	return times
}

func openDB(t *testing.T, a *app) *db.DB {
	t.Helper()
	database, err := db.NewDB(a.dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestRunDispatch(t *testing.T) {
	a, out := newTestApp(t, nil)

	require.NoError(t, a.run(context.Background(), []string{"version"}))
	assert.True(t, strings.HasPrefix(out.String(), "ncom dev"), out.String())

	out.Reset()
	assert.ErrorIs(t, a.run(context.Background(), nil), flag.ErrHelp)
	assert.Contains(t, out.String(), "Commands:")

	err := a.run(context.Background(), []string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "frobnicate"`)
}

func TestDecodeHex(t *testing.T) {
	a, out := newTestApp(t, nil)
	p := packet(4321, 0.9, -0.02)

	require.NoError(t, a.run(context.Background(), []string{"decode", "-hex", hex.EncodeToString(p)}))
	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.EqualValues(t, 4321, got["Time"])
	assert.Equal(t, "4: Locked", got["NavStat"])

	err := a.run(context.Background(), []string{"decode", "-hex", hex.EncodeToString(p[:70])})
	assert.ErrorIs(t, err, ncom.ErrLengthMismatch)

	err = a.run(context.Background(), []string{"decode", "-hex", "xyz"})
	assert.Error(t, err)
}

func TestDecodeStdinAndStore(t *testing.T) {
	bad := packet(20, 0.9, -0.02)
	bad[0] = 0x00
	var stream []byte
	stream = append(stream, packet(10, 0.9, -0.02)...)
	stream = append(stream, bad...)
	stream = append(stream, packet(30, 0.9, -0.02)...)

	a, out := newTestApp(t, stream)
	require.NoError(t, a.run(context.Background(), []string{"decode", "-store"}))

	if diff := cmp.Diff([]float64{10, 30}, jsonLines(t, out)); diff != "" {
		t.Errorf("decoded times mismatch (-want +got):\n%s", diff)
	}

	database := openDB(t, a)
	sessions, err := database.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "stdin", sessions[0].Source)
	assert.EqualValues(t, 2, sessions[0].RecordCount)
	assert.NotNil(t, sessions[0].EndedAt)
}

func TestDecodeFileTruncated(t *testing.T) {
	a, out := newTestApp(t, nil)
	path := filepath.Join(t.TempDir(), "drive.ncom")
	data := append(packet(10, 0.9, -0.02), packet(20, 0.9, -0.02)[:40]...)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	err := a.run(context.Background(), []string{"decode", path})
	assert.ErrorIs(t, err, ingest.ErrTruncated)
	assert.Equal(t, []float64{10}, jsonLines(t, out))

	err = a.run(context.Background(), []string{"decode", filepath.Join(t.TempDir(), "missing.ncom")})
	assert.Error(t, err)
}

func TestPlotNewestSession(t *testing.T) {
	var stream []byte
	for i := 0; i < 20; i++ {
		stream = append(stream, packet(uint16(i*10), 0.9+float64(i)*1e-6, -0.02+float64(i*i)*1e-7)...)
	}
	a, out := newTestApp(t, stream)
	require.NoError(t, a.run(context.Background(), []string{"decode", "-store"}))

	path := filepath.Join(t.TempDir(), "track.png")
	out.Reset()
	require.NoError(t, a.run(context.Background(), []string{"plot", "-o", path}))
	assert.Equal(t, path+"\n", out.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "output is not a PNG")

	err = a.run(context.Background(), []string{"plot", "-session", "missing"})
	assert.ErrorIs(t, err, db.ErrSessionNotFound)
}

func TestPlotEmptyDatabase(t *testing.T) {
	a, _ := newTestApp(t, nil)
	err := a.run(context.Background(), []string{"plot"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sessions")
}

func writeCapture(t *testing.T, payloads ...[]byte) string {
	t.Helper()
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, payload := range payloads {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x0a, 0x35, 0x00, 0x00, 0x01},
			DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP,
			SrcIP: net.IP{192, 168, 2, 62}, DstIP: net.IP{192, 168, 2, 255}}
		udp := &layers.UDP{SrcPort: 3000, DstPort: 3000}
		require.NoError(t, udp.SetNetworkLayerForChecksum(ip))
		sb := gopacket.NewSerializeBuffer()
		require.NoError(t, gopacket.SerializeLayers(sb,
			gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true},
			eth, ip, udp, gopacket.Payload(payload)))
		data := sb.Bytes()
		ci := gopacket.CaptureInfo{Timestamp: base.Add(time.Duration(i) * 10 * time.Millisecond), CaptureLength: len(data), Length: len(data)}
		require.NoError(t, w.WritePacket(ci, data))
	}

	path := filepath.Join(t.TempDir(), "drive.pcap")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestReplay(t *testing.T) {
	capture := writeCapture(t, packet(100, 0.9, -0.02), packet(110, 0.9, -0.02), []byte("short"))

	a, out := newTestApp(t, nil)
	require.NoError(t, a.run(context.Background(), []string{"replay", "-jsonl", capture}))
	assert.Equal(t, []float64{100, 110}, jsonLines(t, out))

	require.NoError(t, a.run(context.Background(), []string{"replay", capture}))
	sessions, err := openDB(t, a).Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "pcap:"+capture, sessions[0].Source)
	assert.EqualValues(t, 2, sessions[0].RecordCount)

	err = a.run(context.Background(), []string{"replay"})
	assert.Error(t, err)
}

func TestSerialMock(t *testing.T) {
	a, _ := newTestApp(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)
	err := a.run(ctx, []string{"serial", "-mock", "-listen", "", "-stats-interval", "1h"})
	require.NoError(t, err)

	sessions, err := openDB(t, a).Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "serial:mock", sessions[0].Source)
	assert.Greater(t, sessions[0].RecordCount, int64(0))
	assert.NotNil(t, sessions[0].EndedAt)
}

func TestSerialRequiresPort(t *testing.T) {
	a, _ := newTestApp(t, nil)
	err := a.run(context.Background(), []string{"serial", "-listen", ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-port")
}

func TestMigrateStatus(t *testing.T) {
	a, out := newTestApp(t, nil)
	require.NoError(t, a.run(context.Background(), []string{"migrate", "up"}))
	assert.Contains(t, out.String(), "Database is up to date.")

	err := a.run(context.Background(), []string{"migrate", "sideways"})
	assert.True(t, errors.Is(err, db.ErrUnknownMigrateAction), "got %v", err)
}
