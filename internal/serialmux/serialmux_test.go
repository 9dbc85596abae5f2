package serialmux

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/banshee-data/ncom.report/internal/ingest"
	"github.com/banshee-data/ncom.report/internal/monitoring"
	"github.com/banshee-data/ncom.report/internal/ncom"
)

func testPacket(navStat uint8) []byte {
	raw := ncom.NewRawPacket()
	raw.Time = 42
	raw.NavStat = navStat
	return ncom.Encode(raw)
}

func muteLogs(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

func recv(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case p, ok := <-ch:
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for packet")
	}
	return nil
}

func TestMonitorFansOutPackets(t *testing.T) {
	port := NewTestableSerialPort()
	port.AddReadData(append(testPacket(4), testPacket(2)...))
	mux := NewSerialMux(port)

	_, a := mux.Subscribe()
	_, b := mux.Subscribe()

	if err := mux.Monitor(context.Background()); err != nil {
		t.Fatalf("Monitor returned %v, want nil at end of stream", err)
	}

	for name, ch := range map[string]chan []byte{"a": a, "b": b} {
		first := recv(t, ch)
		second := recv(t, ch)
		if len(first) != ncom.PacketSize || first[21] != 4 {
			t.Errorf("subscriber %s: first packet = %x", name, first)
		}
		if second[21] != 2 {
			t.Errorf("subscriber %s: second packet NavStat = %d, want 2", name, second[21])
		}
	}
}

func TestMonitorPacketsAreCopies(t *testing.T) {
	port := NewTestableSerialPort()
	port.AddReadData(testPacket(4))
	mux := NewSerialMux(port)
	_, a := mux.Subscribe()
	_, b := mux.Subscribe()

	if err := mux.Monitor(context.Background()); err != nil {
		t.Fatal(err)
	}
	pa, pb := recv(t, a), recv(t, b)
	pa[0] = 0
	if pb[0] == 0 {
		t.Error("subscribers share a packet buffer")
	}
}

func TestMonitorTruncatedStream(t *testing.T) {
	port := NewTestableSerialPort()
	port.AddReadData(append(testPacket(4), 0xE7, 0x01))
	mux := NewSerialMux(port)
	_, ch := mux.Subscribe()

	err := mux.Monitor(context.Background())
	if !errors.Is(err, ingest.ErrTruncated) {
		t.Fatalf("Monitor error = %v, want ErrTruncated", err)
	}
	recv(t, ch)
}

func TestMonitorReadError(t *testing.T) {
	port := NewTestableSerialPort()
	port.ReadError = errors.New("device unplugged")
	mux := NewSerialMux(port)

	err := mux.Monitor(context.Background())
	if err == nil || !strings.Contains(err.Error(), "device unplugged") {
		t.Fatalf("Monitor error = %v", err)
	}
}

func TestMonitorContextCancel(t *testing.T) {
	port := NewTestableSerialPort()
	port.BlockReads = true
	mux := NewSerialMux(port)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mux.Monitor(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Monitor error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Monitor did not stop on cancel")
	}
	mux.Close()
}

func TestUnsubscribeAndClose(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)

	id, ch := mux.Subscribe()
	mux.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Error("channel still open after Unsubscribe")
	}
	mux.Unsubscribe(id) // second call is a no-op

	_, ch2 := mux.Subscribe()
	if err := mux.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-ch2; ok {
		t.Error("channel still open after Close")
	}
	if !port.IsClosed() {
		t.Error("port not closed")
	}

	_, ch3 := mux.Subscribe()
	if _, ok := <-ch3; ok {
		t.Error("subscribe after Close returned an open channel")
	}
}

func TestForward(t *testing.T) {
	muteLogs(t)

	ch := make(chan []byte, 3)
	ch <- testPacket(4)
	bad := testPacket(4)
	bad[0] = 0x55
	ch <- bad
	ch <- testPacket(3)
	close(ch)

	stats := ingest.NewStats()
	p := ingest.NewPipeline(ingest.PipelineConfig{Stats: stats})
	n := Forward(context.Background(), ch, p, "serial:/dev/ttyUSB0")
	if n != 3 {
		t.Errorf("Forward = %d, want 3", n)
	}
	c, _ := stats.Snapshot()
	if c.Decoded != 2 || c.SyncMismatches != 1 {
		t.Errorf("stats = %+v", c)
	}
}

func TestMockSerialMux(t *testing.T) {
	muteLogs(t)

	mux := NewMockSerialMux(testPacket(4))
	_, ch := mux.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		mux.Monitor(ctx)
	}()

	p := recv(t, ch)
	rec, err := ncom.Decode(p)
	if err != nil {
		t.Fatalf("mock packet does not decode: %v", err)
	}
	if rec.NavStat != "4: Locked" {
		t.Errorf("NavStat = %q", rec.NavStat)
	}

	mux.Close()
	cancel()
	wg.Wait()
}

func TestOpenSerialMux(t *testing.T) {
	port := NewTestableSerialPort()
	factory := NewMockSerialPortFactory(port)
	opts := PortOptions{BaudRate: 230400}

	mux, err := OpenSerialMux(factory, "/dev/ttyS0", opts)
	if err != nil {
		t.Fatal(err)
	}
	if mux == nil || len(factory.OpenCalls) != 1 {
		t.Fatalf("OpenCalls = %+v", factory.OpenCalls)
	}
	if got := factory.OpenCalls[0]; got.Path != "/dev/ttyS0" || got.Opts != opts {
		t.Errorf("Open called with %+v", got)
	}

	factory.Error = errors.New("permission denied")
	if _, err := OpenSerialMux(factory, "/dev/ttyS0", opts); err == nil || !strings.Contains(err.Error(), "/dev/ttyS0") {
		t.Errorf("OpenSerialMux error = %v", err)
	}
}

func TestAttachAdminRoutesTail(t *testing.T) {
	port := NewTestableSerialPort()
	port.BlockReads = true
	mux := NewSerialMux(port)

	httpMux := http.NewServeMux()
	mux.AttachAdminRoutes(httpMux)
	srv := httptest.NewServer(httpMux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/debug/tail", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil || !strings.HasPrefix(line, ": ping") {
		t.Fatalf("first line = %q, %v", line, err)
	}

	packet := testPacket(4)
	port.AddReadData(packet)

	want := "data: " + hex.EncodeToString(packet)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("reading stream: %v", err)
		}
		if strings.HasPrefix(line, "data: ") {
			if strings.TrimSpace(line) != want {
				t.Errorf("event = %q, want %q", strings.TrimSpace(line), want)
			}
			break
		}
	}
	cancel()
	mux.Close()
}

func TestAttachAdminRoutesTailMethod(t *testing.T) {
	mux := NewSerialMux(NewTestableSerialPort())
	httpMux := http.NewServeMux()
	mux.AttachAdminRoutes(httpMux)

	req := httptest.NewRequest(http.MethodPost, "/debug/tail", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	w := httptest.NewRecorder()
	httpMux.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
