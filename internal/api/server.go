// Package api serves stored sessions, their statistics and live ingest
// counters over HTTP.
package api

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/ncom.report/internal/db"
	"github.com/banshee-data/ncom.report/internal/httputil"
	"github.com/banshee-data/ncom.report/internal/ingest"
	"github.com/banshee-data/ncom.report/internal/monitoring"
	"github.com/banshee-data/ncom.report/internal/ncom"
	"github.com/banshee-data/ncom.report/internal/summary"
	"github.com/banshee-data/ncom.report/internal/units"
)

// ANSI escape codes for the request log
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

const (
	defaultRecordLimit = 1000
	maxRecordLimit     = 100000
	maxDecodeBody      = 4096
)

// Server answers the /api routes. db and stats may each be nil; routes
// needing them return 503.
type Server struct {
	db    *db.DB
	stats *ingest.Stats
}

func NewServer(db *db.DB, stats *ingest.Stats) *Server {
	return &Server{db: db, stats: stats}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/records", s.listRecords)
	mux.HandleFunc("/api/summary", s.showSummary)
	mux.HandleFunc("/api/stats", s.showStats)
	mux.HandleFunc("/api/charts/attitude", s.attitudeChart)
	mux.HandleFunc("/api/decode", s.decodePacket)
	return mux
}

// requireDB writes a 503 when no database is attached.
func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.db == nil {
		httputil.ServiceUnavailable(w, "no database configured")
		return false
	}
	return true
}

// sessionRecords loads the decoded records of the session named by the
// session_id query parameter, writing the error response itself.
func (s *Server) sessionRecords(w http.ResponseWriter, r *http.Request, limit int) (db.Session, []*ncom.Record, bool) {
	id, ok := httputil.RequireQuery(w, r, "session_id")
	if !ok {
		return db.Session{}, nil, false
	}
	sess, err := s.db.Session(id)
	if errors.Is(err, db.ErrSessionNotFound) {
		httputil.NotFound(w, fmt.Sprintf("session %s not found", id))
		return db.Session{}, nil, false
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load session: %v", err))
		return db.Session{}, nil, false
	}
	stored, err := s.db.SessionRecords(id, limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load records: %v", err))
		return db.Session{}, nil, false
	}
	records := make([]*ncom.Record, len(stored))
	for i := range stored {
		records[i] = stored[i].Record
	}
	return sess, records, true
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	if !s.requireDB(w) {
		return
	}
	sessions, err := s.db.Sessions()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	httputil.WriteJSONOK(w, sessions)
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	if !s.requireDB(w) {
		return
	}
	limit, err := httputil.QueryInt(r, "limit", defaultRecordLimit, 1, maxRecordLimit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	id, ok := httputil.RequireQuery(w, r, "session_id")
	if !ok {
		return
	}
	if _, err := s.db.Session(id); errors.Is(err, db.ErrSessionNotFound) {
		httputil.NotFound(w, fmt.Sprintf("session %s not found", id))
		return
	}
	stored, err := s.db.SessionRecords(id, limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load records: %v", err))
		return
	}
	if stored == nil {
		stored = []db.StoredRecord{}
	}
	httputil.WriteJSONOK(w, stored)
}

type summaryResponse struct {
	Session db.Session             `json:"session"`
	Fields  []summary.FieldSummary `json:"fields"`
	NavStat []summary.NavStatCount `json:"nav_stat"`
}

func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	if !s.requireDB(w) {
		return
	}
	unit, err := units.ParseSpeedUnit(r.URL.Query().Get("units"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	sess, records, ok := s.sessionRecords(w, r, 0)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, summaryResponse{
		Session: sess,
		Fields:  summary.ConvertSpeeds(summary.Summarise(records), unit),
		NavStat: summary.NavStatCounts(records),
	})
}

type statsResponse struct {
	ingest.Counters
	Rejected      int64   `json:"rejected"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	if s.stats == nil {
		httputil.ServiceUnavailable(w, "no live ingest running")
		return
	}
	c, uptime := s.stats.Snapshot()
	httputil.WriteJSONOK(w, statsResponse{
		Counters:      c,
		Rejected:      c.Rejected(),
		UptimeSeconds: uptime.Seconds(),
	})
}

// decodePacket decodes one packet. An application/octet-stream body, or any
// body of exactly one packet length, is taken as raw bytes; anything else
// must be hex (whitespace ignored).
func (s *Server) decodePacket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDecodeBody+1))
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("failed to read body: %v", err))
		return
	}
	if len(body) > maxDecodeBody {
		httputil.BadRequest(w, "request body too large")
		return
	}

	packet := body
	raw := strings.HasPrefix(r.Header.Get("Content-Type"), "application/octet-stream")
	if !raw && len(body) != ncom.PacketSize {
		packet, err = hex.DecodeString(strings.Join(strings.Fields(string(body)), ""))
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("body is neither a %d-byte packet nor hex: %v", ncom.PacketSize, err))
			return
		}
	}

	rec, err := ncom.Decode(packet)
	if err != nil {
		httputil.UnprocessableEntity(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, rec)
}
