package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/ncom.report/internal/ingest"
	"github.com/banshee-data/ncom.report/internal/ncom"
)

// ErrSessionNotFound is returned when a session id does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Session is one recording run: a contiguous ingest from a single source.
type Session struct {
	ID          string     `json:"session_id"`
	Source      string     `json:"source"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	RecordCount int64      `json:"record_count"`
}

// StoredRecord is a decoded record and the time it was received.
type StoredRecord struct {
	ID         int64        `json:"id"`
	SessionID  string       `json:"session_id"`
	ReceivedAt time.Time    `json:"received_at"`
	Record     *ncom.Record `json:"record"`
}

// CreateSession starts a new session for source and returns its id.
func (db *DB) CreateSession(source string) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO ncom_sessions (session_id, source, started_at_ns) VALUES (?, ?, ?)`,
		id, source, time.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// EndSession stamps the session's end time.
func (db *DB) EndSession(sessionID string) error {
	res, err := db.Exec(
		`UPDATE ncom_sessions SET ended_at_ns = ? WHERE session_id = ?`,
		time.Now().UnixNano(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// RecordNCOM stores one decoded record against a session.
func (db *DB) RecordNCOM(sessionID string, receivedAt time.Time, rec *ncom.Record) error {
	return db.RecordNCOMContext(context.Background(), sessionID, receivedAt, rec)
}

// RecordNCOMContext is RecordNCOM with a context.
func (db *DB) RecordNCOMContext(ctx context.Context, sessionID string, receivedAt time.Time, rec *ncom.Record) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO ncom_records (
			session_id, received_at_ns, time_ms,
			acc_x, acc_y, acc_z, ang_x, ang_y, ang_z,
			nav_stat_code, nav_stat, checksum_1,
			lat, long, alti, vel_north, vel_east, vel_down,
			heading, pitch, roll, checksum_2, status_channel, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, receivedAt.UnixNano(), rec.Time,
		rec.AccX, rec.AccY, rec.AccZ, rec.AngX, rec.AngY, rec.AngZ,
		rec.NavStatCode(), rec.NavStat, rec.Checksum1,
		rec.Lat, rec.Long, rec.Alti, rec.VelNorth, rec.VelEast, rec.VelDown,
		rec.Heading, rec.Pitch, rec.Roll, rec.Checksum2, rec.StatusChannel, rec.Status[:],
	)
	if err != nil {
		return fmt.Errorf("failed to record NCOM packet: %w", err)
	}
	return nil
}

// Sessions lists all sessions, newest first, with their record counts.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(`
		SELECT s.session_id, s.source, s.started_at_ns, s.ended_at_ns, COUNT(r.record_id)
		FROM ncom_sessions s
		LEFT JOIN ncom_records r ON r.session_id = s.session_id
		GROUP BY s.session_id
		ORDER BY s.started_at_ns DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			s       Session
			started int64
			ended   sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.Source, &started, &ended, &s.RecordCount); err != nil {
			return nil, err
		}
		s.StartedAt = time.Unix(0, started)
		if ended.Valid {
			t := time.Unix(0, ended.Int64)
			s.EndedAt = &t
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Session returns a single session by id.
func (db *DB) Session(sessionID string) (Session, error) {
	sessions, err := db.Sessions()
	if err != nil {
		return Session{}, err
	}
	for _, s := range sessions {
		if s.ID == sessionID {
			return s, nil
		}
	}
	return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
}

// SessionRecords returns up to limit records of a session in the order they
// were received. A limit <= 0 returns every record.
func (db *DB) SessionRecords(sessionID string, limit int) ([]StoredRecord, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := db.Query(`
		SELECT record_id, session_id, received_at_ns, time_ms,
			acc_x, acc_y, acc_z, ang_x, ang_y, ang_z,
			nav_stat_code, checksum_1,
			lat, long, alti, vel_north, vel_east, vel_down,
			heading, pitch, roll, checksum_2, status_channel, status
		FROM ncom_records
		WHERE session_id = ?
		ORDER BY received_at_ns, record_id
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		var (
			sr       StoredRecord
			rec      ncom.Record
			received int64
			navStat  uint8
			status   []byte
		)
		if err := rows.Scan(
			&sr.ID, &sr.SessionID, &received, &rec.Time,
			nanFloat{&rec.AccX}, nanFloat{&rec.AccY}, nanFloat{&rec.AccZ},
			nanFloat{&rec.AngX}, nanFloat{&rec.AngY}, nanFloat{&rec.AngZ},
			&navStat, &rec.Checksum1,
			nanFloat{&rec.Lat}, nanFloat{&rec.Long}, &rec.Alti,
			nanFloat{&rec.VelNorth}, nanFloat{&rec.VelEast}, nanFloat{&rec.VelDown},
			nanFloat{&rec.Heading}, nanFloat{&rec.Pitch}, nanFloat{&rec.Roll},
			&rec.Checksum2, &rec.StatusChannel, &status,
		); err != nil {
			return nil, err
		}
		rec.Sync = ncom.SyncByte
		rec.SetNavStat(navStat)
		copy(rec.Status[:], status)
		sr.ReceivedAt = time.Unix(0, received)
		sr.Record = &rec
		records = append(records, sr)
	}
	return records, rows.Err()
}

// nanFloat scans a REAL column, mapping NULL (how SQLite stores NaN) back
// to NaN.
type nanFloat struct{ v *float64 }

func (f nanFloat) Scan(src any) error {
	if src == nil {
		*f.v = math.NaN()
		return nil
	}
	var n sql.NullFloat64
	if err := n.Scan(src); err != nil {
		return err
	}
	*f.v = n.Float64
	return nil
}

// RecordSink stores pipeline output under one session.
type RecordSink struct {
	db        *DB
	sessionID string
}

// RecordSink returns an ingest.Sink writing into sessionID.
func (db *DB) RecordSink(sessionID string) *RecordSink {
	return &RecordSink{db: db, sessionID: sessionID}
}

var _ ingest.Sink = (*RecordSink)(nil)

func (s *RecordSink) WriteRecord(ctx context.Context, rec *ncom.Record, meta ingest.Meta) error {
	receivedAt := meta.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	return s.db.RecordNCOMContext(ctx, s.sessionID, receivedAt, rec)
}

// SessionID returns the session the sink writes to.
func (s *RecordSink) SessionID() string { return s.sessionID }
