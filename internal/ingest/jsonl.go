package ingest

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/banshee-data/ncom.report/internal/ncom"
)

// JSONLSink writes one JSON object per record.
type JSONLSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

type jsonlLine struct {
	ReceivedAt time.Time    `json:"received_at"`
	Source     string       `json:"source,omitempty"`
	Record     *ncom.Record `json:"record"`
}

// NewJSONLSink creates a sink writing to w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

func (s *JSONLSink) WriteRecord(_ context.Context, rec *ncom.Record, meta Meta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(jsonlLine{
		ReceivedAt: meta.ReceivedAt.UTC(),
		Source:     meta.Source,
		Record:     rec,
	})
}
