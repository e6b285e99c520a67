// Package diag is the append-only diagnostic log for bridge calls. It exists
// for operational visibility only and never gates control flow: every method
// is safe on a nil or disabled log and swallows write errors.
package diag

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// previewLimit bounds how much payload/response text lands in one line.
const previewLimit = 200

// Log appends one line per event to a shared diagnostic file. Event writes
// are serialized, so concurrent bridge calls may share one instance.
type Log struct {
	file *os.File
	log  zerolog.Logger
}

// Open creates or appends to the diagnostic file at path.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	logger := zerolog.New(zerolog.SyncWriter(file)).With().Timestamp().Logger()
	return &Log{file: file, log: logger}, nil
}

// Nop returns a disabled log that drops every event.
func Nop() *Log {
	return &Log{log: zerolog.Nop()}
}

// Call records the entry parameters of one bridge call.
func (l *Log) Call(variant, symbol, timeframe string, barCount, contextBarCount int) {
	if l == nil {
		return
	}
	l.log.Info().
		Str("variant", variant).
		Str("symbol", symbol).
		Str("timeframe", timeframe).
		Int("bars", barCount).
		Int("context_bars", contextBarCount).
		Msg("call")
}

// Payload records the encoded payload length with a bounded preview.
func (l *Log) Payload(body []byte) {
	if l == nil {
		return
	}
	l.log.Info().Int("bytes", len(body)).Str("preview", preview(body)).Msg("payload")
}

// Response records the returned body length with a bounded preview. The
// body may be a remote response or a synthesized error envelope.
func (l *Log) Response(body []byte) {
	if l == nil {
		return
	}
	l.log.Info().Int("bytes", len(body)).Str("preview", preview(body)).Msg("response")
}

// Close releases the file handle. Safe on nil and disabled logs.
func (l *Log) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func preview(b []byte) string {
	if len(b) > previewLimit {
		b = b[:previewLimit]
	}
	return string(b)
}
