// Package logtest redirects the global zerolog logger for tests.
package logtest

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Buffer collects JSON log lines. It is safe for concurrent writers.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// Entries decodes every captured line. Lines that are not JSON are skipped.
func (b *Buffer) Entries() []map[string]any {
	var out []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(b.String()), "\n") {
		var entry map[string]any
		if json.Unmarshal([]byte(line), &entry) == nil {
			out = append(out, entry)
		}
	}

	return out
}

// Find returns the first entry with the given level and message.
func (b *Buffer) Find(level zerolog.Level, msg string) (map[string]any, bool) {
	for _, e := range b.Entries() {
		if e[zerolog.LevelFieldName] == level.String() && e[zerolog.MessageFieldName] == msg {
			return e, true
		}
	}

	return nil, false
}

// Capture points log.Logger at a fresh buffer at trace level until the
// test ends.
func Capture(t *testing.T) *Buffer {
	t.Helper()

	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()

	b := &Buffer{}
	log.Logger = zerolog.New(b)
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	return b
}
