package persist

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long the writer waits for further mutations
// before flushing a requested snapshot.
const DefaultDebounce = 500 * time.Millisecond

// Writer coalesces rapid snapshot writes into one durable save. Each
// Request replaces any still-unflushed blob, so only the latest state hits
// the backend. Save failures are logged and swallowed: the in-memory
// store remains authoritative and a later flush retries with newer data.
type Writer struct {
	backend Backend
	delay   time.Duration

	mu      sync.Mutex
	pending []byte
	timer   *time.Timer
}

func NewWriter(backend Backend, delay time.Duration) *Writer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Writer{backend: backend, delay: delay}
}

// Request schedules data for writing, replacing any previously scheduled
// blob and restarting the debounce window.
func (w *Writer) Request(data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = data
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, func() {
		if err := w.Flush(context.Background()); err != nil {
			log.Warn().Err(err).Msg("debounced snapshot write failed")
		}
	})
}

// Flush writes the pending blob immediately, if there is one.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	data := w.pending
	w.pending = nil
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if data == nil {
		return nil
	}
	if err := w.backend.Save(ctx, data); err != nil {
		log.Warn().Err(err).Msg("snapshot save failed")
		return err
	}
	log.Trace().Int("bytes", len(data)).Msg("snapshot flushed")
	return nil
}

// Close flushes any pending write. The writer must not be used afterwards.
func (w *Writer) Close() error {
	return w.Flush(context.Background())
}
