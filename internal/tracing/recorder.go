// Package tracing captures runtime execution traces with the flight
// recorder, so a stuck cascade can be inspected after the fact with
// `go tool trace`.
package tracing

import (
	"errors"
	"io"
	"runtime/trace"
	"sync"
	"time"
)

// DefaultBufferSize is the trace ring buffer size when none is given (10MB).
const DefaultBufferSize = 10 * 1024 * 1024

// minAge is how much recent trace history the recorder retains.
const minAge = 30 * time.Second

// ErrNotEnabled is returned by Snapshot while tracing is off.
var ErrNotEnabled = errors.New("tracing not enabled")

var (
	mu       sync.Mutex
	recorder *trace.FlightRecorder
)

// Enable starts the flight recorder with a ring buffer of bufferSize
// bytes (DefaultBufferSize when <= 0). Enabling twice restarts the
// recorder with the new size.
func Enable(bufferSize int) error {
	mu.Lock()
	defer mu.Unlock()

	if recorder != nil {
		recorder.Stop()
		recorder = nil
	}

	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	r := trace.NewFlightRecorder(trace.FlightRecorderConfig{
		MinAge:   minAge,
		MaxBytes: uint64(bufferSize),
	})
	if err := r.Start(); err != nil {
		return err
	}

	recorder = r
	return nil
}

// Enabled reports whether the recorder is running.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return recorder != nil
}

// Snapshot writes the buffered trace to w in `go tool trace` format.
func Snapshot(w io.Writer) error {
	mu.Lock()
	defer mu.Unlock()

	if recorder == nil {
		return ErrNotEnabled
	}

	_, err := recorder.WriteTo(w)
	return err
}

// Stop stops the recorder and drops the buffer. Safe to call when the
// recorder never started.
func Stop() {
	mu.Lock()
	defer mu.Unlock()

	if recorder != nil {
		recorder.Stop()
		recorder = nil
	}
}
