// Package sink collects the chunks a recorder emits and turns them into a
// finished recording file.
//
// Two strategies satisfy the same contract, every byte the recorder produced
// reaches storage in emission order once the recorder stops: Buffer keeps
// chunks in memory until the end, File writes them to a destination chosen
// before recording starts.
package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

var ErrFinalized = errors.New("sink already finalized")

// Sink receives chunks in order and materialises them on Finalize.
type Sink interface {
	WriteChunk(ctx context.Context, chunk []byte) error
	Finalize(ctx context.Context, meta Meta) (*Artifact, error)
	// Abort discards whatever was collected. It is a no-op after Finalize.
	Abort() error
}

// Meta describes the recording a sink is finalizing.
type Meta struct {
	ID         string
	BaseName   string
	MimeType   string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Artifact is a finished recording.
type Artifact struct {
	ID         string
	Filename   string
	MimeType   string
	Size       int64
	Chunks     int
	StartedAt  time.Time
	FinishedAt time.Time
	// Path is set when the recording lives on disk.
	Path string

	data []byte
}

// Open returns a reader over the recording bytes.
func (a *Artifact) Open() (io.ReadCloser, error) {
	if a.Path != "" {
		f, err := os.Open(a.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open recording file: %w", err)
		}
		return f, nil
	}
	return io.NopCloser(bytes.NewReader(a.data)), nil
}
