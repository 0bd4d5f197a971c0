package sink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/onkernel/screencap/lib/logger"
	"github.com/onkernel/screencap/lib/recorder"
)

// Buffer keeps every chunk in memory and assembles the recording when it is
// finalized. If dir is set the assembled recording is also written there.
type Buffer struct {
	mu        sync.Mutex
	dir       string
	chunks    [][]byte
	finalized bool
}

func NewBuffer(dir string) *Buffer {
	return &Buffer{dir: dir}
}

func (b *Buffer) WriteChunk(_ context.Context, chunk []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finalized {
		return ErrFinalized
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)
	b.chunks = append(b.chunks, c)
	return nil
}

func (b *Buffer) Finalize(ctx context.Context, meta Meta) (*Artifact, error) {
	b.mu.Lock()
	if b.finalized {
		b.mu.Unlock()
		return nil, ErrFinalized
	}
	b.finalized = true
	data := bytes.Join(b.chunks, nil)
	count := len(b.chunks)
	b.chunks = nil
	b.mu.Unlock()

	a := &Artifact{
		ID:         meta.ID,
		Filename:   recorder.Filename(meta.BaseName, meta.MimeType),
		MimeType:   meta.MimeType,
		Size:       int64(len(data)),
		Chunks:     count,
		StartedAt:  meta.StartedAt,
		FinishedAt: meta.FinishedAt,
		data:       data,
	}

	if b.dir != "" {
		// recordings share a base name; the id keeps earlier ones intact
		name := a.Filename
		if meta.ID != "" {
			name = meta.ID + "-" + name
		}
		path := filepath.Join(b.dir, name)
		if err := os.MkdirAll(b.dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write recording: %w", err)
		}
		a.Path = path
		a.data = nil
		logger.FromContext(ctx).Info("recording written", "path", path, "size", a.Size)
	}
	return a, nil
}

func (b *Buffer) Abort() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.finalized {
		b.finalized = true
		b.chunks = nil
	}
	return nil
}
