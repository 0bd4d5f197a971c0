package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File writes each chunk straight to a destination file chosen before the
// recording starts. Nothing is buffered in memory.
type File struct {
	mu        sync.Mutex
	path      string
	f         *os.File
	size      int64
	chunks    int
	finalized bool
}

// NewFile creates (or truncates) the destination. Failing to open it is
// fatal for the capture attempt, so callers do this before acquiring devices.
func NewFile(path string) (*File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create destination directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open destination: %w", err)
	}
	return &File{path: path, f: f}, nil
}

func (s *File) Path() string { return s.path }

func (s *File) WriteChunk(_ context.Context, chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return ErrFinalized
	}
	n, err := s.f.Write(chunk)
	s.size += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write chunk %d: %w", s.chunks, err)
	}
	s.chunks++
	return nil
}

// Finalize flushes and closes the destination. The file keeps the name it
// was created with.
func (s *File) Finalize(_ context.Context, meta Meta) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return nil, ErrFinalized
	}
	s.finalized = true

	if err := s.f.Sync(); err != nil {
		s.f.Close()
		return nil, fmt.Errorf("failed to sync destination: %w", err)
	}
	if err := s.f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close destination: %w", err)
	}

	return &Artifact{
		ID:         meta.ID,
		Filename:   filepath.Base(s.path),
		MimeType:   meta.MimeType,
		Size:       s.size,
		Chunks:     s.chunks,
		StartedAt:  meta.StartedAt,
		FinishedAt: meta.FinishedAt,
		Path:       s.path,
	}, nil
}

// Abort closes the destination and removes the partial file.
func (s *File) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return nil
	}
	s.finalized = true
	s.f.Close()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
