// Package zstdutil writes tar.zst archives.
package zstdutil

import (
	"archive/tar"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
)

// CompressionLevel represents the zstd compression level.
type CompressionLevel string

const (
	LevelFastest CompressionLevel = "fastest"
	LevelDefault CompressionLevel = "default"
	LevelBetter  CompressionLevel = "better"
	LevelBest    CompressionLevel = "best"
)

// ParseLevel accepts the level names above; empty means LevelDefault.
func ParseLevel(s string) (CompressionLevel, error) {
	switch l := CompressionLevel(s); l {
	case "":
		return LevelDefault, nil
	case LevelFastest, LevelDefault, LevelBetter, LevelBest:
		return l, nil
	default:
		return "", fmt.Errorf("unknown compression level %q", s)
	}
}

// ToZstdLevel converts a CompressionLevel to a zstd.EncoderLevel.
func (l CompressionLevel) ToZstdLevel() zstd.EncoderLevel {
	switch l {
	case LevelFastest:
		return zstd.SpeedFastest
	case LevelBetter:
		return zstd.SpeedBetterCompression
	case LevelBest:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

// Entry is one regular file in an archive.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
	Open    func() (io.ReadCloser, error)
}

// WriteTarZstd streams entries as a tar.zst archive to w without buffering
// the archive in memory.
func WriteTarZstd(w io.Writer, entries []Entry, level CompressionLevel) error {
	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(level.ToZstdLevel()),
		zstd.WithEncoderConcurrency(1), // Synchronous for predictable streaming
	)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	defer zw.Close()

	tw := tar.NewWriter(zw)
	defer tw.Close()

	for _, e := range entries {
		if err := writeEntry(tw, e); err != nil {
			return err
		}
	}

	// Close tar writer first to flush tar footer
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar writer: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zstd writer: %w", err)
	}
	return nil
}

func writeEntry(tw *tar.Writer, e Entry) error {
	rc, err := e.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", e.Name, err)
	}
	defer rc.Close()

	header := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     e.Name,
		Size:     e.Size,
		Mode:     0o644,
		ModTime:  e.ModTime,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write header for %s: %w", e.Name, err)
	}
	n, err := io.Copy(tw, rc)
	if err != nil {
		return fmt.Errorf("copy %s: %w", e.Name, err)
	}
	if n != e.Size {
		return fmt.Errorf("copy %s: wrote %d of %d bytes", e.Name, n, e.Size)
	}
	return nil
}
