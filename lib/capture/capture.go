// Package capture acquires microphone and display capture streams.
package capture

import (
	"context"
	"errors"

	"github.com/onkernel/screencap/lib/media"
)

var (
	// ErrPermissionDenied means the device exists but could not be opened
	// for capture.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDeviceNotFound means no device was configured for the request.
	ErrDeviceNotFound      = errors.New("device not found")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// DisplayOptions tune a display capture request.
type DisplayOptions struct {
	// Audio asks for the system audio that plays alongside the display.
	// It is best effort: a display stream without audio is still returned.
	Audio bool
	// FrameRate overrides the configured capture frame rate.
	FrameRate *int
}

// Devices hands out capture streams. Every returned stream is live and must
// be stopped by the caller.
type Devices interface {
	// Microphone returns a stream with one audio track.
	Microphone(ctx context.Context) (*media.Stream, error)
	// Display returns a stream with one video track and, if requested and
	// available, one system audio track.
	Display(ctx context.Context, opts DisplayOptions) (*media.Stream, error)
}
