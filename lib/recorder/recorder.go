package recorder

import (
	"context"
	"time"

	"github.com/onkernel/screencap/lib/media"
)

// State is the recorder state: inactive before Start and after the encoder
// has exited, recording in between.
type State string

const (
	StateInactive  State = "inactive"
	StateRecording State = "recording"
)

// Recorder encodes a composed media stream into a container and emits the
// encoded bytes as an ordered sequence of chunks.
type Recorder interface {
	ID() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	ForceStop(ctx context.Context) error
	State() State
	// MimeType is the negotiated container type, including codec parameters.
	MimeType() string
	// Data delivers chunks in emission order. It is closed once the recorder
	// is inactive and every chunk has been delivered; the close is the
	// recorder's stopped signal. Callers must drain it.
	Data() <-chan []byte
	// Err reports why the encoder exited, if it failed.
	Err() error
	Metadata() *RecordingMetadata
}

type RecordingMetadata struct {
	Size      int64
	Chunks    int
	StartTime time.Time
	EndTime   time.Time
}

// Factory creates a recorder for a composed stream.
type Factory func(id string, stream *media.Stream, overrides Params) (Recorder, error)
