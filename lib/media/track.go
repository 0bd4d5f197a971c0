package media

import (
	"sync"

	"github.com/google/uuid"
)

// Kind is the media type carried by a track.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// ReadyState mirrors the two states a capture track moves through.
type ReadyState string

const (
	ReadyStateLive  ReadyState = "live"
	ReadyStateEnded ReadyState = "ended"
)

// Track is a single audio or video capture. It is live from creation until
// Stop is called or the underlying device goes away, after which it is ended
// for good.
type Track struct {
	mu sync.Mutex

	id      string
	kind    Kind
	label   string
	sources []Source
	filter  string

	state   ReadyState
	ended   chan struct{}
	onEnded []func()
}

// NewTrack creates a live track backed by the given sources. Device tracks
// have exactly one source; derived tracks (see audiograph) may have several
// and a filter that combines them.
func NewTrack(kind Kind, label string, sources ...Source) *Track {
	return &Track{
		id:      uuid.NewString(),
		kind:    kind,
		label:   label,
		sources: sources,
		state:   ReadyStateLive,
		ended:   make(chan struct{}),
	}
}

// NewFilteredTrack creates a live track whose sources are combined by an
// ffmpeg filter expression.
func NewFilteredTrack(kind Kind, label, filter string, sources ...Source) *Track {
	t := NewTrack(kind, label, sources...)
	t.filter = filter
	return t
}

func (t *Track) ID() string    { return t.id }
func (t *Track) Kind() Kind    { return t.kind }
func (t *Track) Label() string { return t.label }

// Sources returns a copy of the inputs backing this track.
func (t *Track) Sources() []Source {
	out := make([]Source, len(t.sources))
	copy(out, t.sources)
	return out
}

// Filter returns the filter expression joining the sources, or "" for a
// plain device track.
func (t *Track) Filter() string { return t.filter }

func (t *Track) ReadyState() ReadyState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Ended is closed once the track has ended.
func (t *Track) Ended() <-chan struct{} { return t.ended }

// OnEnded registers fn to run once when the track ends. If the track has
// already ended fn runs immediately.
func (t *Track) OnEnded(fn func()) {
	t.mu.Lock()
	if t.state == ReadyStateEnded {
		t.mu.Unlock()
		fn()
		return
	}
	t.onEnded = append(t.onEnded, fn)
	t.mu.Unlock()
}

// Stop ends the track. Stopping an ended track is a no-op.
func (t *Track) Stop() {
	t.mu.Lock()
	if t.state == ReadyStateEnded {
		t.mu.Unlock()
		return
	}
	t.state = ReadyStateEnded
	close(t.ended)
	hooks := t.onEnded
	t.onEnded = nil
	t.mu.Unlock()

	// hooks run outside the lock so they may inspect or stop other tracks
	for _, fn := range hooks {
		fn()
	}
}
