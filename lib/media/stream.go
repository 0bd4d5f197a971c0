package media

import (
	"sync"

	"github.com/samber/lo"
)

// Stream is an ordered set of tracks. Streams do not own their tracks: the
// same track may appear in several streams, and stopping a stream stops
// every track in it.
type Stream struct {
	tracks []*Track
}

func NewStream(tracks ...*Track) *Stream {
	return &Stream{tracks: lo.Filter(tracks, func(t *Track, _ int) bool { return t != nil })}
}

func (s *Stream) Tracks() []*Track {
	if s == nil {
		return nil
	}
	out := make([]*Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

func (s *Stream) AudioTracks() []*Track { return s.byKind(KindAudio) }
func (s *Stream) VideoTracks() []*Track { return s.byKind(KindVideo) }

func (s *Stream) byKind(kind Kind) []*Track {
	if s == nil {
		return nil
	}
	return lo.Filter(s.tracks, func(t *Track, _ int) bool { return t.Kind() == kind })
}

// Active reports whether any track in the stream is still live.
func (s *Stream) Active() bool {
	if s == nil {
		return false
	}
	return lo.SomeBy(s.tracks, func(t *Track) bool { return t.ReadyState() == ReadyStateLive })
}

// Stop ends every track. It is safe to call on a nil or already stopped stream.
func (s *Stream) Stop() {
	if s == nil {
		return
	}
	for _, t := range s.tracks {
		t.Stop()
	}
}

// Preview is the surface a stream is shown on while it is being recorded.
// It holds at most one stream.
type Preview struct {
	mu     sync.Mutex
	stream *Stream
}

func (p *Preview) Attach(s *Stream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stream = s
}

func (p *Preview) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stream = nil
}

// Current returns the attached stream or nil.
func (p *Preview) Current() *Stream {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stream
}
