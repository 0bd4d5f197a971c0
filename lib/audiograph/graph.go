// Package audiograph combines audio capture tracks into the single audio
// track a recording carries.
package audiograph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/onkernel/screencap/lib/media"
)

var (
	ErrClosed       = errors.New("audio graph closed")
	ErrNotAudio     = errors.New("track is not an audio track")
	ErrNoSources    = errors.New("audio graph has no sources")
	ErrNoVideoTrack = errors.New("display stream has no video track")
)

// Graph connects several audio tracks to one destination. The destination
// is rendered as an ffmpeg amix filter over the sources of every connected
// track.
type Graph struct {
	mu          sync.Mutex
	inputs      []*media.Track
	destination *media.Track
}

func NewGraph() *Graph {
	return &Graph{}
}

// Connect adds an audio track as a source. Tracks cannot be added once the
// destination has been created.
func (g *Graph) Connect(t *media.Track) error {
	if t.Kind() != media.KindAudio {
		return fmt.Errorf("connect %s: %w", t.Label(), ErrNotAudio)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.destination != nil {
		return ErrClosed
	}
	g.inputs = append(g.inputs, t)
	return nil
}

// Destination returns the mixed output track, creating it on first use.
func (g *Graph) Destination() (*media.Track, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.destination != nil {
		return g.destination, nil
	}
	if len(g.inputs) == 0 {
		return nil, ErrNoSources
	}

	var sources []media.Source
	for _, in := range g.inputs {
		sources = append(sources, in.Sources()...)
	}
	filter := fmt.Sprintf("amix=inputs=%d:duration=longest:dropout_transition=0", len(sources))
	g.destination = media.NewFilteredTrack(media.KindAudio, "mixed audio", filter, sources...)
	return g.destination, nil
}

// Compose builds the stream that gets recorded: at most one audio track,
// chosen by Choose, followed by the display's video track. When the policy
// is PolicyMix the returned destination track is the graph output and must
// be stopped by the caller along with the device streams.
func Compose(mic, display *media.Stream) (*media.Stream, *media.Track, Policy, error) {
	videos := display.VideoTracks()
	if len(videos) == 0 {
		return nil, nil, PolicyNone, ErrNoVideoTrack
	}
	video := videos[0]

	micAudio := mic.AudioTracks()
	displayAudio := display.AudioTracks()
	policy := Choose(len(micAudio) > 0, len(displayAudio) > 0)

	switch policy {
	case PolicyMix:
		g := NewGraph()
		if err := g.Connect(micAudio[0]); err != nil {
			return nil, nil, policy, err
		}
		if err := g.Connect(displayAudio[0]); err != nil {
			return nil, nil, policy, err
		}
		dest, err := g.Destination()
		if err != nil {
			return nil, nil, policy, err
		}
		return media.NewStream(dest, video), dest, policy, nil
	case PolicyMicrophone:
		return media.NewStream(micAudio[0], video), nil, policy, nil
	case PolicyDisplay:
		return media.NewStream(displayAudio[0], video), nil, policy, nil
	default:
		return media.NewStream(video), nil, policy, nil
	}
}
