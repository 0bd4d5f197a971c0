package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nrednav/cuid2"
	"github.com/samber/lo"

	"github.com/onkernel/screencap/lib/media"
	"github.com/onkernel/screencap/lib/sink"
)

var (
	ErrSessionActive = errors.New("a capture session is already active")
	ErrNoSession     = errors.New("no capture session")
)

// Controller owns the capture sessions of one host. At most one session is
// past Idle at a time; finished recordings are kept for download.
type Controller struct {
	mu sync.Mutex

	deps      Deps
	newID     func() string
	current   *Session
	artifacts map[string]*sink.Artifact
	order     []string
}

func NewController(deps Deps) *Controller {
	if deps.Preview == nil {
		deps.Preview = &media.Preview{}
	}
	return &Controller{
		deps:      deps,
		newID:     cuid2.Generate,
		artifacts: make(map[string]*sink.Artifact),
	}
}

// Start begins a new session. The slot is claimed before any device is
// requested so concurrent starts see ErrSessionActive.
func (c *Controller) Start(ctx context.Context, opts Options) (*Session, error) {
	c.mu.Lock()
	if c.current != nil && c.current.State() != StateIdle {
		c.mu.Unlock()
		return nil, ErrSessionActive
	}
	s := New(c.newID(), c.deps)
	s.onDone = c.record
	s.claim()
	c.current = s
	c.mu.Unlock()

	if err := s.start(ctx, opts); err != nil {
		return s, err
	}
	return s, nil
}

// Stop ends the current session. Stopping a session that has already ended
// succeeds without doing anything.
func (c *Controller) Stop(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s == nil {
		return nil, ErrNoSession
	}
	s.Stop(ctx)
	return s, nil
}

// ForceStop ends the current session without waiting for the encoder to
// write its trailer.
func (c *Controller) ForceStop(ctx context.Context) (*Session, error) {
	s := c.Current()
	if s == nil {
		return nil, ErrNoSession
	}
	s.ForceStop(ctx)
	return s, nil
}

func (c *Controller) record(s *Session) {
	s.mu.Lock()
	a := s.artifact
	s.mu.Unlock()
	if a == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artifacts[a.ID] = a
	c.order = append(c.order, a.ID)
}

// Current returns the most recent session, which may be idle.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Status describes the host's capture state.
type Status struct {
	State       State
	StopEnabled bool
	// Previewing is true while a stream is attached to the preview.
	Previewing bool
	Session    *Snapshot
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()

	st := Status{State: StateIdle, Previewing: c.deps.Preview.Current() != nil}
	if s == nil {
		return st
	}
	snap := s.Snapshot()
	st.State = snap.State
	st.StopEnabled = snap.StopEnabled
	st.Session = &snap
	return st
}

// Preview returns the stream currently shown, or nil.
func (c *Controller) Preview() *media.Stream {
	return c.deps.Preview.Current()
}

func (c *Controller) Artifact(id string) (*sink.Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.artifacts[id]
	return a, ok
}

// Artifacts lists finished recordings, oldest first.
func (c *Controller) Artifacts() []*sink.Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Map(c.order, func(id string, _ int) *sink.Artifact { return c.artifacts[id] })
}

// Shutdown stops the current session and waits for it to be finalized.
func (c *Controller) Shutdown(ctx context.Context) error {
	s := c.Current()
	if s == nil {
		return nil
	}

	// Start is still acquiring devices; it either fails or reaches Recording.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for s.State() == StateRequesting {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	s.Stop(ctx)
	if !s.hasRecorder() {
		return nil
	}
	// finalize errors are logged by the session
	if _, err := s.Wait(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}
