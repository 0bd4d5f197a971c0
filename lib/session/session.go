// Package session runs capture sessions: acquire the microphone and the
// display, compose them into one stream, record it and tear everything down
// exactly once, whichever side ends the share.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/onkernel/screencap/lib/audiograph"
	"github.com/onkernel/screencap/lib/capture"
	"github.com/onkernel/screencap/lib/logger"
	"github.com/onkernel/screencap/lib/media"
	"github.com/onkernel/screencap/lib/recorder"
	"github.com/onkernel/screencap/lib/sink"
	"github.com/onkernel/screencap/lib/statuslog"
	"github.com/onkernel/screencap/lib/storage"
)

// State is a session's position in its lifecycle:
// Idle → Requesting → Recording → Finalizing → Idle.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateRecording  State = "recording"
	StateFinalizing State = "finalizing"
)

// Trigger says what ended a recording.
type Trigger string

const (
	// TriggerExplicit is a stop requested by the user.
	TriggerExplicit Trigger = "explicit"
	// TriggerNative is the display going away, the platform's own stop sharing.
	TriggerNative Trigger = "native"
	// TriggerEncoder is the encoder exiting on its own, e.g. at a size or duration limit.
	TriggerEncoder Trigger = "encoder"
)

var ErrAlreadyStarted = errors.New("session already started")

// Deps are the collaborators a session uses.
type Deps struct {
	Devices   capture.Devices
	Recorders recorder.Factory
	Publisher storage.Publisher
	Status    *statuslog.Log
	Preview   *media.Preview
	// OutputDir is where buffered recordings are materialised. Empty keeps
	// them in memory only.
	OutputDir string
	// BaseName is the recording file name without extension.
	BaseName string
}

// Options tune one capture attempt.
type Options struct {
	// Destination switches to streaming-to-disk: chunks are written to this
	// path as they arrive instead of being buffered.
	Destination string
	Display     capture.DisplayOptions
	Recorder    recorder.Params
}

// Session is one recording attempt. It is single use.
type Session struct {
	mu sync.Mutex

	id   string
	deps Deps

	started     bool
	state       State
	stopEnabled bool
	trigger     Trigger
	policy      audiograph.Policy
	startedAt   time.Time
	finishedAt  time.Time

	mic     *media.Stream
	display *media.Stream
	mixed   *media.Track
	stream  *media.Stream
	rec     recorder.Recorder
	sink    sink.Sink

	writeErr error
	artifact *sink.Artifact
	err      error
	done     chan struct{}
	onDone   func(*Session)
}

func New(id string, deps Deps) *Session {
	if deps.Publisher == nil {
		deps.Publisher = storage.NoopPublisher{}
	}
	if deps.Status == nil {
		deps.Status = statuslog.New(nil)
	}
	if deps.Preview == nil {
		deps.Preview = &media.Preview{}
	}
	if deps.BaseName == "" {
		deps.BaseName = "screenrecording"
	}
	return &Session{
		id:    id,
		deps:  deps,
		state: StateIdle,
		done:  make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StopEnabled reports whether the stop control should be active.
func (s *Session) StopEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopEnabled
}

// Start acquires the devices and begins recording. A denied microphone is
// logged and the session records without it; a denied display ends the
// attempt after releasing anything already acquired.
func (s *Session) Start(ctx context.Context, opts Options) error {
	if !s.claim() {
		return ErrAlreadyStarted
	}
	return s.start(ctx, opts)
}

// claim moves a fresh session to Requesting.
func (s *Session) claim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return false
	}
	s.started = true
	s.state = StateRequesting
	return true
}

func (s *Session) start(ctx context.Context, opts Options) error {
	log := logger.FromContext(ctx).With("session_id", s.id)
	status := s.deps.Status

	mic, err := s.deps.Devices.Microphone(ctx)
	if err != nil {
		log.Info("microphone unavailable", "err", err)
		status.Logf("Mic permission was denied.")
		mic = media.NewStream()
	}

	display, err := s.deps.Devices.Display(ctx, opts.Display)
	if err != nil {
		mic.Stop()
		log.Error("display capture denied", "err", err)
		status.Logf("Screen sharing was denied.")
		return s.failStart(fmt.Errorf("display capture: %w", err))
	}

	stream, mixed, policy, err := audiograph.Compose(mic, display)
	if err != nil {
		mic.Stop()
		display.Stop()
		return s.failStart(fmt.Errorf("compose stream: %w", err))
	}

	// the destination is only touched once the display has been granted
	var out sink.Sink
	if opts.Destination != "" {
		f, err := sink.NewFile(opts.Destination)
		if err != nil {
			releaseAll(mic, display, mixed)
			log.Error("failed to open destination", "err", err, "destination", opts.Destination)
			status.Logf("Could not open %s for writing.", opts.Destination)
			return s.failStart(fmt.Errorf("destination: %w", err))
		}
		out = f
	} else {
		out = sink.NewBuffer(s.deps.OutputDir)
	}

	rec, err := s.deps.Recorders(s.id, stream, opts.Recorder)
	if err != nil {
		releaseAll(mic, display, mixed)
		_ = out.Abort()
		return s.failStart(fmt.Errorf("create recorder: %w", err))
	}

	s.deps.Preview.Attach(stream)
	if err := rec.Start(ctx); err != nil {
		s.deps.Preview.Detach()
		releaseAll(mic, display, mixed)
		// a recorder that exited during startup may still have emitted chunks
		go drainAndDiscard(rec)
		_ = out.Abort()
		log.Error("failed to start recorder", "err", err)
		status.Logf("Recording could not be started.")
		return s.failStart(fmt.Errorf("start recorder: %w", err))
	}

	s.mu.Lock()
	s.mic, s.display, s.mixed, s.stream = mic, display, mixed, stream
	s.rec, s.sink = rec, out
	s.policy = policy
	s.startedAt = time.Now()
	s.state = StateRecording
	s.stopEnabled = true
	s.mu.Unlock()

	log.Info("capture started", "policy", policy, "mime_type", rec.MimeType(), "destination", opts.Destination)
	status.Logf("Your screen is being recorded (audio: %s).", policy)

	bgCtx := context.WithoutCancel(ctx)
	go s.collect(bgCtx)

	// the platform ending the share takes the same teardown path as Stop
	stream.VideoTracks()[0].OnEnded(func() {
		s.end(bgCtx, TriggerNative, false)
	})
	return nil
}

func (s *Session) failStart(err error) error {
	s.mu.Lock()
	s.state = StateIdle
	s.err = err
	s.mu.Unlock()
	return err
}

// Stop ends the recording. Calling it on a session that is not recording,
// including one already stopped by the platform, does nothing.
func (s *Session) Stop(ctx context.Context) {
	s.end(ctx, TriggerExplicit, false)
}

// ForceStop is Stop without waiting for the encoder to finish the container.
func (s *Session) ForceStop(ctx context.Context) {
	s.end(ctx, TriggerExplicit, true)
}

func (s *Session) hasRecorder() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec != nil
}

// end performs the Recording → Finalizing transition. Only the first caller
// does any work; it reports whether it was that caller.
func (s *Session) end(ctx context.Context, trigger Trigger, force bool) bool {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return false
	}
	s.state = StateFinalizing
	s.stopEnabled = false
	s.trigger = trigger
	mic, display, mixed, rec := s.mic, s.display, s.mixed, s.rec
	s.mu.Unlock()

	log := logger.FromContext(ctx).With("session_id", s.id)
	log.Info("capture stopping", "trigger", trigger, "force", force)

	releaseAll(mic, display, mixed)
	s.deps.Preview.Detach()

	if force {
		if err := rec.ForceStop(ctx); err != nil {
			log.Error("failed to force stop recorder", "err", err)
		}
		return true
	}
	if err := rec.Stop(ctx); err != nil {
		log.Error("graceful recorder stop failed, forcing", "err", err)
		if err := rec.ForceStop(ctx); err != nil {
			log.Error("failed to force stop recorder", "err", err)
		}
	}
	return true
}

// collect drains the recorder into the sink in arrival order and finalizes
// once the recorder reports it has stopped.
func (s *Session) collect(ctx context.Context) {
	log := logger.FromContext(ctx).With("session_id", s.id)

	for chunk := range s.rec.Data() {
		if s.writeErr != nil {
			// keep draining so the encoder can exit
			continue
		}
		if err := s.sink.WriteChunk(ctx, chunk); err != nil {
			log.Error("failed to store chunk", "err", err)
			s.writeErr = err
		}
	}

	// the encoder exiting by itself is also the end of the share
	s.end(ctx, TriggerEncoder, false)
	s.finalize(ctx)
}

func (s *Session) finalize(ctx context.Context) {
	log := logger.FromContext(ctx).With("session_id", s.id)
	status := s.deps.Status

	finishedAt := time.Now()
	if err := s.rec.Err(); err != nil {
		log.Info("recorder exited with error", "err", err)
	}

	var (
		artifact *sink.Artifact
		err      error
	)
	if s.writeErr != nil {
		_ = s.sink.Abort()
		err = fmt.Errorf("store recording: %w", s.writeErr)
	} else {
		artifact, err = s.sink.Finalize(ctx, sink.Meta{
			ID:         s.id,
			BaseName:   s.deps.BaseName,
			MimeType:   s.rec.MimeType(),
			StartedAt:  s.startedAt,
			FinishedAt: finishedAt,
		})
	}

	if err != nil {
		log.Error("failed to finalize recording", "err", err)
		status.Logf("Your screen recording could not be saved.")
	} else {
		log.Info("recording finalized", "filename", artifact.Filename, "size", artifact.Size, "chunks", artifact.Chunks)
		if artifact.Path != "" {
			status.Logf("Your screen recording has been saved to %s.", artifact.Path)
		} else {
			status.Logf("Your screen recording is ready to download as %s.", artifact.Filename)
		}
		if loc, perr := s.deps.Publisher.Publish(ctx, artifact); perr != nil {
			log.Error("failed to publish recording", "err", perr)
			status.Logf("Uploading the recording failed.")
		} else if loc != "" {
			status.Logf("Your screen recording has been uploaded to %s.", loc)
		}
	}

	s.mu.Lock()
	s.artifact = artifact
	s.err = err
	s.finishedAt = finishedAt
	s.state = StateIdle
	onDone := s.onDone
	s.mu.Unlock()

	if onDone != nil {
		onDone(s)
	}
	close(s.done)
}

// Done is closed once a started session has been finalized.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session is finalized and returns its recording.
func (s *Session) Wait(ctx context.Context) (*sink.Artifact, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact, s.err
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	ID          string
	State       State
	StopEnabled bool
	Policy      audiograph.Policy
	Trigger     Trigger
	MimeType    string
	StartedAt   time.Time
	FinishedAt  time.Time
	Chunks      int
	Bytes       int64
	ArtifactID  string
	Err         error
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:          s.id,
		State:       s.state,
		StopEnabled: s.stopEnabled,
		Policy:      s.policy,
		Trigger:     s.trigger,
		StartedAt:   s.startedAt,
		FinishedAt:  s.finishedAt,
		Err:         s.err,
	}
	if s.rec != nil {
		snap.MimeType = s.rec.MimeType()
		meta := s.rec.Metadata()
		snap.Chunks = meta.Chunks
		snap.Bytes = meta.Size
	}
	if s.artifact != nil {
		snap.ArtifactID = s.artifact.ID
	}
	return snap
}

// Tracks returns every track the session acquired, for inspection.
func (s *Session) Tracks() []*media.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*media.Track
	out = append(out, s.mic.Tracks()...)
	out = append(out, s.display.Tracks()...)
	if s.mixed != nil {
		out = append(out, s.mixed)
	}
	return out
}

// Stream returns the composed stream being recorded.
func (s *Session) Stream() *media.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

func releaseAll(mic, display *media.Stream, mixed *media.Track) {
	mic.Stop()
	display.Stop()
	if mixed != nil {
		mixed.Stop()
	}
}

func drainAndDiscard(rec recorder.Recorder) {
	data := rec.Data()
	if data == nil {
		return
	}
	for range data {
	}
}
