package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sys/unix"

	"github.com/onkernel/screencap/lib/idleinhibit"
	"github.com/onkernel/screencap/lib/logger"
	"github.com/onkernel/screencap/lib/media"
)

const (
	// arbitrary value to indicate we have not yet received an exit code from the process
	exitCodeInitValue = math.MinInt

	// the exit codes returned by the stdlib:
	// -1 if the process hasn't exited yet or was terminated by a signal
	// 0 if the process exited successfully
	// >0 if the process exited with a non-zero exit code
	exitCodeProcessDoneMinValue = -1

	defaultChunkSize = 64 * 1024
	dataBuffer       = 16
)

// FFmpegRecorder encodes a composed capture stream with a single ffmpeg
// process writing the container to stdout. Every read from stdout becomes
// one chunk on Data.
type FFmpegRecorder struct {
	mu sync.Mutex

	id         string
	binaryPath string // path to the ffmpeg binary to execute. Defaults to "ffmpeg".
	stream     *media.Stream
	params     Params
	cmd        *exec.Cmd
	startTime  time.Time
	endTime    time.Time
	ffmpegErr  error
	exitCode   int
	size       int64
	chunks     int
	exited     chan struct{}
	data       chan []byte
	idle       *idleinhibit.Oncer
}

type Params struct {
	Container   *Container
	MaxSizeInMB *int
	// MaxDurationInSeconds optionally limits the total recording time. If nil there is no duration limit.
	MaxDurationInSeconds *int
	ChunkSizeInKB        *int
}

func (p Params) Validate() error {
	if p.Container == nil {
		return fmt.Errorf("container is required")
	}
	if _, ok := containers[*p.Container]; !ok {
		return fmt.Errorf("unsupported container %q", *p.Container)
	}
	if p.MaxSizeInMB == nil {
		return fmt.Errorf("max size in MB is required")
	}
	if *p.MaxSizeInMB <= 0 {
		return fmt.Errorf("max size must be greater than 0 MB")
	}
	if p.MaxDurationInSeconds != nil && *p.MaxDurationInSeconds <= 0 {
		return fmt.Errorf("max duration must be greater than 0 seconds")
	}
	if p.ChunkSizeInKB != nil && *p.ChunkSizeInKB <= 0 {
		return fmt.Errorf("chunk size must be greater than 0 KB")
	}
	return nil
}

func (p Params) chunkSize() int {
	if p.ChunkSizeInKB == nil {
		return defaultChunkSize
	}
	return *p.ChunkSizeInKB * 1024
}

// NewFFmpegRecorderFactory returns a factory that creates new recorders. The provided
// pathToFFmpeg is used as the binary to execute; if empty it defaults to "ffmpeg" which
// is expected to be discoverable on the host's PATH.
func NewFFmpegRecorderFactory(pathToFFmpeg string, config Params, ctrl idleinhibit.Controller) Factory {
	if pathToFFmpeg == "" {
		pathToFFmpeg = "ffmpeg"
	}
	return func(id string, stream *media.Stream, overrides Params) (Recorder, error) {
		merged := mergeParams(config, overrides)
		if err := merged.Validate(); err != nil {
			return nil, err
		}
		return &FFmpegRecorder{
			id:         id,
			binaryPath: pathToFFmpeg,
			stream:     stream,
			params:     merged,
			exitCode:   exitCodeInitValue,
			idle:       idleinhibit.NewOncer(ctrl),
		}, nil
	}
}

func mergeParams(config Params, overrides Params) Params {
	merged := config
	if overrides.Container != nil {
		merged.Container = overrides.Container
	}
	if overrides.MaxSizeInMB != nil {
		merged.MaxSizeInMB = overrides.MaxSizeInMB
	}
	if overrides.MaxDurationInSeconds != nil {
		merged.MaxDurationInSeconds = overrides.MaxDurationInSeconds
	}
	if overrides.ChunkSizeInKB != nil {
		merged.ChunkSizeInKB = overrides.ChunkSizeInKB
	}
	return merged
}

// ID returns the unique identifier for this recorder.
func (fr *FFmpegRecorder) ID() string {
	return fr.id
}

func (fr *FFmpegRecorder) MimeType() string {
	return mimeTypeFor(*fr.params.Container, len(fr.stream.AudioTracks()) > 0)
}

// Data returns the chunk channel. It is nil until Start has been called.
func (fr *FFmpegRecorder) Data() <-chan []byte {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.data
}

// Start launches ffmpeg and begins emitting chunks.
func (fr *FFmpegRecorder) Start(ctx context.Context) error {
	log := logger.FromContext(ctx)
	// the encoder outlives the request that started it
	bgCtx := context.WithoutCancel(ctx)

	fr.mu.Lock()
	if fr.cmd != nil {
		fr.mu.Unlock()
		return fmt.Errorf("recording already in progress")
	}

	args, err := ffmpegArgs(fr.params, fr.stream)
	if err != nil {
		fr.mu.Unlock()
		return err
	}

	if err := fr.idle.Disable(ctx); err != nil {
		// a screen saver kicking in degrades the capture but does not break it
		log.Warn("failed to inhibit idle blanking", "err", err)
	}

	// ensure internal state
	fr.ffmpegErr = nil
	fr.exitCode = exitCodeInitValue
	fr.startTime = time.Now()
	fr.exited = make(chan struct{})
	fr.data = make(chan []byte, dataBuffer)

	log.Info(fmt.Sprintf("%s %s", fr.binaryPath, strings.Join(args, " ")))

	cmd := exec.Command(fr.binaryPath, args...)
	// create process group to ensure all processes are signaled together
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		fr.failStartLocked(bgCtx, err)
		fr.mu.Unlock()
		return fmt.Errorf("failed to attach ffmpeg stdout: %w", err)
	}
	fr.cmd = cmd
	fr.mu.Unlock()

	if err := cmd.Start(); err != nil {
		fr.mu.Lock()
		fr.failStartLocked(bgCtx, err)
		fr.cmd = nil // reset cmd on failure to start so State() remains correct
		fr.mu.Unlock()
		return fmt.Errorf("failed to start ffmpeg process: %w", err)
	}

	go fr.run(bgCtx, stdout)

	// Check for startup errors before returning
	if err := waitForChan(ctx, 250*time.Millisecond, fr.exited); err == nil {
		fr.mu.Lock()
		defer fr.mu.Unlock()
		if fr.ffmpegErr != nil {
			return fmt.Errorf("failed to start ffmpeg process: %w", fr.ffmpegErr)
		}
	}

	return nil
}

func (fr *FFmpegRecorder) failStartLocked(ctx context.Context, err error) {
	_ = fr.idle.Enable(ctx)
	fr.ffmpegErr = err
	close(fr.exited)
	close(fr.data)
}

// Stop gracefully stops the recording using a multi-phase shutdown process.
// ffmpeg writes the container trailer on SIGINT, so the interrupt phases come first.
func (fr *FFmpegRecorder) Stop(ctx context.Context) error {
	defer fr.idle.Enable(ctx)
	return fr.shutdownInPhases(ctx, []shutdownPhase{
		{"wake_and_interrupt", []syscall.Signal{syscall.SIGCONT, syscall.SIGINT}, 5 * time.Second, "graceful stop"},
		{"retry_interrupt", []syscall.Signal{syscall.SIGINT}, 3 * time.Second, "retry graceful stop"},
		{"terminate", []syscall.Signal{syscall.SIGTERM}, 250 * time.Millisecond, "forceful termination"},
		{"kill", []syscall.Signal{syscall.SIGKILL}, 100 * time.Millisecond, "immediate kill"},
	})
}

// ForceStop immediately terminates the recording process.
func (fr *FFmpegRecorder) ForceStop(ctx context.Context) error {
	defer fr.idle.Enable(ctx)
	return fr.shutdownInPhases(ctx, []shutdownPhase{
		{"kill", []syscall.Signal{syscall.SIGKILL}, 100 * time.Millisecond, "immediate kill"},
	})
}

func (fr *FFmpegRecorder) State() State {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if fr.cmd != nil && fr.exitCode < exitCodeProcessDoneMinValue {
		return StateRecording
	}
	return StateInactive
}

func (fr *FFmpegRecorder) Err() error {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.ffmpegErr
}

// Metadata is an incomplete snapshot of the recording metadata while recording.
func (fr *FFmpegRecorder) Metadata() *RecordingMetadata {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	return &RecordingMetadata{
		Size:      fr.size,
		Chunks:    fr.chunks,
		StartTime: fr.startTime,
		EndTime:   fr.endTime,
	}
}

// ffmpegArgs generates the ffmpeg command line for a composed stream. Every
// source becomes an input in track order; filtered tracks are joined through
// -filter_complex and every track is mapped into the output once.
func ffmpegArgs(params Params, stream *media.Stream) ([]string, error) {
	if n := len(stream.VideoTracks()); n != 1 {
		return nil, fmt.Errorf("stream must carry exactly one video track, got %d", n)
	}
	if n := len(stream.AudioTracks()); n > 1 {
		return nil, fmt.Errorf("stream must carry at most one audio track, got %d", n)
	}

	args := []string{"-hide_banner", "-nostdin", "-loglevel", "error"}

	var filters, maps []string
	input := 0
	for i, track := range stream.Tracks() {
		sources := track.Sources()
		if len(sources) == 0 {
			return nil, fmt.Errorf("track %s has no sources", track.Label())
		}
		first := input
		for _, src := range sources {
			args = append(args, src.InputArgs()...)
			input++
		}

		spec := "v"
		if track.Kind() == media.KindAudio {
			spec = "a"
		}
		if track.Filter() == "" {
			if len(sources) != 1 {
				return nil, fmt.Errorf("track %s has %d sources but no filter", track.Label(), len(sources))
			}
			maps = append(maps, "-map", fmt.Sprintf("%d:%s", first, spec))
			continue
		}

		label := fmt.Sprintf("t%d", i)
		pads := lo.Map(lo.RangeFrom(first, len(sources)), func(idx int, _ int) string {
			return fmt.Sprintf("[%d:%s]", idx, spec)
		})
		filters = append(filters, fmt.Sprintf("%s%s[%s]", strings.Join(pads, ""), track.Filter(), label))
		maps = append(maps, "-map", "["+label+"]")
	}

	if len(filters) > 0 {
		args = append(args, "-filter_complex", strings.Join(filters, ";"))
	}
	args = append(args, maps...)

	spec := containers[*params.Container]
	args = append(args, spec.videoArgs...)
	if len(stream.AudioTracks()) > 0 {
		args = append(args, spec.audioArgs...)
	}

	args = append(args,
		// Timestamp handling for reliable playback
		"-avoid_negative_ts", "make_zero",
		"-fs", fmt.Sprintf("%dM", *params.MaxSizeInMB),
	)
	if params.MaxDurationInSeconds != nil {
		args = append(args, "-t", strconv.Itoa(*params.MaxDurationInSeconds))
	}
	args = append(args, spec.muxerArgs...)
	args = append(args, "-f", spec.muxer, "pipe:1")

	return args, nil
}

// run copies stdout into chunks until ffmpeg closes it, then waits for the
// process and publishes the final state. It is the only writer of data, so
// chunks are delivered in the order ffmpeg produced them.
func (fr *FFmpegRecorder) run(ctx context.Context, stdout io.Reader) {
	defer fr.idle.Enable(ctx)

	log := logger.FromContext(ctx)
	buf := make([]byte, fr.params.chunkSize())
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			fr.mu.Lock()
			fr.size += int64(n)
			fr.chunks++
			fr.mu.Unlock()
			fr.data <- chunk
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				log.Error("failed reading ffmpeg output", "err", err)
			}
			break
		}
	}

	// wait for the process to complete and extract the exit code
	err := fr.cmd.Wait()

	// update internal state and cleanup
	fr.mu.Lock()
	fr.ffmpegErr = err
	fr.exitCode = fr.cmd.ProcessState.ExitCode()
	fr.endTime = time.Now()
	exitCode := fr.exitCode
	close(fr.exited)
	close(fr.data)
	fr.mu.Unlock()

	if err != nil {
		log.Info("ffmpeg process completed with error", "err", err, "exitCode", exitCode)
	} else {
		log.Info("ffmpeg process completed successfully", "exitCode", exitCode)
	}
}

type shutdownPhase struct {
	name    string
	signals []syscall.Signal
	timeout time.Duration
	desc    string
}

func (fr *FFmpegRecorder) shutdownInPhases(ctx context.Context, phases []shutdownPhase) error {
	log := logger.FromContext(ctx)

	// capture immutable references under lock
	fr.mu.Lock()
	exitCode := fr.exitCode
	cmd := fr.cmd
	done := fr.exited
	fr.mu.Unlock()

	if exitCode >= exitCodeProcessDoneMinValue {
		log.Info("ffmpeg process has already exited")
		return nil
	}
	if cmd == nil || cmd.Process == nil {
		return fmt.Errorf("no recording to stop")
	}

	pgid := -cmd.Process.Pid // negative PGID targets the whole group
	for _, phase := range phases {
		phaseStartTime := time.Now()
		// short circuit: the process exited before this phase started.
		select {
		case <-done:
			return nil
		default:
		}

		log.Info("ffmpeg shutdown phase", "phase", phase.name, "desc", phase.desc)

		// Send the phase's signals in order.
		for idx, sig := range phase.signals {
			_ = unix.Kill(pgid, sig) // ignore error; process may have gone away
			// arbitrary delay between signals, but not after the last signal
			if idx < len(phase.signals)-1 {
				time.Sleep(100 * time.Millisecond)
			}
		}

		// Wait for exit or timeout
		if err := waitForChan(ctx, phase.timeout-time.Since(phaseStartTime), done); err == nil {
			log.Info("ffmpeg shutdown successful", "phase", phase.name)
			return nil
		}
	}

	return fmt.Errorf("failed to shutdown ffmpeg")
}

// waitForChan returns nil if and only if the channel is closed
func waitForChan(ctx context.Context, timeout time.Duration, c <-chan struct{}) error {
	select {
	case <-c:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("process did not exit within %v timeout", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
