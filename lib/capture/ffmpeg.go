package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/onkernel/screencap/lib/logger"
	"github.com/onkernel/screencap/lib/media"
)

const (
	defaultX11SocketDir = "/tmp/.X11-unix"
	defaultOpenTimeout  = 3 * time.Second
	// PulseAudio resolves this to the monitor of the default sink.
	defaultSystemAudioDevice = "@DEFAULT_MONITOR@"
)

// Config describes the capture devices of the host.
type Config struct {
	// FFmpegPath is used to test-open capture devices. Defaults to "ffmpeg".
	FFmpegPath string
	DisplayNum int
	FrameRate  int
	// MicDevice is the PulseAudio source (linux) or AVFoundation audio
	// device index (darwin). Empty disables the microphone.
	MicDevice string
	// SystemAudioDevice is the PulseAudio source carrying what the display
	// plays. Empty defaults to the default sink's monitor.
	SystemAudioDevice string
	X11SocketDir      string
	OpenTimeout       time.Duration
}

// FFmpegDevices opens capture devices the way ffmpeg reads them: PulseAudio
// and x11grab on linux, AVFoundation on darwin.
type FFmpegDevices struct {
	cfg  Config
	goos string
}

func NewFFmpegDevices(cfg Config) *FFmpegDevices {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.X11SocketDir == "" {
		cfg.X11SocketDir = defaultX11SocketDir
	}
	if cfg.SystemAudioDevice == "" {
		cfg.SystemAudioDevice = defaultSystemAudioDevice
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	return &FFmpegDevices{cfg: cfg, goos: runtime.GOOS}
}

func (d *FFmpegDevices) Microphone(ctx context.Context) (*media.Stream, error) {
	if d.cfg.MicDevice == "" {
		return nil, fmt.Errorf("microphone: %w", ErrDeviceNotFound)
	}

	var src media.Source
	switch d.goos {
	case "linux":
		src = media.Source{Format: "pulse", Device: d.cfg.MicDevice, Options: []string{"-thread_queue_size", "512"}}
	case "darwin":
		src = media.Source{Format: "avfoundation", Device: ":" + d.cfg.MicDevice}
	default:
		return nil, fmt.Errorf("microphone on %s: %w", d.goos, ErrUnsupportedPlatform)
	}

	if err := d.tryOpen(ctx, src); err != nil {
		return nil, fmt.Errorf("microphone %s: %w: %v", d.cfg.MicDevice, ErrPermissionDenied, err)
	}
	return media.NewStream(media.NewTrack(media.KindAudio, "microphone "+d.cfg.MicDevice, src)), nil
}

func (d *FFmpegDevices) Display(ctx context.Context, opts DisplayOptions) (*media.Stream, error) {
	log := logger.FromContext(ctx)

	frameRate := d.cfg.FrameRate
	if opts.FrameRate != nil {
		frameRate = *opts.FrameRate
	}

	switch d.goos {
	case "linux":
		socket := d.socketPath()
		if _, err := os.Stat(socket); err != nil {
			return nil, fmt.Errorf("display :%d: %w: %v", d.cfg.DisplayNum, ErrPermissionDenied, err)
		}
		video := media.NewTrack(media.KindVideo, fmt.Sprintf("display :%d", d.cfg.DisplayNum), media.Source{
			Format: "x11grab",
			Device: fmt.Sprintf(":%d", d.cfg.DisplayNum),
			Options: []string{
				"-framerate", strconv.Itoa(frameRate),
				"-draw_mouse", "1",
				"-thread_queue_size", "512",
			},
		})
		if err := WatchDisplay(ctx, d.cfg.X11SocketDir, d.cfg.DisplayNum, video); err != nil {
			// without the watcher the display can still be stopped explicitly
			log.Warn("failed to watch display socket", "err", err, "display", d.cfg.DisplayNum)
		}

		tracks := []*media.Track{video}
		if opts.Audio {
			src := media.Source{Format: "pulse", Device: d.cfg.SystemAudioDevice, Options: []string{"-thread_queue_size", "512"}}
			if err := d.tryOpen(ctx, src); err != nil {
				log.Info("system audio unavailable, sharing display without it", "err", err, "device", d.cfg.SystemAudioDevice)
			} else {
				tracks = append(tracks, media.NewTrack(media.KindAudio, "system audio", src))
			}
		}
		return media.NewStream(tracks...), nil
	case "darwin":
		// AVFoundation has no loopback audio device, so display audio is never offered.
		video := media.NewTrack(media.KindVideo, fmt.Sprintf("screen %d", d.cfg.DisplayNum), media.Source{
			Format: "avfoundation",
			Device: fmt.Sprintf("%d:none", d.cfg.DisplayNum),
			Options: []string{
				"-framerate", strconv.Itoa(frameRate),
				"-pixel_format", "nv12",
				"-capture_cursor", "1",
			},
		})
		return media.NewStream(video), nil
	default:
		return nil, fmt.Errorf("display on %s: %w", d.goos, ErrUnsupportedPlatform)
	}
}

func (d *FFmpegDevices) socketPath() string {
	return filepath.Join(d.cfg.X11SocketDir, fmt.Sprintf("X%d", d.cfg.DisplayNum))
}

// tryOpen opens the source for a fraction of a second to learn whether the
// device can actually be read.
func (d *FFmpegDevices) tryOpen(ctx context.Context, src media.Source) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.OpenTimeout)
	defer cancel()

	args := []string{"-hide_banner", "-nostdin", "-loglevel", "error"}
	args = append(args, src.InputArgs()...)
	args = append(args, "-t", "0.2", "-f", "null", "-")

	out, err := exec.CommandContext(ctx, d.cfg.FFmpegPath, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
