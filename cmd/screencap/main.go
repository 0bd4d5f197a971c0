package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nrednav/cuid2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/onkernel/screencap/cmd/config"
	"github.com/onkernel/screencap/lib/capture"
	"github.com/onkernel/screencap/lib/idleinhibit"
	"github.com/onkernel/screencap/lib/logger"
	"github.com/onkernel/screencap/lib/recorder"
	"github.com/onkernel/screencap/lib/session"
	"github.com/onkernel/screencap/lib/statuslog"
)

var version = "0.1.0"

var (
	outPath       string
	frameRate     int
	maxDuration   int
	containerName string
	noSystemAudio bool
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:          "screencap",
	Short:        "Record the screen and microphone",
	SilenceUsage: true,
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record until Enter, Ctrl-C or the display going away",
	Long: `Record the display together with the microphone and the system audio.

The recording is written to --out while it is captured. Press Enter (or send
SIGINT) to stop; closing the display stops the recording as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecord(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("screencap v%s\n", version)
	},
}

func init() {
	recordCmd.Flags().StringVarP(&outPath, "out", "o", "", "file to write the recording to (extension added from the container when missing)")
	recordCmd.Flags().IntVar(&frameRate, "frame-rate", 0, "capture frame rate (default from FRAME_RATE)")
	recordCmd.Flags().IntVar(&maxDuration, "max-duration", 0, "stop after this many seconds")
	recordCmd.Flags().StringVar(&containerName, "container", "", "webm, mp4 or mkv (default from CONTAINER)")
	recordCmd.Flags().BoolVar(&noSystemAudio, "no-system-audio", false, "do not record the audio playing on the display")
	recordCmd.MarkFlagRequired("out")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRecord(ctx context.Context) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	params := cfg.RecorderParams()
	if containerName != "" {
		c, err := recorder.ParseContainer(containerName)
		if err != nil {
			return err
		}
		params.Container = &c
	}
	if maxDuration > 0 {
		params.MaxDurationInSeconds = &maxDuration
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid recording parameters: %w", err)
	}

	dest, err := filepath.Abs(outPath)
	if err != nil {
		return err
	}
	if filepath.Ext(dest) == "" {
		dest += "." + string(*params.Container)
	}

	var idle idleinhibit.Controller = idleinhibit.NewNoopController()
	if cfg.InhibitIdle {
		idle = idleinhibit.NewXsetController(fmt.Sprintf(":%d", cfg.DisplayNum))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.AddToContext(ctx, slogger)

	sess := session.New(cuid2.Generate(), session.Deps{
		Devices: capture.NewFFmpegDevices(capture.Config{
			FFmpegPath:        cfg.PathToFFmpeg,
			DisplayNum:        cfg.DisplayNum,
			FrameRate:         cfg.FrameRate,
			MicDevice:         cfg.MicDevice,
			SystemAudioDevice: cfg.SystemAudioDevice,
			X11SocketDir:      cfg.X11SocketDir,
		}),
		Recorders: recorder.NewFFmpegRecorderFactory(cfg.PathToFFmpeg, params, idle),
		Status:    statuslog.New(slogger),
	})

	opts := session.Options{
		Destination: dest,
		Display:     capture.DisplayOptions{Audio: !noSystemAudio},
	}
	if frameRate > 0 {
		opts.Display.FrameRate = &frameRate
	}
	if err := sess.Start(ctx, opts); err != nil {
		return err
	}

	enter := make(chan struct{})
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "Recording. Press Enter to stop.")
		go func() {
			bufio.NewReader(os.Stdin).ReadString('\n')
			close(enter)
		}()
	}

	select {
	case <-ctx.Done():
	case <-enter:
	case <-sess.Done():
	}
	// a no-op when the display or the encoder already ended the recording
	sess.Stop(context.WithoutCancel(ctx))

	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()
	artifact, err := sess.Wait(waitCtx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d bytes, %s)\n", artifact.Path, artifact.Size, artifact.MimeType)
	return nil
}
