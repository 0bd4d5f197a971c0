package recorder

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onkernel/screencap/lib/idleinhibit"
	"github.com/onkernel/screencap/lib/media"
)

var (
	mockBin       = filepath.Join("testdata", "mock_ffmpeg.sh")
	mockFailBin   = filepath.Join("testdata", "mock_ffmpeg_fail.sh")
	mockSilentBin = filepath.Join("testdata", "mock_ffmpeg_silent.sh")
)

func defaultParams() Params {
	c := ContainerWebM
	size := 1
	return Params{
		Container:   &c,
		MaxSizeInMB: &size,
	}
}

func screenOnly() *media.Stream {
	return media.NewStream(media.NewTrack(media.KindVideo, "screen", media.Source{Format: "x11grab", Device: ":1"}))
}

func newTestRecorder(bin string, stream *media.Stream) *FFmpegRecorder {
	return &FFmpegRecorder{
		id:         "test",
		binaryPath: bin,
		stream:     stream,
		params:     defaultParams(),
		exitCode:   exitCodeInitValue,
		idle:       idleinhibit.NewOncer(idleinhibit.NewNoopController()),
	}
}

// drain collects every chunk until the recorder's data channel closes.
func drain(rec Recorder) <-chan [][]byte {
	out := make(chan [][]byte, 1)
	data := rec.Data()
	go func() {
		var chunks [][]byte
		for c := range data {
			chunks = append(chunks, c)
		}
		out <- chunks
	}()
	return out
}

func TestFFmpegRecorder_StartAndStop(t *testing.T) {
	rec := newTestRecorder(mockBin, screenOnly())
	require.Equal(t, StateInactive, rec.State())

	require.NoError(t, rec.Start(t.Context()))
	require.Equal(t, StateRecording, rec.State())
	collected := drain(rec)

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, rec.Stop(t.Context()))
	chunks := <-collected
	require.Equal(t, StateInactive, rec.State())

	// chunks arrive in emission order and nothing is lost
	all := bytes.Join(chunks, nil)
	lines := strings.Split(strings.TrimSpace(string(all)), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	for i, line := range lines[:len(lines)-1] {
		assert.Equal(t, fmt.Sprintf("chunk-%d", i), line)
	}
	assert.Equal(t, "trailer", lines[len(lines)-1])

	meta := rec.Metadata()
	assert.Equal(t, len(chunks), meta.Chunks)
	assert.Equal(t, int64(len(all)), meta.Size)
	assert.False(t, meta.EndTime.Before(meta.StartTime))
	assert.NoError(t, rec.Err())
}

func TestFFmpegRecorder_ForceStop(t *testing.T) {
	rec := newTestRecorder(mockBin, screenOnly())
	require.NoError(t, rec.Start(t.Context()))
	collected := drain(rec)

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, rec.ForceStop(t.Context()))
	<-collected
	require.Equal(t, StateInactive, rec.State())
	assert.Contains(t, rec.cmd.ProcessState.String(), "killed")
}

func TestFFmpegRecorder_StopTwiceIsNoop(t *testing.T) {
	rec := newTestRecorder(mockBin, screenOnly())
	require.NoError(t, rec.Start(t.Context()))
	collected := drain(rec)

	require.NoError(t, rec.Stop(t.Context()))
	<-collected
	require.NoError(t, rec.Stop(t.Context()))
}

func TestFFmpegRecorder_ZeroChunks(t *testing.T) {
	rec := newTestRecorder(mockSilentBin, screenOnly())
	require.NoError(t, rec.Start(t.Context()))
	collected := drain(rec)

	require.NoError(t, rec.Stop(t.Context()))
	assert.Empty(t, <-collected)
	assert.Equal(t, 0, rec.Metadata().Chunks)
}

func TestFFmpegRecorder_StartFailure(t *testing.T) {
	rec := newTestRecorder(mockFailBin, screenOnly())
	err := rec.Start(t.Context())
	require.Error(t, err)
	assert.Equal(t, StateInactive, rec.State())

	// the data channel is closed so consumers never hang
	_, ok := <-rec.Data()
	assert.False(t, ok)
}

func TestFFmpegRecorder_StartTwice(t *testing.T) {
	rec := newTestRecorder(mockBin, screenOnly())
	require.NoError(t, rec.Start(t.Context()))
	collected := drain(rec)
	t.Cleanup(func() {
		_ = rec.ForceStop(t.Context())
		<-collected
	})

	require.Error(t, rec.Start(t.Context()))
}

func TestFFmpegArgs_MixedAudio(t *testing.T) {
	mixed := media.NewFilteredTrack(media.KindAudio, "mixed audio", "amix=inputs=2:duration=longest:dropout_transition=0",
		media.Source{Format: "pulse", Device: "mic"},
		media.Source{Format: "pulse", Device: "sink.monitor"},
	)
	video := media.NewTrack(media.KindVideo, "screen", media.Source{Format: "x11grab", Device: ":1", Options: []string{"-framerate", "30"}})

	dur := 60
	params := defaultParams()
	params.MaxDurationInSeconds = &dur
	args, err := ffmpegArgs(params, media.NewStream(mixed, video))
	require.NoError(t, err)

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-f pulse -i mic -f pulse -i sink.monitor -f x11grab -framerate 30 -i :1")
	assert.Contains(t, joined, "-filter_complex [0:a][1:a]amix=inputs=2:duration=longest:dropout_transition=0[t0]")
	assert.Contains(t, joined, "-map [t0] -map 2:v")
	assert.Contains(t, joined, "-c:a libopus")
	assert.Contains(t, joined, "-t 60")
	assert.True(t, strings.HasSuffix(joined, "-f webm pipe:1"))
}

func TestFFmpegArgs_VideoOnly(t *testing.T) {
	args, err := ffmpegArgs(defaultParams(), screenOnly())
	require.NoError(t, err)

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-map 0:v")
	assert.NotContains(t, joined, "-filter_complex")
	assert.NotContains(t, joined, "-c:a")
	assert.Contains(t, joined, "-fs 1M")
}

func TestFFmpegArgs_RejectsInvalidStreams(t *testing.T) {
	_, err := ffmpegArgs(defaultParams(), media.NewStream())
	require.Error(t, err)

	a := media.NewTrack(media.KindAudio, "a", media.Source{Format: "pulse", Device: "a"})
	b := media.NewTrack(media.KindAudio, "b", media.Source{Format: "pulse", Device: "b"})
	_, err = ffmpegArgs(defaultParams(), media.NewStream(a, b, screenOnly().VideoTracks()[0]))
	require.Error(t, err)
}

func TestFFmpegArgs_MP4IsFragmented(t *testing.T) {
	params := defaultParams()
	c := ContainerMP4
	params.Container = &c
	args, err := ffmpegArgs(params, screenOnly())
	require.NoError(t, err)
	assert.Contains(t, strings.Join(args, " "), "-movflags +frag_keyframe+empty_moov")
}

func TestFactory_MergesAndValidates(t *testing.T) {
	factory := NewFFmpegRecorderFactory(mockBin, defaultParams(), idleinhibit.NewNoopController())

	c := ContainerMatroska
	rec, err := factory("abc", screenOnly(), Params{Container: &c})
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.ID())
	assert.Equal(t, "video/x-matroska;codecs=avc1", rec.MimeType())

	zero := 0
	_, err = factory("bad", screenOnly(), Params{MaxDurationInSeconds: &zero})
	require.Error(t, err)
}

func TestMimeTypeListsAudioCodecOnlyWithAudio(t *testing.T) {
	assert.Equal(t, "video/webm;codecs=vp8,opus", mimeTypeFor(ContainerWebM, true))
	assert.Equal(t, "video/webm;codecs=vp8", mimeTypeFor(ContainerWebM, false))
}

func TestParseContainer(t *testing.T) {
	c, err := ParseContainer("MP4")
	require.NoError(t, err)
	assert.Equal(t, ContainerMP4, c)

	_, err = ParseContainer("avi")
	require.Error(t, err)
}
