package recorder

import (
	"fmt"
	"strings"
)

// Container is an output format the recorder can negotiate.
type Container string

const (
	ContainerWebM     Container = "webm"
	ContainerMP4      Container = "mp4"
	ContainerMatroska Container = "mkv"
)

type containerSpec struct {
	mimeType   string
	videoCodec string
	audioCodec string
	muxer      string
	videoArgs  []string
	audioArgs  []string
	muxerArgs  []string
}

var containers = map[Container]containerSpec{
	ContainerWebM: {
		mimeType:   "video/webm",
		videoCodec: "vp8",
		audioCodec: "opus",
		muxer:      "webm",
		videoArgs:  []string{"-c:v", "libvpx", "-deadline", "realtime", "-cpu-used", "8", "-b:v", "2M"},
		audioArgs:  []string{"-c:a", "libopus", "-b:a", "128k"},
	},
	ContainerMP4: {
		mimeType:   "video/mp4",
		videoCodec: "avc1",
		audioCodec: "mp4a",
		muxer:      "mp4",
		videoArgs:  []string{"-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p"},
		audioArgs:  []string{"-c:a", "aac", "-b:a", "128k"},
		// a pipe cannot be seeked, so the moov atom has to come first
		muxerArgs: []string{"-movflags", "+frag_keyframe+empty_moov", "-frag_duration", "2000000"},
	},
	ContainerMatroska: {
		mimeType:   "video/x-matroska",
		videoCodec: "avc1",
		audioCodec: "opus",
		muxer:      "matroska",
		videoArgs:  []string{"-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p"},
		audioArgs:  []string{"-c:a", "libopus", "-b:a", "128k"},
	},
}

func ParseContainer(s string) (Container, error) {
	c := Container(strings.ToLower(s))
	if _, ok := containers[c]; !ok {
		return "", fmt.Errorf("unsupported container %q", s)
	}
	return c, nil
}

// mimeTypeFor renders the negotiated MIME type, listing only the codecs that
// will actually be present.
func mimeTypeFor(c Container, hasAudio bool) string {
	spec := containers[c]
	codecs := spec.videoCodec
	if hasAudio {
		codecs += "," + spec.audioCodec
	}
	return fmt.Sprintf("%s;codecs=%s", spec.mimeType, codecs)
}
