package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"video/webm":                 ".webm",
		"video/webm;codecs=vp8,opus": ".webm",
		"VIDEO/MP4; codecs=avc1":     ".mp4",
		"video/ogg":                  ".ogg",
		"video/quicktime":            ".mov",
		"video/x-msvideo":            ".avi",
		"video/x-ms-wmv":             ".wmv",
		"video/x-flv":                ".flv",
		"video/x-matroska":           ".mkv",
		"video/3gpp":                 ".3gp",
		"video/3gpp2":                ".3g2",
		"video/unknown":              "",
		"":                           "",
	}
	for mime, want := range tests {
		assert.Equal(t, want, ExtensionFor(mime), mime)
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "screenrecording.webm", Filename("screenrecording", "video/webm"))
	assert.Equal(t, "screenrecording", Filename("screenrecording", "application/x-custom"))
}
