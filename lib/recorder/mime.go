package recorder

import (
	"strings"
)

// extensions maps container MIME types to conventional file extensions.
var extensions = map[string]string{
	"video/webm":       ".webm",
	"video/mp4":        ".mp4",
	"video/ogg":        ".ogg",
	"video/quicktime":  ".mov",
	"video/x-msvideo":  ".avi",
	"video/x-ms-wmv":   ".wmv",
	"video/x-flv":      ".flv",
	"video/x-matroska": ".mkv",
	"video/3gpp":       ".3gp",
	"video/3gpp2":      ".3g2",
}

// ExtensionFor returns the file extension for a MIME type. Parameters such as
// codecs are ignored. Unknown types yield "".
func ExtensionFor(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return extensions[strings.ToLower(strings.TrimSpace(base))]
}

// Filename appends the extension inferred from mimeType to base.
func Filename(base, mimeType string) string {
	return base + ExtensionFor(mimeType)
}
