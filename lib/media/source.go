package media

// Source describes how ffmpeg opens the device behind a track.
type Source struct {
	// Format is the ffmpeg demuxer, e.g. "x11grab", "pulse" or "avfoundation".
	Format string
	// Device is the value passed to -i.
	Device string
	// Options are input options placed before -i.
	Options []string
}

// InputArgs renders the source as ffmpeg input arguments.
func (s Source) InputArgs() []string {
	args := make([]string, 0, len(s.Options)+4)
	args = append(args, "-f", s.Format)
	args = append(args, s.Options...)
	args = append(args, "-i", s.Device)
	return args
}

func (s Source) String() string {
	return s.Format + ":" + s.Device
}
