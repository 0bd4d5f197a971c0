package audiograph

// Policy says which audio ends up in the recorded stream.
type Policy string

const (
	// PolicyMix routes microphone and display audio into one mixed track.
	PolicyMix Policy = "mix"
	// PolicyMicrophone uses the microphone track as is.
	PolicyMicrophone Policy = "microphone"
	// PolicyDisplay uses the display audio track as is.
	PolicyDisplay Policy = "display"
	// PolicyNone records video only.
	PolicyNone Policy = "none"
)

// Choose picks the audio policy from the audio sources that were granted.
func Choose(hasMic, hasDisplayAudio bool) Policy {
	switch {
	case hasMic && hasDisplayAudio:
		return PolicyMix
	case hasMic:
		return PolicyMicrophone
	case hasDisplayAudio:
		return PolicyDisplay
	default:
		return PolicyNone
	}
}
