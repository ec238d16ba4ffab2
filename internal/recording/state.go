package recording

// State is the capture state.
type State int

const (
	Idle State = iota
	Capturing
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "recording"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}
