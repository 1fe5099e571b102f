package session

// State is the mode of a Controller.
type State int

const (
	// Off sends requests to the network and records nothing.
	Off State = iota
	// Capturing sends requests to the network and writes fixtures.
	Capturing
	// Mocking answers requests from fixtures without network access.
	Mocking
)

func (s State) String() string {
	switch s {
	case Off:
		return "off"
	case Capturing:
		return "capturing"
	case Mocking:
		return "mocking"
	default:
		return "unknown"
	}
}
