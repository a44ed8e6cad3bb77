package refresh

import "fmt"

// State is the position of the loop in its fetch cycle.
type State int32

const (
	Idle State = iota
	Fetching
	Applying
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Applying:
		return "applying"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText lets State render as its name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Idle, Fetching, Applying, Failed} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("refresh: unknown state %q", text)
}
