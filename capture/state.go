// SPDX-License-Identifier: EPL-2.0

package capture

// State is the recorder lifecycle: Idle, Recording, Processing, Idle.
type State int

const (
	Idle State = iota
	Recording
	Processing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
