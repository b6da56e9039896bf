package enroll

import "fmt"

// State is the lifecycle of one enrollment session.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateComplete
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateComplete:
		return "complete"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// session collects embedding samples for one identity. It exists only for
// the duration of a single enrollment attempt and never touches the store.
type session struct {
	name      string
	target    int
	collected [][]float32
	state     State
}

func newSession(name string, target int) *session {
	return &session{
		name:   name,
		target: target,
		state:  StateCapturing,
	}
}

// add appends a sample and completes the session when the target is reached.
func (s *session) add(embedding []float32) {
	if s.state != StateCapturing {
		return
	}
	s.collected = append(s.collected, embedding)
	if len(s.collected) == s.target {
		s.state = StateComplete
	}
}

func (s *session) abort() {
	if s.state == StateCapturing {
		s.state = StateAborted
	}
}

// mean computes the elementwise arithmetic mean of the collected samples.
// The result is generally not unit-norm; the caller decides whether to
// renormalize.
func (s *session) mean() []float32 {
	if len(s.collected) == 0 {
		return nil
	}

	dim := len(s.collected[0])
	acc := make([]float64, dim)
	for _, sample := range s.collected {
		for i, v := range sample {
			acc[i] += float64(v)
		}
	}

	out := make([]float32, dim)
	n := float64(len(s.collected))
	for i, v := range acc {
		out[i] = float32(v / n)
	}
	return out
}
