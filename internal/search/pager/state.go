package pager

// Phase is the pager's position in its state machine.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseDisabled          Phase = "disabled"
	PhaseFetchingFirstPage Phase = "fetching_first_page"
	PhaseFetchingNextPage  Phase = "fetching_next_page"
	PhaseShowingResults    Phase = "showing_results"
	PhaseExhausted         Phase = "exhausted"
	PhaseFailed            Phase = "failed"
)

// State is the pagination state of one search session.
//
// Offset always equals the number of items rendered for (Term, Language).
// Loading is true exactly while one fetch is outstanding.
type State struct {
	Term     string
	Language string
	Offset   int
	Loading  bool
	HasMore  bool
	Phase    Phase
}

// restored converts a persisted snapshot into a state that can accept events.
// A fetch that was outstanding when the snapshot was taken is lost for good.
func (s State) restored() State {
	s.Loading = false
	switch s.Phase {
	case "":
		s.Phase = PhaseIdle
	case PhaseFetchingFirstPage:
		s.Phase = PhaseFailed
		s.HasMore = false
		s.Offset = 0
	case PhaseFetchingNextPage:
		s.Phase = PhaseShowingResults
	}
	if s.Offset < 0 {
		s.Offset = 0
	}
	return s
}
