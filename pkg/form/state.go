package form

// State is the form session state.
type State int

const (
	StateClosed State = iota
	StateEditing
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	default:
		return "closed"
	}
}

// Mode is the submission route chosen from the draft identifier.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)
