package session

// State is a step of one editing session.
type State int

const (
	Idle State = iota
	Rendering
	Editing
	Deciding
	Parsing
	Completed
	Aborted
	Failed
)

var stateNames = [...]string{
	Idle:      "idle",
	Rendering: "rendering",
	Editing:   "editing",
	Deciding:  "deciding",
	Parsing:   "parsing",
	Completed: "completed",
	Aborted:   "aborted",
	Failed:    "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == Completed || s == Aborted || s == Failed
}

// Status is the kind of outcome a session ended with.
type Status int

const (
	StatusAborted Status = iota
	StatusSaved
)

func (s Status) String() string {
	if s == StatusSaved {
		return "saved"
	}
	return "aborted"
}
