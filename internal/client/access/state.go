package access

// State is a step in the life of one grant or transfer operation.
type State int

const (
	StateIdle State = iota
	StateGrantRequested
	StateGrantIssued
	StateTransferInProgress
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateGrantRequested:
		return "GrantRequested"
	case StateGrantIssued:
		return "GrantIssued"
	case StateTransferInProgress:
		return "TransferInProgress"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	}
	return "Unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Operation names what a tracked call does.
type Operation string

const (
	OpReadGrant  Operation = "read-grant"
	OpWriteGrant Operation = "write-grant"
	OpUpload     Operation = "upload"
	OpDownload   Operation = "download"
)

// Transition is reported to a StateObserver on every state change.
type Transition struct {
	Op     Operation
	Object string
	From   State
	To     State
	Err    error
}

// StateObserver receives transitions synchronously, in order.
type StateObserver func(Transition)

var transitions = map[State][]State{
	StateIdle:               {StateGrantRequested, StateFailed},
	StateGrantRequested:     {StateGrantIssued, StateFailed},
	StateGrantIssued:        {StateTransferInProgress, StateCompleted, StateFailed},
	StateTransferInProgress: {StateCompleted, StateFailed},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// tracker follows a single operation through its states.
type tracker struct {
	op       Operation
	object   string
	state    State
	observer StateObserver
}

func (t *tracker) to(next State) {
	t.move(next, nil)
}

// fail moves to Failed and returns f for the caller to hand back.
func (t *tracker) fail(f *Failure) *Failure {
	t.move(StateFailed, f)
	return f
}

func (t *tracker) move(next State, err error) {
	if !canTransition(t.state, next) {
		return
	}
	prev := t.state
	t.state = next
	if t.observer != nil {
		t.observer(Transition{Op: t.op, Object: t.object, From: prev, To: next, Err: err})
	}
}
