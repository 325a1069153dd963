package workflow

import "fmt"

// State is a position in the provisioning state machine.
type State string

const (
	StateIdle             State = "IDLE"
	StateAuthenticating   State = "AUTHENTICATING"
	StateMSOSwitched      State = "MSO_SWITCHED"
	StateUserCreating     State = "USER_CREATING"
	StateUserCreated      State = "USER_CREATED"
	StateEmployeeCreating State = "EMPLOYEE_CREATING"
	StateEmployeeCreated  State = "EMPLOYEE_CREATED"
	StateClosed           State = "CLOSED"
	StateAborted          State = "ABORTED"
)

// Terminal reports whether no further transitions are allowed.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateAborted
}

var forward = map[State]State{
	StateIdle:             StateAuthenticating,
	StateAuthenticating:   StateMSOSwitched,
	StateMSOSwitched:      StateUserCreating,
	StateUserCreating:     StateUserCreated,
	StateUserCreated:      StateEmployeeCreating,
	StateEmployeeCreating: StateEmployeeCreated,
	StateEmployeeCreated:  StateClosed,
}

// machine enforces the linear order; Aborted is reachable from any
// non-terminal state.
type machine struct {
	history []State
}

func newMachine() *machine {
	return &machine{history: []State{StateIdle}}
}

func (m *machine) current() State {
	return m.history[len(m.history)-1]
}

func (m *machine) advance(next State) error {
	cur := m.current()
	if next == StateAborted && !cur.Terminal() {
		m.history = append(m.history, next)
		return nil
	}
	if forward[cur] != next {
		return fmt.Errorf("illegal transition %s -> %s", cur, next)
	}
	m.history = append(m.history, next)
	return nil
}

// lastProgress is the furthest non-terminal state reached.
func (m *machine) lastProgress() State {
	for i := len(m.history) - 1; i >= 0; i-- {
		if !m.history[i].Terminal() {
			return m.history[i]
		}
	}
	return StateIdle
}

func (m *machine) snapshot() []State {
	return append([]State(nil), m.history...)
}
