package diagram

import (
	"fmt"
	"time"
)

// State is a playback state.
type State int

const (
	Idle State = iota
	Playing
	Paused
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for _, v := range []State{Idle, Playing, Paused, Finished} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Event is an input to the playback state machine.
type Event int

const (
	EventNone Event = iota
	EventPlay
	EventPause
	EventReset
	EventTick
	EventSpeed
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventReset:
		return "reset"
	case EventTick:
		return "tick"
	case EventSpeed:
		return "speed"
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// MarshalText encodes the event by name.
func (e Event) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText decodes an event name.
func (e *Event) UnmarshalText(text []byte) error {
	for v := EventNone; v <= EventSpeed; v++ {
		if v.String() == string(text) {
			*e = v
			return nil
		}
	}
	return fmt.Errorf("unknown event %q", text)
}

type guard func(m *Machine) bool
type action func(m *Machine)

type transition struct {
	event  Event
	guard  guard // nil: always
	target State
	action action // nil: none
}

func empty(m *Machine) bool     { return m.total == 0 }
func nonEmpty(m *Machine) bool  { return m.total > 0 }
func lastStep(m *Machine) bool  { return m.cursor+1 >= m.total }
func moreSteps(m *Machine) bool { return m.cursor+1 < m.total }

func rewind(m *Machine)  { m.cursor = 0 }
func advance(m *Machine) { m.cursor++ }

// transitions is the playback transition table. Rows are tried in order and
// the first whose guard passes wins. Reset is handled for every state.
var transitions = map[State][]transition{
	Idle: {
		{event: EventPlay, guard: empty, target: Finished},
		{event: EventPlay, guard: nonEmpty, target: Playing},
	},
	Paused: {
		{event: EventPlay, target: Playing},
	},
	Playing: {
		{event: EventPlay, target: Paused},
		{event: EventPause, target: Paused},
		{event: EventTick, guard: moreSteps, target: Playing, action: advance},
		{event: EventTick, guard: lastStep, target: Finished, action: advance},
	},
	Finished: {
		{event: EventPlay, guard: empty, target: Finished, action: rewind},
		{event: EventPlay, guard: nonEmpty, target: Playing, action: rewind},
	},
}

var resetTransition = transition{event: EventReset, target: Idle, action: rewind}

// Machine is the pure playback state machine over a cursor in [0, total].
// It is not safe for concurrent use; Player confines it to one goroutine.
type Machine struct {
	state  State
	cursor int
	total  int
	speed  time.Duration
}

// NewMachine creates an Idle machine over total steps.
func NewMachine(total int, speed time.Duration) *Machine {
	m := new(Machine)
	m.total = total
	m.speed = speed
	m.state = Idle
	return m
}

func (m *Machine) pick(e Event) *transition {
	if e == EventReset {
		return &resetTransition
	}
	for i := range transitions[m.state] {
		t := &transitions[m.state][i]
		if t.event != e {
			continue
		}
		if t.guard == nil || t.guard(m) {
			return t
		}
	}
	return nil
}

// Send applies e and reports whether the state or cursor changed.
func (m *Machine) Send(e Event) bool {
	t := m.pick(e)
	if t == nil {
		return false
	}

	state, cursor := m.state, m.cursor
	if t.action != nil {
		t.action(m)
	}
	m.state = t.target

	return state != m.state || cursor != m.cursor
}

// SetSpeed replaces the per-step delay.
func (m *Machine) SetSpeed(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidSpeed
	}
	m.speed = d
	return nil
}

func (m *Machine) State() State         { return m.state }
func (m *Machine) Cursor() int          { return m.cursor }
func (m *Machine) Total() int           { return m.total }
func (m *Machine) Speed() time.Duration { return m.speed }
func (m *Machine) Playing() bool        { return m.state == Playing }

// Snapshot captures the machine state.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		Step:  m.cursor,
		Total: m.total,
		State: m.state,
		Speed: m.speed,
	}
}
