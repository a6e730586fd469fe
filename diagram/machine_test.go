package diagram

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_InitialState(t *testing.T) {
	m := NewMachine(3, time.Second)
	assert.Equal(t, Idle, m.State())
	assert.Equal(t, 0, m.Cursor())
	assert.False(t, m.Playing())
}

func TestMachine_PlayToggles(t *testing.T) {
	m := NewMachine(3, time.Second)

	assert.True(t, m.Send(EventPlay))
	assert.Equal(t, Playing, m.State())

	assert.True(t, m.Send(EventPlay))
	assert.Equal(t, Paused, m.State())

	assert.True(t, m.Send(EventPlay))
	assert.Equal(t, Playing, m.State())
}

func TestMachine_PauseOnlyFromPlaying(t *testing.T) {
	m := NewMachine(3, time.Second)

	assert.False(t, m.Send(EventPause), "pause while idle is a no-op")
	assert.Equal(t, Idle, m.State())

	m.Send(EventPlay)
	m.Send(EventTick)
	assert.True(t, m.Send(EventPause))
	assert.Equal(t, Paused, m.State())
	assert.Equal(t, 1, m.Cursor())

	assert.False(t, m.Send(EventPause))
}

func TestMachine_TickIgnoredUnlessPlaying(t *testing.T) {
	m := NewMachine(3, time.Second)
	assert.False(t, m.Send(EventTick))
	assert.Equal(t, 0, m.Cursor())

	m.Send(EventPlay)
	m.Send(EventPause)
	assert.False(t, m.Send(EventTick))
	assert.Equal(t, 0, m.Cursor())
}

func TestMachine_RunsToFinished(t *testing.T) {
	const n = 5
	m := NewMachine(n, time.Second)
	m.Send(EventPlay)

	for i := 1; i <= n; i++ {
		require.True(t, m.Send(EventTick))
		assert.Equal(t, i, m.Cursor())
		if i < n {
			assert.Equal(t, Playing, m.State())
		}
	}

	assert.Equal(t, Finished, m.State())
	assert.False(t, m.Playing())
	assert.Equal(t, n, m.Cursor())

	assert.False(t, m.Send(EventTick), "no ticks after finishing")
	assert.Equal(t, n, m.Cursor())
}

func TestMachine_PlayAfterFinishedRewinds(t *testing.T) {
	m := NewMachine(2, time.Second)
	m.Send(EventPlay)
	m.Send(EventTick)
	m.Send(EventTick)
	require.Equal(t, Finished, m.State())

	assert.True(t, m.Send(EventPlay))
	assert.Equal(t, Playing, m.State())
	assert.Equal(t, 0, m.Cursor())
}

func TestMachine_ResetFromEveryState(t *testing.T) {
	setups := map[string]func(m *Machine){
		"idle":     func(m *Machine) {},
		"playing":  func(m *Machine) { m.Send(EventPlay); m.Send(EventTick) },
		"paused":   func(m *Machine) { m.Send(EventPlay); m.Send(EventTick); m.Send(EventPause) },
		"finished": func(m *Machine) { m.Send(EventPlay); m.Send(EventTick); m.Send(EventTick) },
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			m := NewMachine(2, time.Second)
			setup(m)

			m.Send(EventReset)
			assert.Equal(t, Idle, m.State())
			assert.Equal(t, 0, m.Cursor())
			assert.False(t, m.Playing())

			assert.False(t, m.Send(EventReset), "reset is idempotent")
		})
	}
}

func TestMachine_EmptyDiagram(t *testing.T) {
	m := NewMachine(0, time.Second)

	assert.True(t, m.Send(EventPlay))
	assert.Equal(t, Finished, m.State())
	assert.Equal(t, 0, m.Cursor())

	assert.False(t, m.Send(EventPlay))
	assert.Equal(t, Finished, m.State())
	assert.False(t, m.Send(EventTick))
}

func TestMachine_CursorStaysInRange(t *testing.T) {
	events := []Event{EventPlay, EventPause, EventReset, EventTick, EventTick, EventTick}
	r := rand.New(rand.NewSource(1))

	for n := 0; n <= 6; n++ {
		m := NewMachine(n, time.Second)
		for i := 0; i < 500; i++ {
			m.Send(events[r.Intn(len(events))])
			require.GreaterOrEqual(t, m.Cursor(), 0)
			require.LessOrEqual(t, m.Cursor(), n)
			if m.State() == Finished {
				require.Equal(t, n, m.Cursor())
			}
		}
	}
}

func TestMachine_SetSpeed(t *testing.T) {
	m := NewMachine(1, time.Second)

	require.NoError(t, m.SetSpeed(500*time.Millisecond))
	assert.Equal(t, 500*time.Millisecond, m.Speed())

	assert.ErrorIs(t, m.SetSpeed(0), ErrInvalidSpeed)
	assert.ErrorIs(t, m.SetSpeed(-time.Second), ErrInvalidSpeed)
	assert.Equal(t, 500*time.Millisecond, m.Speed())
}

func TestStateAndEventNames(t *testing.T) {
	assert.Equal(t, "finished", Finished.String())
	assert.Equal(t, "State(9)", State(9).String())
	assert.Equal(t, "tick", EventTick.String())

	b, err := Paused.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "paused", string(b))
}

func TestStateAndEventText(t *testing.T) {
	var s State
	require.NoError(t, s.UnmarshalText([]byte("playing")))
	assert.Equal(t, Playing, s)
	assert.Error(t, s.UnmarshalText([]byte("stopped")))

	var e Event
	require.NoError(t, e.UnmarshalText([]byte("speed")))
	assert.Equal(t, EventSpeed, e)
	assert.Error(t, e.UnmarshalText([]byte("rewind")))
}
