package demo

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/matt-g-everett/seqtx/diagram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetsAreValid(t *testing.T) {
	for name, d := range All() {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, d.Validate())
			assert.NotEmpty(t, d.Title)
			assert.Equal(t, diagram.DefaultSpeed, d.DefaultSpeed)
			assert.Equal(t, diagram.DefaultWidth, d.Width)
		})
	}
	assert.ElementsMatch(t, Names(), []string{RegistrationName, OrderName})
}

func TestDatasetShapes(t *testing.T) {
	reg := Registration()
	assert.Len(t, reg.Actors, 6)
	assert.Len(t, reg.Steps, 12)
	assert.True(t, reg.Steps[5].Highlight)

	order := Order()
	assert.Len(t, order.Actors, 5)
	assert.Len(t, order.Steps, 10)
	assert.True(t, order.Steps[3].Highlight)
}

func TestRegistrationGeometry(t *testing.T) {
	l := diagram.NewLayout(Registration())
	assert.InDelta(t, 66.67, l.ActorX(0), 0.01)
	assert.InDelta(t, l.ActorX(0)+5*(800.0/6), l.ActorX(5), 1e-9)
	assert.Equal(t, 40.0+12*45+20, l.Height)
}

func TestRegistrationPlaysToCompletion(t *testing.T) {
	mock := clock.NewMock()
	p, err := diagram.NewPlayer(Registration(), mock)
	require.NoError(t, err)

	snaps := make(chan diagram.Snapshot, 64)
	p.Subscribe(func(s diagram.Snapshot) { snaps <- s })

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-p.Done()
	}()
	go p.Run(ctx)
	<-snaps

	require.NoError(t, p.SetSpeed(ctx, 500*time.Millisecond))
	<-snaps
	require.NoError(t, p.Play(ctx))
	<-snaps

	ticks := 0
	var last diagram.Snapshot
	for last.State != diagram.Finished {
		mock.Add(500 * time.Millisecond)
		select {
		case last = <-snaps:
		case <-time.After(2 * time.Second):
			t.Fatalf("no tick after %d advancements", ticks)
		}
		require.Equal(t, diagram.EventTick, last.Cause)
		ticks++
		require.LessOrEqual(t, ticks, 12)
	}

	assert.Equal(t, 12, ticks)
	assert.Equal(t, 12, last.Step)
	assert.False(t, last.Playing())
	assert.Equal(t, 100, last.Percent())
	assert.False(t, p.Armed())
}
