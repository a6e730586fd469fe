package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sixActors() *Diagram {
	d := Diagram{Actors: make([]Actor, 6), Width: 800}
	return &d
}

func TestLayout_ActorX(t *testing.T) {
	l := NewLayout(sixActors())

	assert.InDelta(t, 133.333, l.ActorSpacing(), 0.001)
	assert.InDelta(t, 66.667, l.ActorX(0), 0.001)
	assert.InDelta(t, l.ActorX(0)+5*(800.0/6), l.ActorX(5), 1e-9)
}

func TestLayout_StepY(t *testing.T) {
	l := NewLayout(sixActors())
	assert.Equal(t, 40.0, l.StepY(0))
	assert.Equal(t, 85.0, l.StepY(1))
	assert.Equal(t, 40.0+11*45.0, l.StepY(11))
}

func TestLayout_Height(t *testing.T) {
	d := sixActors()
	d.Steps = make([]Step, 12)
	assert.Equal(t, 40.0+12*45+20, NewLayout(d).Height)

	d.Height = 300
	assert.Equal(t, 300.0, NewLayout(d).Height)

	d.Height = 0
	d.Steps = nil
	assert.Equal(t, 60.0, NewLayout(d).Height)
}

func TestLayout_Span(t *testing.T) {
	d := &Diagram{Actors: make([]Actor, 4), Width: 400}
	l := NewLayout(d)

	right := l.Span(Step{From: 0, To: 2})
	assert.True(t, right.ToRight)
	assert.Equal(t, 50.0, right.Left)
	assert.Equal(t, 200.0, right.Width)
	assert.Equal(t, 150.0, right.Center())

	left := l.Span(Step{From: 3, To: 1})
	assert.False(t, left.ToRight)
	assert.Equal(t, 150.0, left.Left)
	assert.Equal(t, 200.0, left.Width)
	assert.Equal(t, 350.0, left.FromX)
	assert.Equal(t, 150.0, left.ToX)

	self := l.Span(Step{From: 1, To: 1})
	assert.False(t, self.ToRight)
	assert.Zero(t, self.Width)
}

func TestLayout_NoActors(t *testing.T) {
	l := NewLayout(&Diagram{Width: 800})
	assert.Zero(t, l.ActorSpacing())
	assert.Zero(t, l.ActorX(3))
}
