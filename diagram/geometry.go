package diagram

import "math"

// Fixed vertical layout constants, in pixels.
const (
	TopPadding    = 40.0
	StepHeight    = 45.0
	BottomPadding = 20.0
)

// Layout maps actor and step indices to canvas coordinates.
type Layout struct {
	Width      float64
	Height     float64
	ActorCount int
	StepCount  int
}

// NewLayout computes the layout of d. The height is auto-computed unless d
// overrides it.
func NewLayout(d *Diagram) Layout {
	l := Layout{
		Width:      float64(d.Width),
		ActorCount: len(d.Actors),
		StepCount:  len(d.Steps),
	}
	if d.Height > 0 {
		l.Height = float64(d.Height)
	} else {
		l.Height = TopPadding + float64(l.StepCount)*StepHeight + BottomPadding
	}
	return l
}

// ActorSpacing is the horizontal slot width of a single actor.
func (l Layout) ActorSpacing() float64 {
	if l.ActorCount == 0 {
		return 0
	}
	return l.Width / float64(l.ActorCount)
}

// ActorX is the centre of actor i's slot.
func (l Layout) ActorX(i int) float64 {
	spacing := l.ActorSpacing()
	return spacing/2 + float64(i)*spacing
}

// StepY is the vertical position of step i.
func (l Layout) StepY(i int) float64 {
	return TopPadding + float64(i)*StepHeight
}

// Span describes the horizontal extent of a step's arrow.
type Span struct {
	FromX   float64
	ToX     float64
	Left    float64
	Width   float64
	ToRight bool
}

// Center is the horizontal midpoint of the span.
func (s Span) Center() float64 {
	return s.Left + s.Width/2
}

// Span computes the arrow extent of s.
func (l Layout) Span(s Step) Span {
	fromX := l.ActorX(s.From)
	toX := l.ActorX(s.To)
	return Span{
		FromX:   fromX,
		ToX:     toX,
		Left:    math.Min(fromX, toX),
		Width:   math.Abs(toX - fromX),
		ToRight: toX > fromX,
	}
}
