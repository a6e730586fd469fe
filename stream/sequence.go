package stream

import (
	"math"
	"sync"

	"github.com/matt-g-everett/seqtx/diagram"
	"github.com/matt-g-everett/seqtx/render"
	"github.com/matt-g-everett/seqtx/util"
)

const (
	fadeMs        = 500
	pulsePeriodMs = 2000
)

var lutMemoizer util.Memoizer

// A SequenceAnimation is an Animation that draws a diagram as its Player
// advances. Newly revealed steps fade in and the active step pulses.
type SequenceAnimation struct {
	name     string
	diagram  *diagram.Diagram
	layout   diagram.Layout
	renderer *render.Renderer
	lut      []float64

	mu         sync.Mutex
	snap       diagram.Snapshot
	revealedAt []int64
	current    int
}

// NewSequenceAnimation creates an animation for player and subscribes to it.
// It must be called before the player runs.
func NewSequenceAnimation(name string, player *diagram.Player, frameRate float64) *SequenceAnimation {
	a := new(SequenceAnimation)
	a.name = name
	a.diagram = player.Diagram()
	a.layout = diagram.NewLayout(a.diagram)
	a.renderer = render.NewRenderer()

	lutLength := int(math.Round(frameRate * pulsePeriodMs / 1000))
	if lutLength < 2 {
		lutLength = 2
	}
	a.lut = util.GenerateLutMemoized(lutLength, &lutMemoizer)

	a.revealedAt = make([]int64, len(a.diagram.Steps))
	a.snap = player.Snapshot()
	player.Subscribe(a.update)

	return a
}

// Name returns the demo name the animation was created for.
func (a *SequenceAnimation) Name() string {
	return a.name
}

// Diagram returns the animated diagram.
func (a *SequenceAnimation) Diagram() *diagram.Diagram {
	return a.diagram
}

func (a *SequenceAnimation) update(s diagram.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Steps revealed since the last snapshot are stamped by the next frame.
	for i := a.snap.Step; i < s.Step && i < len(a.revealedAt); i++ {
		a.revealedAt[i] = -1
	}
	a.snap = s
}

// CalculateFrame renders the diagram at the latest playback state.
func (a *SequenceAnimation) CalculateFrame(runtimeMs int64) *Frame {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := a.snap
	animating := false
	reveal := make([]float64, len(a.diagram.Steps))
	for i := 0; i < snap.Step && i < len(reveal); i++ {
		if a.revealedAt[i] < 0 {
			a.revealedAt[i] = runtimeMs
		}
		reveal[i] = util.FadeIn(runtimeMs-a.revealedAt[i], fadeMs)
		if reveal[i] < 1 {
			animating = true
		}
	}

	pulse := 0.0
	if snap.Step > 0 {
		pulse = a.lut[a.current]
		a.current = (a.current + 1) % len(a.lut)
		animating = true
	}

	scene := a.renderer.Render(a.diagram, a.layout, snap, render.Effects{Pulse: pulse, Reveal: reveal})
	f := NewFrame(a.name, snap, scene)
	f.RuntimeMs = runtimeMs
	f.Animating = animating

	return f
}
