package render

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"github.com/matt-g-everett/seqtx/diagram"
)

const (
	// DimOpacity is applied to steps that are not revealed yet.
	DimOpacity = 0.3
	// MaxLabelWidth bounds a message label before it is elided.
	MaxLabelWidth = 200.0
	labelPadding  = 16.0
	labelRise     = 17.0
	pulseRadius   = 6.0
)

// Speed selector presets, in milliseconds.
var SpeedPresets = []SpeedOption{
	{Name: "fast", Millis: 500},
	{Name: "normal", Millis: 1000},
	{Name: "slow", Millis: 2000},
}

// Effects carries per-frame animation inputs. Pulse in [0,1] scales the
// active step marker. Reveal[i] in [0,1] is how far step i has faded in
// since it was revealed; missing entries count as fully faded in.
type Effects struct {
	Pulse  float64
	Reveal []float64
}

func (fx Effects) reveal(i int) float64 {
	if i < len(fx.Reveal) {
		return fx.Reveal[i]
	}
	return 1
}

// Renderer turns playback state into scenes. It holds no playback state.
type Renderer struct {
	Palette Palette
	// Gradient colours actors without a colour token.
	Gradient GradientTable
}

// NewRenderer creates a Renderer using DefaultPalette and ActorGradient.
func NewRenderer() *Renderer {
	r := new(Renderer)
	r.Palette = DefaultPalette
	r.Gradient = ActorGradient
	return r
}

func (r *Renderer) actorFill(a diagram.Actor, i, n int) colorful.Color {
	if a.Color == "" && len(r.Gradient) > 0 {
		return r.Gradient.Spread(i, n)
	}
	return r.Palette.Resolve(a.Color)
}

func hex(c colorful.Color) string {
	return c.Clamped().Hex()
}

// Render builds the scene of d at playback state s.
func (r *Renderer) Render(d *diagram.Diagram, l diagram.Layout, s diagram.Snapshot, fx Effects) *Scene {
	scene := &Scene{
		Title:    d.Title,
		Subtitle: d.Subtitle,
		Width:    l.Width,
		Height:   l.Height,
	}

	highlighted := s.Highlighted(len(d.Actors), d.Steps)
	for i, a := range d.Actors {
		x := l.ActorX(i)
		scene.Actors = append(scene.Actors, ActorMarker{
			X:           x,
			Name:        a.Name,
			Label:       a.Label,
			Icon:        a.Icon,
			Fill:        hex(r.actorFill(a, i, len(d.Actors))),
			Highlighted: highlighted[i],
		})
		scene.Lifelines = append(scene.Lifelines, Lifeline{X: x, Top: 0, Bottom: l.Height})
	}

	normal := r.Palette.Resolve("blue-500")
	emphasis := r.Palette.Resolve("yellow-500")
	for i, st := range d.Steps {
		span := l.Span(st)
		y := l.StepY(i)
		revealed := s.Revealed(i)
		active := s.Active(i)

		opacity := DimOpacity
		if revealed {
			opacity = 1
			if f := fx.reveal(i); f < 1 {
				opacity = DimOpacity + (1-DimOpacity)*f
			}
		}

		stroke := normal
		if st.Highlight {
			stroke = emphasis
		}

		scene.Arrows = append(scene.Arrows, Arrow{
			Index:      i,
			FromX:      span.FromX,
			ToX:        span.ToX,
			Y:          y,
			ToRight:    span.ToRight,
			Type:       st.Type,
			Stroke:     hex(stroke),
			Opacity:    opacity,
			Revealed:   revealed,
			Active:     active,
			Emphasized: st.Highlight,
		})
		scene.Labels = append(scene.Labels, r.label(i, st, span, y, opacity, active))

		if active {
			scene.Pulse = &Pulse{
				X:       span.ToX,
				Y:       y,
				Radius:  pulseRadius * (1 + 0.5*fx.Pulse),
				Opacity: 1 - 0.5*fx.Pulse,
				Fill:    hex(r.Palette.Resolve("red-500")),
			}
		}
	}

	scene.Progress = Progress{
		Step:     s.Step,
		Total:    s.Total,
		Percent:  s.Percent(),
		BarWidth: 100 * s.Fraction(),
	}
	scene.Controls = controls(s)

	return scene
}

func (r *Renderer) label(i int, st diagram.Step, span diagram.Span, y, opacity float64, active bool) Label {
	text := Elide(st.Message, MaxLabelWidth-labelPadding)
	lb := Label{
		Index:      i,
		X:          span.Center(),
		Y:          y - labelRise,
		Text:       text,
		Full:       st.Message,
		Width:      TextWidth(text) + labelPadding,
		Opacity:    opacity,
		Emphasized: st.Highlight,
		Active:     active,
	}

	if st.Highlight {
		yellow := r.Palette.Resolve("yellow-500")
		lb.Fill = hex(Tint(yellow, 0.85))
		lb.Border = hex(r.Palette.Resolve("yellow-300"))
		lb.Color = hex(r.Palette.Resolve("yellow-800"))
	} else {
		lb.Fill = "#ffffff"
		lb.Border = hex(r.Palette.Resolve("gray-200"))
		lb.Color = hex(r.Palette.Resolve("gray-700"))
	}
	if active {
		lb.Ring = hex(r.Palette.Resolve("blue-400"))
	}
	return lb
}

func controls(s diagram.Snapshot) Controls {
	c := Controls{
		SpeedMillis: int(s.Speed.Milliseconds()),
		PlayCaption: "Play",
		State:       s.State.String(),
	}
	if s.Playing() {
		c.PlayCaption = "Pause"
	}
	for _, opt := range SpeedPresets {
		opt.Selected = opt.Millis == c.SpeedMillis
		c.Speeds = append(c.Speeds, opt)
	}
	return c
}

// TextWidth approximates the rendered width of s at a 12px font.
func TextWidth(s string) float64 {
	w := 0.0
	for _, r := range s {
		w += runeWidth(r)
	}
	return w
}

// Cell widths ignore the locale so labels elide the same everywhere.
var cells = &runewidth.Condition{EastAsianWidth: false, StrictEmojiNeutral: true}

const (
	narrowWidth = 7.0
	wideWidth   = 12.0
)

func runeWidth(r rune) float64 {
	switch cells.RuneWidth(r) {
	case 0:
		return 0
	case 2:
		return wideWidth
	}
	return narrowWidth
}

// Elide shortens s with a trailing ellipsis so it fits within maxWidth.
func Elide(s string, maxWidth float64) string {
	if TextWidth(s) <= maxWidth {
		return s
	}

	const ellipsis = "…"
	limit := maxWidth - runeWidth('…')
	w := 0.0
	out := make([]rune, 0, len(s))
	for _, r := range s {
		rw := runeWidth(r)
		if w+rw > limit {
			break
		}
		w += rw
		out = append(out, r)
	}
	return string(out) + ellipsis
}
