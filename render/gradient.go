package render

import (
	"github.com/lucasb-eyer/go-colorful"
)

// GradientTable stores a look-up table of colours interpolated by hue.
// Keypoints must be sorted by Pos in [0,1].
type GradientTable []struct {
	Hue float64
	Pos float64
}

// ActorGradient colours actors that do not name a colour of their own,
// sweeping from blue through purple and red to orange.
var ActorGradient = GradientTable{
	{Hue: 250, Pos: 0},
	{Hue: 300, Pos: 0.4},
	{Hue: 360, Pos: 0.7},
	{Hue: 410, Pos: 1},
}

const (
	gradientChroma    = 0.55
	gradientLuminance = 0.6
)

// GetColor gets a colour at the specified point on the look-up table.
func (g GradientTable) GetColor(t, c, l float64) colorful.Color {
	if len(g) == 0 {
		return fallback
	}
	if t <= g[0].Pos {
		return colorful.Hcl(g[0].Hue, c, l)
	}
	for i := 0; i < len(g)-1; i++ {
		c1 := g[i]
		c2 := g[i+1]
		if c1.Pos <= t && t <= c2.Pos {
			h := (((t - c1.Pos) / (c2.Pos - c1.Pos)) * (c2.Hue - c1.Hue)) + c1.Hue
			return colorful.Hcl(h, c, l)
		}
	}

	// Past the last keypoint.
	return colorful.Hcl(g[len(g)-1].Hue, c, l)
}

// Spread returns the colour of item i of n spaced evenly along the table.
func (g GradientTable) Spread(i, n int) colorful.Color {
	t := 0.0
	if n > 1 {
		t = float64(i) / float64(n-1)
	}
	return g.GetColor(t, gradientChroma, gradientLuminance)
}
