package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// Vertical bands of the SVG document, in pixels.
const (
	svgMargin      = 24.0
	svgHeader      = 72.0
	svgActorBand   = 104.0
	svgProgress    = 56.0
	svgBadge       = 48.0
	svgFontFamily  = "Helvetica, Arial, sans-serif"
	svgArrowLength = 8.0
	svgArrowHalf   = 4.0
	svgLabelHeight = 20.0
)

func px(v float64) int {
	return int(math.Round(v))
}

func attr(name, value string) string {
	return fmt.Sprintf(`%s="%s"`, name, html.EscapeString(value))
}

func opacity(name string, v float64) string {
	return fmt.Sprintf(`%s="%.2f"`, name, v)
}

// DocumentSize returns the full SVG width and height for a scene.
func DocumentSize(s *Scene) (float64, float64) {
	return s.Width + 2*svgMargin, svgHeader + svgActorBand + s.Height + svgProgress
}

// SVG renders the scene as a standalone SVG document.
func SVG(s *Scene) []byte {
	var buf bytes.Buffer
	_ = EncodeSVG(&buf, s)
	return buf.Bytes()
}

// EncodeSVG writes the scene as SVG to w.
func EncodeSVG(w io.Writer, s *Scene) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	width, height := DocumentSize(s)
	canvas.Start(px(width), px(height),
		fmt.Sprintf(`viewBox="0 0 %d %d"`, px(width), px(height)),
		attr("font-family", svgFontFamily))
	canvas.Rect(0, 0, px(width), px(height), `fill="#ffffff"`)

	writeHeader(canvas, s, width)

	canvas.Group(`class="actors"`, fmt.Sprintf(`transform="translate(%d,%d)"`, px(svgMargin), px(svgHeader)))
	for _, a := range s.Actors {
		writeActor(canvas, a)
	}
	canvas.Gend()

	canvas.Group(`class="messages"`, fmt.Sprintf(`transform="translate(%d,%d)"`, px(svgMargin), px(svgHeader+svgActorBand)))
	for _, l := range s.Lifelines {
		canvas.Line(px(l.X), px(l.Top), px(l.X), px(l.Bottom), `stroke="#d1d5db"`, `stroke-width="2"`)
	}
	for i, a := range s.Arrows {
		writeArrow(canvas, a)
		if i < len(s.Labels) {
			writeLabel(canvas, s.Labels[i])
		}
	}
	if p := s.Pulse; p != nil {
		canvas.Circle(px(p.X), px(p.Y), px(p.Radius),
			`class="pulse"`, attr("fill", p.Fill), opacity("fill-opacity", p.Opacity))
	}
	canvas.Gend()

	writeProgress(canvas, s, width, svgHeader+svgActorBand+s.Height)

	canvas.End()
	return ew.err
}

// errWriter keeps the first write error so the canvas calls need no checks.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, nil
}

func writeHeader(canvas *svg.SVG, s *Scene, width float64) {
	canvas.Text(px(svgMargin), 34, s.Title, `font-size="20"`, `font-weight="bold"`, `fill="#1f2937"`)
	if s.Subtitle != "" {
		canvas.Text(px(svgMargin), 56, s.Subtitle, `font-size="13"`, `fill="#4b5563"`)
	}

	var speeds []string
	for _, o := range s.Controls.Speeds {
		if o.Selected {
			speeds = append(speeds, "["+o.Name+"]")
		} else {
			speeds = append(speeds, o.Name)
		}
	}
	canvas.Text(px(width-svgMargin), 34, s.Controls.PlayCaption+" · "+strings.Join(speeds, " "),
		`class="controls"`, `font-size="12"`, `text-anchor="end"`, `fill="#4b5563"`,
		attr("data-state", s.Controls.State))
}

func writeActor(canvas *svg.SVG, a ActorMarker) {
	x := a.X - svgBadge/2
	if a.Highlighted {
		canvas.Roundrect(px(x-4), 6, px(svgBadge+8), px(svgBadge+8), 10, 10,
			`class="ring"`, `fill="none"`, `stroke="#fde047"`, `stroke-width="4"`)
	}
	canvas.Roundrect(px(x), 10, px(svgBadge), px(svgBadge), 8, 8,
		`class="actor"`, attr("fill", a.Fill), attr("data-icon", a.Icon))

	initial := ""
	for _, r := range a.Name {
		initial = strings.ToUpper(string(r))
		break
	}
	canvas.Text(px(a.X), 40, initial, `font-size="18"`, `font-weight="bold"`, `text-anchor="middle"`, `fill="#ffffff"`)
	canvas.Text(px(a.X), 78, a.Name, `font-size="13"`, `font-weight="bold"`, `text-anchor="middle"`, `fill="#1f2937"`)
	canvas.Text(px(a.X), 94, a.Label, `font-size="11"`, `text-anchor="middle"`, `fill="#4b5563"`)
}

func writeArrow(canvas *svg.SVG, a Arrow) {
	dir := -1.0
	if a.ToRight {
		dir = 1.0
	}
	tip := a.ToX
	back := tip - dir*svgArrowLength

	canvas.Group(`class="step"`, fmt.Sprintf(`data-index="%d"`, a.Index),
		attr("data-type", string(a.Type)), opacity("opacity", a.Opacity))
	canvas.Line(px(a.FromX), px(a.Y), px(back), px(a.Y), attr("stroke", a.Stroke), `stroke-width="2"`)
	canvas.Polygon(
		[]int{px(tip), px(back), px(back)},
		[]int{px(a.Y), px(a.Y - svgArrowHalf), px(a.Y + svgArrowHalf)},
		attr("fill", a.Stroke))
	canvas.Gend()
}

func writeLabel(canvas *svg.SVG, l Label) {
	canvas.Group(`class="label"`, fmt.Sprintf(`data-index="%d"`, l.Index), opacity("opacity", l.Opacity))
	if l.Full != l.Text {
		canvas.Title(l.Full)
	}
	stroke, strokeWidth := l.Border, 1
	if l.Ring != "" {
		stroke, strokeWidth = l.Ring, 2
	}
	canvas.Roundrect(px(l.X-l.Width/2), px(l.Y-svgLabelHeight/2), px(l.Width), px(svgLabelHeight), 4, 4,
		attr("fill", l.Fill), attr("stroke", stroke), fmt.Sprintf(`stroke-width="%d"`, strokeWidth))
	canvas.Text(px(l.X), px(l.Y+4), l.Text, `font-size="12"`, `text-anchor="middle"`, attr("fill", l.Color))
	canvas.Gend()
}

func writeProgress(canvas *svg.SVG, s *Scene, width, top float64) {
	p := s.Progress
	barWidth := width - 2*svgMargin

	canvas.Group(`class="progress"`, fmt.Sprintf(`transform="translate(%d,%d)"`, px(svgMargin), px(top+16)))
	canvas.Text(0, 0, fmt.Sprintf("Progress: %d/%d", p.Step, p.Total), `font-size="13"`, `fill="#4b5563"`)
	canvas.Text(px(barWidth), 0, fmt.Sprintf("%d%%", p.Percent), `font-size="13"`, `text-anchor="end"`, `fill="#4b5563"`)
	canvas.Roundrect(0, 10, px(barWidth), 8, 4, 4, `fill="#e5e7eb"`)
	canvas.Roundrect(0, 10, px(barWidth*p.BarWidth/100), 8, 4, 4, `class="bar"`, `fill="#3b82f6"`)
	canvas.Gend()
}
