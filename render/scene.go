// Package render projects playback state of a sequence diagram into a scene
// of drawing primitives and encodes scenes as SVG.
package render

import "github.com/matt-g-everett/seqtx/diagram"

// ActorMarker is an actor's badge above its lifeline.
type ActorMarker struct {
	X           float64 `json:"x"`
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	Icon        string  `json:"icon"`
	Fill        string  `json:"fill"`
	Highlighted bool    `json:"highlighted"`
}

// Lifeline is the vertical guide below an actor.
type Lifeline struct {
	X      float64 `json:"x"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Arrow is a step's message segment with its arrowhead at ToX.
type Arrow struct {
	Index      int              `json:"index"`
	FromX      float64          `json:"fromX"`
	ToX        float64          `json:"toX"`
	Y          float64          `json:"y"`
	ToRight    bool             `json:"toRight"`
	Type       diagram.StepType `json:"type"`
	Stroke     string           `json:"stroke"`
	Opacity    float64          `json:"opacity"`
	Revealed   bool             `json:"revealed"`
	Active     bool             `json:"active"`
	Emphasized bool             `json:"emphasized"`
}

// Label is the message text floating above an arrow.
type Label struct {
	Index      int     `json:"index"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Text       string  `json:"text"`
	Full       string  `json:"full"`
	Width      float64 `json:"width"`
	Fill       string  `json:"fill"`
	Border     string  `json:"border"`
	Color      string  `json:"color"`
	Ring       string  `json:"ring,omitempty"`
	Opacity    float64 `json:"opacity"`
	Emphasized bool    `json:"emphasized"`
	Active     bool    `json:"active"`
}

// Pulse marks the destination of the active step.
type Pulse struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Radius  float64 `json:"radius"`
	Opacity float64 `json:"opacity"`
	Fill    string  `json:"fill"`
}

// Progress is the step counter and bar. BarWidth is a percentage.
type Progress struct {
	Step     int     `json:"step"`
	Total    int     `json:"total"`
	Percent  int     `json:"percent"`
	BarWidth float64 `json:"barWidth"`
}

// SpeedOption is one entry of the speed selector.
type SpeedOption struct {
	Name     string `json:"name"`
	Millis   int    `json:"millis"`
	Selected bool   `json:"selected"`
}

// Controls describes the playback controls shown with the diagram.
type Controls struct {
	Speeds      []SpeedOption `json:"speeds"`
	SpeedMillis int           `json:"speedMillis"`
	PlayCaption string        `json:"playCaption"`
	State       string        `json:"state"`
}

// Scene is everything needed to draw one frame of a diagram. Width and
// Height are the message canvas dimensions.
type Scene struct {
	Title     string        `json:"title"`
	Subtitle  string        `json:"subtitle"`
	Width     float64       `json:"width"`
	Height    float64       `json:"height"`
	Actors    []ActorMarker `json:"actors"`
	Lifelines []Lifeline    `json:"lifelines"`
	Arrows    []Arrow       `json:"arrows"`
	Labels    []Label       `json:"labels"`
	Pulse     *Pulse        `json:"pulse,omitempty"`
	Progress  Progress      `json:"progress"`
	Controls  Controls      `json:"controls"`
}
