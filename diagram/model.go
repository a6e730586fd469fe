// Package diagram holds the sequence diagram model, its geometry and the
// timer-driven playback engine.
package diagram

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Defaults applied by Diagram.WithDefaults.
const (
	DefaultTitle = "Sequence Flow Diagram"
	DefaultSpeed = 1000
	DefaultWidth = 800
)

var (
	// ErrInvalidDiagram is wrapped by every validation failure.
	ErrInvalidDiagram = errors.New("invalid diagram")
	// ErrInvalidSpeed is returned for non-positive step delays.
	ErrInvalidSpeed = errors.New("speed must be positive")
)

// An Actor is a participant placed along the horizontal axis. Color and Icon
// are styling tokens handed to the renderer untouched.
type Actor struct {
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label" json:"label"`
	Color string `yaml:"color" json:"color"`
	Icon  string `yaml:"icon" json:"icon"`
}

// StepType marks a step as a request or a response. It does not affect layout.
type StepType string

const (
	StepRequest  StepType = "request"
	StepResponse StepType = "response"
)

// A Step is one directed message between two actors.
type Step struct {
	From      int      `yaml:"from" json:"from"`
	To        int      `yaml:"to" json:"to"`
	Message   string   `yaml:"message" json:"message"`
	Type      StepType `yaml:"type" json:"type"`
	Highlight bool     `yaml:"highlight,omitempty" json:"highlight,omitempty"`
}

// Diagram is the construction contract of a sequence diagram. Speed is in
// milliseconds per step. A zero Height means the height is computed from the
// number of steps.
type Diagram struct {
	Title        string  `yaml:"title" json:"title"`
	Subtitle     string  `yaml:"subtitle" json:"subtitle"`
	Actors       []Actor `yaml:"actors" json:"actors"`
	Steps        []Step  `yaml:"steps" json:"steps"`
	DefaultSpeed int     `yaml:"defaultSpeed" json:"defaultSpeed"`
	Width        int     `yaml:"width" json:"width"`
	Height       int     `yaml:"height" json:"height"`
}

// WithDefaults returns a copy of d with unset optional fields filled in.
func (d Diagram) WithDefaults() Diagram {
	if d.Title == "" {
		d.Title = DefaultTitle
	}
	if d.DefaultSpeed == 0 {
		d.DefaultSpeed = DefaultSpeed
	}
	if d.Width == 0 {
		d.Width = DefaultWidth
	}
	steps := make([]Step, len(d.Steps))
	copy(steps, d.Steps)
	for i := range steps {
		if steps[i].Type == "" {
			steps[i].Type = StepRequest
		}
	}
	d.Steps = steps
	return d
}

// Validate checks the diagram for caller errors.
func (d *Diagram) Validate() error {
	if len(d.Actors) == 0 {
		return fmt.Errorf("%w: no actors", ErrInvalidDiagram)
	}
	if d.DefaultSpeed <= 0 {
		return fmt.Errorf("%w: defaultSpeed %d", ErrInvalidDiagram, d.DefaultSpeed)
	}
	if d.Width <= 0 {
		return fmt.Errorf("%w: width %d", ErrInvalidDiagram, d.Width)
	}
	if d.Height < 0 {
		return fmt.Errorf("%w: height %d", ErrInvalidDiagram, d.Height)
	}

	n := len(d.Actors)
	for i, s := range d.Steps {
		if s.From < 0 || s.From >= n {
			return fmt.Errorf("%w: step %d: from %d out of range [0,%d)", ErrInvalidDiagram, i, s.From, n)
		}
		if s.To < 0 || s.To >= n {
			return fmt.Errorf("%w: step %d: to %d out of range [0,%d)", ErrInvalidDiagram, i, s.To, n)
		}
		switch s.Type {
		case StepRequest, StepResponse:
		default:
			return fmt.Errorf("%w: step %d: unknown type %q", ErrInvalidDiagram, i, s.Type)
		}
	}

	return nil
}

// Load decodes a YAML diagram, applies defaults and validates it.
func Load(data []byte) (*Diagram, error) {
	var d Diagram
	if err := yaml.UnmarshalStrict(data, &d); err != nil {
		return nil, fmt.Errorf("decode diagram: %w", err)
	}

	d = d.WithDefaults()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadFile reads a YAML diagram from path.
func LoadFile(path string) (*Diagram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read diagram: %w", err)
	}

	d, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
