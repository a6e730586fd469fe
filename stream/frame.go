package stream

import (
	"encoding/json"

	"github.com/matt-g-everett/seqtx/diagram"
	"github.com/matt-g-everett/seqtx/render"
)

// Frame is one rendered scene of a demo's diagram.
type Frame struct {
	Demo      string
	Snapshot  diagram.Snapshot
	Scene     *render.Scene
	RuntimeMs int64
	// Animating is set while an effect still changes between frames.
	Animating bool
}

// NewFrame creates a new Frame instance.
func NewFrame(demo string, snap diagram.Snapshot, scene *render.Scene) *Frame {
	f := new(Frame)
	f.Demo = demo
	f.Snapshot = snap
	f.Scene = scene
	return f
}

// Changed reports whether f shows something different from prev.
func (f *Frame) Changed(prev *Frame) bool {
	if prev == nil {
		return true
	}
	return f.Animating || prev.Animating ||
		f.Demo != prev.Demo ||
		f.Snapshot.Seq != prev.Snapshot.Seq
}

// MarshalBinary converts a Frame into an SVG document.
func (f *Frame) MarshalBinary() (data []byte, err error) {
	return render.SVG(f.Scene), nil
}

type frameMessage struct {
	Type      string           `json:"type"`
	Demo      string           `json:"demo"`
	RuntimeMs int64            `json:"runtimeMs"`
	Snapshot  diagram.Snapshot `json:"snapshot"`
	Scene     *render.Scene    `json:"scene"`
	SVG       string           `json:"svg"`
}

// MarshalJSON encodes the frame as the message sent to viewers.
func (f *Frame) MarshalJSON() ([]byte, error) {
	return json.Marshal(frameMessage{
		Type:      "frame",
		Demo:      f.Demo,
		RuntimeMs: f.RuntimeMs,
		Snapshot:  f.Snapshot,
		Scene:     f.Scene,
		SVG:       string(render.SVG(f.Scene)),
	})
}
