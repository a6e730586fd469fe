package stream

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// A Sink receives frames from a Streamer.
type Sink interface {
	SendFrame(f *Frame) error
}

// Streamer that streams rendered diagram frames to its sinks.
type Streamer struct {
	animation Animation
	clock     clock.Clock
	interval  time.Duration

	mu    sync.Mutex
	sinks []Sink
	start time.Time
	last  *Frame
}

// NewStreamer creates an instance of a Streamer sending frameRate frames per
// second.
func NewStreamer(animation Animation, frameRate float64, clk clock.Clock, sinks ...Sink) *Streamer {
	s := new(Streamer)
	s.animation = animation
	s.clock = clk
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	s.interval = time.Duration(float64(time.Second) / frameRate)
	s.sinks = sinks
	s.start = clk.Now()
	return s
}

// AddSink adds a frame destination.
func (s *Streamer) AddSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sink)
}

// Last returns the most recently calculated frame.
func (s *Streamer) Last() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// SendFrame calculates the current frame and sends it to every sink if it
// differs from the previous one. It reports whether the frame was sent.
func (s *Streamer) SendFrame() bool {
	runtimeMs := s.clock.Now().Sub(s.start).Milliseconds()
	f := s.animation.CalculateFrame(runtimeMs)
	if f == nil {
		return false
	}

	s.mu.Lock()
	changed := f.Changed(s.last)
	s.last = f
	sinks := make([]Sink, len(s.sinks))
	copy(sinks, s.sinks)
	s.mu.Unlock()

	if !changed {
		return false
	}
	for _, sink := range sinks {
		if err := sink.SendFrame(f); err != nil {
			log.Printf("send frame: %v", err)
		}
	}
	return true
}

// Run causes the Streamer to send frames until ctx is cancelled.
func (s *Streamer) Run(ctx context.Context) error {
	publishTimer := s.clock.Ticker(s.interval)
	defer publishTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-publishTimer.C:
			s.SendFrame()
		}
	}
}
