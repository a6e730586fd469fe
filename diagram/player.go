package diagram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

var (
	// ErrStopped is returned by commands sent after Run has returned.
	ErrStopped = errors.New("player stopped")
	// ErrRunning is returned when Run is called twice.
	ErrRunning = errors.New("player already running")
)

// A Listener observes every snapshot the Player publishes. Listeners run on
// the player's loop goroutine and must not block.
type Listener func(Snapshot)

type command struct {
	event Event
	speed time.Duration
	reply chan error
}

// Player animates a Diagram: it owns the playback Machine and advances it
// one step per timer tick while playing. All state changes happen on the
// goroutine running Run.
type Player struct {
	diagram *Diagram
	clock   clock.Clock
	machine *Machine
	timer   *clock.Timer
	armed   atomic.Bool
	seq     uint64

	commands chan command
	done     chan struct{}
	started  atomic.Bool

	mu        sync.Mutex
	listeners []Listener
	last      Snapshot
}

// NewPlayer creates an Idle player for d. d is validated and must not be
// modified afterwards. A nil clk uses the wall clock.
func NewPlayer(d *Diagram, clk clock.Clock) (*Player, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}

	p := new(Player)
	p.diagram = d
	p.clock = clk
	p.machine = NewMachine(len(d.Steps), time.Duration(d.DefaultSpeed)*time.Millisecond)
	p.commands = make(chan command)
	p.done = make(chan struct{})
	p.last = p.machine.Snapshot()

	return p, nil
}

// Diagram returns the diagram being played.
func (p *Player) Diagram() *Diagram {
	return p.diagram
}

// Subscribe registers l for future snapshots.
func (p *Player) Subscribe(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// Snapshot returns the most recently published state.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Armed reports whether a tick is scheduled.
func (p *Player) Armed() bool {
	return p.armed.Load()
}

// Done is closed once Run has returned.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Run processes commands and ticks until ctx is cancelled. Any pending tick
// is cancelled on return.
func (p *Player) Run(ctx context.Context) error {
	if p.started.Swap(true) {
		return ErrRunning
	}
	defer close(p.done)
	defer p.disarm()

	p.publish(EventNone)

	for {
		var tick <-chan time.Time
		if p.timer != nil {
			tick = p.timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-p.commands:
			cmd.reply <- p.handle(cmd)
		case <-tick:
			p.timer = nil
			p.armed.Store(false)
			if p.machine.Send(EventTick) {
				p.arm()
				p.publish(EventTick)
			}
		}
	}
}

func (p *Player) handle(cmd command) error {
	switch cmd.event {
	case EventSpeed:
		if err := p.machine.SetSpeed(cmd.speed); err != nil {
			return fmt.Errorf("set speed %v: %w", cmd.speed, err)
		}
	case EventPlay, EventPause, EventReset:
		if !p.machine.Send(cmd.event) {
			return nil
		}
	default:
		return fmt.Errorf("unsupported command %v", cmd.event)
	}

	// The controlling state changed out of band, so a pending tick is stale.
	p.disarm()
	p.arm()
	p.publish(cmd.event)
	return nil
}

func (p *Player) arm() {
	if p.machine.Playing() && p.timer == nil {
		p.timer = p.clock.Timer(p.machine.Speed())
		p.armed.Store(true)
	}
}

func (p *Player) disarm() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.armed.Store(false)
}

func (p *Player) publish(cause Event) {
	p.seq++
	snap := p.machine.Snapshot()
	snap.Cause = cause
	snap.Seq = p.seq

	p.mu.Lock()
	p.last = snap
	listeners := make([]Listener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (p *Player) send(ctx context.Context, cmd command) error {
	cmd.reply = make(chan error, 1)
	select {
	case p.commands <- cmd:
	case <-p.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Play toggles playback. A finished animation restarts from the first step.
func (p *Player) Play(ctx context.Context) error {
	return p.send(ctx, command{event: EventPlay})
}

// Pause stops advancing without moving the cursor.
func (p *Player) Pause(ctx context.Context) error {
	return p.send(ctx, command{event: EventPause})
}

// Reset rewinds to the first step and stops.
func (p *Player) Reset(ctx context.Context) error {
	return p.send(ctx, command{event: EventReset})
}

// SetSpeed changes the delay between steps. A pending tick is re-armed with
// the new delay.
func (p *Player) SetSpeed(ctx context.Context, d time.Duration) error {
	return p.send(ctx, command{event: EventSpeed, speed: d})
}
