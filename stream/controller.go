package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/matt-g-everett/seqtx/diagram"
	"golang.org/x/time/rate"
)

var (
	ErrUnknownDemo    = errors.New("unknown demo")
	ErrUnknownCommand = errors.New("unknown command")
	ErrRateLimited    = errors.New("too many commands")
	ErrNoDemos        = errors.New("no demos registered")
)

// Command types accepted by Controller.Apply.
const (
	CommandPlay   = "play"
	CommandPause  = "pause"
	CommandReset  = "reset"
	CommandSpeed  = "speed"
	CommandSelect = "select"
)

// Command is a user control request. Speed is in milliseconds. Demo names
// the target demo; empty means the active one.
type Command struct {
	Type  string `json:"type"`
	Speed int    `json:"speed,omitempty"`
	Demo  string `json:"demo,omitempty"`
}

// ParseCommand decodes a JSON command.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, fmt.Errorf("decode command: %w", err)
	}
	switch cmd.Type {
	case CommandPlay, CommandPause, CommandReset, CommandSelect:
	case CommandSpeed:
		if cmd.Speed <= 0 {
			return cmd, fmt.Errorf("speed %d: %w", cmd.Speed, diagram.ErrInvalidSpeed)
		}
	default:
		return cmd, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	return cmd, nil
}

// Demo is a named diagram with its player and animation.
type Demo struct {
	Name      string
	Player    *diagram.Player
	Animation *SequenceAnimation
}

// DemoInfo describes a demo for listings.
type DemoInfo struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Actors   int    `json:"actors"`
	Steps    int    `json:"steps"`
	Active   bool   `json:"active"`
}

// Controller owns the demos and routes commands to them. It is an Animation
// that draws whichever demo is active.
type Controller struct {
	clock     clock.Clock
	frameRate float64
	limiter   *rate.Limiter

	mu     sync.RWMutex
	demos  map[string]*Demo
	order  []string
	active string
}

// NewController creates an instance of a Controller. controlRate limits
// commands per second; zero disables the limit.
func NewController(frameRate float64, controlRate int, clk clock.Clock) *Controller {
	c := new(Controller)
	c.clock = clk
	c.frameRate = frameRate
	c.demos = make(map[string]*Demo)

	limit := rate.Inf
	if controlRate > 0 {
		limit = rate.Limit(controlRate)
	}
	c.limiter = rate.NewLimiter(limit, controlRate)

	return c
}

// Add registers a demo. The first demo added becomes active. Demos must be
// added before Run.
func (c *Controller) Add(name string, d *diagram.Diagram) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.demos[name]; exists {
		return fmt.Errorf("demo %q already registered", name)
	}

	player, err := diagram.NewPlayer(d, c.clock)
	if err != nil {
		return fmt.Errorf("demo %q: %w", name, err)
	}

	c.demos[name] = &Demo{
		Name:      name,
		Player:    player,
		Animation: NewSequenceAnimation(name, player, c.frameRate),
	}
	c.order = append(c.order, name)
	if c.active == "" {
		c.active = name
	}

	return nil
}

// Run runs every demo's player until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.RLock()
	players := make([]*diagram.Player, 0, len(c.order))
	for _, name := range c.order {
		players = append(players, c.demos[name].Player)
	}
	c.mu.RUnlock()

	if len(players) == 0 {
		return ErrNoDemos
	}

	var wg sync.WaitGroup
	for _, p := range players {
		wg.Add(1)
		go func(p *diagram.Player) {
			defer wg.Done()
			if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("player stopped: %v", err)
			}
		}(p)
	}
	wg.Wait()

	return ctx.Err()
}

// Demo returns a demo by name; the empty name returns the active demo.
func (c *Controller) Demo(name string) (*Demo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if name == "" {
		name = c.active
	}
	d, ok := c.demos[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDemo, name)
	}
	return d, nil
}

// Demos lists the registered demos in registration order.
func (c *Controller) Demos() []DemoInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]DemoInfo, 0, len(c.order))
	for _, name := range c.order {
		d := c.demos[name].Animation.Diagram()
		infos = append(infos, DemoInfo{
			Name:     name,
			Title:    d.Title,
			Subtitle: d.Subtitle,
			Actors:   len(d.Actors),
			Steps:    len(d.Steps),
			Active:   name == c.active,
		})
	}
	return infos
}

// Apply executes a command.
func (c *Controller) Apply(ctx context.Context, cmd Command) error {
	if !c.limiter.Allow() {
		return ErrRateLimited
	}
	log.Printf("Command: %+v", cmd)

	if cmd.Type == CommandSelect {
		return c.selectDemo(ctx, cmd.Demo)
	}

	d, err := c.Demo(cmd.Demo)
	if err != nil {
		return err
	}

	switch cmd.Type {
	case CommandPlay:
		return d.Player.Play(ctx)
	case CommandPause:
		return d.Player.Pause(ctx)
	case CommandReset:
		return d.Player.Reset(ctx)
	case CommandSpeed:
		return d.Player.SetSpeed(ctx, time.Duration(cmd.Speed)*time.Millisecond)
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
}

// SetActive makes name the active demo and returns the one it replaces.
func (c *Controller) SetActive(name string) (*Demo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.demos[name]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDemo, name)
	}
	prev := c.demos[c.active]
	c.active = name
	return prev, nil
}

func (c *Controller) selectDemo(ctx context.Context, name string) error {
	prev, err := c.SetActive(name)
	if err != nil {
		return err
	}
	if prev.Name == name {
		return nil
	}
	log.Printf("Switched demo %s -> %s", prev.Name, name)
	return prev.Player.Pause(ctx)
}

// CalculateFrame draws the active demo.
func (c *Controller) CalculateFrame(runtimeMs int64) *Frame {
	d, err := c.Demo("")
	if err != nil {
		return nil
	}
	return d.Animation.CalculateFrame(runtimeMs)
}
