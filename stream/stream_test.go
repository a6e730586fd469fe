package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/seqtx/demo"
	"github.com/matt-g-everett/seqtx/diagram"
	"github.com/matt-g-everett/seqtx/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newMock() *clock.Mock {
	mock := clock.NewMock()
	mock.Set(epoch)
	return mock
}

func newAnimation(t *testing.T) *SequenceAnimation {
	t.Helper()
	p, err := diagram.NewPlayer(demo.Order(), newMock())
	require.NoError(t, err)
	return NewSequenceAnimation(demo.OrderName, p, 30)
}

func TestSequenceAnimation_IdleFrame(t *testing.T) {
	a := newAnimation(t)
	f := a.CalculateFrame(0)

	assert.Equal(t, demo.OrderName, f.Demo)
	assert.False(t, f.Animating)
	assert.Nil(t, f.Scene.Pulse)
	assert.Len(t, f.Scene.Arrows, 10)
	assert.Equal(t, 0, f.Scene.Progress.Step)
}

func TestSequenceAnimation_FadesInRevealedStep(t *testing.T) {
	a := newAnimation(t)
	a.update(diagram.Snapshot{Step: 1, Total: 10, State: diagram.Playing, Speed: time.Second, Seq: 2})

	f := a.CalculateFrame(1000)
	assert.True(t, f.Animating)
	assert.Equal(t, render.DimOpacity, f.Scene.Arrows[0].Opacity)
	require.NotNil(t, f.Scene.Pulse)

	f = a.CalculateFrame(1250)
	assert.Greater(t, f.Scene.Arrows[0].Opacity, render.DimOpacity)
	assert.Less(t, f.Scene.Arrows[0].Opacity, 1.0)

	f = a.CalculateFrame(1500)
	assert.Equal(t, 1.0, f.Scene.Arrows[0].Opacity)
	assert.Equal(t, render.DimOpacity, f.Scene.Arrows[1].Opacity)
}

func TestSequenceAnimation_Pulses(t *testing.T) {
	a := newAnimation(t)
	a.update(diagram.Snapshot{Step: 3, Total: 10, State: diagram.Paused, Speed: time.Second})

	radii := map[float64]bool{}
	for i := 0; i < len(a.lut); i++ {
		f := a.CalculateFrame(int64(i * 33))
		require.NotNil(t, f.Scene.Pulse)
		radii[f.Scene.Pulse.Radius] = true
	}
	assert.Greater(t, len(radii), 2, "pulse radius varies across the cycle")
	assert.Len(t, a.lut, 60)
}

func TestSequenceAnimation_ResetClearsEffects(t *testing.T) {
	a := newAnimation(t)
	a.update(diagram.Snapshot{Step: 2, Total: 10, State: diagram.Playing})
	a.CalculateFrame(0)

	a.update(diagram.Snapshot{Step: 0, Total: 10, State: diagram.Idle})
	f := a.CalculateFrame(100)
	assert.False(t, f.Animating)
	assert.Nil(t, f.Scene.Pulse)

	a.update(diagram.Snapshot{Step: 1, Total: 10, State: diagram.Playing})
	f = a.CalculateFrame(5000)
	assert.Equal(t, render.DimOpacity, f.Scene.Arrows[0].Opacity, "replayed step fades in again")
}

func TestFrame_Marshal(t *testing.T) {
	f := newAnimation(t).CalculateFrame(0)

	b, err := f.MarshalBinary()
	require.NoError(t, err)
	assert.Contains(t, string(b), "<svg")

	j, err := json.Marshal(f)
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(j, &msg))
	assert.Equal(t, "frame", msg["type"])
	assert.Equal(t, demo.OrderName, msg["demo"])
	assert.Contains(t, msg["svg"], "<svg")
	snap := msg["snapshot"].(map[string]interface{})
	assert.Equal(t, "idle", snap["state"])
}

func TestFrame_Changed(t *testing.T) {
	a := &Frame{Demo: "x", Snapshot: diagram.Snapshot{Seq: 1}}
	assert.True(t, a.Changed(nil))

	same := &Frame{Demo: "x", Snapshot: diagram.Snapshot{Seq: 1}}
	assert.False(t, same.Changed(a))

	assert.True(t, (&Frame{Demo: "y", Snapshot: diagram.Snapshot{Seq: 1}}).Changed(a))
	assert.True(t, (&Frame{Demo: "x", Snapshot: diagram.Snapshot{Seq: 2}}).Changed(a))
	assert.True(t, (&Frame{Demo: "x", Snapshot: diagram.Snapshot{Seq: 1}, Animating: true}).Changed(a))

	settling := &Frame{Demo: "x", Snapshot: diagram.Snapshot{Seq: 1}, Animating: true}
	assert.True(t, same.Changed(settling), "one more frame after animation stops")
}

type recordingSink struct {
	mu     sync.Mutex
	frames []*Frame
	err    error
}

func (r *recordingSink) SendFrame(f *Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return r.err
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func TestStreamer_SendsOnlyChanges(t *testing.T) {
	mock := newMock()
	a := newAnimation(t)
	sink := &recordingSink{}
	failing := &recordingSink{err: errors.New("offline")}
	s := NewStreamer(a, 30, mock, sink)
	s.AddSink(failing)

	assert.True(t, s.SendFrame())
	assert.False(t, s.SendFrame())
	assert.Equal(t, 1, sink.count())
	assert.Equal(t, 1, failing.count(), "sink errors do not stop streaming")

	a.update(diagram.Snapshot{Step: 1, Total: 10, State: diagram.Playing, Seq: 5})
	mock.Add(100 * time.Millisecond)
	assert.True(t, s.SendFrame())
	require.Equal(t, 2, sink.count())
	assert.Equal(t, int64(100), sink.frames[1].RuntimeMs)
	assert.Same(t, sink.frames[1], s.Last())
}

func TestStreamer_RunStopsOnCancel(t *testing.T) {
	sink := &recordingSink{}
	s := NewStreamer(newAnimation(t), 100, clock.New(), sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return sink.count() > 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func startController(t *testing.T, controlRate int) (*Controller, *clock.Mock) {
	t.Helper()
	mock := newMock()
	c := NewController(30, controlRate, mock)
	require.NoError(t, c.Add(demo.RegistrationName, demo.Registration()))
	require.NoError(t, c.Add(demo.OrderName, demo.Order()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c, mock
}

func TestController_Add(t *testing.T) {
	c := NewController(30, 0, newMock())
	require.NoError(t, c.Add("a", demo.Order()))
	assert.Error(t, c.Add("a", demo.Order()))

	bad := demo.Order()
	bad.Actors = nil
	assert.ErrorIs(t, c.Add("b", bad), diagram.ErrInvalidDiagram)

	infos := c.Demos()
	require.Len(t, infos, 1)
	assert.Equal(t, DemoInfo{Name: "a", Title: "E-commerce Order Flow", Subtitle: "Checkout, payment and fulfilment", Actors: 5, Steps: 10, Active: true}, infos[0])
}

func TestController_RunWithoutDemos(t *testing.T) {
	c := NewController(30, 0, newMock())
	assert.ErrorIs(t, c.Run(context.Background()), ErrNoDemos)
}

func TestController_PlaybackCommands(t *testing.T) {
	c, mock := startController(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Apply(ctx, Command{Type: CommandSpeed, Speed: 500}))
	require.NoError(t, c.Apply(ctx, Command{Type: CommandPlay}))

	reg, err := c.Demo("")
	require.NoError(t, err)
	assert.Equal(t, demo.RegistrationName, reg.Name)
	assert.Equal(t, diagram.Playing, reg.Player.Snapshot().State)
	assert.Equal(t, 500*time.Millisecond, reg.Player.Snapshot().Speed)

	mock.Add(500 * time.Millisecond)
	require.Eventually(t, func() bool { return reg.Player.Snapshot().Step == 1 }, 2*time.Second, time.Millisecond)

	require.NoError(t, c.Apply(ctx, Command{Type: CommandPause}))
	assert.Equal(t, diagram.Paused, reg.Player.Snapshot().State)

	require.NoError(t, c.Apply(ctx, Command{Type: CommandReset}))
	assert.Equal(t, diagram.Snapshot{State: diagram.Idle, Total: 12, Speed: 500 * time.Millisecond},
		withoutMeta(reg.Player.Snapshot()))
}

func withoutMeta(s diagram.Snapshot) diagram.Snapshot {
	s.Cause = diagram.EventNone
	s.Seq = 0
	return s
}

func TestController_SelectPausesPrevious(t *testing.T) {
	c, _ := startController(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Apply(ctx, Command{Type: CommandPlay}))
	require.NoError(t, c.Apply(ctx, Command{Type: CommandSelect, Demo: demo.OrderName}))

	reg, err := c.Demo(demo.RegistrationName)
	require.NoError(t, err)
	assert.Equal(t, diagram.Paused, reg.Player.Snapshot().State)

	active, err := c.Demo("")
	require.NoError(t, err)
	assert.Equal(t, demo.OrderName, active.Name)
	assert.Equal(t, demo.OrderName, c.CalculateFrame(0).Demo)
	assert.True(t, c.Demos()[1].Active)

	require.NoError(t, c.Apply(ctx, Command{Type: CommandSelect, Demo: demo.OrderName}), "reselecting is a no-op")
	assert.ErrorIs(t, c.Apply(ctx, Command{Type: CommandSelect, Demo: "nope"}), ErrUnknownDemo)
	assert.ErrorIs(t, c.Apply(ctx, Command{Type: CommandPlay, Demo: "nope"}), ErrUnknownDemo)
}

func TestController_TargetsNamedDemo(t *testing.T) {
	c, _ := startController(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Apply(ctx, Command{Type: CommandPlay, Demo: demo.OrderName}))
	order, _ := c.Demo(demo.OrderName)
	reg, _ := c.Demo(demo.RegistrationName)
	assert.Equal(t, diagram.Playing, order.Player.Snapshot().State)
	assert.Equal(t, diagram.Idle, reg.Player.Snapshot().State)
}

func TestController_RateLimit(t *testing.T) {
	c, _ := startController(t, 1)
	ctx := context.Background()

	require.NoError(t, c.Apply(ctx, Command{Type: CommandPlay}))
	assert.ErrorIs(t, c.Apply(ctx, Command{Type: CommandPlay}), ErrRateLimited)
}

func TestController_InvalidSpeed(t *testing.T) {
	c, _ := startController(t, 0)
	assert.ErrorIs(t, c.Apply(context.Background(), Command{Type: CommandSpeed, Speed: -1}), diagram.ErrInvalidSpeed)
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"type":"speed","speed":2000}`))
	require.NoError(t, err)
	assert.Equal(t, Command{Type: CommandSpeed, Speed: 2000}, cmd)

	cmd, err = ParseCommand([]byte(`{"type":"select","demo":"order"}`))
	require.NoError(t, err)
	assert.Equal(t, "order", cmd.Demo)

	_, err = ParseCommand([]byte(`{"type":"speed"}`))
	assert.ErrorIs(t, err, diagram.ErrInvalidSpeed)

	_, err = ParseCommand([]byte(`{"type":"rewind"}`))
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = ParseCommand([]byte(`not json`))
	assert.Error(t, err)
}

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}

type fakeBroker struct {
	mu        sync.Mutex
	published map[string][][]byte
	handlers  map[string]mqtt.MessageHandler
	err       error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{published: map[string][][]byte{}, handlers: map[string]mqtt.MessageHandler{}}
}

func (b *fakeBroker) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[topic] = append(b.published[topic], payload.([]byte))
	return &fakeToken{err: b.err}
}

func (b *fakeBroker) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = callback
	return &fakeToken{err: b.err}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func TestMQTTSink(t *testing.T) {
	broker := newFakeBroker()
	sink := NewMQTTSink(broker, "seqtx/frames", 0)

	require.NoError(t, sink.SendFrame(newAnimation(t).CalculateFrame(0)))
	require.Len(t, broker.published["seqtx/frames"], 1)
	assert.Contains(t, string(broker.published["seqtx/frames"][0]), "<svg")

	broker.err = errors.New("not connected")
	assert.Error(t, sink.SendFrame(newAnimation(t).CalculateFrame(0)))
}

func TestControlListener(t *testing.T) {
	c, _ := startController(t, 0)
	broker := newFakeBroker()

	l := NewControlListener(broker, "seqtx/control", c)
	require.NoError(t, l.Subscribe())
	handler := broker.handlers["seqtx/control"]
	require.NotNil(t, handler)

	handler(nil, &fakeMessage{topic: "seqtx/control", payload: []byte(`{"type":"play"}`)})
	reg, _ := c.Demo("")
	assert.Equal(t, diagram.Playing, reg.Player.Snapshot().State)

	handler(nil, &fakeMessage{topic: "seqtx/control", payload: []byte(`garbage`)})
	assert.Equal(t, diagram.Playing, reg.Player.Snapshot().State)

	broker.err = errors.New("denied")
	assert.Error(t, NewControlListener(broker, "other", c).Subscribe())
}

func TestController_SetActiveBeforeRun(t *testing.T) {
	c := NewController(30, 0, newMock())
	require.NoError(t, c.Add(demo.RegistrationName, demo.Registration()))
	require.NoError(t, c.Add(demo.OrderName, demo.Order()))

	prev, err := c.SetActive(demo.OrderName)
	require.NoError(t, err)
	assert.Equal(t, demo.RegistrationName, prev.Name)
	assert.Equal(t, demo.OrderName, c.CalculateFrame(0).Demo)

	_, err = c.SetActive("nope")
	assert.ErrorIs(t, err, ErrUnknownDemo)
}
