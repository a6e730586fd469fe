package stream

import (
	"context"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const commandTimeout = 5 * time.Second

// Publisher is the part of mqtt.Client used to publish frames.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Subscriber is the part of mqtt.Client used to receive commands.
type Subscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// MQTTSink publishes frames as SVG documents to an MQTT topic.
type MQTTSink struct {
	client Publisher
	topic  string
	qos    byte
}

// NewMQTTSink creates a sink publishing to topic.
func NewMQTTSink(client Publisher, topic string, qos byte) *MQTTSink {
	s := new(MQTTSink)
	s.client = client
	s.topic = topic
	s.qos = qos
	return s
}

// SendFrame sends a frame as binary over MQTT.
func (s *MQTTSink) SendFrame(f *Frame) error {
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}

	token := s.client.Publish(s.topic, s.qos, false, b)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", s.topic, err)
	}
	return nil
}

// ControlListener applies JSON commands received over MQTT to a Controller.
type ControlListener struct {
	client     Subscriber
	topic      string
	controller *Controller
}

// NewControlListener creates a listener for commands on topic.
func NewControlListener(client Subscriber, topic string, controller *Controller) *ControlListener {
	l := new(ControlListener)
	l.client = client
	l.topic = topic
	l.controller = controller
	return l
}

func (l *ControlListener) handleMessage(client mqtt.Client, msg mqtt.Message) {
	log.Printf("Received msg %d on %s: %s", msg.MessageID(), msg.Topic(), msg.Payload())

	cmd, err := ParseCommand(msg.Payload())
	if err != nil {
		log.Printf("Ignoring control message: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := l.controller.Apply(ctx, cmd); err != nil {
		log.Printf("Control command failed: %v", err)
	}
}

// Subscribe starts listening on the control topic.
func (l *ControlListener) Subscribe() error {
	token := l.client.Subscribe(l.topic, 0, l.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", l.topic, err)
	}
	log.Printf("Listening for commands on %s", l.topic)
	return nil
}
