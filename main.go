package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"
	"github.com/matt-g-everett/seqtx/api"
	"github.com/matt-g-everett/seqtx/demo"
	"github.com/matt-g-everett/seqtx/diagram"
	"github.com/matt-g-everett/seqtx/stream"
)

type app struct {
	Config     *stream.Config
	Client     mqtt.Client
	Controller *stream.Controller
	Streamer   *stream.Streamer
	Hub        *api.Hub
	Api        *api.Api
	Control    *stream.ControlListener
}

func newApp(config *stream.Config) *app {
	a := new(app)
	a.Config = config
	return a
}

func (a *app) handleOnConnect(client mqtt.Client) {
	log.Println("Connected")
	if err := a.Control.Subscribe(); err != nil {
		log.Printf("Control subscription failed: %v", err)
	}
}

func datasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (a *app) loadDemos() error {
	clk := clock.New()
	a.Controller = stream.NewController(a.Config.FrameRate, a.Config.ControlRate, clk)

	builtin := demo.All()
	for _, name := range demo.Names() {
		if err := a.Controller.Add(name, builtin[name]); err != nil {
			return err
		}
	}

	for _, path := range a.Config.Datasets {
		d, err := diagram.LoadFile(path)
		if err != nil {
			return err
		}
		name := datasetName(path)
		if err := a.Controller.Add(name, d); err != nil {
			return err
		}
		log.Printf("Loaded dataset %s from %s", name, path)
	}

	if a.Config.Default != "" {
		if _, err := a.Controller.SetActive(a.Config.Default); err != nil {
			return err
		}
	}

	a.Hub = api.NewHub(a.Controller)
	a.Api = api.NewApi(a.Controller, a.Hub)
	a.Streamer = stream.NewStreamer(a.Controller, a.Config.FrameRate, clk, a.Hub)

	return nil
}

func (a *app) connectMqtt() error {
	if a.Config.Mqtt.URL == "" {
		log.Println("No MQTT broker configured, streaming to websocket viewers only")
		return nil
	}

	options := mqtt.NewClientOptions().
		AddBroker(a.Config.Mqtt.URL).
		SetClientID(a.Config.Mqtt.ClientID).
		SetUsername(a.Config.Mqtt.Username).
		SetPassword(a.Config.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetOnConnectHandler(a.handleOnConnect)
	a.Client = mqtt.NewClient(options)

	a.Control = stream.NewControlListener(a.Client, a.Config.Mqtt.Topics.Control, a.Controller)
	a.Streamer.AddSink(stream.NewMQTTSink(a.Client, a.Config.Mqtt.Topics.Frames, a.Config.Mqtt.QoS))

	if token := a.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (a *app) run(ctx context.Context) {
	var wg sync.WaitGroup
	runners := map[string]func(context.Context) error{
		"controller": a.Controller.Run,
		"streamer":   a.Streamer.Run,
		"hub":        a.Hub.Run,
		"api": func(ctx context.Context) error {
			return a.Api.Serve(ctx, a.Config.Listen)
		},
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for name, run := range runners {
		wg.Add(1)
		go func(name string, run func(context.Context) error) {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("%s stopped: %v", name, err)
				cancel()
			}
		}(name, run)
	}
	wg.Wait()

	if a.Client != nil {
		a.Client.Disconnect(250)
	}
}

func readConfig(configPath string) (*stream.Config, error) {
	config, err := stream.LoadConfig(configPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("No config at %s, using defaults", configPath)
		return stream.NewConfig(), nil
	}
	return config, err
}

func main() {
	// mqtt.DEBUG = log.New(os.Stdout, "", 0)
	mqtt.ERROR = log.New(os.Stdout, "", 0)

	// Parse command line parameters
	configPath := flag.String("config", "config.yaml", "YAML config file.")
	envPath := flag.String("env", ".env", "Environment file with MQTT credentials.")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil {
		log.Printf("Warning: %s not loaded: %v", *envPath, err)
	}

	// Read the config
	config, err := readConfig(*configPath)
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	config.ApplyEnv()
	log.Printf("Config: listen=%s frameRate=%v datasets=%v mqtt=%s",
		config.Listen, config.FrameRate, config.Datasets, config.Mqtt.URL)

	a := newApp(config)
	if err := a.loadDemos(); err != nil {
		log.Fatalf("Demos: %v", err)
	}
	if err := a.connectMqtt(); err != nil {
		log.Fatalf("MQTT: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.run(ctx)
}
