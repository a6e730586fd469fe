// Package api serves the demo viewer page, a small REST surface for
// playback control and the websocket frame stream.
package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/matt-g-everett/seqtx/diagram"
	"github.com/matt-g-everett/seqtx/render"
	"github.com/matt-g-everett/seqtx/stream"
)

const (
	maxBodySize     = 4096
	shutdownTimeout = 5 * time.Second
)

//go:embed static/index.html
var indexPage []byte

type stateMessage struct {
	Demo     string           `json:"demo"`
	Title    string           `json:"title"`
	Snapshot diagram.Snapshot `json:"snapshot"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Api exposes a Controller over HTTP.
type Api struct {
	controller *stream.Controller
	hub        *Hub
	renderer   *render.Renderer
	mux        *http.ServeMux
}

// NewApi creates an Api routing to controller with viewers served by hub.
func NewApi(controller *stream.Controller, hub *Hub) *Api {
	a := new(Api)
	a.controller = controller
	a.hub = hub
	a.renderer = render.NewRenderer()

	a.mux = http.NewServeMux()
	a.mux.HandleFunc("/", a.handleIndex)
	a.mux.HandleFunc("/api/demos", a.handleDemos)
	a.mux.HandleFunc("/api/state", a.handleState)
	a.mux.HandleFunc("/api/frame.svg", a.handleFrame)
	a.mux.HandleFunc("/api/control", a.handleControl)
	a.mux.HandleFunc("/ws", hub.ServeWS)

	return a
}

// Handler returns the routes of the Api.
func (a *Api) Handler() http.Handler {
	return a.mux
}

// Serve listens on addr until ctx is cancelled.
func (a *Api) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: a.mux}

	errs := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s...", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, stream.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, stream.ErrUnknownDemo):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, diagram.ErrStopped):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	return false
}

func (a *Api) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !allow(w, r, http.MethodGet) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}

func (a *Api) handleDemos(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, a.controller.Demos())
}

func (a *Api) handleState(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	d, err := a.controller.Demo(r.URL.Query().Get("demo"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateMessage{
		Demo:     d.Name,
		Title:    d.Animation.Diagram().Title,
		Snapshot: d.Player.Snapshot(),
	})
}

// handleFrame renders a still of a demo with every effect settled.
func (a *Api) handleFrame(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	d, err := a.controller.Demo(r.URL.Query().Get("demo"))
	if err != nil {
		writeError(w, err)
		return
	}

	dg := d.Animation.Diagram()
	scene := a.renderer.Render(dg, diagram.NewLayout(dg), d.Player.Snapshot(), render.Effects{})
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := render.EncodeSVG(w, scene); err != nil {
		log.Printf("write frame: %v", err)
	}
}

func (a *Api) handleControl(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, err)
		return
	}
	cmd, err := stream.ParseCommand(body)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()
	if err := a.controller.Apply(ctx, cmd); err != nil {
		writeError(w, err)
		return
	}

	d, err := a.controller.Demo(cmd.Demo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateMessage{
		Demo:     d.Name,
		Title:    d.Animation.Diagram().Title,
		Snapshot: d.Player.Snapshot(),
	})
}
