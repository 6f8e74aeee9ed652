package main

import (
	"context"
	_ "embed"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Yuwon03/MLQ-Scheduler/integration"
	"github.com/Yuwon03/MLQ-Scheduler/simulator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		return true
	},
}

// Client message types: start, pause, reset, config_update
type ClientMessage struct {
	Type   string                 `json:"type"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// Server message types: status, snapshot, done, error
type ServerMessage struct {
	Type       string                            `json:"type"`
	Running    *bool                             `json:"running,omitempty"`
	Workload   string                            `json:"workload,omitempty"`
	Config     *simulator.Config                 `json:"config,omitempty"`
	Parameters []integration.ParameterDescriptor `json:"parameters,omitempty"`
	Snapshot   *simulator.Snapshot               `json:"snapshot,omitempty"`
	Events     []simulator.Event                 `json:"events,omitempty"`
	Results    []simulator.JobResult             `json:"results,omitempty"`
	Error      string                            `json:"error,omitempty"`
}

type server struct {
	scenario *integration.Scenario
	tick     time.Duration
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *schedulerMetrics
	router   chi.Router
}

func newServer(sc *integration.Scenario, tick time.Duration, logger *slog.Logger) *server {
	reg := prometheus.NewRegistry()
	s := &server{
		scenario: sc,
		tick:     tick,
		logger:   logger.With("component", "server"),
		registry: reg,
		metrics:  newSchedulerMetrics(reg),
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *server) routes() {
	r := s.router
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.serveHome)
	r.Get("/ws", s.handleWebSocket)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// Handler returns the http.Handler for this server.
func (s *server) Handler() http.Handler {
	return s.router
}

// simState manages one client's run and its pacing
type simState struct {
	model   *integration.SchedulerModel
	running bool
	paused  bool
	mu      sync.Mutex
	stopCh  chan struct{}

	// filled by the model's event callback during step, drained right after
	events []simulator.Event
}

func newSimState(sc *integration.Scenario, logger *slog.Logger) (*simState, error) {
	cfg := sc.Config
	cfg.TickInterval = 0 // the UI loop paces ticks
	model, err := integration.NewSchedulerModel(sc.Name, cfg, sc.Jobs, logger)
	if err != nil {
		return nil, err
	}
	st := &simState{
		model:  model,
		stopCh: make(chan struct{}),
	}
	model.OnEvent(func(e simulator.Event) {
		st.events = append(st.events, e)
	})
	return st, nil
}

func (s *simState) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.paused = false
}

func (s *simState) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// halt stops stepping once the run is over or has failed
func (s *simState) halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *simState) reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.paused = false
	return s.model.Reset()
}

// isRunning returns true if simulation is running and not paused
func (s *simState) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && !s.paused
}

// step advances one tick and returns the events it produced
func (s *simState) step(ctx context.Context) (bool, []simulator.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.paused {
		return false, nil, nil
	}
	done, err := s.model.Step(ctx)
	events := s.events
	s.events = nil
	return done, events, err
}

func (s *simState) stop() {
	close(s.stopCh)
}

func (s *server) statusMessage(state *simState) ServerMessage {
	running := state.isRunning()
	cfg := state.model.SimConfig()
	return ServerMessage{
		Type:       "status",
		Running:    &running,
		Workload:   state.model.Name(),
		Config:     &cfg,
		Parameters: state.model.MutableParameters(),
	}
}

// uiUpdateLoop steps the run on every tick while it is running and streams
// a snapshot after each step.
func (s *server) uiUpdateLoop(conn *safeConn, state *simState) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-state.stopCh:
			s.logger.Debug("ui update loop stopping")
			return

		case <-ticker.C:
			if !state.isRunning() {
				continue
			}
			done, events, err := state.step(context.Background())
			if err != nil {
				state.halt()
				s.logger.Error("simulation aborted", "workload", state.model.Name(), "error", err)
				conn.WriteJSON(ServerMessage{Type: "error", Error: err.Error()})
				continue
			}

			snap := state.model.Snapshot()
			s.metrics.update(snap)
			if err := conn.WriteJSON(ServerMessage{Type: "snapshot", Snapshot: &snap, Events: events}); err != nil {
				s.logger.Warn("error sending snapshot", "error", err)
				return
			}

			if done {
				state.halt()
				m := snap.Metrics
				s.logger.Info("simulation finished", "workload", state.model.Name(), "tick", snap.Tick,
					"avg_turnaround", m.AvgTurnaround, "avg_waiting", m.AvgWaiting, "avg_response", m.AvgResponse)
				if err := conn.WriteJSON(ServerMessage{Type: "done", Snapshot: &snap, Results: state.model.Results()}); err != nil {
					s.logger.Warn("error sending results", "error", err)
					return
				}
			}
		}
	}
}

// safeConn wraps a WebSocket connection with a mutex to prevent concurrent writes
type safeConn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func (sc *safeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	return sc.Conn.WriteJSON(v)
}

func (s *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("error upgrading connection", "error", err)
		return
	}
	defer conn.Close()

	safeConn := &safeConn{Conn: conn}
	s.logger.Info("client connected", "remote", r.RemoteAddr)

	state, err := newSimState(s.scenario, s.logger)
	if err != nil {
		s.logger.Error("error creating simulator", "error", err)
		safeConn.WriteJSON(ServerMessage{Type: "error", Error: err.Error()})
		return
	}
	s.metrics.update(state.model.Snapshot())

	if err := safeConn.WriteJSON(s.statusMessage(state)); err != nil {
		s.logger.Warn("error sending status", "error", err)
		return
	}

	go s.uiUpdateLoop(safeConn, state)
	defer state.stop()

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("error reading message", "error", err)
			}
			break
		}

		s.logger.Debug("received command", "type", msg.Type)

		switch msg.Type {
		case "start":
			state.start()
		case "pause":
			state.pause()
		case "reset":
			if err := state.reset(); err != nil {
				safeConn.WriteJSON(ServerMessage{Type: "error", Error: err.Error()})
				continue
			}
			s.metrics.update(state.model.Snapshot())
		case "config_update":
			if err := state.model.UpdateParameters(msg.Params); err != nil {
				s.logger.Warn("error updating config", "error", err)
				safeConn.WriteJSON(ServerMessage{Type: "error", Error: err.Error()})
				continue
			}
		default:
			safeConn.WriteJSON(ServerMessage{Type: "error", Error: "unknown command " + msg.Type})
			continue
		}
		safeConn.WriteJSON(s.statusMessage(state))
	}

	s.logger.Info("client disconnected", "remote", r.RemoteAddr)
}

func (s *server) serveHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, s.scenario); err != nil {
		s.logger.Error("error executing template", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
