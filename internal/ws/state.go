package ws

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/lightwrap/internal/diagnostics"
	"github.com/coreman2200/lightwrap/internal/layout"
	"github.com/coreman2200/lightwrap/internal/render"
	"github.com/coreman2200/lightwrap/internal/tests"
	"github.com/coreman2200/lightwrap/internal/wrapper"
)

// maxPayload bounds one command message; a full bitmap is well under this.
const maxPayload = 1 << 20

// Target receives decoded wrapper payloads.
type Target interface {
	Apply(gs wrapper.GameState)
	Stats() wrapper.Stats
}

// FrameSource exposes the last frame written to the LEDs.
type FrameSource interface {
	Frame() (uint64, []byte)
}

// TestRunner starts wiring test patterns.
type TestRunner interface {
	Start(p tests.Plan) error
}

type Server struct {
	mu     sync.RWMutex
	Layout *layout.Layout
	FPS    int
	Target Target
	Tests  TestRunner  // optional
	Frames FrameSource // optional; adds the current estimate to /health

	CurrentDriver string

	writeMu     sync.Mutex
	frameID     uint64
	startTime   time.Time
	clients     map[*websocket.Conn]string
	diagClients map[*websocket.Conn]string
	commands    atomic.Uint64
	rejected    atomic.Uint64
}

func NewServer(l *layout.Layout, fps int, t Target) *Server {
	return &Server{
		Layout:      l,
		FPS:         fps,
		Target:      t,
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]string{},
		diagClients: map[*websocket.Conn]string{},
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Routes registers every handler on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/command", s.HandleCommand)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/test", s.HandleTest)
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.clients[conn] = id
	s.mu.Unlock()
	log.Debug().Str("client", id).Str("remote", r.RemoteAddr).Msg("frame client connected")
	s.sendTopology(conn)

	go s.drain(conn, func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		log.Debug().Str("client", id).Msg("frame client gone")
	})
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.diagClients[conn] = id
	s.mu.Unlock()
	s.write(conn, diag.Diagnostic{
		Severity: diag.Info, Code: "DIAG.CONNECTED", Summary: "Diagnostics stream open",
		Evidence: map[string]any{"client": id}, At: time.Now(),
	})

	go s.drain(conn, func() {
		s.mu.Lock()
		delete(s.diagClients, conn)
		s.mu.Unlock()
	})
}

// HandleCommand accepts payloads as websocket text messages or as a single POST body.
func (s *Server) HandleCommand(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.handleCommandWS(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayload))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.applyPayload(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCommandWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxPayload)
	id := uuid.NewString()
	log.Info().Str("client", id).Str("remote", r.RemoteAddr).Msg("command client connected")
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Info().Str("client", id).Msg("command client gone")
			return
		}
		if err := s.applyPayload(data); err != nil {
			log.Debug().Err(err).Str("client", id).Msg("skip payload")
		}
	}
}

func (s *Server) applyPayload(data []byte) error {
	var gs wrapper.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		s.rejected.Add(1)
		s.PushDiag(diag.BadPayload(err))
		return err
	}
	if gs.Command == "" {
		err := errors.New("missing command")
		s.rejected.Add(1)
		s.PushDiag(diag.BadPayload(err))
		return err
	}
	s.commands.Add(1)
	s.Target.Apply(gs)
	return nil
}

// HandleTest starts a test pattern from a {"kind","hold"} POST body.
func (s *Server) HandleTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.Tests == nil {
		http.Error(w, "test patterns unavailable", http.StatusNotImplemented)
		return
	}
	var req struct {
		Kind string `json:"kind"`
		Hold int    `json:"hold"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPayload)).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Tests.Start(tests.Plan{Kind: tests.Kind(req.Kind), Hold: req.Hold}); err != nil {
		s.PushDiag(diag.TestUnknown(req.Kind))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.PushDiag(diag.TestRunning(req.Kind))
	w.WriteHeader(http.StatusAccepted)
}

// OnTestDone reports a finished test pattern to diag clients.
func (s *Server) OnTestDone(k tests.Kind) {
	s.PushDiag(diag.TestDone(string(k)))
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.Target.Stats()
	s.mu.RLock()
	resp := map[string]any{
		"frame_id":      s.frameID,
		"uptime_s":      time.Since(s.startTime).Seconds(),
		"count":         s.Layout.Count(),
		"fps":           s.FPS,
		"driver":        s.CurrentDriver,
		"clients":       len(s.clients),
		"commands":      s.commands.Load(),
		"rejected":      s.rejected.Load(),
		"key_effects":   st.KeyEffects,
		"entire_effect": st.EntireEffect,
	}
	s.mu.RUnlock()
	if s.Frames != nil {
		_, frame := s.Frames.Frame()
		resp["current_a"] = render.EstimateCurrent(frame)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// OnUnknownCommand forwards ignored commands to diag clients.
func (s *Server) OnUnknownCommand(name string) {
	s.PushDiag(diag.UnknownCommand(name))
}

func (s *Server) sendTopology(conn *websocket.Conn) {
	w, h := s.Layout.Size()
	pos := make(map[string][2]int, s.Layout.Count())
	for _, l := range s.Layout.LEDs() {
		p, _ := s.Layout.Position(l)
		pos[string(l)] = [2]int{p.X, p.Y}
	}
	s.mu.RLock()
	top := map[string]any{
		"count":  s.Layout.Count(),
		"width":  w,
		"height": h,
		"leds":   s.Layout.LEDs(),
		"pos":    pos,
		"driver": s.CurrentDriver,
	}
	s.mu.RUnlock()
	s.write(conn, top)
}

// BroadcastFrame sends one rendered frame to every frame client.
func (s *Server) BroadcastFrame(id uint64, rgb []byte) {
	type frame struct {
		T       int64  `json:"t"`
		FrameID uint64 `json:"frame_id"`
		RGB     []byte `json:"rgb"`
	}
	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: id, RGB: rgb})

	s.mu.Lock()
	s.frameID = id
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		s.writeRaw(c, b)
	}
}

// PushDiag sends d to every diagnostics client.
func (s *Server) PushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.diagClients))
	for c := range s.diagClients {
		conns = append(conns, c)
	}
	s.mu.RUnlock()
	for _, c := range conns {
		s.writeRaw(c, b)
	}
}

func (s *Server) write(conn *websocket.Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Msg("encode message")
		return
	}
	s.writeRaw(conn, b)
}

func (s *Server) writeRaw(conn *websocket.Conn, b []byte) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Debug().Err(err).Msg("write message")
	}
}

func (s *Server) drain(conn *websocket.Conn, done func()) {
	defer func() {
		done()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WithCORS allows browser previews served from another origin.
func WithCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
