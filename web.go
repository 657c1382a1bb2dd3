package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/turbekoff/calcpad/pkg/calc"
)

//go:embed web/index.html
var indexPage []byte

const writeTimeout = 10 * time.Second

type keyMessage struct {
	Key string `json:"key"`
}

type displayMessage struct {
	Display string `json:"display"`
	Active  string `json:"active"`
	Error   string `json:"error,omitempty"`
}

func newDisplayMessage(c *calc.Calculator, err error) displayMessage {
	msg := displayMessage{
		Display: c.Display(),
		Active:  c.Active().String(),
	}
	if err != nil {
		msg.Error = err.Error()
	}
	return msg
}

// Web serves the keypad page and one calculator per WebSocket connection.
type Web struct {
	server     *http.Server
	upgrader   websocket.Upgrader
	logger     *slog.Logger
	mu         sync.Mutex
	conns      map[*websocket.Conn]struct{}
	inShutdown atomic.Bool
}

func NewWeb(addr string, logger *slog.Logger) *Web {
	w := &Web{
		logger: logger.With("adapter", "web"),
		conns:  make(map[*websocket.Conn]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", w.handleIndex)
	mux.HandleFunc("GET /ws", w.handleSocket)

	w.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return w
}

func (w *Web) Handler() http.Handler {
	return w.server.Handler
}

func (w *Web) Run() error {
	w.logger.Info("web keypad listening", "addr", w.server.Addr)
	if err := w.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve web: %w", err)
	}
	return ErrClosed
}

func (w *Web) Shutdown(ctx context.Context) error {
	w.inShutdown.Store(true)
	err := w.server.Shutdown(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	for conn := range w.conns {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.Close()
	}
	return err
}

func (w *Web) handleIndex(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := rw.Write(indexPage); err != nil {
		w.logger.Debug("failed to write index page", "error", err)
	}
}

func (w *Web) handleSocket(rw http.ResponseWriter, r *http.Request) {
	if w.inShutdown.Load() {
		http.Error(rw, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.logger.Warn("failed to upgrade connection", "remote", r.RemoteAddr, "error", err)
		return
	}
	w.track(conn)
	defer w.untrack(conn)

	logger := w.logger.With("remote", r.RemoteAddr)
	logger.Debug("session opened")

	calculator := calc.NewCalculator()
	if err := w.send(conn, newDisplayMessage(calculator, nil)); err != nil {
		logger.Warn("failed to send display", "error", err)
		return
	}

	for {
		var msg keyMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("connection closed", "error", err)
			}
			break
		}

		pressErr := calculator.Press(msg.Key)
		if err := w.send(conn, newDisplayMessage(calculator, pressErr)); err != nil {
			logger.Warn("failed to send display", "error", err)
			break
		}
	}
	logger.Debug("session closed")
}

func (w *Web) send(conn *websocket.Conn, msg displayMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

func (w *Web) track(conn *websocket.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conns[conn] = struct{}{}
}

func (w *Web) untrack(conn *websocket.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.conns, conn)
	conn.Close()
}
