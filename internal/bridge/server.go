// ABOUTME: WebSocket bridge mirroring the output selector to remote clients
// ABOUTME: Broadcasts device list and selection, accepts remote selections
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Resonate-Protocol/outputselect/internal/app"
	"github.com/Resonate-Protocol/outputselect/internal/discovery"
	"github.com/Resonate-Protocol/outputselect/internal/protocol"
	"github.com/Resonate-Protocol/outputselect/pkg/audio"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/selector"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
	sendBuffer    = 32
)

// Config holds bridge configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	Debug      bool
}

// Controller is the state owner the bridge mirrors
type Controller interface {
	State() app.State
	Props() selector.Props
	Refresh(ctx context.Context) error
	Subscribe(buffer int) (<-chan app.State, func())
}

// Server is the output bridge
type Server struct {
	config   Config
	serverID string
	ctrl     Controller

	upgrader websocket.Upgrader
	mux      *http.ServeMux

	clients   map[string]*Client
	clientsMu sync.RWMutex

	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	subscribed chan struct{}
	subOnce    sync.Once
}

// Client is a connected remote
type Client struct {
	ID       string
	Name     string
	Conn     *websocket.Conn
	sendChan chan protocol.Message
	mu       sync.RWMutex
}

// New creates a bridge for ctrl
func New(config Config, ctrl Controller) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		ctrl:     ctrl,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// Local-network tool; non-browser clients send no Origin
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin != "" {
					log.Printf("Warning: accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		clients:    make(map[string]*Client),
		ctx:        ctx,
		cancel:     cancel,
		subscribed: make(chan struct{}),
	}
	s.mux.HandleFunc(discovery.BridgePath, s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler serving the bridge endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run broadcasts controller state changes until ctx is done or Stop is called
func (s *Server) Run(ctx context.Context) {
	updates, unsubscribe := s.ctrl.Subscribe(16)
	defer unsubscribe()
	s.subOnce.Do(func() { close(s.subscribed) })

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ctx.Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			s.broadcast(stateMessage(state))
		}
	}
}

// Start serves the bridge on config.Port and blocks until ctx is done,
// Stop is called, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	log.Printf("Bridge starting: %s (ID: %s)", s.config.Name, s.serverID)

	var mdnsManager *discovery.Manager
	if s.config.EnableMDNS {
		mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
		})
		if err := mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
		defer mdnsManager.Stop()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run(ctx)
	}()

	addr := fmt.Sprintf(":%d", s.config.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	log.Printf("Bridge listening on %s%s", addr, discovery.BridgePath)

	var serverErr error
	select {
	case <-ctx.Done():
	case <-s.ctx.Done():
	case serverErr = <-errChan:
		log.Printf("HTTP server error: %v", serverErr)
	}

	s.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.closeClients()
	s.wg.Wait()
	log.Printf("Bridge stopped")

	if serverErr != nil {
		return fmt.Errorf("bridge listener failed: %w", serverErr)
	}
	return nil
}

// Ready is closed once the bridge follows controller changes
func (s *Server) Ready() <-chan struct{} {
	return s.subscribed
}

// Stop stops the bridge
func (s *Server) Stop() {
	s.cancel()
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// handleWebSocket upgrades and serves one client
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.ctx.Err() != nil {
		http.Error(w, "bridge shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New bridge connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection registers the client and runs its read loop
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	client := &Client{
		ID:       uuid.New().String(),
		Name:     conn.RemoteAddr().String(),
		Conn:     conn,
		sendChan: make(chan protocol.Message, sendBuffer),
	}

	hello, _ := protocol.NewMessage(protocol.TypeServerHello, protocol.ServerHello{
		ServerID: s.serverID,
		ClientID: client.ID,
		Name:     s.config.Name,
		Version:  protocol.Version,
	})

	// hello and the snapshot are queued before the client becomes visible
	// to broadcast, so they are always its first two messages
	s.clientsMu.Lock()
	client.sendChan <- hello
	client.sendChan <- stateMessage(s.ctrl.State())
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	writerDone := make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(writerDone)
		s.clientWriter(client)
	}()

	defer func() {
		s.clientsMu.Lock()
		if _, ok := s.clients[client.ID]; ok {
			delete(s.clients, client.ID)
			close(client.sendChan)
		}
		s.clientsMu.Unlock()
		<-writerDone
		log.Printf("Bridge client disconnected: %s", client.displayName())
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		s.handleClientMessage(client, data)
	}
}

// clientWriter drains the client's send channel and keeps the socket alive
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}
			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.Conn.WriteJSON(msg); err != nil {
				log.Printf("Error writing to %s: %v", client.displayName(), err)
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage dispatches one client message
func (s *Server) handleClientMessage(client *Client, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message from %s: %v", client.displayName(), err)
		s.sendError(client, protocol.ErrBadMessage, "invalid JSON")
		return
	}

	if s.config.Debug {
		log.Printf("[DEBUG] %s -> %s", client.displayName(), msg.Type)
	}

	switch msg.Type {
	case protocol.TypeClientHello:
		var hello protocol.ClientHello
		if err := msg.Decode(&hello); err != nil || hello.Name == "" {
			s.sendError(client, protocol.ErrBadMessage, "client/hello requires a name")
			return
		}
		client.mu.Lock()
		client.Name = hello.Name
		client.mu.Unlock()
		log.Printf("Bridge client hello: %s (ID: %s)", hello.Name, client.ID)

	case protocol.TypeSelect:
		var sel protocol.Select
		if err := msg.Decode(&sel); err != nil {
			s.sendError(client, protocol.ErrBadMessage, err.Error())
			return
		}
		if !s.ctrl.Props().Change(sel.ID) {
			s.sendError(client, protocol.ErrUnknownDevice, fmt.Sprintf("no output device with id %q", sel.ID))
			return
		}
		log.Printf("Output selected remotely by %s: %s", client.displayName(), sel.ID)

	case protocol.TypeRefresh:
		if err := s.ctrl.Refresh(s.ctx); err != nil {
			s.sendError(client, "refresh_failed", err.Error())
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
		s.sendError(client, protocol.ErrBadMessage, "unknown message type "+msg.Type)
	}
}

// send queues msg for client, dropping it if the buffer is full
func (s *Server) send(client *Client, msg protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	if _, ok := s.clients[client.ID]; !ok {
		return
	}
	select {
	case client.sendChan <- msg:
	default:
		log.Printf("Send buffer full for %s, dropping %s", client.displayName(), msg.Type)
	}
}

// sendError reports a rejected request to its sender only
func (s *Server) sendError(client *Client, code, message string) {
	msg, _ := protocol.NewMessage(protocol.TypeServerError, protocol.Error{
		Error:   code,
		Message: message,
	})
	s.send(client, msg)
}

// broadcast queues msg for every client
func (s *Server) broadcast(msg protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		select {
		case client.sendChan <- msg:
		default:
			log.Printf("Send buffer full for %s, dropping %s", client.displayName(), msg.Type)
		}
	}
}

// closeClients closes every client connection so read loops exit
func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		client.Conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bridge stopping"),
			time.Now().Add(time.Second))
		client.Conn.Close()
	}
}

func (c *Client) displayName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Name
}

// stateMessage builds an outputs/state message from a controller snapshot
func stateMessage(state app.State) protocol.Message {
	devices := state.Devices
	if devices == nil {
		devices = []audio.Device{}
	}
	msg, _ := protocol.NewMessage(protocol.TypeState, protocol.State{
		Devices:          devices,
		SelectedDeviceID: state.SelectedDeviceID,
		Value:            selector.ResolveDisplayValue(state.Devices, state.SelectedDeviceID),
	})
	return msg
}
