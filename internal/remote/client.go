// ABOUTME: WebSocket client for the output bridge
// ABOUTME: Handles handshake, state updates and remote selection requests
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/Resonate-Protocol/outputselect/internal/discovery"
	"github.com/Resonate-Protocol/outputselect/internal/protocol"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/selector"
	"github.com/gorilla/websocket"
)

const handshakeTimeout = 5 * time.Second

// Config holds client configuration
type Config struct {
	ServerAddr string
	// Path of the bridge endpoint (default /outputs)
	Path string
	Name string
}

// Client represents a bridge client
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex
	sendMu sync.Mutex

	// Message channels
	States chan protocol.State
	Errors chan protocol.Error

	hello     protocol.ServerHello
	state     protocol.State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new bridge client
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config: config,
		States: make(chan protocol.State, 10),
		Errors: make(chan protocol.Error, 10),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect dials the bridge and waits for the initial state
func (c *Client) Connect(ctx context.Context) error {
	path := c.config.Path
	if path == "" {
		path = discovery.BridgePath
	}
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake reads server/hello and the first outputs/state
func (c *Client) handshake() error {
	c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer c.conn.SetReadDeadline(time.Time{})

	var msg protocol.Message
	if err := c.conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	if msg.Type != protocol.TypeServerHello {
		return fmt.Errorf("expected %s, got %s", protocol.TypeServerHello, msg.Type)
	}
	var hello protocol.ServerHello
	if err := msg.Decode(&hello); err != nil {
		return err
	}

	if err := c.conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("failed to read initial state: %w", err)
	}
	if msg.Type != protocol.TypeState {
		return fmt.Errorf("expected %s, got %s", protocol.TypeState, msg.Type)
	}
	var state protocol.State
	if err := msg.Decode(&state); err != nil {
		return err
	}

	c.mu.Lock()
	c.hello = hello
	c.state = state
	c.mu.Unlock()

	log.Printf("Handshake complete with %s (client ID: %s)", hello.Name, hello.ClientID)

	if c.config.Name != "" {
		if err := c.send(protocol.TypeClientHello, protocol.ClientHello{Name: c.config.Name}); err != nil {
			return fmt.Errorf("failed to send client/hello: %w", err)
		}
	}
	return nil
}

// send writes one message
func (c *Client) send(msgType string, payload interface{}) error {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		return err
	}

	c.mu.RLock()
	connected, conn := c.connected, c.conn
	c.mu.RUnlock()
	if !connected {
		return fmt.Errorf("not connected")
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				log.Printf("Read error: %v", err)
			}
			return
		}

		c.handleMessage(data)
	}
}

// handleMessage routes one JSON message
func (c *Client) handleMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}

	switch msg.Type {
	case protocol.TypeState:
		var state protocol.State
		if err := msg.Decode(&state); err != nil {
			log.Printf("Invalid state: %v", err)
			return
		}
		c.mu.Lock()
		c.state = state
		c.mu.Unlock()
		select {
		case c.States <- state:
		case <-c.ctx.Done():
		}

	case protocol.TypeServerError:
		var perr protocol.Error
		if err := msg.Decode(&perr); err != nil {
			log.Printf("Invalid error message: %v", err)
			return
		}
		log.Printf("Bridge error: %s: %s", perr.Error, perr.Message)
		select {
		case c.Errors <- perr:
		case <-c.ctx.Done():
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// Select asks the bridge to pick the device with the given id
func (c *Client) Select(id string) error {
	return c.send(protocol.TypeSelect, protocol.Select{ID: id})
}

// Refresh asks the bridge to re-enumerate devices
func (c *Client) Refresh() error {
	return c.send(protocol.TypeRefresh, nil)
}

// AwaitSelection waits for a state whose selection is id. States for
// other selections, such as broadcasts from another client, are skipped.
func (c *Client) AwaitSelection(ctx context.Context, id string) (protocol.State, error) {
	for {
		select {
		case state := <-c.States:
			if state.SelectedDeviceID == id {
				return state, nil
			}
		case perr := <-c.Errors:
			return protocol.State{}, fmt.Errorf("%s: %s", perr.Error, perr.Message)
		case <-ctx.Done():
			return protocol.State{}, ctx.Err()
		case <-c.ctx.Done():
			return protocol.State{}, fmt.Errorf("connection closed")
		}
	}
}

// State returns the last state received
func (c *Client) State() protocol.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Hello returns the server/hello received during the handshake
func (c *Client) Hello() protocol.ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hello
}

// Options returns the dropdown options for the last state received
func (c *Client) Options() []selector.Option {
	return selector.Options(c.State().Devices)
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
