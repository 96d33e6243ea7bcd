package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Tyrowin/guildchat/internal/realtime"
)

// Hub manages all WebSocket client connections and fans events out to them.
// It owns the presence registry and the event dispatcher, and is the
// Broadcaster both of them publish through.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}

	log      *zap.Logger
	metrics  *Metrics
	presence *realtime.Registry
	events   *realtime.Dispatcher
}

// NewHub creates a Hub persisting through gateway. The returned Hub is ready
// to manage WebSocket connections once Run is started.
func NewHub(gateway realtime.Gateway, cfg RealtimeConfig, log *zap.Logger, metrics *Metrics) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		log:        log.Named("hub"),
		metrics:    metrics,
	}
	h.presence = realtime.NewRegistry(h, metrics)
	h.events = realtime.NewDispatcher(gateway, h,
		realtime.WithLogger(log.Named("dispatcher")),
		realtime.WithObserver(metrics),
		realtime.WithTimeout(cfg.OperationTimeout),
	)
	return h
}

// ActiveUsers returns the current presence snapshot.
func (h *Hub) ActiveUsers() []string {
	return h.presence.Snapshot()
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Recovered from panic in safeSend", zap.Any("panic", r))
		}
	}()

	// Hold the lock during the entire send operation to prevent race conditions
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop, handling client registration and
// unregistration. It should be called in a separate goroutine and returns
// once Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn("Received nil client registration; skipping")
				continue
			}
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	h.metrics.connections.Set(float64(clientCount))
	h.log.Info("Client registered",
		zap.String("addr", client.addr),
		zap.String("user_id", client.userID),
		zap.Int("clients", clientCount),
	)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()

	if client.userID != "" {
		h.presence.Register(client.userID)
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	client.closed = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	// Close the channel after releasing the lock
	close(client.send)

	h.metrics.connections.Set(float64(clientCount))
	h.log.Info("Client unregistered",
		zap.String("addr", client.addr),
		zap.String("user_id", client.userID),
		zap.Int("clients", clientCount),
	)

	if client.userID != "" {
		h.presence.Deregister(client.userID)
	}
}

// Broadcast encodes an event frame and queues it on every open connection.
// It never blocks on the network: a client whose buffer is full is closed
// and leaves through the normal unregister path.
func (h *Hub) Broadcast(event string, payload any) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		h.log.Error("Error encoding broadcast", zap.String("event", event), zap.Error(err))
		return
	}

	clients := h.getClientSnapshot()
	h.metrics.broadcasts.WithLabelValues(event).Inc()
	h.log.Debug("Broadcasting event", zap.String("event", event), zap.Int("clients", len(clients)))

	var failed []*Client
	for _, client := range clients {
		if !h.safeSend(client, frame) {
			failed = append(failed, client)
		}
	}
	h.closeSlowClients(failed)
}

// getClientSnapshot returns a thread-safe snapshot of all current clients
func (h *Hub) getClientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// closeSlowClients marks clients that could not take a frame and closes their
// sockets in the background. Their read pumps then fail and unregister them.
func (h *Hub) closeSlowClients(clients []*Client) {
	if len(clients) == 0 {
		return
	}

	h.mutex.Lock()
	var toClose []*Client
	for _, client := range clients {
		if _, exists := h.clients[client]; exists && !client.closed {
			client.closed = true
			toClose = append(toClose, client)
		}
	}
	h.mutex.Unlock()

	for _, client := range toClose {
		h.log.Warn("Closing client with full send buffer", zap.String("addr", client.addr), zap.String("user_id", client.userID))
		go client.closeConn()
	}
}

// shutdownClients closes every send channel and socket.
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, client)
		client.closed = true
	}
	h.mutex.Unlock()

	for _, client := range clients {
		close(client.send)
		client.closeConn()
	}
	h.metrics.connections.Set(0)

	h.log.Info("Closed client connections", zap.Int("count", len(clients)))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
