// Package bridge maintains the persistent notification connection to the
// server and fans incoming domain-change events out to transient toasts and
// the in-process event bus.
//
// The bridge is a small state machine over one connection: Disconnected,
// Connecting, Connected. Reconnection backs off linearly with the attempt
// count up to a fixed ceiling; past the ceiling it stops and leaves a
// persistent user-facing error. The dialer and the scheduler are injected so
// the policy is testable without sockets or real time.
package bridge

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/discograf/discograf/bus"
	"github.com/discograf/discograf/log"
	"github.com/discograf/discograf/notify"
)

// State is the connection state of the bridge
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	defaultMaxReconnectAttempts = 5
	defaultReconnectDelay       = 3 * time.Second
)

// defaultTopics is the fixed set of channels subscribed after every
// successful connect
var defaultTopics = []string{"albums", "artists", "covers", "regionais"}

const connectionLostMessage = "Connection to the server was lost. Reload the application."

// subscribeFrame is the frame sent to subscribe to a topic channel
type subscribeFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// Bridge owns the notification connection. Lifecycle is externally driven:
// callers connect once the session is authenticated and disconnect when it is
// not; the bridge holds no opinion beyond Connect/Disconnect/IsConnected.
type Bridge struct {
	url      string
	notifier notify.Notifier
	bus      *bus.Bus
	logger   *log.Logger

	dial     Dialer
	schedule Scheduler

	maxAttempts    int
	reconnectDelay time.Duration
	topics         []string

	mu          sync.Mutex
	state       State
	conn        Conn
	attempts    int
	timer       Timer
	shouldClose bool
}

// Option configures a Bridge
type Option func(*Bridge)

// WithDialer sets the transport dialer
func WithDialer(dial Dialer) Option {
	return func(b *Bridge) {
		b.dial = dial
	}
}

// WithScheduler sets the reconnect scheduler
func WithScheduler(schedule Scheduler) Option {
	return func(b *Bridge) {
		b.schedule = schedule
	}
}

// WithReconnectDelay sets the base reconnect delay
func WithReconnectDelay(delay time.Duration) Option {
	return func(b *Bridge) {
		b.reconnectDelay = delay
	}
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// New creates a Bridge for the given websocket URL, publishing toasts to the
// notifier and parsed events to the bus
func New(url string, notifier notify.Notifier, eventBus *bus.Bus, opts ...Option) *Bridge {
	b := &Bridge{
		url:            url,
		notifier:       notifier,
		bus:            eventBus,
		logger:         log.G,
		dial:           GorillaDialer,
		schedule:       AfterFuncScheduler,
		maxAttempts:    defaultMaxReconnectAttempts,
		reconnectDelay: defaultReconnectDelay,
		topics:         defaultTopics,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Connect establishes the connection and subscribes to the topic channels.
// A call while already connected or connecting is a no-op. Dial failures feed
// the reconnection policy instead of surfacing to the caller.
func (b *Bridge) Connect() {
	b.mu.Lock()
	if b.state != StateDisconnected {
		b.mu.Unlock()
		b.logger.Debug().Msg("bridge already connected")
		return
	}
	b.state = StateConnecting
	b.shouldClose = false
	b.mu.Unlock()

	conn, err := b.dial(b.url)
	if err != nil {
		b.logger.Warn().Err(err).Msg("bridge connect failed")
		b.mu.Lock()
		b.state = StateDisconnected
		b.mu.Unlock()
		b.handleReconnect()
		return
	}

	b.mu.Lock()
	b.conn = conn
	b.state = StateConnected
	b.attempts = 0
	b.mu.Unlock()

	for _, topic := range b.topics {
		if err := conn.WriteJSON(subscribeFrame{Action: "subscribe", Topic: topic}); err != nil {
			b.logger.Warn().Err(err).Str("topic", topic).Msg("subscribe failed")
		}
	}
	b.logger.Info().Str("url", b.url).Msg("bridge connected")

	go b.readLoop(conn)
}

// Disconnect tears the connection down. No reconnection follows; the session
// is over until the next explicit Connect.
func (b *Bridge) Disconnect() {
	b.mu.Lock()
	b.shouldClose = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	conn := b.conn
	b.conn = nil
	b.state = StateDisconnected
	b.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	b.logger.Info().Msg("bridge disconnected")
}

// IsConnected reports whether the bridge is currently connected
func (b *Bridge) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateConnected
}

// readLoop consumes inbound frames until the connection dies. Handlers run
// sequentially on this goroutine, one message at a time.
func (b *Bridge) readLoop(conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			b.mu.Lock()
			closing := b.shouldClose
			if b.conn == conn {
				b.conn = nil
				b.state = StateDisconnected
			}
			b.mu.Unlock()

			if !closing {
				b.logger.Warn().Err(err).Msg("bridge read error")
				b.handleReconnect()
			}
			return
		}

		b.handleMessage(data)
	}
}

// handleMessage parses one inbound frame. Parse failures are logged and
// dropped, they never take the bridge down.
func (b *Bridge) handleMessage(data []byte) {
	var event notify.Event
	if err := json.Unmarshal(data, &event); err != nil {
		b.logger.Warn().Err(err).Msg("dropping malformed notification")
		return
	}

	b.logger.Debug().Str("type", event.Type).Msg("notification received")

	b.notifier.Notify(notify.ToastFor(event))
	b.bus.Publish(event)
}

// handleReconnect applies the reconnection policy: linear backoff per attempt
// up to the ceiling, then a persistent error toast and no further attempts.
func (b *Bridge) handleReconnect() {
	b.mu.Lock()
	if b.shouldClose {
		b.mu.Unlock()
		return
	}

	if b.attempts >= b.maxAttempts {
		b.mu.Unlock()
		b.logger.Error().Int("attempts", b.maxAttempts).Msg("max reconnection attempts reached")
		b.notifier.Notify(notify.Toast{
			Severity:   notify.SeverityError,
			Message:    connectionLostMessage,
			Persistent: true,
		})
		return
	}

	b.attempts++
	attempt := b.attempts
	delay := time.Duration(attempt) * b.reconnectDelay

	// The callback re-checks shouldClose: a timer that already fired when
	// Disconnect stopped it must not bring the connection back.
	b.timer = b.schedule(delay, func() {
		b.mu.Lock()
		closing := b.shouldClose
		b.mu.Unlock()

		if !closing {
			b.Connect()
		}
	})
	b.mu.Unlock()

	b.logger.Info().
		Int("attempt", attempt).
		Int("max", b.maxAttempts).
		Dur("delay", delay).
		Msg("scheduling bridge reconnect")
}
