package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeDeadline = 5 * time.Second

// Options configures a Client. Zero values fall back to sane defaults.
type Options struct {
	// URL is the websocket endpoint, usually from ResolveEndpoint.
	URL string
	// MaxAttempts bounds dial retries per outage.
	MaxAttempts int
	// RetryDelay is the fixed wait between dial attempts.
	RetryDelay time.Duration
	// DialTimeout bounds a single websocket handshake.
	DialTimeout time.Duration
}

func (o *Options) fill() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 2 * time.Second
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 10 * time.Second
	}
}

// Client owns the one realtime connection of the process. It dials on Start,
// redials with a bounded retry policy after a drop, republishes every server
// push through its Notifier, and exposes the fire-and-forget emitters.
// Commands issued while disconnected are dropped with a warning; the REST API
// stays the source of truth and the realtime channel is best-effort.
type Client struct {
	opts     Options
	notifier *Notifier
	rooms    *memberships

	mu       sync.Mutex // guards state, conn, identity
	writeMu  sync.Mutex // gorilla allows one concurrent writer
	state    ConnState
	conn     *websocket.Conn
	identity *Identity

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewClient builds a client. It does not connect until Start.
func NewClient(opts Options) *Client {
	opts.fill()
	return &Client{
		opts:     opts,
		notifier: &Notifier{},
		rooms:    newMemberships(),
		done:     make(chan struct{}),
	}
}

// Notifier returns the notification registry consumers subscribe to.
func (c *Client) Notifier() *Notifier { return c.notifier }

// State returns the current lifecycle state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the connection is currently up.
func (c *Client) Connected() bool { return c.State() == StateConnected }

// SetIdentity supplies the authenticated identity and re-runs the auto-join
// policy. Safe to call repeatedly; joins are idempotent.
func (c *Client) SetIdentity(id Identity) {
	c.mu.Lock()
	c.identity = &id
	c.mu.Unlock()
	c.autoJoin()
}

// Start opens the connection and keeps it alive in the background until
// Close. Subsequent calls are no-ops.
func (c *Client) Start() {
	c.startOnce.Do(func() {
		c.wg.Add(1)
		go c.run()
	})
}

// Close tears the connection down deterministically. No inbound event is
// dispatched after Close returns.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.state = StateDisconnected
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		c.wg.Wait()
	})
}

func (c *Client) run() {
	defer c.wg.Done()
	for {
		c.setState(StateConnecting)
		conn := c.dial()
		if conn == nil {
			c.setState(StateDisconnected)
			return
		}

		c.mu.Lock()
		select {
		case <-c.done:
			// Close won the race for c.mu; installing the connection now
			// would hide it from Close and leave readLoop running forever.
			c.mu.Unlock()
			_ = conn.Close()
			return
		default:
		}
		c.conn = conn
		c.state = StateConnected
		c.mu.Unlock()
		// A fresh connection starts with no server-side membership. A join
		// attempted in the disconnect window can leave a stale pending entry
		// behind; it must not suppress the rejoin.
		c.rooms.reset()
		log.Info().Str("module", "realtime").Str("url", c.opts.URL).Msg("connected")
		c.notifier.Connectivity.Publish(true)
		c.autoJoin()

		c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.state = StateDisconnected
		c.mu.Unlock()
		// Server-side room membership died with the connection; forgetting it
		// here is what makes auto-join re-send after reconnect.
		c.rooms.reset()

		select {
		case <-c.done:
			return
		default:
		}
		c.notifier.Connectivity.Publish(false)
		log.Warn().Str("module", "realtime").Msg("disconnected, reconnecting")
	}
}

// dial retries up to MaxAttempts with a fixed delay. Returns nil once the
// attempts are exhausted or the client is closed.
func (c *Client) dial() *websocket.Conn {
	dialer := websocket.Dialer{HandshakeTimeout: c.opts.DialTimeout}
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		select {
		case <-c.done:
			return nil
		default:
		}
		conn, _, err := dialer.Dial(c.opts.URL, nil)
		if err == nil {
			select {
			case <-c.done:
				// Close landed while the handshake was in flight; the
				// connection must not outlive it.
				_ = conn.Close()
				return nil
			default:
			}
			return conn
		}
		log.Warn().Err(err).Str("module", "realtime").
			Str("url", c.opts.URL).Int("attempt", attempt).Msg("dial failed")
		select {
		case <-c.done:
			return nil
		case <-time.After(c.opts.RetryDelay):
		}
	}
	log.Error().Str("module", "realtime").
		Int("attempts", c.opts.MaxAttempts).Msg("giving up on connection")
	return nil
}

func (c *Client) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Info().Err(err).Str("module", "realtime").Msg("read loop closing")
			return
		}
		select {
		case <-c.done:
			return
		default:
		}
		c.dispatch(data)
	}
}

// dispatch translates one wire frame into its notification, synchronously
// and in receive order. A malformed frame is logged and dropped; it must not
// take the read loop down.
func (c *Client) dispatch(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "realtime").Msg("bad frame")
		return
	}

	switch env.Event {
	case EventWelcome:
		var p Welcome
		if decode(env.Data, &p) {
			log.Info().Str("module", "realtime").Str("message", p.Message).Msg("welcome")
		}
	case EventRoomJoined:
		var p RoomJoined
		if decode(env.Data, &p) {
			c.rooms.confirm(p.Room)
			log.Info().Str("module", "realtime").Str("room", p.Room).
				Str("user_type", p.UserType).Msg("room joined")
			c.notifier.RoomJoined.Publish(p)
		}
	case EventRoomLeft:
		var p RoomLeft
		if decode(env.Data, &p) {
			c.rooms.leave(p.Room)
			log.Info().Str("module", "realtime").Str("room", p.Room).Msg("room left")
			c.notifier.RoomLeft.Publish(p)
		}
	case EventOrderUpdated:
		var p OrderUpdate
		if decode(env.Data, &p) {
			c.notifier.OrderUpdated.Publish(p)
		}
	case EventNewOrder:
		var p OrderPayload
		if decode(env.Data, &p) {
			c.notifier.NewOrder.Publish(p.Order)
		}
	case EventOrderStatus:
		var p OrderPayload
		if decode(env.Data, &p) {
			c.notifier.OrderStatus.Publish(p.Order)
		}
	case EventTrackingStarted:
		var p TrackingStarted
		if decode(env.Data, &p) {
			c.notifier.TrackingStarted.Publish(p)
		}
	case EventWaiterCall:
		var p WaiterCall
		if decode(env.Data, &p) {
			c.notifier.WaiterCall.Publish(p)
		}
	case EventWaiterCallUpdate:
		var p WaiterCall
		if decode(env.Data, &p) {
			c.notifier.WaiterCallUpdate.Publish(p)
		}
	case EventWaiterCallSent:
		var p WaiterCallSent
		if decode(env.Data, &p) {
			c.notifier.WaiterCallSent.Publish(p)
		}
	case EventError:
		var p ErrorMessage
		if decode(env.Data, &p) {
			log.Warn().Str("module", "realtime").Str("message", p.Message).Msg("server error")
		}
	default:
		log.Debug().Str("module", "realtime").Str("event", env.Event).Msg("unknown event")
	}
}

func decode[T any](data json.RawMessage, p *T) bool {
	if err := json.Unmarshal(data, p); err != nil {
		log.Warn().Err(err).Str("module", "realtime").Msg("bad payload")
		return false
	}
	return true
}

func (c *Client) autoJoin() {
	c.mu.Lock()
	id := c.identity
	c.mu.Unlock()
	if id == nil {
		return
	}
	room, userType := RoomForIdentity(*id)
	if room == "" {
		return
	}
	c.JoinRoom(room, userType)
}

// JoinRoom sends join_room unless disconnected, already joined, or a join is
// already in flight. Membership is only recorded when the server confirms
// with room_joined.
func (c *Client) JoinRoom(room, userType string) {
	if !c.Connected() {
		log.Debug().Str("module", "realtime").Str("room", room).Msg("join skipped, not connected")
		return
	}
	if !c.rooms.beginJoin(room) {
		log.Debug().Str("module", "realtime").Str("room", room).Msg("join skipped, already joined")
		return
	}
	c.send(EventJoinRoom, JoinRoomCommand{Room: room, UserType: userType})
}

// LeaveRoom sends leave_room when connected and currently a member.
func (c *Client) LeaveRoom(room string) {
	if !c.Connected() {
		return
	}
	if !c.rooms.leave(room) {
		return
	}
	c.send(EventLeaveRoom, LeaveRoomCommand{Room: room})
}

// EmitOrderStatusUpdate announces a status change. Confirmation comes back
// as an order_updated / order_status broadcast, not a direct reply.
func (c *Client) EmitOrderStatusUpdate(orderID int64, status, userType string) {
	c.send(EventOrderStatusUpdate, OrderStatusUpdateCommand{
		OrderID:  orderID,
		Status:   status,
		UserType: userType,
	})
}

// RequestOrderTracking asks the server to stream updates for one order.
func (c *Client) RequestOrderTracking(orderID int64, tableID, roomID string) {
	c.send(EventOrderTracking, OrderTrackingRequestCommand{
		OrderID: orderID,
		TableID: tableID,
		RoomID:  roomID,
	})
}

// AcknowledgeWaiterCall marks a call as seen by staff.
func (c *Client) AcknowledgeWaiterCall(callID string) {
	c.send(EventAcknowledgeCall, WaiterCallCommand{CallID: callID})
}

// CompleteWaiterCall marks a call as handled.
func (c *Client) CompleteWaiterCall(callID string) {
	c.send(EventCompleteCall, WaiterCallCommand{CallID: callID})
}

// send is fire-and-forget: no retry, no correlation id, no response. While
// disconnected the command is dropped with a warning rather than queued.
func (c *Client) send(event string, payload any) {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected || conn == nil {
		log.Warn().Str("module", "realtime").Str("event", event).Msg("dropped, not connected")
		return
	}

	env, err := NewEnvelope(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "realtime").Str("event", event).Msg("marshal")
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		log.Error().Err(err).Str("module", "realtime").Msg("set deadline")
		return
	}
	if err := conn.WriteJSON(env); err != nil {
		log.Error().Err(err).Str("module", "realtime").Str("event", event).Msg("write failed")
	}
}
