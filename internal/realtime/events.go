// Package realtime implements the client side of the restaurant realtime
// channel: one long-lived websocket connection, room membership tracking and
// a typed notifier that fans inbound events out to any number of consumers.
package realtime

import "encoding/json"

// Outbound command names (client -> server).
const (
	EventJoinRoom          = "join_room"
	EventLeaveRoom         = "leave_room"
	EventOrderStatusUpdate = "order_status_update"
	EventOrderTracking     = "order_tracking_request"
	EventAcknowledgeCall   = "acknowledge_waiter_call"
	EventCompleteCall      = "complete_waiter_call"
)

// Inbound event names (server -> client).
const (
	EventWelcome          = "welcome"
	EventRoomJoined       = "room_joined"
	EventRoomLeft         = "room_left"
	EventOrderUpdated     = "order_updated"
	EventNewOrder         = "new_order"
	EventOrderStatus      = "order_status"
	EventTrackingStarted  = "tracking_started"
	EventWaiterCall       = "waiter_call"
	EventWaiterCallUpdate = "waiter_call_update"
	EventWaiterCallSent   = "waiter_call_sent"
	EventError            = "error"
)

// Envelope is the wire frame. Every message in either direction is one
// envelope: the event name plus its payload object.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope wraps a payload into an Envelope.
func NewEnvelope(event string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Event: event}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// Order is the full order object carried by new_order and order_status.
// order_updated carries only OrderUpdate; consumers must merge that into an
// existing Order rather than replace it (items_json would be lost otherwise).
type Order struct {
	ID           int64   `json:"id"`
	TableNumber  string  `json:"table_number,omitempty"`
	Status       string  `json:"status"`
	ItemsJSON    string  `json:"items_json,omitempty"`
	CustomerName string  `json:"customer_name,omitempty"`
	Total        float64 `json:"total,omitempty"`
	CreatedAt    string  `json:"created_at,omitempty"`
}

// WaiterCall is a table-side call for service.
type WaiterCall struct {
	ID              string `json:"id"`
	TableNumber     string `json:"table_number"`
	TableUniqueID   string `json:"table_unique_id,omitempty"`
	Status          string `json:"status"`
	CustomerMessage string `json:"customer_message,omitempty"`
	Timestamp       string `json:"timestamp,omitempty"`
}

// Waiter call statuses as the server reports them.
const (
	CallPending      = "pending"
	CallAcknowledged = "acknowledged"
	CallCompleted    = "completed"
)

// Inbound payloads.
type (
	Welcome struct {
		Message string `json:"message"`
	}

	RoomJoined struct {
		Room     string `json:"room"`
		UserType string `json:"user_type"`
	}

	RoomLeft struct {
		Room string `json:"room"`
	}

	// OrderUpdate is a partial update: status only, keyed by order id.
	OrderUpdate struct {
		OrderID int64  `json:"order_id"`
		Status  string `json:"status"`
	}

	// OrderPayload wraps the full order carried by new_order / order_status.
	OrderPayload struct {
		Order Order `json:"order"`
	}

	TrackingStarted struct {
		OrderID int64 `json:"order_id"`
	}

	WaiterCallSent struct {
		CallID  string `json:"call_id,omitempty"`
		Message string `json:"message,omitempty"`
	}

	ErrorMessage struct {
		Message string `json:"message"`
	}
)

// Outbound payloads.
type (
	JoinRoomCommand struct {
		Room     string `json:"room"`
		UserType string `json:"user_type"`
	}

	LeaveRoomCommand struct {
		Room string `json:"room"`
	}

	OrderStatusUpdateCommand struct {
		OrderID  int64  `json:"order_id"`
		Status   string `json:"status"`
		UserType string `json:"user_type"`
	}

	OrderTrackingRequestCommand struct {
		OrderID int64  `json:"order_id"`
		TableID string `json:"table_id,omitempty"`
		RoomID  string `json:"room_id,omitempty"`
	}

	WaiterCallCommand struct {
		CallID string `json:"call_id"`
	}
)
