package simserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dinesync/dinesync/internal/config"
	"github.com/dinesync/dinesync/internal/realtime"
	"github.com/dinesync/dinesync/internal/simserver"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{Mode: "release", Secret: "test-secret"}
	ts := httptest.NewServer(simserver.New(cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func startClient(t *testing.T, ts *httptest.Server, id *realtime.Identity) *realtime.Client {
	t.Helper()
	client := realtime.NewClient(realtime.Options{
		URL:         "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
		MaxAttempts: 5,
		RetryDelay:  50 * time.Millisecond,
		DialTimeout: time.Second,
	})
	if id != nil {
		client.SetIdentity(*id)
	}
	t.Cleanup(client.Close)
	return client
}

func postJSON(t *testing.T, url string, body, out any) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST %s: status %d", url, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func recv[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

func TestOrderFlow(t *testing.T) {
	ts := startServer(t)

	staff := startClient(t, ts, &realtime.Identity{IsAdmin: true})
	joined := make(chan realtime.RoomJoined, 1)
	newOrders := make(chan realtime.Order, 1)
	updates := make(chan realtime.OrderUpdate, 1)
	defer staff.Notifier().RoomJoined.Subscribe(func(r realtime.RoomJoined) { joined <- r })()
	defer staff.Notifier().NewOrder.Subscribe(func(o realtime.Order) { newOrders <- o })()
	defer staff.Notifier().OrderUpdated.Subscribe(func(u realtime.OrderUpdate) { updates <- u })()
	staff.Start()

	if r := recv(t, joined, "room_joined"); r.Room != "admin" {
		t.Fatalf("joined room %q, want admin", r.Room)
	}

	postJSON(t, ts.URL+"/api/orders", map[string]any{
		"table_number":  "4",
		"items_json":    `[{"name":"pasta","qty":2}]`,
		"customer_name": "walk-in",
		"total":         24.5,
	}, nil)

	order := recv(t, newOrders, "new_order")
	if order.Status != "pending" || order.TableNumber != "4" {
		t.Errorf("new order = %+v", order)
	}
	if order.ItemsJSON == "" {
		t.Error("new_order lost items_json")
	}

	staff.EmitOrderStatusUpdate(order.ID, "preparing", "admin")
	update := recv(t, updates, "order_updated")
	if update.OrderID != order.ID || update.Status != "preparing" {
		t.Errorf("order_updated = %+v", update)
	}
}

func TestTrackingDeliversFullOrder(t *testing.T) {
	ts := startServer(t)

	var order realtime.Order
	postJSON(t, ts.URL+"/api/orders", map[string]any{
		"table_number": "2",
		"items_json":   `[{"name":"soup","qty":1}]`,
	}, &order)

	tracker := startClient(t, ts, nil)
	started := make(chan realtime.TrackingStarted, 1)
	statuses := make(chan realtime.Order, 2)
	defer tracker.Notifier().TrackingStarted.Subscribe(func(s realtime.TrackingStarted) { started <- s })()
	defer tracker.Notifier().OrderStatus.Subscribe(func(o realtime.Order) { statuses <- o })()
	tracker.Start()

	waitConnected(t, tracker)
	tracker.RequestOrderTracking(order.ID, "t2", "")

	if s := recv(t, started, "tracking_started"); s.OrderID != order.ID {
		t.Fatalf("tracking_started for order %d, want %d", s.OrderID, order.ID)
	}
	snapshot := recv(t, statuses, "initial order_status")
	if snapshot.ID != order.ID || snapshot.ItemsJSON == "" {
		t.Errorf("initial snapshot = %+v", snapshot)
	}

	// A staff update must reach the tracker as a full order object.
	staff := startClient(t, ts, &realtime.Identity{HasStaffProfile: true})
	staffJoined := make(chan realtime.RoomJoined, 1)
	defer staff.Notifier().RoomJoined.Subscribe(func(r realtime.RoomJoined) { staffJoined <- r })()
	staff.Start()
	if r := recv(t, staffJoined, "staff room_joined"); r.Room != "staff" {
		t.Fatalf("staff joined %q", r.Room)
	}

	staff.EmitOrderStatusUpdate(order.ID, "ready", "staff")
	full := recv(t, statuses, "order_status after update")
	if full.ID != order.ID || full.Status != "ready" {
		t.Errorf("order_status = %+v", full)
	}
}

func TestWaiterCallFlow(t *testing.T) {
	ts := startServer(t)

	staff := startClient(t, ts, &realtime.Identity{HasStaffProfile: true})
	joined := make(chan realtime.RoomJoined, 1)
	calls := make(chan realtime.WaiterCall, 1)
	callUpdates := make(chan realtime.WaiterCall, 1)
	defer staff.Notifier().RoomJoined.Subscribe(func(r realtime.RoomJoined) { joined <- r })()
	defer staff.Notifier().WaiterCall.Subscribe(func(c realtime.WaiterCall) { calls <- c })()
	defer staff.Notifier().WaiterCallUpdate.Subscribe(func(c realtime.WaiterCall) { callUpdates <- c })()
	staff.Start()
	recv(t, joined, "room_joined")

	postJSON(t, ts.URL+"/api/waiter-calls", map[string]any{
		"table_number":     "7",
		"table_unique_id":  "tbl-7",
		"customer_message": "water please",
	}, nil)

	call := recv(t, calls, "waiter_call")
	if call.Status != realtime.CallPending || call.TableNumber != "7" {
		t.Fatalf("waiter_call = %+v", call)
	}

	staff.AcknowledgeWaiterCall(call.ID)
	update := recv(t, callUpdates, "waiter_call_update")
	if update.ID != call.ID || update.Status != realtime.CallAcknowledged {
		t.Errorf("waiter_call_update = %+v", update)
	}

	staff.CompleteWaiterCall(call.ID)
	update = recv(t, callUpdates, "second waiter_call_update")
	if update.Status != realtime.CallCompleted {
		t.Errorf("final status = %q, want completed", update.Status)
	}
}

func waitConnected(t *testing.T, client *realtime.Client) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if client.Connected() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("client never connected")
}
