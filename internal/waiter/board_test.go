package waiter

import (
	"testing"

	"github.com/dinesync/dinesync/internal/realtime"
)

func TestBoardLifecycle(t *testing.T) {
	b := NewBoard()

	b.Apply(realtime.WaiterCall{ID: "c1", TableNumber: "4", Status: realtime.CallPending, Timestamp: "2026-08-30T12:00:00Z"})
	b.Apply(realtime.WaiterCall{ID: "c2", TableNumber: "7", Status: realtime.CallPending, Timestamp: "2026-08-30T12:01:00Z"})

	active := b.Active()
	if len(active) != 2 || active[0].ID != "c1" || active[1].ID != "c2" {
		t.Fatalf("Active() = %v, want c1 then c2", active)
	}

	// Update is an upsert of the full call object.
	b.Apply(realtime.WaiterCall{ID: "c1", TableNumber: "4", Status: realtime.CallAcknowledged, Timestamp: "2026-08-30T12:00:00Z"})
	if call, _ := b.Get("c1"); call.Status != realtime.CallAcknowledged {
		t.Errorf("c1 status = %q, want acknowledged", call.Status)
	}

	b.Apply(realtime.WaiterCall{ID: "c1", Status: realtime.CallCompleted})
	active = b.Active()
	if len(active) != 1 || active[0].ID != "c2" {
		t.Errorf("completed call still active: %v", active)
	}
}

func TestBoardBind(t *testing.T) {
	b := NewBoard()
	n := &realtime.Notifier{}
	unbind := b.Bind(n)

	n.WaiterCall.Publish(realtime.WaiterCall{ID: "c1", Status: realtime.CallPending})
	n.WaiterCallUpdate.Publish(realtime.WaiterCall{ID: "c1", Status: realtime.CallAcknowledged})

	if call, ok := b.Get("c1"); !ok || call.Status != realtime.CallAcknowledged {
		t.Errorf("after bind, call = %+v ok=%v", call, ok)
	}

	unbind()
	n.WaiterCallUpdate.Publish(realtime.WaiterCall{ID: "c1", Status: realtime.CallCompleted})
	if call, _ := b.Get("c1"); call.Status != realtime.CallAcknowledged {
		t.Errorf("board still updating after unbind: %+v", call)
	}
}
