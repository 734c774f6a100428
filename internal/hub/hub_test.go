package hub

import (
	"testing"
	"time"

	"github.com/yourorg/campusbus/internal/models"
	"github.com/yourorg/campusbus/internal/tracker"
)

func loc(vehicleID string, lat float64, seq uint64) models.VehicleLocation {
	return models.VehicleLocation{VehicleID: vehicleID, Latitude: lat, Longitude: -74.0, ReceiveSeq: seq}
}

func TestSubscriberReceivesInPublishOrder(t *testing.T) {
	h := New()
	sub := h.Subscribe(AllVehicles())
	defer sub.Close()

	h.PublishLocation(loc("B1", 40.0, 1))
	h.PublishLocation(loc("B1", 40.1, 2))

	first := <-sub.C()
	second := <-sub.C()
	if first.Location.ReceiveSeq != 1 || second.Location.ReceiveSeq != 2 {
		t.Errorf("events out of order: %d then %d", first.Location.ReceiveSeq, second.Location.ReceiveSeq)
	}
}

func TestVehicleScopeFilters(t *testing.T) {
	h := New()
	sub := h.Subscribe(OneVehicle("B2"))
	defer sub.Close()

	h.PublishLocation(loc("B1", 40.0, 1))
	h.PublishLocation(loc("B2", 41.0, 2))

	ev := <-sub.C()
	if ev.Location.VehicleID != "B2" {
		t.Errorf("received update for %s, want B2 only", ev.Location.VehicleID)
	}
	select {
	case extra := <-sub.C():
		t.Errorf("unexpected extra event: %+v", extra)
	default:
	}
}

func TestRouteScopeReceivesScheduleUpdates(t *testing.T) {
	h := New()
	sub := h.Subscribe(OneRoute("R1"))
	defer sub.Close()

	h.PublishSchedule(models.RouteSchedule{RouteID: "R2"})
	h.PublishSchedule(models.RouteSchedule{RouteID: "R1", Stops: []string{"S1"}})
	h.PublishLocation(loc("B1", 40.0, 1)) // locations never match a route scope

	ev := <-sub.C()
	if ev.Type != EventSchedule || ev.Schedule.RouteID != "R1" {
		t.Errorf("unexpected event: %+v", ev)
	}
	select {
	case extra := <-sub.C():
		t.Errorf("unexpected extra event: %+v", extra)
	default:
	}
}

func TestSlowSubscriberDropsOldestNeverBlocks(t *testing.T) {
	h := NewWithQueueSize(2)
	sub := h.Subscribe(AllVehicles())
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Nobody is reading; publishing far beyond the queue size must
		// still return promptly.
		for i := uint64(1); i <= 100; i++ {
			h.PublishLocation(loc("B1", 40.0, i))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	// The resumed reader sees at most queueSize pending events, ending
	// with the newest one.
	var got []uint64
	for {
		select {
		case ev := <-sub.C():
			got = append(got, ev.Location.ReceiveSeq)
			continue
		default:
		}
		break
	}
	if len(got) == 0 || len(got) > 2 {
		t.Fatalf("expected 1..2 pending events, got %d", len(got))
	}
	if got[len(got)-1] != 100 {
		t.Errorf("newest event was dropped; last seen stamp %d, want 100", got[len(got)-1])
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Errorf("pending events out of order: %v", got)
		}
	}
}

func TestCloseReleasesSubscription(t *testing.T) {
	h := New()
	sub := h.Subscribe(AllVehicles())

	if h.Count() != 1 {
		t.Fatalf("expected 1 active subscription, got %d", h.Count())
	}

	sub.Close()

	if h.Count() != 0 {
		t.Errorf("expected 0 subscriptions after close, got %d", h.Count())
	}

	// Channel is closed; publishing afterwards delivers nothing and does
	// not panic.
	h.PublishLocation(loc("B1", 40.0, 1))
	if _, ok := <-sub.C(); ok {
		t.Error("expected closed delivery channel")
	}

	sub.Close() // idempotent
}

func TestCloseDoesNotAffectOtherSubscribers(t *testing.T) {
	h := New()
	a := h.Subscribe(AllVehicles())
	b := h.Subscribe(AllVehicles())
	defer b.Close()

	a.Close()
	h.PublishLocation(loc("B1", 40.0, 1))

	select {
	case ev := <-b.C():
		if ev.Location.VehicleID != "B1" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("surviving subscriber received nothing")
	}
}

// End-to-end: a subscriber connected before two ordered reports for the
// same bus observes them in store accept order, never reversed.
func TestTrackerToHubOrdering(t *testing.T) {
	h := New()
	store := tracker.NewStore()
	store.OnAccept(h.PublishLocation)

	sub := h.Subscribe(OneVehicle("B1"))
	defer sub.Close()

	r1 := models.LocationReport{Latitude: 40.0, Longitude: -74.0, SpeedKph: 30}
	r2 := models.LocationReport{Latitude: 40.1, Longitude: -74.1, SpeedKph: 30}
	store.ApplyReport("B1", r1)
	store.ApplyReport("B1", r2)

	first := <-sub.C()
	second := <-sub.C()
	if first.Location.Latitude != 40.0 || second.Location.Latitude != 40.1 {
		t.Errorf("observed [%v, %v], want [R1, R2] in accept order",
			first.Location.Latitude, second.Location.Latitude)
	}
	if second.Location.ReceiveSeq <= first.Location.ReceiveSeq {
		t.Errorf("receive stamps not monotonic: %d then %d",
			first.Location.ReceiveSeq, second.Location.ReceiveSeq)
	}
}

// End-to-end: a subscriber that stops consuming catches up to the latest
// state per vehicle instead of a full backlog.
func TestStalledSubscriberConvergesOnLatest(t *testing.T) {
	h := NewWithQueueSize(4)
	store := tracker.NewStore()
	store.OnAccept(h.PublishLocation)

	sub := h.Subscribe(AllVehicles())
	defer sub.Close()

	for i := 0; i < 50; i++ {
		store.ApplyReport("B1", models.LocationReport{Latitude: 40.0 + float64(i)*0.001, Longitude: -74.0})
		store.ApplyReport("B2", models.LocationReport{Latitude: 41.0 + float64(i)*0.001, Longitude: -73.0})
	}

	latest := map[string]uint64{}
	for {
		select {
		case ev := <-sub.C():
			cur := ev.Location.ReceiveSeq
			if prev, ok := latest[ev.Location.VehicleID]; ok && cur <= prev {
				t.Errorf("per-vehicle order violated for %s: %d after %d", ev.Location.VehicleID, cur, prev)
			}
			latest[ev.Location.VehicleID] = cur
			continue
		default:
		}
		break
	}

	// The final delivered event for each observed vehicle matches the
	// store's current record.
	for id, seq := range latest {
		want, _ := store.Get(id)
		if seq != want.ReceiveSeq {
			t.Errorf("subscriber resumed on stamp %d for %s, store has %d", seq, id, want.ReceiveSeq)
		}
	}
}
