package ecs

import (
	"testing"

	"github.com/phanxgames/pixelshapes"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func TestNewDonburiSink(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)
	if sink == nil {
		t.Fatal("NewDonburiSink returned nil")
	}
}

func TestDonburiSink_EmitEvent(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var received []pixelshapes.Event
	WorkspaceEventType.Subscribe(world, func(w donburi.World, e pixelshapes.Event) {
		received = append(received, e)
	})

	sink.EmitEvent(pixelshapes.Event{Kind: pixelshapes.ChangeShapes | pixelshapes.ChangeOrder, Shape: 42, Seq: 1})
	sink.EmitEvent(pixelshapes.Event{Kind: pixelshapes.ChangeView, Seq: 2})

	// Events are queued until processed.
	if len(received) != 0 {
		t.Fatalf("events delivered before ProcessEvents: %d", len(received))
	}
	WorkspaceEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if e0 := received[0]; !e0.Kind.Has(pixelshapes.ChangeOrder) || e0.Shape != 42 {
		t.Errorf("event 0: %+v", e0)
	}
	if e1 := received[1]; e1.Kind != pixelshapes.ChangeView || e1.Seq != 2 {
		t.Errorf("event 1: %+v", e1)
	}
}

func TestDonburiSink_FromWorkspace(t *testing.T) {
	world := donburi.NewWorld()
	ws := pixelshapes.New()
	ws.SetEventSink(NewDonburiSink(world))

	var kinds []pixelshapes.ChangeKind
	WorkspaceEventType.Subscribe(world, func(w donburi.World, e pixelshapes.Event) {
		kinds = append(kinds, e.Kind)
	})

	sh, err := ws.AddShape(pixelshapes.DefaultDraft(), pixelshapes.Vec2{})
	if err != nil {
		t.Fatal(err)
	}
	ws.MoveShape(sh.ID, pixelshapes.Vec2{X: 4, Y: 4})
	ws.SetZoom(20)
	events.ProcessAllEvents(world)

	if len(kinds) != 3 {
		t.Fatalf("expected 3 events, got %d", len(kinds))
	}
	if kinds[1] != pixelshapes.ChangeShapes || kinds[2] != pixelshapes.ChangeView {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestDonburiSink_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var count1, count2 int
	WorkspaceEventType.Subscribe(world, func(w donburi.World, e pixelshapes.Event) {
		count1++
	})
	WorkspaceEventType.Subscribe(world, func(w donburi.World, e pixelshapes.Event) {
		count2++
	})

	sink.EmitEvent(pixelshapes.Event{Kind: pixelshapes.ChangePanels})
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}

func TestFilteredDonburiSink(t *testing.T) {
	world := donburi.NewWorld()
	ws := pixelshapes.New()
	ws.SetEventSink(NewFilteredDonburiSink(world, pixelshapes.ChangeView))

	var got []pixelshapes.Event
	WorkspaceEventType.Subscribe(world, func(w donburi.World, e pixelshapes.Event) {
		got = append(got, e)
	})

	ws.AddShape(pixelshapes.DefaultDraft(), pixelshapes.Vec2{})
	ws.SetZoom(12)
	ws.SetControlsPanelOpen(true)
	events.ProcessAllEvents(world)

	if len(got) != 1 || got[0].Kind != pixelshapes.ChangeView {
		t.Errorf("events = %+v, want one view change", got)
	}
}

func TestSubscribeChanges(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var panels, shapes int
	SubscribeChanges(world, pixelshapes.ChangePanels, func(donburi.World, pixelshapes.Event) { panels++ })
	SubscribeChanges(world, pixelshapes.ChangeShapes|pixelshapes.ChangeOrder, func(donburi.World, pixelshapes.Event) { shapes++ })

	sink.EmitEvent(pixelshapes.Event{Kind: pixelshapes.ChangePanels})
	sink.EmitEvent(pixelshapes.Event{Kind: pixelshapes.ChangeOrder})
	sink.EmitEvent(pixelshapes.Event{Kind: pixelshapes.ChangeHydrated | pixelshapes.ChangeShapes | pixelshapes.ChangePanels})
	events.ProcessAllEvents(world)

	if panels != 2 || shapes != 2 {
		t.Errorf("panels = %d, shapes = %d; want 2, 2", panels, shapes)
	}
}
