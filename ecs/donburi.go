// Package ecs provides ECS adapters for pixelshapes.
package ecs

import (
	"github.com/phanxgames/pixelshapes"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// WorkspaceEventType is the Donburi event type for workspace change events.
//
// Event.Kind is a bitmask; filter on it with Kind.Has. Renderers usually
// want ChangeShapes|ChangeOrder|ChangeView, panel chrome ChangePanels, the
// controls form ChangeSelection|ChangeDraft. ChangeHydrated marks the one
// event sent when state is loaded from storage and is set together with
// every other bit.
var WorkspaceEventType = events.NewEventType[pixelshapes.Event]()

type donburiSink struct {
	world donburi.World
	mask  pixelshapes.ChangeKind
}

// NewDonburiSink creates an EventSink backed by a Donburi world.
// Every workspace event is published to WorkspaceEventType and can be
// consumed with events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) pixelshapes.EventSink {
	return &donburiSink{world: world}
}

// NewFilteredDonburiSink is NewDonburiSink restricted to events sharing at
// least one bit with mask. A zero mask forwards everything.
func NewFilteredDonburiSink(world donburi.World, mask pixelshapes.ChangeKind) pixelshapes.EventSink {
	return &donburiSink{world: world, mask: mask}
}

func (s *donburiSink) EmitEvent(event pixelshapes.Event) {
	if s.mask != 0 && !event.Kind.Has(s.mask) {
		return
	}
	WorkspaceEventType.Publish(s.world, event)
}

// SubscribeChanges subscribes fn to workspace events in world whose kind
// shares a bit with mask.
func SubscribeChanges(world donburi.World, mask pixelshapes.ChangeKind, fn func(donburi.World, pixelshapes.Event)) {
	WorkspaceEventType.Subscribe(world, func(w donburi.World, e pixelshapes.Event) {
		if e.Kind.Has(mask) {
			fn(w, e)
		}
	})
}
