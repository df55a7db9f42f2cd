// Package ecs provides ECS adapters for the pixelshapes change events.
//
// The primary adapter is [NewDonburiSink], which bridges workspace events
// (shape, order, selection, view and panel changes) into a [Donburi] world
// as typed events. Subscribe to [WorkspaceEventType] in your ECS systems to
// receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	ws.SetEventSink(sink)
//
// Each event's Kind is a [pixelshapes.ChangeKind] bitmask. Use
// [NewFilteredDonburiSink] to forward only some kinds, or
// [SubscribeChanges] to filter per system:
//
//	ecs.SubscribeChanges(world, pixelshapes.ChangeShapes|pixelshapes.ChangeOrder, redraw)
//
// Events are queued by Donburi; call [events.ProcessAllEvents] (or
// WorkspaceEventType.ProcessEvents) once per frame to deliver them.
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
