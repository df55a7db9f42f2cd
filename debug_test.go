package pixelshapes

import (
	"fmt"
	"strings"
	"testing"
)

// ---- Debug mode tests ------------------------------------------------------

func TestDebugMode_CorruptOrderPanics(t *testing.T) {
	ws := New(WithDebug(true))
	sh := mustAdd(t, ws, Vec2{})
	ws.store.order = append(ws.store.order, sh.ID)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on mutation over a corrupt order, got none")
		}
		msg := fmt.Sprint(r)
		if !strings.Contains(msg, "pixelshapes debug") || !strings.Contains(msg, "order") {
			t.Errorf("panic message = %q", msg)
		}
	}()
	ws.SetZoom(12)
}

func TestDebugMode_DanglingSelectionPanics(t *testing.T) {
	ws := New()
	sh := mustAdd(t, ws, Vec2{})
	ws.Select(sh.ID)
	delete(ws.store.shapes, sh.ID)
	ws.store.order = nil
	ws.SetDebugMode(true)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on dangling selection, got none")
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, "selection") {
			t.Errorf("panic message should mention selection, got: %s", msg)
		}
	}()
	ws.Pan(1, 1)
}

func TestDebugMode_OffSkipsChecks(t *testing.T) {
	ws := New()
	sh := mustAdd(t, ws, Vec2{})
	ws.store.order = append(ws.store.order, sh.ID)
	ws.SetZoom(12) // must not panic
	if ws.CheckInvariants() == nil {
		t.Error("CheckInvariants missed the duplicate id")
	}
}

func TestCheckStoreIDAheadOfCounter(t *testing.T) {
	s := NewShapeStore()
	s.shapes[5] = &Shape{ID: 5, Kind: KindBox, Width: 1, Height: 1}
	s.order = []ShapeID{5}
	if err := checkStore(s); err == nil || !strings.Contains(err.Error(), "counter") {
		t.Errorf("checkStore = %v, want id counter error", err)
	}
}

func TestCheckStoreMismatchedID(t *testing.T) {
	s := NewShapeStore()
	s.lastID = 2
	s.shapes[1] = &Shape{ID: 2, Kind: KindBox, Width: 1, Height: 1}
	s.order = []ShapeID{1}
	if err := checkStore(s); err == nil {
		t.Error("checkStore accepted a shape stored under the wrong id")
	}
}
