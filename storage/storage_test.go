package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/phanxgames/pixelshapes"
)

// backends returns a fresh instance of every Store for shared behaviour.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	file, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mem, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	onDisk, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "db", "shapes.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		mem.Close()
		onDisk.Close()
	})
	return map[string]Store{
		"memory":      NewMemory(),
		"file":        file,
		"sqlite-mem":  mem,
		"sqlite-file": onDisk,
	}
}

func TestStoreGetMissing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			data, ok, err := s.Get(context.Background(), "nothing")
			if err != nil || ok || data != nil {
				t.Errorf("Get = %q, %v, %v; want nil, false, nil", data, ok, err)
			}
		})
	}
}

func TestStoreSetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set(ctx, "k", []byte("one")); err != nil {
				t.Fatal(err)
			}
			if err := s.Set(ctx, "k", []byte("two")); err != nil {
				t.Fatal(err)
			}
			data, ok, err := s.Get(ctx, "k")
			if err != nil || !ok || string(data) != "two" {
				t.Errorf("Get = %q, %v, %v; want two", data, ok, err)
			}
		})
	}
}

func TestStoreKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s.Set(ctx, "a/b", []byte("1"))
			s.Set(ctx, "a.b", []byte("2"))
			got1, _, _ := s.Get(ctx, "a/b")
			got2, _, _ := s.Get(ctx, "a.b")
			if string(got1) != "1" || string(got2) != "2" {
				t.Errorf("values = %q, %q; want 1, 2", got1, got2)
			}
		})
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	m.Set(ctx, "k", buf)
	buf[0] = 'x'
	got, _, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased the caller's slice: %q", got)
	}
	got[1] = 'y'
	again, _, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("returned value aliased the store: %q", again)
	}
	if keys := m.Keys(); len(keys) != 1 || keys[0] != "k" {
		t.Errorf("Keys = %v", keys)
	}
}

func TestFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	f.Set(context.Background(), "pixelshapes.workspace", []byte("{}"))
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "pixelshapes.workspace.json" {
		t.Errorf("dir entries = %v", entries)
	}
}

func TestFileCancelledContext(t *testing.T) {
	f, _ := NewFile(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.Set(ctx, "k", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Set err = %v, want context.Canceled", err)
	}
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shapes.db")
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", []byte{0, 1, 2}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	data, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(data, []byte{0, 1, 2}) {
		t.Errorf("Get = %v, %v, %v", data, ok, err)
	}
	if ts, ok, err := s.UpdatedAt(ctx, "k"); err != nil || !ok || ts.IsZero() {
		t.Errorf("UpdatedAt = %v, %v, %v", ts, ok, err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		driver string
		path   string
	}{
		{"memory", ""},
		{"file", t.TempDir()},
		{"sqlite", filepath.Join(t.TempDir(), "x.db")},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			s, err := Open(ctx, tt.driver, tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer s.Close()
			if err := s.Set(ctx, "k", []byte("v")); err != nil {
				t.Fatal(err)
			}
		})
	}
	if _, err := Open(ctx, "redis", ""); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("err = %v, want ErrUnknownDriver", err)
	}
	if _, err := Open(ctx, "file", ""); err == nil {
		t.Error("file driver accepted an empty directory")
	}
}

func TestIsBusy(t *testing.T) {
	if !isBusy(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Error("busy error not recognised")
	}
	if isBusy(errors.New("no such table")) {
		t.Error("unrelated error reported busy")
	}
}

// TestPersisterRoundTrip wires each backend through the real persister.
func TestPersisterRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ws := pixelshapes.New()
			p := pixelshapes.NewPersister(s, pixelshapes.PersisterOptions{})
			p.Attach(ws)
			sh, err := ws.AddShape(pixelshapes.DefaultDraft(), pixelshapes.Vec2{X: 3, Y: 4})
			if err != nil {
				t.Fatal(err)
			}
			if err := p.Close(ctx); err != nil {
				t.Fatal(err)
			}

			restored := pixelshapes.New()
			p2 := pixelshapes.NewPersister(s, pixelshapes.PersisterOptions{})
			if !p2.Restore(ctx, restored) {
				t.Fatal("Restore returned false")
			}
			defer p2.Close(ctx)
			got, ok := restored.Shape(sh.ID)
			if !ok || got.Position != sh.Position {
				t.Errorf("restored = %+v, %v; want %+v", got, ok, sh)
			}
		})
	}
}
