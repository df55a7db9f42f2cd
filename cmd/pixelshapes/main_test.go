package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "script.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunUsage(t *testing.T) {
	if _, err := runCmd(t); !errors.Is(err, errUsage) {
		t.Errorf("err = %v, want errUsage", err)
	}
	if _, err := runCmd(t, "frobnicate"); !errors.Is(err, errUsage) {
		t.Errorf("err = %v, want errUsage", err)
	}
	if _, err := runCmd(t, "replay", "-driver", "memory"); !errors.Is(err, errUsage) {
		t.Errorf("replay without script: err = %v, want errUsage", err)
	}
}

func TestReplayThenInspect(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "shapes.db")
	script := writeScript(t, dir, `{"steps": [
		{"action": "add", "ref": "a", "x": 0, "y": 0},
		{"action": "add", "ref": "b", "kind": "box", "x": 20, "y": 0},
		{"action": "layer", "ref": "a", "direction": "toFront"},
		{"action": "panel", "panel": "shapes", "open": true}
	]}`)

	out, err := runCmd(t, "replay", "-path", db, script)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "applied 4 of 4 steps, 2 shapes") {
		t.Errorf("replay output = %q", out)
	}

	out, err = runCmd(t, "inspect", "-path", db)
	if err != nil {
		t.Fatal(err)
	}
	var s struct {
		Found  bool `json:"found"`
		Shapes []struct {
			ID   int64  `json:"id"`
			Kind string `json:"kind"`
		} `json:"shapes"`
		Panels struct {
			ShapeListOpen bool
		} `json:"panels"`
	}
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("inspect output %q: %v", out, err)
	}
	if !s.Found || len(s.Shapes) != 2 {
		t.Fatalf("summary = %+v", s)
	}
	if s.Shapes[0].Kind != "box" || s.Shapes[1].Kind != "ellipse" {
		t.Errorf("order = %+v, want box then ellipse", s.Shapes)
	}
	if !s.Panels.ShapeListOpen {
		t.Error("shape list flag not persisted")
	}
}

func TestFitAndExport(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "records")
	script := writeScript(t, dir, `{"steps": [{"action": "add", "x": 0, "y": 0}]}`)
	if _, err := runCmd(t, "replay", "-driver", "file", "-path", store, script); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "fit", "-driver", "file", "-path", store, "-w", "300", "-h", "300")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "zoom 20 offset (50, 50)" {
		t.Errorf("fit output = %q", out)
	}

	png := filepath.Join(dir, "out.png")
	if _, err := runCmd(t, "export", "-driver", "file", "-path", store, "-o", png, "-scale", "2"); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(png); err != nil || info.Size() == 0 {
		t.Errorf("export wrote nothing: %v", err)
	}
}

func TestExportEmptyFails(t *testing.T) {
	dir := t.TempDir()
	_, err := runCmd(t, "export", "-driver", "file", "-path", dir, "-o", filepath.Join(dir, "x.png"))
	if err == nil {
		t.Error("expected error exporting an empty workspace")
	}
}
