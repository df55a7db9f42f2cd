// Command pixelshapes inspects, edits and exports a persisted workspace.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phanxgames/pixelshapes"
	"github.com/phanxgames/pixelshapes/export"
	"github.com/phanxgames/pixelshapes/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		slog.Error("pixelshapes failed", "error", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func printUsage(w io.Writer) {
	fmt.Fprint(w, `pixelshapes: inspect and edit a persisted shape workspace

usage:
  pixelshapes inspect [flags]
  pixelshapes export  [flags] -o out.png
  pixelshapes replay  [flags] script.json
  pixelshapes fit     [flags] -w 800 -h 600

inspect  Prints the stored workspace as JSON.
export   Renders the stored shapes to a PNG.
replay   Applies a JSON command script and saves the result.
fit      Fits the view to the shapes for a viewport size and saves it.

common flags:
  -config file     YAML config (view limits, storage, debounce)
  -driver name     storage driver: memory, file or sqlite
  -path path       storage path (directory for file, database for sqlite)
  -key key         storage key
  -log-level lvl   debug, info, warn or error
`)
}

// env holds what every subcommand needs.
type env struct {
	cfg    pixelshapes.Config
	logger *slog.Logger
	store  storage.Store
	ws     *pixelshapes.Workspace
	p      *pixelshapes.Persister
	found  bool
	stdout io.Writer
}

type commonFlags struct {
	config, driver, path, key, logLevel string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "YAML config file")
	fs.StringVar(&c.driver, "driver", "", "storage driver (memory, file, sqlite)")
	fs.StringVar(&c.path, "path", "", "storage path")
	fs.StringVar(&c.key, "key", "", "storage key")
	fs.StringVar(&c.logLevel, "log-level", "info", "log level")
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// open loads the config, opens storage and restores the workspace.
func (c *commonFlags) open(ctx context.Context, stdout, stderr io.Writer) (*env, error) {
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: parseLevel(c.logLevel)}))
	slog.SetDefault(logger)

	cfg := pixelshapes.DefaultConfig()
	if c.config != "" {
		var err error
		if cfg, err = pixelshapes.LoadConfigFile(c.config); err != nil {
			return nil, err
		}
	}
	if c.driver != "" {
		cfg.Storage.Driver = c.driver
	}
	if c.path != "" {
		cfg.Storage.Path = c.path
	}
	if c.key != "" {
		cfg.Persist.Key = c.key
	}

	store, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	opts := cfg.PersisterOptions()
	opts.Logger = logger
	ws := pixelshapes.New(append(cfg.WorkspaceOptions(), pixelshapes.WithLogger(logger))...)
	p := pixelshapes.NewPersister(store, opts)
	found := p.Restore(ctx, ws)
	logger.Debug("workspace opened", "driver", cfg.Storage.Driver, "path", cfg.Storage.Path, "found", found, "shapes", ws.Len())
	return &env{cfg: cfg, logger: logger, store: store, ws: ws, p: p, found: found, stdout: stdout}, nil
}

// close flushes pending changes and closes storage.
func (e *env) close(ctx context.Context) error {
	err := e.p.Close(ctx)
	e.ws.Close()
	if cerr := e.store.Close(); err == nil {
		err = cerr
	}
	return err
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return errUsage
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "inspect":
		return cmdInspect(ctx, args, stdout, stderr)
	case "export":
		return cmdExport(ctx, args, stdout, stderr)
	case "replay":
		return cmdReplay(ctx, args, stdout, stderr)
	case "fit":
		return cmdFit(ctx, args, stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", cmd)
		printUsage(stderr)
		return errUsage
	}
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	c := &commonFlags{}
	c.register(fs)
	return fs, c
}

// summary is the JSON printed by inspect.
type summary struct {
	Found    bool                  `json:"found"`
	Shapes   []*pixelshapes.Shape  `json:"shapes"`
	View     pixelshapes.ViewState `json:"view"`
	Panels   pixelshapes.Panels    `json:"panels"`
	Selected *pixelshapes.ShapeID  `json:"selected,omitempty"`
}

func cmdInspect(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, c := newFlagSet("inspect", stderr)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	e, err := c.open(ctx, stdout, stderr)
	if err != nil {
		return err
	}
	defer e.close(ctx)

	s := summary{Found: e.found, Shapes: e.ws.Shapes(), View: e.ws.View(), Panels: e.ws.Panels()}
	if id, ok := e.ws.Selected(); ok {
		s.Selected = &id
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func cmdExport(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, c := newFlagSet("export", stderr)
	out := fs.String("o", "pixelshapes.png", "output PNG path")
	scale := fs.Int("scale", 1, "image pixels per world unit")
	padding := fs.Int("padding", 0, "margin in world units")
	bg := fs.String("bg", "", "background hex color (empty: transparent)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	e, err := c.open(ctx, stdout, stderr)
	if err != nil {
		return err
	}
	defer e.close(ctx)

	shapes := e.ws.Shapes()
	if err := export.SavePNG(*out, shapes, export.Options{Scale: *scale, Padding: *padding, Background: *bg}); err != nil {
		return err
	}
	e.logger.Info("exported", "path", *out, "shapes", len(shapes), "scale", *scale)
	return nil
}

func cmdReplay(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, c := newFlagSet("replay", stderr)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "replay requires a script path")
		return errUsage
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	script, err := pixelshapes.LoadScript(data)
	if err != nil {
		return err
	}
	e, err := c.open(ctx, stdout, stderr)
	if err != nil {
		return err
	}

	res, runErr := script.Run(e.ws)
	for _, rej := range res.Rejected {
		e.logger.Warn("step rejected", "step", rej.Index, "action", rej.Action, "error", rej.Err)
	}
	if err := e.close(ctx); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	fmt.Fprintf(stdout, "applied %d of %d steps, %d shapes\n", res.Applied, script.Len(), e.ws.Len())
	return nil
}

func cmdFit(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, c := newFlagSet("fit", stderr)
	w := fs.Float64("w", 800, "viewport width in pixels")
	h := fs.Float64("h", 600, "viewport height in pixels")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	e, err := c.open(ctx, stdout, stderr)
	if err != nil {
		return err
	}
	if !e.ws.ResetView(*w, *h) {
		e.logger.Warn("shapes have no area; view unchanged")
	}
	v := e.ws.View()
	if err := e.close(ctx); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "zoom %g offset (%g, %g)\n", v.Zoom, v.Offset.X, v.Offset.Y)
	return nil
}
