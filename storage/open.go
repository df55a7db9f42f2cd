package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/phanxgames/pixelshapes"
)

// Store is a pixelshapes.Storage that may hold resources.
type Store interface {
	pixelshapes.Storage
	io.Closer
}

// ErrUnknownDriver is returned by Open for an unrecognised driver name.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// Open returns the backend named by driver ("memory", "file" or "sqlite").
// path is the directory for "file" and the database path for "sqlite"; it is
// ignored for "memory".
func Open(ctx context.Context, driver, path string) (Store, error) {
	switch driver {
	case "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(path)
	case "sqlite", "":
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, driver)
	}
}
