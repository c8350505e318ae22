// Package remote defines the object-store boundary the sync engine talks
// through, plus the WebDAV and cloud-drive client adapters.
package remote

import (
	"context"
	"errors"
)

// ErrNotFound distinguishes "object absent" from "store unreachable".
// Callers must treat only this error as evidence the remote is empty.
var ErrNotFound = errors.New("remote: object not found")

// ErrTokenExpired is returned by token-authenticated adapters before any
// network call is attempted.
var ErrTokenExpired = errors.New("remote: access token expired")

// ObjectStore reads and writes byte blobs at slash-separated paths.
// Implementations must be safe for use from a single sync run at a time;
// the engine never issues concurrent calls against one store.
type ObjectStore interface {
	Exists(ctx context.Context, path string) (bool, error)
	ReadBytes(ctx context.Context, path string) ([]byte, error)
	WriteBytes(ctx context.Context, path string, data []byte) error
	EnsureDirectory(ctx context.Context, path string) error
}
