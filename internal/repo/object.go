package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrObjectNotFound reports an absent object key.
var ErrObjectNotFound = errors.New("object not found")

// ErrBadObjectPath reports a key that escapes the storage root.
var ErrBadObjectPath = errors.New("invalid object path")

// ObjectRepository stores opaque byte objects at slash-separated keys.
type ObjectRepository interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	EnsureDir(ctx context.Context, key string) error
}

type fsObjectRepo struct {
	root string
}

// NewObjectRepository stores objects as files under root.
func NewObjectRepository(root string) (ObjectRepository, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create object root: %w", err)
	}
	return &fsObjectRepo{root: root}, nil
}

// resolve maps a key onto the filesystem, rejecting traversal attempts.
func (r *fsObjectRepo) resolve(key string) (string, error) {
	key = strings.Trim(key, "/")
	if key == "" {
		return "", ErrBadObjectPath
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", ErrBadObjectPath
		}
	}
	return filepath.Join(r.root, filepath.FromSlash(key)), nil
}

func (r *fsObjectRepo) Put(_ context.Context, key string, data []byte) error {
	p, err := r.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (r *fsObjectRepo) Get(_ context.Context, key string) ([]byte, error) {
	p, err := r.resolve(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
		}
		return nil, err
	}
	return b, nil
}

func (r *fsObjectRepo) Exists(_ context.Context, key string) (bool, error) {
	p, err := r.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *fsObjectRepo) EnsureDir(_ context.Context, key string) error {
	p, err := r.resolve(key)
	if err != nil {
		return err
	}
	return os.MkdirAll(p, 0o750)
}
