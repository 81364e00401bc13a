// Package statefile persists small documents (settings, the shopping list)
// to disk. Writes are atomic and guarded by a cross-process lock so two
// plates processes never interleave a read-modify-write.
package statefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// LockTimeout is the maximum time to wait for the file lock. Past it,
// operations proceed unlocked (fail-open) so a stuck process never hangs
// the CLI.
const LockTimeout = 100 * time.Millisecond

// Codec encodes a document for disk.
type Codec struct {
	Name      string
	Marshal   func(v any) ([]byte, error)
	Unmarshal func(data []byte, v any) error
}

var (
	JSON = Codec{
		Name: "json",
		Marshal: func(v any) ([]byte, error) {
			b, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return nil, err
			}
			return append(b, '\n'), nil
		},
		Unmarshal: json.Unmarshal,
	}
	YAML = Codec{
		Name:      "yaml",
		Marshal:   yaml.Marshal,
		Unmarshal: yaml.Unmarshal,
	}
)

// ErrCorrupt is returned by Load when the file exists but cannot be decoded.
var ErrCorrupt = errors.New("state file is corrupt")

// File is one document on disk.
type File struct {
	path  string
	codec Codec
}

// New returns a File at path using codec.
func New(path string, codec Codec) *File {
	return &File{path: path, codec: codec}
}

// Path returns the document path.
func (f *File) Path() string { return f.path }

func (f *File) lockPath() string { return f.path + ".lock" }

type fileLock struct {
	flock *flock.Flock
}

// acquireLock takes the exclusive lock. A nil lock with a nil error means
// the timeout passed and the caller proceeds unlocked.
func (f *File) acquireLock() (*fileLock, error) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return nil, err
	}

	fl := flock.New(f.lockPath())
	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, err
	}
	if !locked {
		return nil, nil
	}
	return &fileLock{flock: fl}, nil
}

func (l *fileLock) release() {
	if l == nil || l.flock == nil {
		return
	}
	_ = l.flock.Unlock()
}

func (f *File) withLock(fn func() error) error {
	lock, err := f.acquireLock()
	if err != nil {
		return fmt.Errorf("locking %s: %w", f.path, err)
	}
	defer lock.release()
	return fn()
}

// Load decodes the document into a value produced by initial. A missing
// file yields initial() with found false. A file that cannot be decoded
// yields initial() and an error wrapping ErrCorrupt.
func Load[T any](f *File, initial func() T) (v T, found bool, err error) {
	err = f.withLock(func() error {
		v, found, err = load(f, initial)
		return err
	})
	return v, found, err
}

func load[T any](f *File, initial func() T) (T, bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return initial(), false, nil
		}
		return initial(), false, err
	}

	v := initial()
	if err := f.codec.Unmarshal(data, &v); err != nil {
		return initial(), true, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	return v, true, nil
}

// Update loads the document, applies fn, and writes the result, holding the
// lock throughout. A corrupt file is replaced rather than reported.
func Update[T any](f *File, initial func() T, fn func(*T) error) (T, error) {
	var out T
	err := f.withLock(func() error {
		v, _, err := load(f, initial)
		if err != nil && !errors.Is(err, ErrCorrupt) {
			return err
		}
		if err := fn(&v); err != nil {
			return err
		}
		if err := f.save(v); err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Save replaces the document with v.
func (f *File) Save(v any) error {
	return f.withLock(func() error { return f.save(v) })
}

func (f *File) save(v any) error {
	data, err := f.codec.Marshal(v)
	if err != nil {
		return err
	}

	// Unique temp name so unlocked (fail-open) writers never share one.
	tmp := fmt.Sprintf("%s.%d.%d.tmp", f.path, os.Getpid(), time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if runtime.GOOS == "windows" {
		_ = os.Remove(f.path)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Remove deletes the document. Removing a missing document is not an error.
func (f *File) Remove() error {
	return f.withLock(func() error {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	})
}

// Exists reports whether the document is on disk.
func (f *File) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}
