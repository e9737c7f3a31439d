// Package filestore keeps uploaded CSV files on local disk.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

const tmpSuffix = ".part"

// Local stores each upload under Dir as "<uuid>_<base name>".
type Local struct {
	dir string
}

var _ core.FileStore = (*Local)(nil)

// NewLocal creates dir if needed and returns a store rooted there.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, errors.New("filestore: directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("filestore: resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create %s: %w", abs, err)
	}
	return &Local{dir: abs}, nil
}

// Dir returns the absolute storage directory.
func (l *Local) Dir() string { return l.dir }

// Save copies r to a new file. The data is written to a temporary name and
// renamed into place once complete, so List never sees a partial upload.
func (l *Local) Save(ctx context.Context, name string, r io.Reader) (core.StoredFile, error) {
	final := filepath.Join(l.dir, uuid.NewString()+"_"+safeName(name))
	tmp := final + tmpSuffix

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return core.StoredFile{}, fmt.Errorf("create %s: %w", tmp, err)
	}

	n, err := io.Copy(f, &ctxReader{ctx: ctx, r: r})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return core.StoredFile{}, fmt.Errorf("write %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return core.StoredFile{}, fmt.Errorf("rename %s: %w", tmp, err)
	}

	info, err := os.Stat(final)
	if err != nil {
		return core.StoredFile{}, fmt.Errorf("stat %s: %w", final, err)
	}
	return core.StoredFile{Path: final, Size: n, ModTime: info.ModTime()}, nil
}

func (l *Local) Open(path string) (io.ReadCloser, error) {
	if err := l.contains(path); err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Remove deletes path. A missing file is not an error.
func (l *Local) Remove(path string) error {
	if err := l.contains(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List returns every completed file in the directory.
func (l *Local) List() ([]core.StoredFile, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.dir, err)
	}

	out := make([]core.StoredFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), tmpSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		out = append(out, core.StoredFile{
			Path:    filepath.Join(l.dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return out, nil
}

// contains rejects paths outside the storage directory.
func (l *Local) contains(path string) error {
	rel, err := filepath.Rel(l.dir, filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("filestore: path %q is outside %s", path, l.dir)
	}
	return nil
}

// safeName reduces a client-supplied file name to a plain base name.
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '/', r == ':':
			return '_'
		}
		return r
	}, name)
	if name == "." || name == ".." || name == "" {
		return "upload.csv"
	}
	return name
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
