// Package resource opens configuration locations.
//
// Location forms:
//
//	classpath:config/app.xml   bundled fs.FS registered on the Loader
//	file:/etc/app/app.xml      operating system path
//	config/app.xml             relative to the host root fs.FS
package resource

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/km-arc/go-bootstrap/framework/errs"
)

const (
	ClasspathPrefix = "classpath:"
	FilePrefix      = "file:"
)

// Resource is a readable configuration source.
type Resource interface {
	// Open returns a fresh stream; callers close it.
	Open() (io.ReadCloser, error)
	Exists() bool
	// Description is used in log lines and problem reports.
	Description() string
}

// FSResource is a path inside an fs.FS.
type FSResource struct {
	FS   fs.FS
	Path string
	Kind string // "classpath" or "host"
}

func (r *FSResource) Open() (io.ReadCloser, error) {
	if r.FS == nil {
		return nil, fs.ErrNotExist
	}
	return r.FS.Open(r.Path)
}

func (r *FSResource) Exists() bool {
	if r.FS == nil {
		return false
	}
	_, err := fs.Stat(r.FS, r.Path)
	return err == nil
}

func (r *FSResource) Description() string {
	return fmt.Sprintf("%s resource [%s]", r.Kind, r.Path)
}

// FileResource is an operating system path.
type FileResource struct {
	Path string
}

func (r *FileResource) Open() (io.ReadCloser, error) { return os.Open(r.Path) }

func (r *FileResource) Exists() bool {
	_, err := os.Stat(r.Path)
	return err == nil
}

func (r *FileResource) Description() string {
	return fmt.Sprintf("file [%s]", r.Path)
}

// Loader turns location strings into Resources.
type Loader struct {
	Classpath fs.FS // bundled resources, may be nil
	Root      fs.FS // host document root, may be nil
}

// Resource resolves a location. It never touches the underlying storage.
func (l *Loader) Resource(location string) Resource {
	switch {
	case strings.HasPrefix(location, ClasspathPrefix):
		return &FSResource{FS: l.Classpath, Path: clean(strings.TrimPrefix(location, ClasspathPrefix)), Kind: "classpath"}
	case strings.HasPrefix(location, FilePrefix):
		return &FileResource{Path: strings.TrimPrefix(location, FilePrefix)}
	default:
		return &FSResource{FS: l.Root, Path: clean(location), Kind: "host"}
	}
}

// Open resolves and opens a location, wrapping failures as config load
// errors.
func (l *Loader) Open(location string) (Resource, io.ReadCloser, error) {
	res := l.Resource(location)
	rc, err := res.Open()
	if err != nil {
		return res, nil, errs.Wrap(errs.CodeConfigLoad, "resource.open", err,
			"could not open %s", res.Description())
	}
	return res, rc, nil
}

// clean produces an fs.FS-valid path: slash separated, no leading slash.
func clean(p string) string {
	p = path.Clean("/" + strings.TrimSpace(p))
	return strings.TrimPrefix(p, "/")
}
