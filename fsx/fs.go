// Package fsx extends io/fs with file creation, which the REPL needs to keep
// its history next to the sources it reads.
package fsx

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing/fstest"
)

var _ CreateFS = DirFS("")
var _ CreateFS = MapFS{}

type WriteableFile interface {
	io.Writer
	io.Closer
}

type CreateFS interface {
	fs.FS
	Create(name string) (WriteableFile, error)
}

// Create creates or truncates name in fsys.
func Create(fsys fs.FS, name string) (WriteableFile, error) {
	if cfs, ok := fsys.(CreateFS); ok {
		return cfs.Create(name)
	}
	return nil, &fs.PathError{Op: "create", Path: name, Err: errors.ErrUnsupported}
}

// DirFS is os.DirFS with Create.
type DirFS string

func (dir DirFS) Open(name string) (fs.File, error) {
	fullname, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	f, err := os.Open(fullname)
	if err != nil {
		err.(*fs.PathError).Path = name
		return nil, err
	}
	return f, nil
}

// Create implements CreateFS
func (dir DirFS) Create(name string) (WriteableFile, error) {
	fullname, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "create", Path: name, Err: err}
	}
	f, err := os.Create(fullname)
	if err != nil {
		err.(*fs.PathError).Path = name
		return nil, err
	}
	return f, nil
}

// join returns the path for name in dir.
func (dir DirFS) join(name string) (string, error) {
	if dir == "" {
		return "", errors.New("DirFS with empty root")
	}
	if !fs.ValidPath(name) {
		return "", fs.ErrInvalid
	}
	name, err := filepath.Localize(name)
	if err != nil {
		return "", fs.ErrInvalid
	}
	return filepath.Join(string(dir), name), nil
}

// MapFS is an in-memory CreateFS. Created files become visible once closed.
type MapFS struct {
	fstest.MapFS
}

func NewMapFS() MapFS {
	return MapFS{fstest.MapFS{}}
}

func (mfs MapFS) Add(name, body string) MapFS {
	mfs.MapFS[name] = &fstest.MapFile{Data: []byte(body)}
	return mfs
}

// Create implements CreateFS
func (mfs MapFS) Create(name string) (WriteableFile, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrInvalid}
	}
	if f, ok := mfs.MapFS[name]; ok && f.Mode.IsDir() {
		return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrExist}
	}
	return &mapFile{name: name, fsys: mfs.MapFS}, nil
}

type mapFile struct {
	name string
	fsys fstest.MapFS
	buf  bytes.Buffer
}

func (f *mapFile) Write(p []byte) (int, error) { return f.buf.Write(p) }

func (f *mapFile) Close() error {
	f.fsys[f.name] = &fstest.MapFile{Data: bytes.Clone(f.buf.Bytes())}
	return nil
}
