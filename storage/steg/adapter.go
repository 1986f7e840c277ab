package steg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/bmp"

	"github.com/hantyrram/stegdb/internal/fs"
	"github.com/hantyrram/stegdb/storage"
)

// ErrNotInitialized is returned by Write and Commit before Init.
var ErrNotInitialized = errors.New("steg: adapter not initialized")

// Option configures an Adapter.
type Option func(*Adapter)

// WithFileSystem sets the file system used to read and replace the image.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(a *Adapter) { a.fs = fsys }
}

// Adapter is a storage.Adapter hiding content in a PNG or BMP image.
type Adapter struct {
	path string
	fs   fs.FileSystem

	buf storage.Buffer

	mu     sync.Mutex
	img    *image.NRGBA
	format string
	closed bool
}

// New creates an Adapter for the image at path.
func New(path string, opts ...Option) *Adapter {
	a := &Adapter{path: path, fs: fs.Default}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init loads the image and extracts the hidden content.
func (a *Adapter) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return storage.ErrClosed
	}

	raw, err := a.fs.ReadFile(a.path)
	if err != nil {
		return fmt.Errorf("steg: read %s: %w", a.path, err)
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("steg: decode %s: %w", a.path, err)
	}
	if format != "png" && format != "bmp" {
		return fmt.Errorf("steg: %s: unsupported image format %q", a.path, format)
	}

	nrgba := ToNRGBA(img)
	payload, err := Extract(nrgba)
	if err != nil {
		return fmt.Errorf("steg: %s: %w", a.path, err)
	}
	a.img, a.format = nrgba, format
	a.buf.Reset(payload)
	return nil
}

// Capacity returns the number of bytes the loaded image can carry, or 0
// before Init.
func (a *Adapter) Capacity() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.img == nil {
		return 0
	}
	return Capacity(a.img)
}

// Read implements storage.Adapter.
func (a *Adapter) Read() ([]byte, error) {
	return a.buf.Read(), nil
}

// Write implements storage.Adapter. Content larger than the image capacity
// fails with ErrCapacityExceeded.
func (a *Adapter) Write(p []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return storage.ErrClosed
	}
	if a.img == nil {
		return ErrNotInitialized
	}
	if c := Capacity(a.img); len(p) > c {
		return fmt.Errorf("%w: %d bytes, capacity %d", ErrCapacityExceeded, len(p), c)
	}
	a.buf.Write(p)
	return nil
}

// Commit re-encodes the image with the pending content and replaces the
// file atomically.
func (a *Adapter) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return storage.ErrClosed
	}
	if a.img == nil {
		return ErrNotInitialized
	}
	data, ok := a.buf.Pending()
	if !ok {
		return nil
	}

	img := &image.NRGBA{
		Pix:    bytes.Clone(a.img.Pix),
		Stride: a.img.Stride,
		Rect:   a.img.Rect,
	}
	if err := Embed(img, data); err != nil {
		return err
	}

	var out bytes.Buffer
	if err := encode(&out, img, a.format); err != nil {
		return fmt.Errorf("steg: encode %s: %w", a.path, err)
	}
	pattern := "." + strings.TrimSuffix(filepath.Base(a.path), filepath.Ext(a.path)) + "-*.tmp"
	if err := fs.WriteFileAtomic(a.fs, a.path, out.Bytes(), pattern); err != nil {
		return fmt.Errorf("steg: commit %s: %w", a.path, err)
	}
	a.img = img
	a.buf.Promote(data)
	return nil
}

// Size implements storage.Adapter.
func (a *Adapter) Size() int64 {
	return a.buf.Size()
}

// Close implements io.Closer.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.img = nil
	return nil
}

func encode(w *bytes.Buffer, img *image.NRGBA, format string) error {
	if format == "bmp" {
		return bmp.Encode(w, img)
	}
	return png.Encode(w, img)
}
