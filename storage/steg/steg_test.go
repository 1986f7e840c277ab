package steg

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/hantyrram/stegdb/internal/fs"
	"github.com/hantyrram/stegdb/storage"
)

var _ storage.Adapter = (*Adapter)(nil)

func carrier(w, h int) *image.NRGBA {
	r := rand.New(rand.NewPCG(1, 2))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(r.IntN(256)), G: uint8(r.IntN(256)), B: uint8(r.IntN(256)), A: 255})
		}
	}
	return img
}

func writeCarrier(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	var buf bytes.Buffer
	if strings.HasSuffix(name, ".bmp") {
		require.NoError(t, bmp.Encode(&buf, img))
	} else {
		require.NoError(t, png.Encode(&buf, img))
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestEmbedExtract(t *testing.T) {
	img := carrier(40, 40)
	assert.Equal(t, 592, Capacity(img))

	original := bytes.Clone(img.Pix)
	payload := []byte(`{"collections":{"users":[{"_id":1,"name":"ada"}]}}`)
	require.NoError(t, Embed(img, payload))

	got, err := Extract(img)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	for i := range img.Pix {
		diff := int(img.Pix[i]) - int(original[i])
		assert.LessOrEqual(t, diff*diff, 1, "only the least significant bit may change")
		if i%4 == 3 {
			assert.Equal(t, original[i], img.Pix[i], "alpha is untouched")
		}
	}
}

func TestEmbedCapacity(t *testing.T) {
	img := carrier(8, 8)
	assert.Equal(t, 16, Capacity(img))
	assert.NoError(t, Embed(img, make([]byte, 16)))
	assert.ErrorIs(t, Embed(img, make([]byte, 17)), ErrCapacityExceeded)

	assert.Equal(t, 0, Capacity(carrier(2, 2)))
}

func TestExtractWithoutFrame(t *testing.T) {
	img := carrier(16, 16)
	for i := range img.Pix {
		img.Pix[i] &^= 1
	}
	got, err := Extract(img)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = Extract(carrier(2, 2))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExtractCorruptLength(t *testing.T) {
	img := carrier(8, 8)
	require.NoError(t, Embed(img, []byte("hello")))
	w := &bits{img: img, pos: len(magic) * 8}
	for _, v := range []byte{0xff, 0xff, 0xff, 0xff} {
		w.write(v)
	}
	_, err := Extract(img)
	assert.ErrorIs(t, err, ErrCorruptFrame)
}

func TestAdapterRoundTrip(t *testing.T) {
	for _, name := range []string{"carrier.png", "carrier.bmp"} {
		t.Run(name, func(t *testing.T) {
			path := writeCarrier(t, name, carrier(64, 64))

			a := New(path)
			require.NoError(t, a.Init(t.Context()))
			assert.True(t, storage.IsEmpty(a))
			assert.Equal(t, 64*64*3/8-8, a.Capacity())

			content := []byte(`{"collections":{"notes":[{"_id":1,"text":"hidden"}]}}`)
			require.NoError(t, a.Write(content))
			require.NoError(t, a.Commit(t.Context()))
			assert.Equal(t, int64(len(content)), a.Size())
			require.NoError(t, a.Close())

			reopened := New(path)
			require.NoError(t, reopened.Init(t.Context()))
			got, err := reopened.Read()
			require.NoError(t, err)
			assert.Equal(t, content, got)

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()
			_, format, err := image.DecodeConfig(f)
			require.NoError(t, err)
			assert.Equal(t, strings.TrimPrefix(filepath.Ext(name), "."), format, "carrier keeps its format")
		})
	}
}

func TestAdapterCapacityExceeded(t *testing.T) {
	path := writeCarrier(t, "small.png", carrier(10, 10))
	a := New(path)
	require.NoError(t, a.Init(t.Context()))

	err := a.Write(make([]byte, a.Capacity()+1))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.NoError(t, a.Write(make([]byte, a.Capacity())))
}

func TestAdapterErrors(t *testing.T) {
	t.Run("missing image", func(t *testing.T) {
		err := New(filepath.Join(t.TempDir(), "nope.png")).Init(t.Context())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("not an image", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "text.png")
		require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))
		err := New(path).Init(t.Context())
		assert.Error(t, err)
		assert.NotErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("write before init", func(t *testing.T) {
		a := New("unused.png")
		assert.ErrorIs(t, a.Write([]byte("x")), ErrNotInitialized)
		assert.ErrorIs(t, a.Commit(t.Context()), ErrNotInitialized)
		assert.Equal(t, 0, a.Capacity())
	})

	t.Run("closed", func(t *testing.T) {
		a := New("unused.png")
		require.NoError(t, a.Close())
		assert.ErrorIs(t, a.Init(t.Context()), storage.ErrClosed)
	})
}

func TestAdapterCommitFailureKeepsImage(t *testing.T) {
	path := writeCarrier(t, "carrier.png", carrier(32, 32))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	ffs := fs.NewFaultyFS(nil)
	a := New(path, WithFileSystem(ffs))
	require.NoError(t, a.Init(t.Context()))

	ffs.AddRule(".tmp", fs.Fault{FailAfterBytes: -1, FailOnRename: true})
	require.NoError(t, a.Write([]byte("secret")))
	assert.ErrorIs(t, a.Commit(t.Context()), fs.ErrInjected)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.True(t, storage.IsEmpty(a))
}
