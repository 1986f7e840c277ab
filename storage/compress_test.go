package storage

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Adapter = (*Compressed)(nil)

func TestCompressRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte(`{"name":"ada","age":36},`), 200)
	random := make([]byte, 4096)
	_, _ = rand.Read(random)

	for _, algo := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		for name, data := range map[string][]byte{"repetitive": payload, "random": random, "tiny": []byte("x")} {
			t.Run(algo.String()+"/"+name, func(t *testing.T) {
				framed, err := Compress(data, algo)
				require.NoError(t, err)
				assert.True(t, bytes.HasPrefix(framed, []byte("SDBC")))

				out, err := Decompress(framed)
				require.NoError(t, err)
				assert.Equal(t, data, out)
			})
		}
	}
}

func TestCompressShrinks(t *testing.T) {
	payload := bytes.Repeat([]byte("abcdefgh"), 1000)
	for _, algo := range []Compression{CompressionLZ4, CompressionZSTD} {
		framed, err := Compress(payload, algo)
		require.NoError(t, err)
		assert.Less(t, len(framed), len(payload)/4, algo.String())
	}
}

func TestDecompressPassthrough(t *testing.T) {
	raw := []byte(`{"collections":{}}`)
	out, err := Decompress(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, out)

	out, err = Decompress(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	framed, err := Compress(nil, CompressionZSTD)
	require.NoError(t, err)
	assert.Empty(t, framed)
}

func TestDecompressCorrupt(t *testing.T) {
	payload := bytes.Repeat([]byte("stegdb "), 100)

	t.Run("zstd payload", func(t *testing.T) {
		framed, err := Compress(payload, CompressionZSTD)
		require.NoError(t, err)
		framed = framed[:len(framed)-5]
		_, err = Decompress(framed)
		assert.ErrorIs(t, err, ErrCorruptFrame)
	})

	t.Run("length mismatch", func(t *testing.T) {
		framed, err := Compress(payload, CompressionNone)
		require.NoError(t, err)
		framed[5]++
		_, err = Decompress(framed)
		assert.ErrorIs(t, err, ErrCorruptFrame)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		framed, err := Compress(payload, CompressionNone)
		require.NoError(t, err)
		framed[4] = 9
		_, err = Decompress(framed)
		assert.ErrorIs(t, err, ErrCorruptFrame)
	})
}

func TestParseCompression(t *testing.T) {
	for name, want := range map[string]Compression{"": CompressionNone, "none": CompressionNone, "lz4": CompressionLZ4, "zstd": CompressionZSTD} {
		got, err := ParseCompression(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("brotli")
	assert.Error(t, err)
}

func TestCompressedAdapter(t *testing.T) {
	inner := NewMemory([]byte(`{"collections":{"legacy":[]}}`))
	c := NewCompressed(inner, CompressionZSTD)
	require.NoError(t, c.Init(t.Context()))

	data, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, `{"collections":{"legacy":[]}}`, string(data), "uncompressed content passes through")

	content := bytes.Repeat([]byte(`{"k":"v"}`), 500)
	require.NoError(t, c.Write(content))
	require.NoError(t, c.Commit(t.Context()))

	data, err = c.Read()
	require.NoError(t, err)
	assert.Equal(t, content, data)
	assert.Less(t, c.Size(), int64(len(content)))

	raw, _ := inner.Read()
	assert.True(t, bytes.HasPrefix(raw, []byte("SDBC")))
	assert.Same(t, inner, c.Unwrap())

	require.NoError(t, c.Close())
	assert.ErrorIs(t, inner.Write(nil), ErrClosed)
}
