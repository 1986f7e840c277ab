package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm of a Compressed adapter.
type Compression uint8

const (
	// CompressionNone stores content unchanged inside the frame.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio).
	CompressionZSTD Compression = 2
)

// ParseCompression maps "none", "lz4" and "zstd" to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	}
	return CompressionNone, fmt.Errorf("storage: unknown compression %q", name)
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// ErrCorruptFrame is returned when compressed content cannot be decoded.
var ErrCorruptFrame = errors.New("storage: corrupt compressed frame")

// Frame: magic "SDBC" | algorithm uint8 | uncompressed length uint64 LE | payload.
const (
	frameMagic      = "SDBC"
	frameHeaderSize = len(frameMagic) + 1 + 8
)

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Compressed wraps an Adapter and compresses everything written through it.
// Content read from the inner adapter without the frame magic is returned
// unchanged, so existing uncompressed databases stay readable.
type Compressed struct {
	inner Adapter
	algo  Compression
}

// NewCompressed wraps inner.
func NewCompressed(inner Adapter, algo Compression) *Compressed {
	return &Compressed{inner: inner, algo: algo}
}

// Unwrap returns the inner adapter.
func (c *Compressed) Unwrap() Adapter { return c.inner }

// Init implements Adapter.
func (c *Compressed) Init(ctx context.Context) error { return c.inner.Init(ctx) }

// Read implements Adapter.
func (c *Compressed) Read() ([]byte, error) {
	data, err := c.inner.Read()
	if err != nil {
		return nil, err
	}
	return Decompress(data)
}

// Write implements Adapter.
func (c *Compressed) Write(p []byte) error {
	framed, err := Compress(p, c.algo)
	if err != nil {
		return err
	}
	return c.inner.Write(framed)
}

// Commit implements Adapter.
func (c *Compressed) Commit(ctx context.Context) error { return c.inner.Commit(ctx) }

// Size returns the committed size of the inner (compressed) content.
func (c *Compressed) Size() int64 { return c.inner.Size() }

// Close closes the inner adapter if it is an io.Closer.
func (c *Compressed) Close() error {
	if closer, ok := c.inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Compress frames data with the given algorithm. Empty input stays empty.
func Compress(data []byte, algo Compression) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}

	var payload []byte
	switch algo {
	case CompressionNone:
		payload = data
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("storage: lz4: %w", err)
		}
		if n == 0 {
			// Incompressible
			algo, payload = CompressionNone, data
		} else {
			payload = buf[:n]
		}
	case CompressionZSTD:
		enc := getZstdEncoder()
		payload = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("storage: unknown compression %d", algo)
	}

	out := make([]byte, frameHeaderSize, frameHeaderSize+len(payload))
	copy(out, frameMagic)
	out[len(frameMagic)] = byte(algo)
	binary.LittleEndian.PutUint64(out[len(frameMagic)+1:], uint64(len(data)))
	return append(out, payload...), nil
}

// Decompress reverses Compress. Data without the frame magic is returned as is.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < frameHeaderSize || !bytes.HasPrefix(data, []byte(frameMagic)) {
		return data, nil
	}
	algo := Compression(data[len(frameMagic)])
	size := binary.LittleEndian.Uint64(data[len(frameMagic)+1:])
	payload := data[frameHeaderSize:]

	var out []byte
	switch algo {
	case CompressionNone:
		out = bytes.Clone(payload)
	case CompressionLZ4:
		if size > uint64(len(payload))*255+16 {
			return nil, fmt.Errorf("%w: implausible length %d", ErrCorruptFrame, size)
		}
		out = make([]byte, size)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorruptFrame, err)
		}
		out = out[:n]
	case CompressionZSTD:
		dec := getZstdDecoder()
		var err error
		out, err = dec.DecodeAll(payload, nil)
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorruptFrame, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %d", ErrCorruptFrame, algo)
	}

	if uint64(len(out)) != size {
		return nil, fmt.Errorf("%w: length %d, want %d", ErrCorruptFrame, len(out), size)
	}
	return out, nil
}
