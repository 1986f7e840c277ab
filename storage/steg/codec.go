package steg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"
)

const (
	magic      = "SDB1"
	headerSize = len(magic) + 4
)

var (
	// ErrCapacityExceeded is returned when content does not fit into the carrier.
	ErrCapacityExceeded = errors.New("steg: content exceeds image capacity")
	// ErrCorruptFrame is returned when the hidden frame is inconsistent.
	ErrCorruptFrame = errors.New("steg: corrupt hidden frame")
)

// Capacity returns the number of payload bytes img can carry.
func Capacity(img image.Image) int {
	b := img.Bounds()
	return max(b.Dx()*b.Dy()*3/8-headerSize, 0)
}

// ToNRGBA returns img as *image.NRGBA, converting if needed.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// bits walks the R, G, B bytes of an NRGBA image in row-major order.
type bits struct {
	img *image.NRGBA
	pos int // channel index over all pixels
}

func (b *bits) offset() int {
	w := b.img.Rect.Dx()
	pixel, channel := b.pos/3, b.pos%3
	x, y := pixel%w, pixel/w
	return y*b.img.Stride + x*4 + channel
}

func (b *bits) write(v byte) {
	for i := 7; i >= 0; i-- {
		off := b.offset()
		b.img.Pix[off] = b.img.Pix[off]&^1 | (v>>i)&1
		b.pos++
	}
}

func (b *bits) read() byte {
	var v byte
	for range 8 {
		v = v<<1 | b.img.Pix[b.offset()]&1
		b.pos++
	}
	return v
}

// Embed hides payload in img.
func Embed(img *image.NRGBA, payload []byte) error {
	if len(payload) > Capacity(img) {
		return fmt.Errorf("%w: %d bytes, capacity %d", ErrCapacityExceeded, len(payload), Capacity(img))
	}
	var header [headerSize]byte
	copy(header[:], magic)
	binary.BigEndian.PutUint32(header[len(magic):], uint32(len(payload)))

	w := &bits{img: img}
	for _, v := range header {
		w.write(v)
	}
	for _, v := range payload {
		w.write(v)
	}
	return nil
}

// Extract returns the payload hidden in img, or nil if img carries none.
func Extract(img *image.NRGBA) ([]byte, error) {
	b := img.Bounds()
	if b.Dx()*b.Dy()*3/8 < headerSize {
		return nil, nil
	}
	r := &bits{img: img}
	var header [headerSize]byte
	for i := range header {
		header[i] = r.read()
	}
	if string(header[:len(magic)]) != magic {
		return nil, nil
	}
	n := int(binary.BigEndian.Uint32(header[len(magic):]))
	if n > Capacity(img) {
		return nil, fmt.Errorf("%w: length %d exceeds capacity %d", ErrCorruptFrame, n, Capacity(img))
	}
	payload := make([]byte, n)
	for i := range payload {
		payload[i] = r.read()
	}
	return payload, nil
}
