package persistence

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const snapshotMagic = "SDBK"

// ErrInvalidSnapshot is returned when backup data cannot be decoded.
var ErrInvalidSnapshot = errors.New("persistence: invalid snapshot")

// WriteSnapshot writes payload to w as a base64 snapshot frame.
func WriteSnapshot(w io.Writer, payload []byte) error {
	enc := base64.NewEncoder(base64.StdEncoding, w)

	var header [len(snapshotMagic) + 8]byte
	copy(header[:], snapshotMagic)
	binary.LittleEndian.PutUint64(header[len(snapshotMagic):], uint64(len(payload)))
	if _, err := enc.Write(header[:]); err != nil {
		return err
	}

	cw := NewChecksumWriter(enc)
	if _, err := cw.Write(payload); err != nil {
		return err
	}

	var trailer [4]byte
	binary.LittleEndian.PutUint32(trailer[:], cw.Sum())
	if _, err := enc.Write(trailer[:]); err != nil {
		return err
	}
	return enc.Close()
}

// ReadSnapshot decodes a snapshot produced by WriteSnapshot and returns the
// payload. Plain base64 without a frame is returned as-is.
func ReadSnapshot(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, r))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if !bytes.HasPrefix(raw, []byte(snapshotMagic)) {
		return raw, nil
	}

	rest := raw[len(snapshotMagic):]
	if len(rest) < 8+4 {
		return nil, fmt.Errorf("%w: truncated frame", ErrInvalidSnapshot)
	}
	size := binary.LittleEndian.Uint64(rest)
	rest = rest[8:]
	if uint64(len(rest)) != size+4 {
		return nil, fmt.Errorf("%w: frame length %d does not match payload", ErrInvalidSnapshot, size)
	}

	cr := NewChecksumReader(bytes.NewReader(rest[:size]))
	payload, err := io.ReadAll(cr)
	if err != nil {
		return nil, err
	}
	if err := cr.Verify(binary.LittleEndian.Uint32(rest[size:])); err != nil {
		return nil, err
	}
	return payload, nil
}
