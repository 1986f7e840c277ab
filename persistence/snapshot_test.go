package persistence

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	payload := []byte(`{"collections":{"users":[{"_id":1}]}}`)

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, payload))

	got, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestSnapshotEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, nil))

	got, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSnapshotLegacyBase64(t *testing.T) {
	payload := []byte(`{"notes":[]}`)
	encoded := base64.StdEncoding.EncodeToString(payload)

	got, err := ReadSnapshot(bytes.NewBufferString(encoded))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestSnapshotDetectsCorruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, []byte("important bytes")))

	raw, err := base64.StdEncoding.DecodeString(buf.String())
	require.NoError(t, err)
	raw[len(snapshotMagic)+8] ^= 0xff

	_, err = ReadSnapshot(bytes.NewBufferString(base64.StdEncoding.EncodeToString(raw)))
	require.Error(t, err)
	assert.True(t, IsChecksumMismatch(err))
}

func TestSnapshotTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, []byte("important bytes")))

	raw, err := base64.StdEncoding.DecodeString(buf.String())
	require.NoError(t, err)

	_, err = ReadSnapshot(bytes.NewBufferString(base64.StdEncoding.EncodeToString(raw[:len(raw)-3])))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	_, err = ReadSnapshot(bytes.NewBufferString("!!not base64!!"))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestChecksumWriterReaderAgree(t *testing.T) {
	data := []byte("the quick brown fox")

	var buf bytes.Buffer
	cw := NewChecksumWriter(&buf)
	_, err := cw.Write(data)
	require.NoError(t, err)
	assert.Equal(t, CalculateChecksum(data), cw.Sum())

	cr := NewChecksumReader(&buf)
	_, err = cr.Read(make([]byte, len(data)))
	require.NoError(t, err)
	assert.NoError(t, cr.Verify(cw.Sum()))
	assert.Error(t, cr.Verify(cw.Sum()+1))
}
