package stegdb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hantyrram/stegdb/document"
	"github.com/hantyrram/stegdb/query"
	"github.com/hantyrram/stegdb/update"
)

func TestDriverErrorIs(t *testing.T) {
	cause := errors.New("io failure")
	err := driverError(ErrCommitFailed, "users", cause)

	assert.ErrorIs(t, err, ErrCommitFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrCorruptData)
	assert.Equal(t, "Commit Failed: users: io failure", err.Error())

	wrapped := fmt.Errorf("outer: %w", err)
	var de *DriverError
	assert.ErrorAs(t, wrapped, &de)
	assert.Equal(t, "users", de.Detail)
}

func TestConnectionErrorIs(t *testing.T) {
	err := connectionError(ErrPermissionDenied, "/tmp/x.png", nil)

	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.NotErrorIs(t, err, ErrImageNotFound)
	assert.NotErrorIs(t, err, ErrCommitFailed)
	assert.Equal(t, "No Permission to read or write to file! (/tmp/x.png)", err.Error())
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"query operator", fmt.Errorf("%w: $regex", query.ErrUnknownOperator), ErrInvalidOperator},
		{"update operator", fmt.Errorf("%w: $inc", update.ErrUnknownOperator), ErrInvalidOperator},
		{"query", query.ErrInvalidQuery, ErrInvalidQuery},
		{"projection", query.ErrInvalidProjection, ErrInvalidProjection},
		{"update", update.ErrInvalidUpdate, ErrInvalidUpdate},
		{"document", document.ErrUnsupportedValue, ErrInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, translateError(nil))

	de := driverError(ErrClosed, "", nil)
	assert.Same(t, de, translateError(de))

	other := errors.New("other")
	assert.ErrorIs(t, translateError(other), other)
}
