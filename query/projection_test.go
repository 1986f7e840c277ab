package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hantyrram/stegdb/document"
)

func TestProject(t *testing.T) {
	doc := document.Document{"_id": int64(7), "name": "ada", "age": int64(36), "secret": "x"}

	tests := []struct {
		name string
		p    Projection
		want document.Document
	}{
		{name: "nil keeps all", p: nil, want: doc},
		{name: "inclusion", p: Projection{"name": 1}, want: document.Document{"_id": int64(7), "name": "ada"}},
		{name: "inclusion without id", p: Projection{"name": true, "_id": 0}, want: document.Document{"name": "ada"}},
		{name: "exclusion", p: Projection{"secret": 0}, want: document.Document{"_id": int64(7), "name": "ada", "age": int64(36)}},
		{name: "exclude id only", p: Projection{"_id": false}, want: document.Document{"name": "ada", "age": int64(36), "secret": "x"}},
		{name: "inclusion of missing field", p: Projection{"nope": 1}, want: document.Document{"_id": int64(7)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Project(doc, tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProjectDoesNotAlias(t *testing.T) {
	doc := document.Document{"_id": int64(1), "tags": []any{"a"}}
	got, err := Project(doc, nil)
	require.NoError(t, err)
	got["tags"].([]any)[0] = "b"
	assert.Equal(t, "a", doc["tags"].([]any)[0])
}

func TestProjectInvalid(t *testing.T) {
	_, err := Project(document.Document{}, Projection{"a": 1, "b": 0})
	assert.ErrorIs(t, err, ErrInvalidProjection)

	_, err = CompileProjection(Projection{"a": "yes"})
	assert.ErrorIs(t, err, ErrInvalidProjection)
}
