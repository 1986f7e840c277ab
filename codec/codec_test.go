package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	assert.Equal(t, "go-json", c.Name())

	c, ok = ByName("")
	require.True(t, ok)
	assert.Equal(t, Default.Name(), c.Name())

	_, ok = ByName("bson")
	assert.False(t, ok)
}

func TestCodecsAgree(t *testing.T) {
	in := map[string]any{
		"collections": map[string]any{
			"users": []any{
				map[string]any{"_id": 1, "name": "ada", "score": 9.5},
			},
		},
	}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(in)
			require.NoError(t, err)
			assert.JSONEq(t, `{"collections":{"users":[{"_id":1,"name":"ada","score":9.5}]}}`, string(data))

			var out map[string]any
			require.NoError(t, c.Unmarshal(data, &out))

			users := out["collections"].(map[string]any)["users"].([]any)
			doc := users[0].(map[string]any)
			assert.Equal(t, json.Number("1"), doc["_id"])
			assert.Equal(t, json.Number("9.5"), doc["score"])
		})
	}
}

func TestMustMarshalPanics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(JSON{}, make(chan int)) })
	assert.NotPanics(t, func() { MustMarshal(nil, map[string]any{"a": 1}) })
}
