package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPath(t *testing.T) {
	doc := []byte(`{"content":[{"type":"text","text":"5"},{"type":"text","text":"extra"}],"isError":false}`)

	values, err := ExtractJSONPath("$.content[0].text", doc)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "5", values[0])

	values, err = ExtractJSONPath("$.content[*].text", doc)
	require.NoError(t, err)
	assert.Equal(t, []any{"5", "extra"}, values)
}

func TestExtractJSONPath_NoMatch(t *testing.T) {
	values, err := ExtractJSONPath("$.missing", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestExtractJSONPath_EmptyDocument(t *testing.T) {
	values, err := ExtractJSONPath("$.a", nil)
	require.NoError(t, err)
	assert.Nil(t, values)
}

func TestExtractJSONPath_BadPath(t *testing.T) {
	_, err := ExtractJSONPath("$[", []byte(`{}`))
	assert.Error(t, err)
}

func TestExtractJSONPath_BadDocument(t *testing.T) {
	_, err := ExtractJSONPath("$.a", []byte(`{broken`))
	assert.Error(t, err)
}
