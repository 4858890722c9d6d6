package jsonptr

import (
	"testing"

	"github.com/openclaw/plashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() map[string]any {
	return map[string]any{
		"title": "X",
		"ui":    map[string]any{"timezone": "UTC"},
		"sections": []any{
			map[string]any{"cards": []any{map[string]any{"value": 1.0}}},
		},
	}
}

func TestReadResolvesNestedTokens(t *testing.T) {
	doc := sampleDoc()
	v, err := Read(doc, "/sections/0/cards/0/value")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestReadEscapedTokens(t *testing.T) {
	doc := map[string]any{"a/b": map[string]any{"c~d": "ok"}}
	v, err := Read(doc, "/a~1b/c~0d")
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestReadMissingKeyIsPointerNotFound(t *testing.T) {
	doc := sampleDoc()
	_, err := Read(doc, "/sections/0/cards/0/unknown")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPointerNotFound)
}

func TestReadTypeMismatchIsPointerInvalid(t *testing.T) {
	doc := sampleDoc()
	_, err := Read(doc, "/title/0")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPointerInvalid)

	_, err = Read(doc, "/sections/notanindex")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPointerInvalid)
}

func TestWriteReplacesExistingKey(t *testing.T) {
	doc := sampleDoc()
	require.NoError(t, Write(doc, "/title", "Y"))
	v, err := Read(doc, "/title")
	require.NoError(t, err)
	assert.Equal(t, "Y", v)
}

func TestWriteDoesNotCreateNewKeys(t *testing.T) {
	doc := sampleDoc()
	err := Write(doc, "/new_key", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPointerNotFound)
}

func TestWriteDoesNotExtendArrays(t *testing.T) {
	doc := sampleDoc()
	err := Write(doc, "/sections/1", map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPointerInvalid)
}

func TestCloneIsIndependent(t *testing.T) {
	doc := sampleDoc()
	clone := Clone(doc).(map[string]any)
	require.NoError(t, Write(clone, "/title", "Z"))
	v, _ := Read(doc, "/title")
	assert.Equal(t, "X", v, "original must not be mutated by writes to the clone")
}
