package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookies(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Cookie(ctx, "_ga")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.PutCookie(ctx, "_ga", "GA1.2.345"))
	require.NoError(t, s.PutCookie(ctx, "_ga", "GA1.2.678"))

	v, err := s.Cookie(ctx, "_ga")
	require.NoError(t, err)
	assert.Equal(t, "GA1.2.678", v)

	v, ok := s.ReadCookie("_ga")
	assert.True(t, ok)
	assert.Equal(t, "GA1.2.678", v)

	_, ok = s.ReadCookie("missing")
	assert.False(t, ok)
}

func TestLinkerParams(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutLinkerParam(ctx, "gl", "cid", "abc"))
	require.NoError(t, s.PutLinkerParam(ctx, "gl", "n", 123))
	require.NoError(t, s.PutLinkerParam(ctx, "gl", "f", 1.5))

	v, ok := s.Get("gl", "cid")
	require.True(t, ok)
	assert.Equal(t, "abc", v)

	v, ok = s.Get("gl", "n")
	require.True(t, ok)
	assert.Equal(t, json.Number("123"), v)

	v, ok = s.Get("gl", "f")
	require.True(t, ok)
	assert.Equal(t, json.Number("1.5"), v)

	_, ok = s.Get("other", "cid")
	assert.False(t, ok)

	_, err := s.LinkerParam(ctx, "gl", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutRejectsUnsupportedValues(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.PutLinkerParam(ctx, "gl", "x", []string{"a"}))
	assert.Error(t, s.PutLinkerParam(ctx, "gl", "x", nil))
	assert.Error(t, s.PutVideoState(ctx, "v", "x", map[string]any{}))
}

func TestVideoState(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutVideoState(ctx, "vid", "currentTime", 12.5))
	require.NoError(t, s.PutVideoState(ctx, "vid", "state", "playing"))

	v, err := s.Query(ctx, "vid", "currentTime")
	require.NoError(t, err)
	assert.Equal(t, json.Number("12.5"), v)

	v, err = s.Query(ctx, "vid", "state")
	require.NoError(t, err)
	assert.Equal(t, "playing", v)

	_, err = s.Query(ctx, "vid", "duration")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Query(ctx, "other", "state")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnmarshalValue(t *testing.T) {
	assert.Equal(t, "a\"b", unmarshalValue(`"a\"b"`))
	assert.Equal(t, json.Number("-3"), unmarshalValue(`-3`))
	assert.Equal(t, "true", unmarshalValue(`true`))
}
