package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVectorizer_IsDeterministic(t *testing.T) {
	v := NewHashVectorizer(16)
	a, err := v.Vectorize(context.Background(), "package main")
	require.NoError(t, err)
	b, err := v.Vectorize(context.Background(), "package main")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestHashVectorizer_DiffersForDifferentText(t *testing.T) {
	v := NewHashVectorizer(16)
	a, err := v.Vectorize(context.Background(), "func Greet() {}")
	require.NoError(t, err)
	b, err := v.Vectorize(context.Background(), "func Farewell() {}")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewHashVectorizer_DefaultsNonPositiveDims(t *testing.T) {
	v := NewHashVectorizer(0)
	assert.Equal(t, 256, v.dims)
}
