package hash

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func TestEmbedDeterministic(t *testing.T) {
	e := NewEmbedder(512)
	first, err := e.Embed(context.Background(), "cats chase small birds")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "cats chase small birds")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEmbedDimension(t *testing.T) {
	e := NewEmbedder(128)
	assert.Equal(t, 128, e.Dimension())
	v, err := e.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Len(t, v, 128)

	assert.Equal(t, DefaultDimension, NewEmbedder(0).Dimension())
}

func TestEmbedNormalized(t *testing.T) {
	e := NewEmbedder(512)
	v, err := e.Embed(context.Background(), "vectors should have unit length after normalization")
	require.NoError(t, err)
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestEmbedIdenticalTextMostSimilar(t *testing.T) {
	e := NewEmbedder(512)
	ctx := context.Background()
	doc, err := e.Embed(ctx, "ships navigate using lighthouse signals")
	require.NoError(t, err)
	same, err := e.Embed(ctx, "ships navigate using lighthouse signals")
	require.NoError(t, err)
	other, err := e.Embed(ctx, "gardens need frequent watering")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, dot(doc, same), 1e-9)
	assert.Less(t, dot(doc, other), 1.0)
}

func TestEmbedNoTokensYieldsZeroVector(t *testing.T) {
	e := NewEmbedder(64)
	v, err := e.Embed(context.Background(), "123 456 ...")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestEmbedStopwordsIgnored(t *testing.T) {
	e := NewEmbedder(512)
	ctx := context.Background()
	a, err := e.Embed(ctx, "lighthouse")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "the lighthouse")
	require.NoError(t, err)
	assert.True(t, math.Abs(dot(a, b)-1.0) < 1e-9, "stopwords must not change the vector direction")
}
