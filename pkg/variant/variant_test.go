package variant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitwelder/stew/pkg/variant"
)

func TestVariant_zeroValueIsInvalid(t *testing.T) {
	var v variant.Variant
	assert.False(t, v.IsValid())
	assert.Nil(t, v.Type())
	assert.Equal(t, "<invalid>", v.String())

	_, err := variant.As[int](v)
	assert.ErrorIs(t, err, variant.ErrInvalid)
}

func TestOf(t *testing.T) {
	v := variant.Of(42)
	assert.True(t, v.IsValid())
	assert.Equal(t, 42, v.Value())
	assert.Equal(t, "int", v.Type().String())
	assert.Equal(t, "42", v.String())
}

func TestIs(t *testing.T) {
	v := variant.Of("hello")
	assert.True(t, variant.Is[string](v))
	assert.False(t, variant.Is[int](v))
	assert.False(t, variant.Is[string](variant.Variant{}))
}

func TestAs_exactType(t *testing.T) {
	type payload struct{ N int }
	v := variant.Of(payload{N: 7})

	got, err := variant.As[payload](v)
	require.NoError(t, err)
	assert.Equal(t, payload{N: 7}, got)

	_, err = variant.As[map[string]int](v)
	assert.ErrorIs(t, err, variant.ErrConversion)
}

func TestAs_conversions(t *testing.T) {
	t.Run("string to number", func(t *testing.T) {
		n, err := variant.As[int](variant.Of("42"))
		require.NoError(t, err)
		assert.Equal(t, 42, n)

		f, err := variant.As[float64](variant.Of("4.2"))
		require.NoError(t, err)
		assert.InDelta(t, 4.2, f, 0.0001)

		_, err = variant.As[int](variant.Of("not a number"))
		assert.ErrorIs(t, err, variant.ErrConversion)
	})

	t.Run("number to string", func(t *testing.T) {
		s, err := variant.As[string](variant.Of(42))
		require.NoError(t, err)
		assert.Equal(t, "42", s)

		s, err = variant.As[string](variant.Of(4.5))
		require.NoError(t, err)
		assert.Equal(t, "4.5", s)
	})

	t.Run("bool round trips", func(t *testing.T) {
		s, err := variant.As[string](variant.Of(true))
		require.NoError(t, err)
		assert.Equal(t, "true", s)

		b, err := variant.As[bool](variant.Of("true"))
		require.NoError(t, err)
		assert.True(t, b)

		b, err = variant.As[bool](variant.Of(0))
		require.NoError(t, err)
		assert.False(t, b)

		n, err := variant.As[int](variant.Of(true))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("between numeric kinds", func(t *testing.T) {
		f, err := variant.As[float64](variant.Of(42))
		require.NoError(t, err)
		assert.Equal(t, 42.0, f)

		n, err := variant.As[int](variant.Of(4.9))
		require.NoError(t, err)
		assert.Equal(t, 4, n, "fractions are truncated")

		u, err := variant.As[uint8](variant.Of(200))
		require.NoError(t, err)
		assert.Equal(t, uint8(200), u)
	})

	t.Run("out of range values are rejected", func(t *testing.T) {
		_, err := variant.As[int8](variant.Of(1024))
		assert.ErrorIs(t, err, variant.ErrConversion)

		_, err = variant.As[uint](variant.Of(-1))
		assert.ErrorIs(t, err, variant.ErrConversion)
	})

	t.Run("named types", func(t *testing.T) {
		type Port uint16
		p, err := variant.As[Port](variant.Of("8080"))
		require.NoError(t, err)
		assert.Equal(t, Port(8080), p)
	})
}

func TestMustAs(t *testing.T) {
	assert.Equal(t, 42, variant.MustAs[int](variant.Of("42")))
	assert.Panics(t, func() { variant.MustAs[int](variant.Of("nope")) })
}
