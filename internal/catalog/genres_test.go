package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKnownGenres(t *testing.T) {
	t.Parallel()

	id, ok := Resolve("фантастика")
	require.True(t, ok)
	assert.Equal(t, 6, id)

	id, ok = Resolve("  КОМЕДІЯ ")
	require.True(t, ok)
	assert.Equal(t, 1, id)
}

func TestResolveUnknownGenre(t *testing.T) {
	t.Parallel()

	_, ok := Resolve("неіснуючий жанр")
	assert.False(t, ok)
}

func TestNameRoundTrip(t *testing.T) {
	t.Parallel()

	for name, id := range All() {
		resolved, ok := Resolve(name)
		require.True(t, ok, name)
		assert.Equal(t, id, resolved)

		back, ok := Name(id)
		require.True(t, ok, name)
		assert.Equal(t, name, back)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	first := All()
	first["драма"] = 999

	second := All()
	assert.Equal(t, 2, second["драма"])
}
