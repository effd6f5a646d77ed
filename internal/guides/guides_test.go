package guides

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLibrary(t *testing.T) {
	list := Default().List()
	require.Len(t, list, 3)
	assert.Equal(t, "seasonal-crops", list[0].Slug)

	g, err := Default().Get(" Soil-Health ")
	require.NoError(t, err)
	assert.Equal(t, "Soil Health Guide", g.Title)
	assert.Len(t, g.Sections, 4)
}

func TestGet_Unknown(t *testing.T) {
	_, err := Default().Get("composting")
	assert.ErrorIs(t, err, ErrUnknownTopic)
}

func TestGet_ReturnsCopy(t *testing.T) {
	g, err := Default().Get("soil-health")
	require.NoError(t, err)
	g.Sections[0].Heading = "changed"

	again, _ := Default().Get("soil-health")
	assert.Equal(t, "Soil Testing", again.Sections[0].Heading)
}

func TestParse_DuplicateSlug(t *testing.T) {
	_, err := Parse([]byte("- slug: a\n- slug: a\n"))
	assert.Error(t, err)
}
