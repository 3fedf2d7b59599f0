package menu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCaseInsensitive(t *testing.T) {
	c := DefaultCatalog()

	for _, name := range []string{"street tacos", "Street Tacos", "STREET TACOS", "  street   tacos "} {
		it, err := c.Find(name)
		require.NoError(t, err, "Find(%q)", name)
		assert.Equal(t, "Street Tacos", it.Name)
		assert.Equal(t, 250, it.PriceCents)
	}
}

func TestFindPluralTolerance(t *testing.T) {
	c := DefaultCatalog()

	// Singular form of a plural menu name.
	it, err := c.Find("fish taco")
	require.NoError(t, err)
	assert.Equal(t, "Fish Tacos", it.Name)

	// Plural form of a singular menu name.
	it, err = c.Find("horchatas")
	require.NoError(t, err)
	assert.Equal(t, "Horchata", it.Name)
}

func TestFindAliases(t *testing.T) {
	c := DefaultCatalog()

	it, err := c.Find("guac")
	require.NoError(t, err)
	assert.Equal(t, "Guacamole", it.Name)

	it, err = c.Find("coke")
	require.NoError(t, err)
	assert.Equal(t, "Soft Drink", it.Name)
}

func TestFindNotFound(t *testing.T) {
	c := DefaultCatalog()

	_, err := c.Find("unicorn burger")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewCatalogRejectsBadItems(t *testing.T) {
	_, err := NewCatalog([]Item{{ID: "x", Name: "Thing", PriceCents: 0}}, nil)
	assert.Error(t, err)

	_, err = NewCatalog([]Item{
		{ID: "a", Name: "Thing", PriceCents: 100},
		{ID: "b", Name: "thing", PriceCents: 200},
	}, nil)
	assert.Error(t, err, "duplicate names should be rejected")

	_, err = NewCatalog([]Item{{ID: "a", Name: "Thing", PriceCents: 100}}, map[string]string{"other": "Missing"})
	assert.Error(t, err, "alias to unknown item should be rejected")
}

func TestFormatForPromptGroupsByCategory(t *testing.T) {
	c := DefaultCatalog()
	listing := c.FormatForPrompt()

	for _, heading := range []string{"TACOS:", "BURRITOS:", "SIDES:", "DRINKS:"} {
		assert.Contains(t, listing, heading)
	}
	assert.Contains(t, listing, "- Street Tacos: $2.50 - Traditional Mexican street tacos")

	// Every item should appear exactly once.
	for _, it := range c.Items() {
		assert.Equal(t, 1, strings.Count(listing, "- "+it.Name+":"), it.Name)
	}
}
