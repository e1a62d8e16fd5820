package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Loads(t *testing.T) {
	c := Default()

	require.Len(t, c.Sources, 5)
	assert.Equal(t, "GSA Advantage", c.Marketplace().Name)

	hw, ok := c.Category("Hardware")
	require.True(t, ok)
	assert.Equal(t, "3500", hw.Price().String())
	assert.Equal(t, "hardware", hw.Extractor)

	assert.Equal(t, "150", c.Generic.Price().String())
}

func TestSource_Serves(t *testing.T) {
	c := Default()
	for _, s := range c.Sources {
		switch s.Key {
		case "gsa", "amazon":
			assert.True(t, s.Serves("Vehicles"), s.Key)
		case "dell":
			assert.True(t, s.Serves("hardware"))
			assert.False(t, s.Serves("Medical Equipment"))
		}
	}
}

func TestSource_SearchLink(t *testing.T) {
	s := Source{SearchURL: "https://example.com/search?q={query}"}
	assert.Equal(t, "https://example.com/search?q=rack+server", s.SearchLink("rack server"))
}

func TestRegionOf(t *testing.T) {
	c := Default()
	assert.Equal(t, "southeast", c.RegionOf("va"))
	assert.Equal(t, "west", c.RegionOf("CA"))
	assert.Equal(t, "", c.RegionOf("ZZ"))
}

func TestSetAsideFor_PrefersSpecificProgram(t *testing.T) {
	c := Default()

	sa, ok := c.SetAsideFor("Service-Disabled Veteran-Owned Small Business (SDVOSB) Set-Aside")
	require.True(t, ok)
	assert.Equal(t, "SDVOSB", sa.Name)

	sa, ok = c.SetAsideFor("Total Small Business Set-Aside (FAR 19.5)")
	require.True(t, ok)
	assert.Equal(t, "Small Business", sa.Name)

	_, ok = c.SetAsideFor("Unrestricted")
	assert.False(t, ok)
}

func TestParse_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no sources", "sources: []"},
		{"no marketplace", "sources:\n  - {key: a, name: A, rate_limit: 1}"},
		{"bad rate", "sources:\n  - {key: a, name: A, rate_limit: 0, marketplace: true}"},
		{"category without trigger", "sources:\n  - {key: a, name: A, rate_limit: 1, marketplace: true}\ncategories:\n  - {name: X, extractor: hardware}"},
		{"bad price", "sources:\n  - {key: a, name: A, rate_limit: 1, marketplace: true}\ncategories:\n  - {name: X, extractor: hardware, triggers: [x], base_price: abc}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
