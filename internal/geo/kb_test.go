package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_NeighborsAreSymmetric(t *testing.T) {
	kb := Default()
	for _, c := range kb.Countries() {
		for _, n := range kb.Neighbors(c) {
			assert.True(t, kb.AreNeighbors(n, c), "%s lists %s but not the reverse", c, n)
		}
	}
}

func TestDefault_EveryCountryHasARegion(t *testing.T) {
	kb := Default()
	for _, c := range kb.Countries() {
		assert.NotEmpty(t, kb.RegionsOf(c), c)
	}
}

func TestResolve(t *testing.T) {
	kb := Default()
	tests := []struct {
		in   string
		want string
	}{
		{"TR", "TR"},
		{"tr", "TR"},
		{"Turkey", "TR"},
		{"Türkiye", "TR"},
		{"turkiye", "TR"},
		{"Democratic Republic of the Congo", "CD"},
		{"DRC", "CD"},
		{"The Philippines", "PH"},
		{"U.S.A.", "US"},
		{"Burma", "MM"},
		{"Atlantis", ""},
		{"ZZ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, kb.Resolve(tt.in))
		})
	}
}

func TestCountryOfPlace(t *testing.T) {
	kb := Default()
	assert.Equal(t, "PS", kb.CountryOfPlace("Gaza"))
	assert.Equal(t, "TR", kb.CountryOfPlace("Kahramanmaraş"))
	assert.Equal(t, "HT", kb.CountryOfPlace("Port-au-Prince"))
	assert.Equal(t, "SY", kb.CountryOfPlace("Syria"))
	assert.Equal(t, "", kb.CountryOfPlace("Springfield"))
	assert.True(t, kb.IsPlace("aleppo"))
	assert.False(t, kb.IsPlace("Syria"))
}

func TestAreNeighbors(t *testing.T) {
	kb := Default()
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"land border", "TR", "SY", true},
		{"maritime border", "GR", "CY", true},
		{"names resolve", "Turkey", "Greece", true},
		{"symmetric", "Greece", "Turkey", true},
		{"transitive is not a neighbor", "TR", "LB", false},
		{"self is not a neighbor", "TR", "TR", false},
		{"unknown country", "XX", "TR", false},
		{"both unknown", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kb.AreNeighbors(tt.a, tt.b))
		})
	}
}

func TestRegions(t *testing.T) {
	kb := Default()

	assert.Equal(t, []string{"eastern_mediterranean", "middle_east"}, kb.RegionsOf("Turkey"))
	assert.Empty(t, kb.RegionsOf("Atlantis"))

	assert.True(t, kb.SameRegion("TR", "JO"))
	assert.True(t, kb.SameRegion("KE", "TZ"))
	assert.False(t, kb.SameRegion("TR", "BR"))
	assert.False(t, kb.SameRegion("TR", "XX"))

	region, ok := kb.SharedRegion("SY", "LB")
	require.True(t, ok)
	assert.Equal(t, "eastern_mediterranean", region)
	assert.Equal(t, "Eastern Mediterranean", kb.RegionName(region))
	assert.Equal(t, "", kb.RegionName("atlantic_ocean"))
}

func TestFindCountries(t *testing.T) {
	kb := Default()

	got := kb.FindCountries("We deliver aid in South Sudan, Sudan and Türkiye, and in Sudan again.")
	assert.Equal(t, []string{"SS", "SD", "TR"}, got)

	assert.Equal(t, []string{"PS"}, kb.FindCountries("Medical teams on the ground in Gaza."))
	assert.Empty(t, kb.FindCountries("Michael Jordan youth basketball camps in Georgia"))
	assert.Empty(t, kb.FindCountries(""))
}

func TestIsUSState(t *testing.T) {
	assert.True(t, IsUSState("CA"))
	assert.True(t, IsUSState(" ny 10001"))
	assert.True(t, IsUSState("TX 75001-1234"))
	assert.False(t, IsUSState("California"))
	assert.False(t, IsUSState("ZZ"))
	assert.False(t, IsUSState("CA Los Angeles"))
	assert.False(t, IsUSState(""))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]byte("countries: {}"))
	assert.Error(t, err)

	_, err = Load([]byte(`
regions: {r: R}
countries:
  AA: {name: A, regions: [r], neighbors: [BB]}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown neighbor")

	_, err = Load([]byte(`
regions: {r: R}
countries:
  AA: {name: A, regions: [nope]}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown region")

	_, err = Load([]byte("::not yaml"))
	assert.Error(t, err)
}

func TestLoad_MirrorsNeighbors(t *testing.T) {
	kb, err := Load([]byte(`
regions: {r: R}
countries:
  AA: {name: Aland, regions: [r], neighbors: [BB]}
  BB: {name: Bland, regions: [r]}
`))
	require.NoError(t, err)
	assert.True(t, kb.AreNeighbors("BB", "AA"))
	assert.Equal(t, []string{"AA"}, kb.Neighbors("Bland"))
}
