package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Türkiye", "turkiye"},
		{"  Port-au-Prince, HAITI ", "port au prince haiti"},
		{"Côte d'Ivoire", "cote d ivoire"},
		{"İstanbul", "istanbul"},
		{"U.S.A.", "u s a"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"rapid", "response", "teams"}, Words("Rapid-response teams!"))
	assert.Empty(t, Words("  "))
}

func TestContainsPhrase(t *testing.T) {
	assert.True(t, ContainsPhrase("Provides clean WATER and sanitation.", "water"))
	assert.True(t, ContainsPhrase("search-and-rescue teams", "search and rescue"))
	assert.False(t, ContainsPhrase("waterfalls of the world", "water"))
	assert.False(t, ContainsPhrase("", "water"))
	assert.False(t, ContainsPhrase("water", ""))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Disaster Relief", Title("disaster_relief"))
	assert.Equal(t, "Health", Title("health"))
}
