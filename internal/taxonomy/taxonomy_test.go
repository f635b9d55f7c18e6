package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjacencyIsSymmetric(t *testing.T) {
	for a, bs := range adjacency {
		assert.True(t, IsCause(a), a)
		for _, b := range bs {
			assert.True(t, AreAdjacent(b, a), "%s -> %s has no reverse edge", a, b)
		}
	}
	for _, id := range Causes() {
		_, ok := adjacency[id]
		assert.True(t, ok, "cause %s missing from adjacency table", id)
	}
}

func TestDisasterReliefAdjacency(t *testing.T) {
	assert.True(t, AreAdjacent(DisasterRelief, HumanitarianCrisis))
	assert.True(t, AreAdjacent(DisasterRelief, ClimateEvents))
	assert.False(t, AreAdjacent(DisasterRelief, ArtsCulture))
	assert.False(t, AreAdjacent(DisasterRelief, DisasterRelief))
}

func TestFromTag(t *testing.T) {
	tests := []struct {
		tag  string
		want string
		ok   bool
	}{
		{"disasters", DisasterRelief, true},
		{"disaster-relief", DisasterRelief, true},
		{"disaster_relief", DisasterRelief, true},
		{"Humanitarian", HumanitarianCrisis, true},
		{"museums", ArtsCulture, true},
		{"space-exploration", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, ok := FromTag(tt.tag)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "disasters", Tag(DisasterRelief))
	assert.Equal(t, "", Tag("nope"))
}

func TestNormalize(t *testing.T) {
	got := Normalize([]string{"disasters", "unknown", "disaster-relief", "kids", "health"})
	assert.Equal(t, []string{DisasterRelief, Children, Health}, got)
}

func TestInfer(t *testing.T) {
	got := Infer("A 7.8 magnitude earthquake left thousands of refugees and injured children")
	assert.Equal(t, []string{DisasterRelief, Refugees, Health, Children}, got)

	assert.Empty(t, Infer(""))
	assert.Empty(t, Infer("quarterly earnings beat expectations"))
}

func TestNeedsForDisaster(t *testing.T) {
	assert.Equal(t, []string{NeedSearchRescue, NeedShelter, NeedMedical, NeedWater}, NeedsForDisaster("Earthquake"))
	assert.Equal(t, []string{NeedShelter, NeedWater, NeedFood, NeedHygiene}, NeedsForDisaster("flash floods"))
	assert.Nil(t, NeedsForDisaster("stock market crash"))
}

func TestCrisisNeeds(t *testing.T) {
	got := CrisisNeeds("drought", []string{"cholera", "mental health support", "clean water"})
	assert.Equal(t, []string{NeedWater, NeedFood, NeedPsychosocial}, got)
}

func TestNeedsInText(t *testing.T) {
	got := NeedsInText("We deploy search and rescue teams and field hospitals with surgeons.")
	assert.Equal(t, []string{NeedMedical, NeedSearchRescue}, got)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "disaster relief", Label(DisasterRelief))
	assert.Equal(t, "search and rescue", NeedLabel(NeedSearchRescue))
	assert.Equal(t, "shelter", NeedLabel(NeedShelter))
}
