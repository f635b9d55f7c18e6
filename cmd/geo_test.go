package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/relief-match/internal/geo"
)

func TestGeoReport_Single(t *testing.T) {
	rep, err := geoReport(geo.Default(), []string{"turkiye"})
	require.NoError(t, err)

	assert.Equal(t, "TR", rep.Code)
	assert.Equal(t, "Turkey", rep.Name)
	assert.Equal(t, []string{"eastern_mediterranean", "middle_east"}, rep.Regions)
	assert.Contains(t, rep.Neighbors, "GR")
	assert.Contains(t, rep.Neighbors, "SY")
	assert.Nil(t, rep.AreNeighbors)
}

func TestGeoReport_Pair(t *testing.T) {
	rep, err := geoReport(geo.Default(), []string{"Turkey", "Lebanon"})
	require.NoError(t, err)

	assert.Equal(t, "LB", rep.Other)
	require.NotNil(t, rep.AreNeighbors)
	assert.False(t, *rep.AreNeighbors)
	assert.Equal(t, "eastern_mediterranean", rep.SharedRegion)

	rep, err = geoReport(geo.Default(), []string{"TR", "GR"})
	require.NoError(t, err)
	assert.True(t, *rep.AreNeighbors)
}

func TestGeoReport_Unknown(t *testing.T) {
	_, err := geoReport(geo.Default(), []string{"Atlantis"})
	assert.ErrorContains(t, err, "unknown country")

	_, err = geoReport(geo.Default(), []string{"TR", "Narnia"})
	assert.ErrorContains(t, err, "Narnia")
}

func TestGeoCommand_WritesJSON(t *testing.T) {
	var out bytes.Buffer
	geoCmd.SetOut(&out)
	t.Cleanup(func() { geoCmd.SetOut(nil) })

	require.NoError(t, geoCmd.RunE(geoCmd, []string{"GR"}))

	var rep countryReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, "Greece", rep.Name)
}
