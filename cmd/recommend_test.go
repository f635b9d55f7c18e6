package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleJSON = `{
  "title": "Earthquake devastates southern Turkey",
  "entities": {"geography": {"country": "Turkey", "city": "Hatay"}, "disaster_type": "earthquake"},
  "causes": ["disaster_relief"],
  "keywords": ["search and rescue"]
}`

func TestReadArticle_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "article.json")
	require.NoError(t, os.WriteFile(path, []byte(articleJSON), 0o644))

	a, err := readArticle(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Earthquake devastates southern Turkey", a.Title)
	assert.Equal(t, "Hatay", a.Entities.Geography.City)
	assert.Equal(t, "earthquake", a.Entities.DisasterType)
	assert.Equal(t, []string{"disaster_relief"}, a.Causes)
}

func TestReadArticle_Stdin(t *testing.T) {
	a, err := readArticle("-", strings.NewReader(articleJSON))
	require.NoError(t, err)
	assert.Equal(t, "Turkey", a.Entities.Geography.Country)
}

func TestReadArticle_Errors(t *testing.T) {
	_, err := readArticle("", nil)
	assert.ErrorContains(t, err, "--article is required")

	_, err = readArticle(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.ErrorContains(t, err, "read article")

	_, err = readArticle("-", strings.NewReader("{not json"))
	assert.ErrorContains(t, err, "parse article")
}
