package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/trail-map-service/internal/domain"
)

func TestConvert_BundledMarkers(t *testing.T) {
	features, skipped, err := convert(filepath.Join("..", "..", "resources", "markers.xml"), domain.DefaultLinkBaseURL)
	require.NoError(t, err)

	assert.Zero(t, skipped)
	require.Len(t, features, 5)
	assert.Equal(t, "Cypress Head", features[0].Name())
	assert.Contains(t, features[0].Tooltip(), domain.DefaultLinkBaseURL+"312")
}

func TestConvert_SkipsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.xml")
	doc := `<markers>
  <marker typ="site" name="Camp A" lat="48.0" lng="-123.0"/>
  <marker typ="site" name="Camp B" lat="" lng="-123.0"/>
</markers>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	features, skipped, err := convert(path, domain.DefaultLinkBaseURL)
	require.NoError(t, err)
	assert.Len(t, features, 1)
	assert.Equal(t, 1, skipped)
}

func TestConvert_BadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.xml")
	require.NoError(t, os.WriteFile(path, []byte("<markers><marker"), 0o600))

	_, _, err := convert(path, domain.DefaultLinkBaseURL)
	require.Error(t, err)
}

func TestWriteGeoJSON(t *testing.T) {
	features, _, err := convert(filepath.Join("..", "..", "resources", "markers.xml"), domain.DefaultLinkBaseURL)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.geojson")
	require.NoError(t, writeGeoJSON(path, domain.NewFeatureCollection(features)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var fc domain.FeatureCollection
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 5)
}
