package testdata

import (
	"io/ioutil"
	"path/filepath"
	"testing"
)

// LoadExampleManifest reads the example manifest from exampleManifest.json
func LoadExampleManifest(t *testing.T) []byte {
	return loadTestdata(t, "exampleManifest.json")
}

// LoadBoundaries reads a small country boundary layer from boundaries.geojson
func LoadBoundaries(t *testing.T) []byte {
	return loadTestdata(t, "boundaries.geojson")
}

// LoadRegionCodes reads a small region code table from regions.csv
func LoadRegionCodes(t *testing.T) []byte {
	return loadTestdata(t, "regions.csv")
}

// LoadGazetteer reads a small GeoNames extract from gazetteer.txt
func LoadGazetteer(t *testing.T) []byte {
	return loadTestdata(t, "gazetteer.txt")
}

// Path returns the path of a file in the testdata directory, relative to a package directory
func Path(name string) string {
	return filepath.Join("../testdata", name)
}

func loadTestdata(t *testing.T, name string) []byte {
	bytes, err := ioutil.ReadFile(Path(name)) // relative path
	if err != nil {
		t.Fatal(err)
	}
	return bytes
}
