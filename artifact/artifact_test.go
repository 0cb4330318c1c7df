package artifact_test

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/ONSdigital/dp-map-dataset/artifact"
	"github.com/ONSdigital/dp-map-dataset/geometry"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ONSdigital/dp-map-dataset/testdata"
	"github.com/json-iterator/go"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"
)

func square(minX, minY, size float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {minX + size, minY}, {minX + size, minY + size}, {minX, minY + size}, {minX, minY},
	}}
}

func exampleRegions() []models.RegionFeature {
	return []models.RegionFeature{
		{RegionID: 151, Geometry: square(0, 0, 1000)},
		{RegionID: 154, Geometry: orb.MultiPolygon{square(2000, 0, 1000), square(4000, 0, 500)}},
		{RegionID: 155},
	}
}

func TestParseBoundaries(t *testing.T) {
	Convey("Polygon features are read with their codes, and others are skipped", t, func() {
		features, err := artifact.ParseBoundaries(testdata.LoadBoundaries(t), artifact.DefaultProperties)
		So(err, ShouldBeNil)
		So(len(features), ShouldEqual, 6)

		So(features[0].CountryCode, ShouldEqual, "GBR")
		So(features[0].CountryCode2, ShouldEqual, "GB")
		So(features[0].Subregion, ShouldEqual, "Northern Europe")
		So(features[0].Name, ShouldEqual, "United Kingdom")
		So(features[0].RegionID, ShouldBeNil)
		_, ok := features[0].Geometry.(orb.MultiPolygon)
		So(ok, ShouldBeTrue)
	})

	Convey("A -99 alpha-2 code is derived from the alpha-3 code", t, func() {
		features, err := artifact.ParseBoundaries(testdata.LoadBoundaries(t), artifact.DefaultProperties)
		So(err, ShouldBeNil)
		So(features[2].CountryCode, ShouldEqual, "FRA")
		So(features[2].CountryCode2, ShouldEqual, "FR")
	})

	Convey("Data that is not GeoJSON is an error", t, func() {
		_, err := artifact.ParseBoundaries([]byte("not json"), artifact.DefaultProperties)
		So(err, ShouldNotBeNil)
	})

	Convey("ReadBoundaries reports a missing file", t, func() {
		_, err := artifact.ReadBoundaries("no-such-file.geojson", artifact.DefaultProperties)
		So(err, ShouldNotBeNil)
	})
}

func TestRegionsGeoJSON(t *testing.T) {
	Convey("Regions are written with region_id as their only property, null geometries included", t, func() {
		dir, err := ioutil.TempDir("", "regions")
		So(err, ShouldBeNil)
		path := filepath.Join(dir, "out", "regions.geojson")

		So(artifact.WriteRegionsGeoJSON(path, exampleRegions()), ShouldBeNil)

		b, err := ioutil.ReadFile(path)
		So(err, ShouldBeNil)
		var raw struct {
			Type     string `json:"type"`
			Features []struct {
				Properties map[string]interface{} `json:"properties"`
				Geometry   interface{}            `json:"geometry"`
			} `json:"features"`
		}
		So(jsoniter.Unmarshal(b, &raw), ShouldBeNil)
		So(raw.Type, ShouldEqual, "FeatureCollection")
		So(len(raw.Features), ShouldEqual, 3)
		for _, f := range raw.Features {
			So(len(f.Properties), ShouldEqual, 1)
		}
		So(raw.Features[2].Geometry, ShouldBeNil)

		regions, err := artifact.ReadRegionsGeoJSON(path)
		So(err, ShouldBeNil)
		So(len(regions), ShouldEqual, 3)
		So(regions[1].RegionID, ShouldEqual, 154)
		So(regions[1].Geometry, ShouldResemble, exampleRegions()[1].Geometry)
		So(regions[2].Geometry, ShouldBeNil)
	})
}

func TestRegionsTopoJSON(t *testing.T) {
	Convey("The topology has an object for each region with a geometry", t, func() {
		topology := artifact.RegionsTopology(exampleRegions())
		So(artifact.TopologyIDs(topology, artifact.RegionIDProperty), ShouldResemble, []string{"151", "154"})

		fc := topology.ToGeoJSON()
		So(len(fc.Features), ShouldEqual, 2)
	})

	Convey("The topology can be written and read back", t, func() {
		dir, err := ioutil.TempDir("", "topology")
		So(err, ShouldBeNil)
		path := filepath.Join(dir, "regions.topojson")

		So(artifact.WriteRegionsTopoJSON(path, exampleRegions()), ShouldBeNil)
		topology, err := artifact.ReadTopoJSON(path)
		So(err, ShouldBeNil)
		So(artifact.TopologyIDs(topology, artifact.RegionIDProperty), ShouldResemble, []string{"151", "154"})
	})
}

func TestCitiesAndRegionsCBOR(t *testing.T) {
	Convey("Cities are written and read back in order", t, func() {
		dir, err := ioutil.TempDir("", "cities")
		So(err, ShouldBeNil)
		path := filepath.Join(dir, "cities.cbor")

		cities := []models.CityRecord{
			{Name: "London", X: -13.99, Y: 6710.2, Population: 8961989, RegionID: models.IntPtr(154)},
			{Name: "Paris", X: 261.4, Y: 6250.5, Population: 2138551},
		}
		So(artifact.WriteCities(path, cities), ShouldBeNil)

		got, err := artifact.ReadCities(path)
		So(err, ShouldBeNil)
		So(got, ShouldResemble, cities)
	})

	Convey("Region polygons are written as CBOR", t, func() {
		dir, err := ioutil.TempDir("", "regions")
		So(err, ShouldBeNil)
		path := filepath.Join(dir, "regions.cbor")

		So(artifact.WriteRegionsCBOR(path, exampleRegions()), ShouldBeNil)
		b, err := ioutil.ReadFile(path)
		So(err, ShouldBeNil)
		So(b[0], ShouldEqual, byte(0x83))
	})
}

func TestManifest(t *testing.T) {
	Convey("A manifest is written and read back", t, func() {
		dir, err := ioutil.TempDir("", "manifest")
		So(err, ShouldBeNil)
		path := filepath.Join(dir, artifact.ManifestFile)

		m := &models.Manifest{TargetCRS: "EPSG:3857", PointDivisor: 1000, Regions: 2, Files: []string{"regions.geojson"}}
		So(artifact.WriteManifest(path, m), ShouldBeNil)

		got, err := artifact.ReadManifest(path)
		So(err, ShouldBeNil)
		So(got, ShouldResemble, m)
	})

	Convey("An incomplete manifest fails validation", t, func() {
		dir, err := ioutil.TempDir("", "manifest")
		So(err, ShouldBeNil)
		path := filepath.Join(dir, artifact.ManifestFile)

		So(artifact.WriteManifest(path, &models.Manifest{}), ShouldBeNil)
		_, err = artifact.ReadManifest(path)
		So(err, ShouldNotBeNil)
	})
}

func TestRegionsFeatureCollectionKeepsArea(t *testing.T) {
	Convey("Converting a region to a feature keeps its geometry", t, func() {
		fc := artifact.RegionsFeatureCollection(exampleRegions())
		g, err := geometry.FromGeoJSON(fc.Features[1].Geometry)
		So(err, ShouldBeNil)
		So(geometry.Area(g), ShouldAlmostEqual, 1250000, 1e-6)
	})
}
