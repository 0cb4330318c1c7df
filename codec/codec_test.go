package codec_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/ONSdigital/dp-map-dataset/codec"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/fxamacker/cbor/v2"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCitiesRoundTrip(t *testing.T) {
	Convey("Cities decode to exactly the records that were encoded", t, func() {
		cities := []models.CityRecord{
			{Name: "London", X: -13.99744412, Y: 6710.219083, Population: 8961989, RegionID: models.IntPtr(154)},
			{Name: "Zürich", X: 0.1 + 0.2, Y: -math.SmallestNonzeroFloat64, Population: 0},
			{Name: "", X: math.MaxFloat64, Y: -1e-300, Population: math.MaxInt64, RegionID: models.IntPtr(-3)},
		}

		var buf bytes.Buffer
		So(codec.EncodeCities(&buf, cities), ShouldBeNil)

		got, err := codec.DecodeCities(&buf)
		So(err, ShouldBeNil)
		So(got, ShouldResemble, cities)
	})

	Convey("An empty list encodes as an empty array", t, func() {
		b, err := codec.MarshalCities(nil)
		So(err, ShouldBeNil)
		So(b, ShouldResemble, []byte{0x80})

		got, err := codec.UnmarshalCities(b)
		So(err, ShouldBeNil)
		So(got, ShouldBeEmpty)
	})
}

func TestCitiesLayout(t *testing.T) {
	Convey("Each city is an array of name, float64 x, float64 y and population", t, func() {
		b, err := codec.MarshalCities([]models.CityRecord{{Name: "A", X: 1.5, Y: 2, Population: 600}})
		So(err, ShouldBeNil)

		expected := []byte{
			0x81,       // array(1)
			0x84,       // array(4)
			0x61, 'A', // text(1)
			0xfb, 0x3f, 0xf8, 0, 0, 0, 0, 0, 0, // float64 1.5
			0xfb, 0x40, 0x00, 0, 0, 0, 0, 0, 0, // float64 2.0
			0x19, 0x02, 0x58, // unsigned(600)
		}
		So(b, ShouldResemble, expected)
	})

	Convey("A city with a region id has a fifth element", t, func() {
		b, err := codec.MarshalCities([]models.CityRecord{{Name: "A", Population: 600, RegionID: models.IntPtr(154)}})
		So(err, ShouldBeNil)

		var raw [][]interface{}
		So(cbor.Unmarshal(b, &raw), ShouldBeNil)
		So(len(raw[0]), ShouldEqual, 5)
		So(raw[0][4], ShouldEqual, uint64(154))
	})
}

func TestDecodeCitiesWithIntegerCoordinates(t *testing.T) {
	Convey("Integer coordinates written by other encoders are accepted", t, func() {
		b, err := cbor.Marshal([]interface{}{[]interface{}{"B", 3, -4, 1000}})
		So(err, ShouldBeNil)

		got, err := codec.UnmarshalCities(b)
		So(err, ShouldBeNil)
		So(got, ShouldResemble, []models.CityRecord{{Name: "B", X: 3, Y: -4, Population: 1000}})
	})
}

func TestDecodeInvalidCities(t *testing.T) {
	Convey("A record with the wrong number of elements is rejected", t, func() {
		b, _ := cbor.Marshal([]interface{}{[]interface{}{"B", 3.0, 4.0}})
		_, err := codec.UnmarshalCities(b)
		So(errors.Is(err, codec.ErrInvalidRecord), ShouldBeTrue)
	})

	Convey("A record with a non-text name is rejected", t, func() {
		b, _ := cbor.Marshal([]interface{}{[]interface{}{1, 3.0, 4.0, 5}})
		_, err := codec.UnmarshalCities(b)
		So(errors.Is(err, codec.ErrInvalidRecord), ShouldBeTrue)
	})

	Convey("Data that is not cbor is rejected", t, func() {
		_, err := codec.UnmarshalCities([]byte{0xff, 0x00})
		So(err, ShouldNotBeNil)
	})
}

func TestRegionsRoundTrip(t *testing.T) {
	Convey("Region polygons decode to the same rings", t, func() {
		square := orb.Polygon{orb.Ring{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}}}
		regions := []models.RegionFeature{
			{RegionID: 151, Geometry: square},
			{RegionID: 154, Geometry: orb.MultiPolygon{square, {orb.Ring{{200, 200}, {300, 200}, {300, 300}, {200, 200}}}}},
			{RegionID: 155},
		}

		var buf bytes.Buffer
		So(codec.EncodeRegions(&buf, regions), ShouldBeNil)

		got, err := codec.UnmarshalRegions(buf.Bytes())
		So(err, ShouldBeNil)
		So(len(got), ShouldEqual, 3)
		So(got[0].RegionID, ShouldEqual, 151)
		So(got[0].Geometry, ShouldResemble, orb.MultiPolygon{square})
		So(got[1].Geometry, ShouldResemble, regions[1].Geometry)
		So(got[2].Geometry, ShouldBeNil)
	})
}
