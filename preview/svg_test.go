package preview

import (
	"strings"
	"testing"

	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"
)

func square(minX, minY, size float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {minX + size, minY}, {minX + size, minY + size}, {minX, minY + size}, {minX, minY},
	}}
}

func TestDraw(t *testing.T) {
	Convey("An empty svg has no content", t, func() {
		svg := NewSVG(Padding{})
		So(svg.Draw(400, 200), ShouldEqual, `<svg xmlns="http://www.w3.org/2000/svg" width="400" height="200">`+"\n</svg>")
	})

	Convey("A region is drawn as a path with its id and title", t, func() {
		svg := NewSVG(Padding{})
		svg.AppendRegions([]models.RegionFeature{
			{RegionID: 154, Name: "Northern Europe", Geometry: square(0, 0, 100)},
			{RegionID: 155},
		})
		got := svg.Draw(100, 100)
		So(got, ShouldContainSubstring, `<path fill-rule="evenodd" d="M0.000000 100.000000,100.000000 100.000000,100.000000 0.000000,0.000000 0.000000,0.000000 100.000000 Z" class="region" id="region-154"><title>154 Northern Europe</title></path>`)
		So(got, ShouldNotContainSubstring, "region-155")
	})

	Convey("A multipolygon region is drawn as a group of paths", t, func() {
		svg := NewSVG(Padding{})
		svg.AppendRegions([]models.RegionFeature{
			{RegionID: 21, Geometry: orb.MultiPolygon{square(0, 0, 10), square(20, 0, 10)}},
		})
		got := svg.Draw(300, 100)
		So(got, ShouldContainSubstring, `<g class="region" id="region-21">`)
		So(strings.Count(got, "<path"), ShouldEqual, 2)
	})

	Convey("Cities are drawn as circles sized by population, with escaped titles", t, func() {
		svg := NewSVG(Padding{})
		svg.AppendRegions([]models.RegionFeature{{RegionID: 1, Geometry: square(0, 0, 100)}})
		svg.AppendCities([]models.CityRecord{{Name: "Town & Country", X: 50, Y: 50, Population: 2000000}})
		got := svg.Draw(100, 100)
		So(got, ShouldContainSubstring, `<circle class="city" cx="50.000000" cy="50.000000" r="3"><title>Town &amp; Country</title></circle>`)
	})
}

func TestScaleFunc(t *testing.T) {
	Convey("Coordinates are scaled to fit and the y axis is flipped", t, func() {
		sf := makeScaleFunc(200, 100, Padding{}, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{100, 50}})
		x, y := sf(0, 50)
		So(x, ShouldEqual, 0)
		So(y, ShouldEqual, 0)
		x, y = sf(100, 0)
		So(x, ShouldEqual, 200)
		So(y, ShouldEqual, 100)
	})

	Convey("Padding offsets the drawing", t, func() {
		sf := makeScaleFunc(120, 120, Padding{Top: 10, Right: 10, Bottom: 10, Left: 10}, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{100, 100}})
		x, y := sf(0, 100)
		So(x, ShouldEqual, 10)
		So(y, ShouldEqual, 10)
	})

	Convey("A single point is drawn in the centre", t, func() {
		sf := makeScaleFunc(200, 100, Padding{}, orb.Point{5, 5}.Bound())
		x, y := sf(5, 5)
		So(x, ShouldEqual, 100)
		So(y, ShouldEqual, 50)
	})
}

func TestHeightForWidth(t *testing.T) {
	Convey("The height keeps the aspect ratio of the drawing", t, func() {
		svg := NewSVG(Padding{})
		svg.AppendRegions([]models.RegionFeature{{RegionID: 1, Geometry: orb.MultiPolygon{square(0, 0, 10), square(30, 0, 10)}}})
		So(svg.HeightForWidth(400), ShouldEqual, 100)
	})
}

func TestCityRadius(t *testing.T) {
	Convey("Small places get the smallest radius", t, func() {
		So(cityRadius(500), ShouldEqual, 1)
		So(cityRadius(10000), ShouldEqual, 1)
		So(cityRadius(8961989), ShouldEqual, 3)
	})
}
