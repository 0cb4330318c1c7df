package gazetteer

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ONSdigital/dp-map-dataset/crs"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ONSdigital/dp-map-dataset/regions"
	"github.com/ONSdigital/dp-map-dataset/testdata"
	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type GazetteerSuite struct {
	gazetteer []byte
	table     *regions.Table
}

var _ = Suite(&GazetteerSuite{})

var ukBox = models.BoundingBox{MinLon: -13.2275390621, MinLat: 47.6357835912, MaxLon: 8.3056640621, MaxLat: 60.8449105734}

func (s *GazetteerSuite) SetUpSuite(c *C) {
	var err error
	s.gazetteer, err = os.ReadFile(testdata.Path("gazetteer.txt"))
	c.Assert(err, IsNil)
	s.table, err = regions.LoadFile(testdata.Path("regions.csv"), regions.DefaultColumns)
	c.Assert(err, IsNil)
}

func (s *GazetteerSuite) extract(c *C, opts ...Option) *Extraction {
	e, err := New(append([]Option{WithRegionTable(s.table)}, opts...)...)
	c.Assert(err, IsNil)
	res, err := e.Extract(bytes.NewReader(s.gazetteer))
	c.Assert(err, IsNil)
	return res
}

func names(cities []models.CityRecord) []string {
	res := make([]string, len(cities))
	for i, city := range cities {
		res[i] = city.Name
	}
	return res
}

func line(fields ...string) string {
	return strings.Join(fields, "\t")
}

func place(name, lat, lon, code, country, pop string) string {
	return line("1", name, name, "", lat, lon, "P", code, country, "", "", "", "", "", pop, "", "0", "UTC", "2023-01-01")
}

func (s *GazetteerSuite) TestParseLine(c *C) {
	p, err := ParseLine(place("Leeds", "53.79648", "-1.54785", "PPLA2", "gb", "455123"))
	c.Assert(err, IsNil)
	c.Assert(p.Name, Equals, "Leeds")
	c.Assert(p.Latitude, Equals, 53.79648)
	c.Assert(p.Longitude, Equals, -1.54785)
	c.Assert(p.CountryCode, Equals, "GB")
	c.Assert(p.Population, Equals, int64(455123))

	_, err = ParseLine(line("1", "Short", "Short", "", "1", "1", "P", "PPL", "GB", "", "", "", "", "", "1000", "", "0", "UTC"))
	c.Assert(err, ErrorMatches, "expected 19 fields, found 18")

	_, err = ParseLine(place("Bad", "north", "1", "PPL", "GB", "1000"))
	c.Assert(err, ErrorMatches, "invalid latitude.*")

	_, err = ParseLine(place("Far", "91", "1", "PPL", "GB", "1000"))
	c.Assert(err, ErrorMatches, "coordinate out of range.*")

	p, err = ParseLine(place("Empty", "1", "1", "PPL", "GB", ""))
	c.Assert(err, IsNil)
	c.Assert(p.Population, Equals, int64(0))
}

func (s *GazetteerSuite) TestExtractDefaults(c *C) {
	res := s.extract(c)

	c.Assert(res.Lines, Equals, 20)
	c.Assert(names(res.Cities), DeepEquals, []string{
		"Moscow", "London", "New York City", "London", "Paris", "Dublin", "Birmingham",
		"Edinburgh", "Cardiff", "Manchester", "Tieville", "Tieburgh", "Lerwick",
	})
	c.Assert(res.Rejected, DeepEquals, map[string]int{
		RejectFeatureClass: 1,
		RejectFeatureCode:  1,
		RejectPopulation:   1,
		RejectCountry:      1,
	})

	c.Assert(res.Cities[1].RegionID, NotNil)
	c.Assert(*res.Cities[1].RegionID, Equals, 154)
	c.Assert(*res.Cities[0].RegionID, Equals, 151)
}

func (s *GazetteerSuite) TestMalformedLinesAreSkippedAndProcessingContinues(c *C) {
	res := s.extract(c)

	c.Assert(res.Skipped, HasLen, 3)
	c.Assert(res.Skipped[0].Line, Equals, 7)
	c.Assert(res.Skipped[0].Reason, Equals, "expected 19 fields, found 18")
	c.Assert(strings.HasPrefix(res.Skipped[0].Raw, "9999990\tBroken Town"), Equals, true)
	c.Assert(res.Skipped[1].Line, Equals, 11)
	c.Assert(res.Skipped[2].Line, Equals, 20)

	// Dublin comes after the malformed line
	c.Assert(names(res.Cities), Not(HasLen), 0)
	found := false
	for _, n := range names(res.Cities) {
		found = found || n == "Dublin"
	}
	c.Assert(found, Equals, true)
}

func (s *GazetteerSuite) TestGreatBritainCapitalInWebMercatorKilometres(c *C) {
	mercator, err := crs.New(crs.WebMercator, 1)
	c.Assert(err, IsNil)

	res := s.extract(c,
		WithCountries([]string{"gb"}, nil),
		WithBoundingBox(ukBox),
		WithTransform(mercator, 1000),
	)

	c.Assert(names(res.Cities), DeepEquals, []string{
		"London", "London", "Birmingham", "Edinburgh", "Cardiff", "Manchester", "Tieville", "Tieburgh", "Lerwick",
	})

	london := res.Cities[0]
	c.Assert(london.Population, Equals, int64(8961989))
	wantX := crs.EarthRadius * (-0.12574 * math.Pi / 180) / 1000
	wantY := crs.EarthRadius * math.Log(math.Tan(math.Pi/4+(51.50853*math.Pi/180)/2)) / 1000
	c.Assert(math.Abs(london.X-wantX) < 1e-6, Equals, true, Commentf("x %v, want %v", london.X, wantX))
	c.Assert(math.Abs(london.Y-wantY) < 1e-6, Equals, true, Commentf("y %v, want %v", london.Y, wantY))
}

func (s *GazetteerSuite) TestSortIsStableForEqualPopulations(c *C) {
	res := s.extract(c)
	var ties []string
	for _, city := range res.Cities {
		if city.Population == 50000 {
			ties = append(ties, city.Name)
		}
	}
	c.Assert(ties, DeepEquals, []string{"Tieville", "Tieburgh"})

	for i := 1; i < len(res.Cities); i++ {
		c.Assert(res.Cities[i-1].Population >= res.Cities[i].Population, Equals, true)
	}
}

func (s *GazetteerSuite) TestRaisingThresholdNeverAddsPlaces(c *C) {
	var previous map[string]bool
	for _, threshold := range []int64{0, 500, 50000, 1000000, 9000000} {
		res := s.extract(c, WithPopulationThreshold(threshold))
		current := make(map[string]bool)
		for _, city := range res.Cities {
			c.Assert(city.Population > threshold, Equals, true)
			key := fmt.Sprintf("%s|%d", city.Name, city.Population)
			current[key] = true
			if previous != nil {
				c.Assert(previous[key], Equals, true, Commentf("%s appeared at threshold %d", city.Name, threshold))
			}
		}
		previous = current
	}
}

func (s *GazetteerSuite) TestEveryConditionMustHold(c *C) {
	res := s.extract(c, WithCountries(nil, []string{"GB", "US"}))
	c.Assert(names(res.Cities), DeepEquals, []string{"Moscow", "Paris", "Dublin"})

	res = s.extract(c, WithCountries([]string{"GB"}, []string{"GB"}))
	c.Assert(res.Cities, HasLen, 0)

	res = s.extract(c, WithFeatureCodes([]string{"PPLC"}))
	c.Assert(names(res.Cities), DeepEquals, []string{"Moscow", "London", "Paris", "Dublin"})

	// without a table the unknown country XX is kept
	e, err := New()
	c.Assert(err, IsNil)
	all, err := e.Extract(bytes.NewReader(s.gazetteer))
	c.Assert(err, IsNil)
	c.Assert(len(all.Cities), Equals, 14)
	c.Assert(all.Cities[0].RegionID, IsNil)
}

func (s *GazetteerSuite) TestBoundingBoxIsInclusive(c *C) {
	input := strings.Join([]string{
		place("West Edge", "50", "-13.2275390621", "PPL", "GB", "1000"),
		place("North Edge", "60.8449105734", "0", "PPL", "GB", "1000"),
		place("Outside", "50", "-13.2275390622", "PPL", "GB", "1000"),
	}, "\n")

	e, err := New(WithBoundingBox(ukBox))
	c.Assert(err, IsNil)
	res, err := e.Extract(strings.NewReader(input))
	c.Assert(err, IsNil)
	c.Assert(names(res.Cities), DeepEquals, []string{"West Edge", "North Edge"})
	c.Assert(res.Rejected[RejectBoundingBox], Equals, 1)
}

func (s *GazetteerSuite) TestWideBoundingBox(c *C) {
	input := strings.Join([]string{
		place("Moscow", "55.75222", "37.61556", "PPLC", "RU", "10381222"),
		place("New York City", "40.71427", "-74.00597", "PPL", "US", "8804190"),
		place("Anadyr", "64.73424", "177.5103", "PPLA", "RU", "13045"),
		place("Honolulu", "21.30694", "-157.85833", "PPLA", "US", "371657"),
	}, "\n")

	e, err := New(WithBoundingBox(models.BoundingBox{MinLon: -140, MinLat: -60, MaxLon: 175, MaxLat: 80}))
	c.Assert(err, IsNil)
	res, err := e.Extract(strings.NewReader(input))
	c.Assert(err, IsNil)
	c.Assert(names(res.Cities), DeepEquals, []string{"Moscow", "New York City"})
}

func (s *GazetteerSuite) TestAntimeridianCountriesAreShifted(c *C) {
	input := strings.Join([]string{
		place("Lavrentiya", "65.58", "-171.0", "PPL", "RU", "1000"),
		place("Nome", "64.5", "-165.4", "PPL", "US", "3000"),
		place("Anadyr", "64.73424", "177.5103", "PPLA", "RU", "13045"),
	}, "\n")

	e, err := New(WithAntimeridian([]string{"ru"}))
	c.Assert(err, IsNil)
	res, err := e.Extract(strings.NewReader(input))
	c.Assert(err, IsNil)
	c.Assert(names(res.Cities), DeepEquals, []string{"Anadyr", "Nome", "Lavrentiya"})
	c.Assert(res.Cities[0].X, Equals, 177.5103)
	c.Assert(res.Cities[1].X, Equals, -165.4)
	c.Assert(res.Cities[2].X, Equals, 189.0)

	e, err = New()
	c.Assert(err, IsNil)
	res, err = e.Extract(strings.NewReader(input))
	c.Assert(err, IsNil)
	c.Assert(res.Cities[2].X, Equals, -171.0)
}

func (s *GazetteerSuite) TestDedupe(c *C) {
	res := s.extract(c, WithDedupe(5))
	c.Assert(res.Rejected[RejectDuplicate], Equals, 1)
	count := 0
	for _, n := range names(res.Cities) {
		if n == "London" {
			count++
		}
	}
	c.Assert(count, Equals, 1)
	c.Assert(res.Cities[1].Population, Equals, int64(8961989))
}

func (s *GazetteerSuite) TestDeclutter(c *C) {
	kept := []candidate{
		{record: models.CityRecord{Name: "A", X: 0, Y: 0, Population: 1000000}},
		{record: models.CityRecord{Name: "B", X: 5, Y: 0, Population: 500000}},
		{record: models.CityRecord{Name: "C", X: 20, Y: 0, Population: 400000}},
		{record: models.CityRecord{Name: "D", X: 40, Y: 0, Population: 1000}},
	}
	res, dropped := declutter(kept, 10, 25000)
	c.Assert(dropped, Equals, 2)
	c.Assert(res, HasLen, 2)
	c.Assert(res[0].record.Name, Equals, "A")
	c.Assert(res[1].record.Name, Equals, "C")
}

func (s *GazetteerSuite) TestExtractFile(c *C) {
	dir := c.MkDir()
	want := s.extract(c)

	plain := filepath.Join(dir, "GB.txt")
	c.Assert(os.WriteFile(plain, s.gazetteer, 0644), IsNil)

	gz := filepath.Join(dir, "GB.txt.gz")
	var gzBuf bytes.Buffer
	w := gzip.NewWriter(&gzBuf)
	_, err := w.Write(s.gazetteer)
	c.Assert(err, IsNil)
	c.Assert(w.Close(), IsNil)
	c.Assert(os.WriteFile(gz, gzBuf.Bytes(), 0644), IsNil)

	zipped := filepath.Join(dir, "GB.zip")
	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	readme, err := zw.Create("readme.txt")
	c.Assert(err, IsNil)
	_, err = readme.Write([]byte("not\ta\tgazetteer\n"))
	c.Assert(err, IsNil)
	entry, err := zw.Create("GB.txt")
	c.Assert(err, IsNil)
	_, err = entry.Write(s.gazetteer)
	c.Assert(err, IsNil)
	c.Assert(zw.Close(), IsNil)
	c.Assert(os.WriteFile(zipped, zipBuf.Bytes(), 0644), IsNil)

	e, err := New(WithRegionTable(s.table))
	c.Assert(err, IsNil)
	for _, path := range []string{plain, gz, zipped} {
		res, err := e.ExtractFile(path)
		c.Assert(err, IsNil)
		c.Assert(res.Cities, DeepEquals, want.Cities, Commentf("%s", path))
		c.Assert(res.Skipped, HasLen, 3, Commentf("%s", path))
	}

	_, err = e.ExtractFile(filepath.Join(dir, "missing.txt"))
	c.Assert(err, NotNil)
}

func (s *GazetteerSuite) TestZeroDivisorIsRejected(c *C) {
	_, err := New(WithTransform(nil, 0))
	c.Assert(err, NotNil)
}
