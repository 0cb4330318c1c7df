package gazetteer

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldCount is the number of tab separated fields in a GeoNames dump line
const FieldCount = 19

// Place is the subset of a GeoNames record used to build city points
type Place struct {
	GeonameID    string
	Name         string
	ASCIIName    string
	Latitude     float64
	Longitude    float64
	FeatureClass string
	FeatureCode  string
	CountryCode  string
	Admin1       string
	Population   int64
	Timezone     string
}

// ParseLine splits a GeoNames line into a Place. Lines with the wrong number of fields,
// or with coordinates or a population that cannot be parsed, give an error describing why.
func ParseLine(line string) (Place, error) {
	fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
	if len(fields) != FieldCount {
		return Place{}, fmt.Errorf("expected %d fields, found %d", FieldCount, len(fields))
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if err != nil {
		return Place{}, fmt.Errorf("invalid latitude %q", fields[4])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(fields[5]), 64)
	if err != nil {
		return Place{}, fmt.Errorf("invalid longitude %q", fields[5])
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Place{}, fmt.Errorf("coordinate out of range %v,%v", lat, lon)
	}

	var pop int64
	if p := strings.TrimSpace(fields[14]); len(p) > 0 {
		pop, err = strconv.ParseInt(p, 10, 64)
		if err != nil {
			return Place{}, fmt.Errorf("invalid population %q", fields[14])
		}
	}

	return Place{
		GeonameID:    fields[0],
		Name:         strings.TrimSpace(fields[1]),
		ASCIIName:    fields[2],
		Latitude:     lat,
		Longitude:    lon,
		FeatureClass: fields[6],
		FeatureCode:  fields[7],
		CountryCode:  strings.ToUpper(fields[8]),
		Admin1:       fields[10],
		Population:   pop,
		Timezone:     fields[17],
	}, nil
}
