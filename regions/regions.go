// Package regions loads the table that maps ISO 3166 country codes to numeric region ids.
package regions

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ONSdigital/go-ns/log"
	"github.com/biter777/countries"
)

// Columns names the header columns read from the region code csv
type Columns struct {
	Alpha3     string
	Alpha2     string // optional; derived from the alpha-3 code when absent
	RegionID   string
	RegionName string // optional
}

// DefaultColumns matches the ISO 3166 "all.csv" layout
var DefaultColumns = Columns{Alpha3: "alpha-3", Alpha2: "alpha-2", RegionID: "sub-region-code", RegionName: "sub-region"}

// Region is a single entry of the table
type Region struct {
	ID   int
	Name string
}

// Table maps country codes to region ids. It is read-only once loaded and safe for concurrent use.
type Table struct {
	byAlpha3 map[string]Region
	byAlpha2 map[string]Region
	names    map[int]string
}

// LoadFile reads a region code table from a csv file
func LoadFile(path string, columns Columns) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening region codes: %w", err)
	}
	defer f.Close()

	t, err := Load(f, columns)
	if err != nil {
		return nil, fmt.Errorf("reading region codes %s: %w", path, err)
	}
	return t, nil
}

// Load reads a region code table from csv with a header row.
// Rows without a numeric region id are skipped and reported in a single log message.
func Load(reader io.Reader, columns Columns) (*Table, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1 // allow variable count of fields per record

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty region code table", models.ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("Error reading CSV header: %w", err)
	}

	index := make(map[string]int)
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	alpha3, ok := index[columns.Alpha3]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrMissingColumn, columns.Alpha3)
	}
	regionID, ok := index[columns.RegionID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrMissingColumn, columns.RegionID)
	}
	alpha2, hasAlpha2 := index[columns.Alpha2]
	name, hasName := index[columns.RegionName]

	t := &Table{
		byAlpha3: make(map[string]Region),
		byAlpha2: make(map[string]Region),
		names:    make(map[int]string),
	}

	missingColumns := []int{}
	missingValues := []string{}
	i := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		i++
		if err != nil {
			log.Error(err, log.Data{"_message": "Error reading CSV", "row": i})
			return nil, fmt.Errorf("Error reading CSV: %w", err)
		}
		if len(record) <= alpha3 || len(record) <= regionID {
			missingColumns = append(missingColumns, i)
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(record[alpha3]))
		id, err := strconv.Atoi(strings.TrimSpace(record[regionID]))
		if err != nil || len(code) == 0 {
			missingValues = append(missingValues, code)
			continue
		}

		region := Region{ID: id}
		if hasName && len(record) > name {
			region.Name = strings.TrimSpace(record[name])
			if _, exists := t.names[id]; !exists && len(region.Name) > 0 {
				t.names[id] = region.Name
			}
		}

		t.byAlpha3[code] = region
		code2 := ""
		if hasAlpha2 && len(record) > alpha2 {
			code2 = strings.ToUpper(strings.TrimSpace(record[alpha2]))
		}
		if len(code2) == 0 {
			code2 = Alpha2(code)
		}
		if len(code2) > 0 {
			t.byAlpha2[code2] = region
		}
	}

	if len(missingColumns) > 0 {
		rowNumbers := strings.Join(strings.Fields(fmt.Sprint(missingColumns)), ", ")
		log.Info(fmt.Sprintf("warning: %d region code rows have missing columns and were skipped. Row numbers: %v", len(missingColumns), rowNumbers), nil)
	}
	if len(missingValues) > 0 {
		log.Info(fmt.Sprintf("warning: %d region code rows have no numeric region id and were skipped. Codes: [%v]", len(missingValues), strings.Join(missingValues, ", ")), nil)
	}
	log.Debug("region code table loaded", log.Data{"rows": i, "countries": len(t.byAlpha3), "regions": len(t.names)})

	return t, nil
}

// New builds a table directly from an alpha-3 to region id map
func New(ids map[string]int) *Table {
	t := &Table{
		byAlpha3: make(map[string]Region),
		byAlpha2: make(map[string]Region),
		names:    make(map[int]string),
	}
	for code, id := range ids {
		code = strings.ToUpper(code)
		t.byAlpha3[code] = Region{ID: id}
		if code2 := Alpha2(code); len(code2) > 0 {
			t.byAlpha2[code2] = Region{ID: id}
		}
	}
	return t
}

// ByAlpha3 returns the region id for an ISO 3166-1 alpha-3 code
func (t *Table) ByAlpha3(code string) (int, bool) {
	r, ok := t.byAlpha3[strings.ToUpper(code)]
	return r.ID, ok
}

// ByAlpha2 returns the region id for an ISO 3166-1 alpha-2 code
func (t *Table) ByAlpha2(code string) (int, bool) {
	r, ok := t.byAlpha2[strings.ToUpper(code)]
	return r.ID, ok
}

// Name returns the region name for an id, or an empty string
func (t *Table) Name(id int) string {
	return t.names[id]
}

// Len returns the number of countries in the table
func (t *Table) Len() int {
	return len(t.byAlpha3)
}

// RegionIDs returns the distinct region ids in ascending order
func (t *Table) RegionIDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for _, r := range t.byAlpha3 {
		if !seen[r.ID] {
			seen[r.ID] = true
			ids = append(ids, r.ID)
		}
	}
	sort.Ints(ids)
	return ids
}

// Alpha2 converts an alpha-3 code to alpha-2, returning an empty string for unknown codes
func Alpha2(alpha3 string) string {
	c := countries.ByName(alpha3)
	if c == countries.Unknown {
		return ""
	}
	return c.Alpha2()
}
