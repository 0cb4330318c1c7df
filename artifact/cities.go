package artifact

import (
	"fmt"
	"io/ioutil"

	"github.com/ONSdigital/dp-map-dataset/codec"
	"github.com/ONSdigital/dp-map-dataset/models"
)

// WriteCities writes the cities as CBOR, preserving their order
func WriteCities(path string, cities []models.CityRecord) error {
	b, err := codec.MarshalCities(cities)
	if err != nil {
		return err
	}
	return writeFile(path, b)
}

// ReadCities reads cities written by WriteCities
func ReadCities(path string) ([]models.CityRecord, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cities: %w", err)
	}
	return codec.UnmarshalCities(b)
}
