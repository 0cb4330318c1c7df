package artifact

import (
	"fmt"
	"os"

	"github.com/ONSdigital/dp-map-dataset/models"
)

// ManifestFile is the name of the manifest written beside the artifacts
const ManifestFile = "manifest.json"

// WriteManifest writes the manifest as indented json
func WriteManifest(path string, m *models.Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return writeFile(path, b)
}

// ReadManifest reads and validates a manifest
func ReadManifest(path string) (*models.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	defer f.Close()

	m, err := models.CreateManifest(f)
	if err != nil {
		return nil, err
	}
	return m, m.ValidateManifest()
}
