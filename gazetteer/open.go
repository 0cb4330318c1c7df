package gazetteer

import (
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ONSdigital/go-ns/log"
)

// ExtractFile extracts places from a GeoNames dump on disk. Plain text, gzip and bzip2
// files are read directly; for a zip archive every .txt entry other than the readme is read.
func (e *Extractor) ExtractFile(path string) (*Extraction, error) {
	res := &Extraction{Rejected: make(map[string]int)}
	var kept []candidate

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		rz, err := zip.OpenReader(path)
		if err != nil {
			return nil, fmt.Errorf("opening zip file: %w", err)
		}
		defer rz.Close()

		for _, uF := range rz.File {
			if !isGazetteerEntry(uF.Name) {
				log.Debug("ignoring zip entry", log.Data{"entry": uF.Name})
				continue
			}
			if err := e.processZipEntry(uF, res, &kept); err != nil {
				return nil, err
			}
		}
	case ".gz":
		fi, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
		defer fi.Close()

		fz, err := gzip.NewReader(fi)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		defer fz.Close()

		if err := e.scan(fz, res, &kept); err != nil {
			return nil, err
		}
	case ".bz2":
		fi, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
		defer fi.Close()

		if err := e.scan(bzip2.NewReader(fi), res, &kept); err != nil {
			return nil, err
		}
	default:
		fi, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
		defer fi.Close()

		if err := e.scan(fi, res, &kept); err != nil {
			return nil, err
		}
	}

	return e.finish(res, kept), nil
}

// processZipEntry reads a single file entry from a zip archive.
func (e *Extractor) processZipEntry(uF *zip.File, res *Extraction, kept *[]candidate) error {
	fi, err := uF.Open()
	if err != nil {
		return fmt.Errorf("opening file in zip: %w", err)
	}
	defer fi.Close()

	return e.scan(fi, res, kept)
}

func isGazetteerEntry(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	return strings.HasSuffix(base, ".txt") && !strings.HasPrefix(base, "readme")
}
