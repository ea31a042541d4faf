// Command convert turns a marker XML document into GeoJSON offline, using the
// same transform as the service so the output matches what the map serves.
//
// Usage:
//
//	go run ./cmd/convert \
//	  -in resources/markers.xml \
//	  -out dist/markers.geojson \
//	  -layers-dir dist/layers
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/trail-map-service/internal/adapter/source"
	"github.com/couchcryptid/trail-map-service/internal/config"
	"github.com/couchcryptid/trail-map-service/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "marker XML file to convert")
	out := flag.String("out", "-", "output path for the combined FeatureCollection (- for stdout)")
	layersDir := flag.String("layers-dir", "", "optional directory for one <typ>.geojson file per layer")
	linkBase := flag.String("link-base", domain.DefaultLinkBaseURL, "absolute prefix that replaces ?page_id=")
	stylesPath := flag.String("styles", "", "optional styles YAML file used to name layers")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return errors.New("missing required flag: -in")
	}

	features, skipped, err := convert(*in, *linkBase)
	if err != nil {
		return err
	}
	log.Printf("converted %d markers (%d skipped)", len(features), skipped)

	if err := writeGeoJSON(*out, domain.NewFeatureCollection(features)); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}

	if *layersDir == "" {
		return nil
	}

	styles, err := config.LoadStyles(*stylesPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*layersDir, 0o755); err != nil {
		return fmt.Errorf("create layers dir: %w", err)
	}
	for _, g := range domain.PartitionByType(features, styles) {
		path := filepath.Join(*layersDir, g.Typ+".geojson")
		if err := writeGeoJSON(path, domain.NewFeatureCollection(g.Features)); err != nil {
			return fmt.Errorf("writing layer %s: %w", g.Typ, err)
		}
		log.Printf("%s (%s): %d features -> %s", g.Typ, g.Style.Label, len(g.Features), path)
	}
	return nil
}

// convert decodes the document and transforms every valid record. Invalid
// records are reported and counted, not fatal.
func convert(path, linkBase string) ([]domain.Feature, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	records, err := source.Decode(f)
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}

	features := make([]domain.Feature, 0, len(records))
	skipped := 0
	for i, rec := range records {
		feat, err := domain.BuildFeature(rec, linkBase)
		if err != nil {
			log.Printf("skipping marker %d: %v", i, err)
			skipped++
			continue
		}
		features = append(features, feat)
	}
	return features, skipped, nil
}

func writeGeoJSON(path string, fc domain.FeatureCollection) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // output is public map data
}
