package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/couchcryptid/trail-map-service/internal/domain"
)

// stylesFile is the on-disk layout of STYLES_PATH:
//
//	styles:
//	  site:
//	    label: WWTA Campsite
//	    icon: fas fa-campground
//	    cluster_color: rgba(181, 226, 140, 0.6)
//	fallback:
//	  icon: fas fa-map-marker-alt
//	  cluster_color: rgba(160, 160, 160, 0.6)
type stylesFile struct {
	Styles   map[string]domain.Style `yaml:"styles"`
	Fallback *domain.Style           `yaml:"fallback"`
}

// LoadStyles returns the default style set when path is empty. Otherwise the
// file's entries are layered over the defaults.
func LoadStyles(path string) (domain.StyleSet, error) {
	if path == "" {
		return domain.DefaultStyles(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.StyleSet{}, fmt.Errorf("read styles: %w", err)
	}
	return ParseStyles(data)
}

// ParseStyles decodes a styles document and merges it over the defaults.
func ParseStyles(data []byte) (domain.StyleSet, error) {
	var file stylesFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return domain.StyleSet{}, fmt.Errorf("parse styles: %w", err)
	}

	defaults := domain.DefaultStyles()
	styles := make(map[string]domain.Style, len(file.Styles)+2)
	for _, typ := range defaults.Types() {
		s, _ := defaults.Lookup(typ)
		styles[typ] = s
	}
	for typ, s := range file.Styles {
		if typ == "" {
			return domain.StyleSet{}, errors.New("parse styles: empty type key")
		}
		if s.Label == "" || s.Icon == "" {
			return domain.StyleSet{}, fmt.Errorf("parse styles: %q needs label and icon", typ)
		}
		styles[typ] = s
	}

	fallback := domain.FallbackStyle
	if file.Fallback != nil {
		if file.Fallback.Icon != "" {
			fallback.Icon = file.Fallback.Icon
		}
		if file.Fallback.ClusterColor != "" {
			fallback.ClusterColor = file.Fallback.ClusterColor
		}
		fallback.Label = file.Fallback.Label
	}

	return domain.NewStyleSet(styles, fallback), nil
}
