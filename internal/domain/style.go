package domain

import (
	"maps"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Style is the presentation metadata attached to one marker type.
type Style struct {
	Label        string `json:"label" yaml:"label"`
	Icon         string `json:"icon" yaml:"icon"`                   // font icon classes, e.g. "fas fa-ship"
	ClusterColor string `json:"clusterColor" yaml:"cluster_color"` // CSS colour for cluster extent polygons
}

// IconHTML is the markup used inside div icons and layer control labels.
func (s Style) IconHTML() string {
	return `<i class="` + s.Icon + `"></i>`
}

// FallbackStyle applies to marker types that have no configured style.
// Its Label is replaced with a title-cased form of the type.
var FallbackStyle = Style{
	Icon:         "fas fa-map-marker-alt",
	ClusterColor: "rgba(160, 160, 160, 0.6)",
}

// StyleSet maps marker types to styles. It is immutable once built.
type StyleSet struct {
	styles   map[string]Style
	fallback Style
}

// NewStyleSet copies styles. A zero fallback means FallbackStyle.
func NewStyleSet(styles map[string]Style, fallback Style) StyleSet {
	if fallback == (Style{}) {
		fallback = FallbackStyle
	}
	return StyleSet{styles: maps.Clone(styles), fallback: fallback}
}

// DefaultStyles returns the styles for the two published trail layers.
func DefaultStyles() StyleSet {
	return NewStyleSet(map[string]Style{
		"site": {
			Label:        "WWTA Campsite",
			Icon:         "fas fa-campground",
			ClusterColor: "rgba(181, 226, 140, 0.6)",
		},
		"access": {
			Label:        "Public Boat Ramps",
			Icon:         "fas fa-ship",
			ClusterColor: "rgba(240, 194, 12, 0.6)",
		},
	}, FallbackStyle)
}

// Lookup returns the style for typ and whether typ is configured.
func (s StyleSet) Lookup(typ string) (Style, bool) {
	if st, ok := s.styles[typ]; ok {
		return st, true
	}
	st := s.fallback
	if st.Label == "" {
		st.Label = fallbackLabel(typ)
	}
	return st, false
}

// Types lists the configured marker types in no particular order.
func (s StyleSet) Types() []string {
	types := make([]string, 0, len(s.styles))
	for typ := range s.styles {
		types = append(types, typ)
	}
	return types
}

func fallbackLabel(typ string) string {
	typ = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(typ))
	return cases.Title(language.English).String(typ)
}
