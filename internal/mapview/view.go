package mapview

import (
	"time"

	"github.com/samber/lo"

	"github.com/couchcryptid/trail-map-service/internal/domain"
)

// Camera is a fixed map position used when there is nothing to fit.
type Camera struct {
	Center [2]float64 `json:"center"` // [lat, lng]
	Zoom   int        `json:"zoom"`
}

// TileLayer describes a basemap or overlay served by a third party.
type TileLayer struct {
	Name    string  `json:"name"`
	Kind    string  `json:"kind"` // "tile" or "esri-image"
	URL     string  `json:"url"`
	Opacity float64 `json:"opacity"`
}

// Layer is one togglable marker layer.
type Layer struct {
	Typ          string                   `json:"typ"`
	Label        string                   `json:"label"`
	ControlLabel string                   `json:"controlLabel"`
	Known        bool                     `json:"known"`
	Style        domain.Style             `json:"style"`
	Features     domain.FeatureCollection `json:"features"`
	Markers      []Marker                 `json:"markers"` // parallel to Features.Features
	Cluster      *ClusterOptions          `json:"cluster,omitempty"`
	Bounds       domain.Bounds            `json:"bounds"`
}

// LayerSummary is the short form of a layer for listings.
type LayerSummary struct {
	Typ          string        `json:"typ"`
	Label        string        `json:"label"`
	ControlLabel string        `json:"controlLabel"`
	Known        bool          `json:"known"`
	Count        int           `json:"count"`
	Clustered    bool          `json:"clustered"`
	Bounds       domain.Bounds `json:"bounds"`
}

// View is everything the browser needs to draw the trail map.
type View struct {
	BuildID   string        `json:"buildId"`
	BuiltAt   time.Time     `json:"builtAt"`
	Stale     bool          `json:"stale"` // rebuilt from a snapshot after a failed load
	Layers    []Layer       `json:"layers"`
	Bounds    domain.Bounds `json:"bounds"`
	FitBounds bool          `json:"fitBounds"`
	Camera    Camera        `json:"camera"`
	Basemaps  []TileLayer   `json:"basemaps"`
	Overlays  []TileLayer   `json:"overlays"`
}

// Layer returns the layer for typ.
func (v *View) Layer(typ string) (Layer, bool) {
	return lo.Find(v.Layers, func(l Layer) bool { return l.Typ == typ })
}

// Features returns every feature in layer order.
func (v *View) Features() []domain.Feature {
	return lo.FlatMap(v.Layers, func(l Layer, _ int) []domain.Feature { return l.Features.Features })
}

// FeatureCount returns the number of features across all layers.
func (v *View) FeatureCount() int {
	return lo.SumBy(v.Layers, func(l Layer) int { return len(l.Features.Features) })
}

// Summaries lists the layers without their features.
func (v *View) Summaries() []LayerSummary {
	return lo.Map(v.Layers, func(l Layer, _ int) LayerSummary {
		return LayerSummary{
			Typ:          l.Typ,
			Label:        l.Label,
			ControlLabel: l.ControlLabel,
			Known:        l.Known,
			Count:        len(l.Features.Features),
			Clustered:    l.Cluster != nil,
			Bounds:       l.Bounds,
		}
	})
}
