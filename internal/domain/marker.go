package domain

import "maps"

// Attribute names read from each <marker> element.
const (
	AttrTyp     = "typ"
	AttrName    = "name"
	AttrLat     = "lat"
	AttrLng     = "lng"
	AttrDetails = "stedetails"

	// PropTooltip is the synthesized popup HTML added to every feature.
	PropTooltip = "tooltipContent"
	// PropPlaceName is set by reverse geocoding enrichment when enabled.
	PropPlaceName = "placeName"
)

// MarkerRecord holds the attributes of one <marker> element as read from the
// source document. Values are the raw attribute strings.
type MarkerRecord struct {
	Attrs map[string]string
}

// NewMarkerRecord copies attrs into a new record.
func NewMarkerRecord(attrs map[string]string) MarkerRecord {
	return MarkerRecord{Attrs: maps.Clone(attrs)}
}

func (m MarkerRecord) Typ() string { return m.Attrs[AttrTyp] }
func (m MarkerRecord) Name() string { return m.Attrs[AttrName] }

// Details returns stedetails, or "" when the attribute is absent.
func (m MarkerRecord) Details() string { return m.Attrs[AttrDetails] }

// Geometry is a GeoJSON Point. Coordinates are [lng, lat].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Feature is a GeoJSON Feature built from one MarkerRecord.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   Geometry          `json:"geometry"`
	Properties map[string]string `json:"properties"`
}

func (f Feature) Typ() string { return f.Properties[AttrTyp] }
func (f Feature) Name() string { return f.Properties[AttrName] }
func (f Feature) Lng() float64 { return f.Geometry.Coordinates[0] }
func (f Feature) Lat() float64 { return f.Geometry.Coordinates[1] }
func (f Feature) Tooltip() string { return f.Properties[PropTooltip] }
func (f Feature) PlaceName() string { return f.Properties[PropPlaceName] }

// clone returns a copy that shares nothing with f.
func (f Feature) clone() Feature {
	f.Properties = maps.Clone(f.Properties)
	return f
}

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection wraps features. A nil slice encodes as an empty array.
func NewFeatureCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}
