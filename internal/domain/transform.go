package domain

import (
	"html"
	"maps"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"
)

// DefaultLinkBaseURL is the absolute prefix that replaces relative trail page links.
const DefaultLinkBaseURL = "https://www.wwta.org/cascadia-marine-trail-map/?page_id="

// pageLinkMarker is the relative link prefix used inside stedetails.
const pageLinkMarker = "?page_id="

// RewriteLinks replaces every "?page_id=" in details with base.
func RewriteLinks(details, base string) string {
	return strings.ReplaceAll(details, pageLinkMarker, base)
}

// TooltipContent renders the popup HTML: the name as a heading followed
// directly by the (already rewritten) details.
func TooltipContent(name, details string) string {
	return "<h3>" + html.EscapeString(name) + "</h3>" + details
}

// BuildFeature converts a marker record into a GeoJSON point feature.
// Properties are a copy of the record's attributes plus tooltipContent.
// A missing stedetails attribute is treated as empty.
func BuildFeature(rec MarkerRecord, linkBase string) (Feature, error) {
	name := rec.Name()
	if strings.TrimSpace(rec.Typ()) == "" {
		return Feature{}, &DataError{Name: name, Field: AttrTyp, Reason: "missing"}
	}
	if strings.TrimSpace(name) == "" {
		return Feature{}, &DataError{Field: AttrName, Reason: "missing"}
	}

	lat, err := parseCoordinate(rec, AttrLat)
	if err != nil {
		return Feature{}, err
	}
	lng, err := parseCoordinate(rec, AttrLng)
	if err != nil {
		return Feature{}, err
	}
	if !s2.LatLngFromDegrees(lat, lng).IsValid() {
		return Feature{}, &DataError{
			Name:   name,
			Field:  AttrLat + "," + AttrLng,
			Value:  rec.Attrs[AttrLat] + "," + rec.Attrs[AttrLng],
			Reason: "out of range",
		}
	}

	props := make(map[string]string, len(rec.Attrs)+1)
	maps.Copy(props, rec.Attrs)
	props[PropTooltip] = TooltipContent(name, RewriteLinks(rec.Details(), linkBase))

	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: [2]float64{lng, lat},
		},
		Properties: props,
	}, nil
}

// parseCoordinate reads a decimal degree attribute. Empty, non-numeric and
// non-finite values are rejected.
func parseCoordinate(rec MarkerRecord, field string) (float64, error) {
	raw, ok := rec.Attrs[field]
	s := strings.TrimSpace(raw)
	if !ok || s == "" {
		return 0, &DataError{Name: rec.Name(), Field: field, Reason: "missing"}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &DataError{Name: rec.Name(), Field: field, Value: raw, Reason: "not a number"}
	}
	return v, nil
}
