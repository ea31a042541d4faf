package domain

import (
	"encoding/json"

	"github.com/golang/geo/s2"
)

// Bounds is a lat/lng rectangle. The zero value is not usable; start from
// EmptyBounds.
type Bounds struct {
	rect s2.Rect
}

// EmptyBounds returns bounds that contain no points.
func EmptyBounds() Bounds {
	return Bounds{rect: s2.EmptyRect()}
}

// NewBounds returns the smallest bounds containing both corners.
func NewBounds(south, west, north, east float64) Bounds {
	return EmptyBounds().Extend(south, west).Extend(north, east)
}

// Extend returns bounds grown to include the point.
func (b Bounds) Extend(lat, lng float64) Bounds {
	return Bounds{rect: b.rect.AddPoint(s2.LatLngFromDegrees(lat, lng))}
}

// Union returns the smallest bounds containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{rect: b.rect.Union(o.rect)}
}

func (b Bounds) IsEmpty() bool { return b.rect.IsEmpty() }

func (b Bounds) South() float64 { return b.rect.Lo().Lat.Degrees() }
func (b Bounds) West() float64 { return b.rect.Lo().Lng.Degrees() }
func (b Bounds) North() float64 { return b.rect.Hi().Lat.Degrees() }

// East is always >= West. Bounds crossing the antimeridian report an east
// edge beyond 180 so a client fits the narrow box rather than the globe.
func (b Bounds) East() float64 {
	east := b.rect.Hi().Lng.Degrees()
	if b.rect.Lng.IsInverted() {
		east += 360
	}
	return east
}

// Contains reports whether the point lies inside b.
func (b Bounds) Contains(lat, lng float64) bool {
	return b.rect.ContainsLatLng(s2.LatLngFromDegrees(lat, lng))
}

// MarshalJSON encodes bounds as [[south, west], [north, east]], or null when empty.
func (b Bounds) MarshalJSON() ([]byte, error) {
	if b.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal([2][2]float64{
		{b.South(), b.West()},
		{b.North(), b.East()},
	})
}

// FeatureBounds returns the bounds of all feature geometries.
func FeatureBounds(features []Feature) Bounds {
	b := EmptyBounds()
	for _, f := range features {
		b = b.Extend(f.Lat(), f.Lng())
	}
	return b
}
