package mapview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/trail-map-service/internal/domain"
)

// IconStyle selects how single markers are drawn.
type IconStyle string

const (
	// IconStyleDivIcon draws the type's font icon inside a small div.
	IconStyleDivIcon IconStyle = "divicon"
	// IconStylePin draws the stock map pin image.
	IconStylePin IconStyle = "pin"
)

// DefaultPinURL is the stock Leaflet marker image.
const DefaultPinURL = "https://unpkg.com/leaflet@1.9.4/dist/images/marker-icon.png"

// Icon mirrors the options of a Leaflet icon or divIcon.
type Icon struct {
	HTML        string `json:"html,omitempty"`
	IconURL     string `json:"iconUrl,omitempty"`
	ClassName   string `json:"className,omitempty"`
	IconSize    [2]int `json:"iconSize"`
	PopupAnchor [2]int `json:"popupAnchor"`
}

// Marker is the visual marker for one feature with its bound popup.
type Marker struct {
	Icon  Icon   `json:"icon"`
	Popup string `json:"popup"`
}

// MarkerRenderer turns a feature into the marker the map draws for it.
type MarkerRenderer interface {
	Render(f domain.Feature, style domain.Style) Marker
}

// DivIconRenderer renders the style's font icon in a 23x23 div.
type DivIconRenderer struct{}

func (DivIconRenderer) Render(f domain.Feature, style domain.Style) Marker {
	return Marker{
		Icon: Icon{
			HTML:        style.IconHTML(),
			ClassName:   "marker-single marker-" + f.Typ(),
			IconSize:    [2]int{23, 23},
			PopupAnchor: [2]int{1, -24},
		},
		Popup: f.Tooltip(),
	}
}

// PinRenderer renders a plain pin image for every type.
type PinRenderer struct {
	IconURL string
}

func (r PinRenderer) Render(f domain.Feature, _ domain.Style) Marker {
	url := r.IconURL
	if url == "" {
		url = DefaultPinURL
	}
	return Marker{
		Icon: Icon{
			IconURL:     url,
			ClassName:   "marker-pin marker-" + f.Typ(),
			IconSize:    [2]int{25, 41},
			PopupAnchor: [2]int{1, -34},
		},
		Popup: f.Tooltip(),
	}
}

// RendererFor returns the renderer for an icon style.
func RendererFor(style IconStyle) (MarkerRenderer, error) {
	switch style {
	case IconStyleDivIcon, "":
		return DivIconRenderer{}, nil
	case IconStylePin:
		return PinRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown icon style %q", style)
	}
}

// PolygonOptions style the hover polygon that shows a cluster's extent.
type PolygonOptions struct {
	ClassName   string  `json:"className"`
	Stroke      bool    `json:"stroke"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
}

// ClusterOptions configure the marker cluster group wrapping one layer.
type ClusterOptions struct {
	MaxClusterRadius int            `json:"maxClusterRadius"`
	IconTemplate     string         `json:"iconTemplate"` // {count} is replaced with the child count
	ClassName        string         `json:"className"`
	IconSize         [2]int         `json:"iconSize"`
	PolygonOptions   PolygonOptions `json:"polygonOptions"`
}

const clusterBaseClass = "leaflet-marker-icon marker-cluster leaflet-zoom-animated leaflet-interactive"

func newClusterOptions(typ string, style domain.Style, radius int) *ClusterOptions {
	return &ClusterOptions{
		MaxClusterRadius: radius,
		IconTemplate:     "<div><span>{count} " + style.IconHTML() + "</span></div>",
		ClassName:        clusterBaseClass + " marker-cluster-" + typ,
		IconSize:         [2]int{40, 40},
		PolygonOptions: PolygonOptions{
			ClassName:   "blurredPolygon",
			Stroke:      false,
			FillColor:   style.ClusterColor,
			FillOpacity: 1,
		},
	}
}

// Icon renders the cluster icon for a cluster of count markers.
func (c ClusterOptions) Icon(count int) Icon {
	return Icon{
		HTML:      strings.ReplaceAll(c.IconTemplate, "{count}", strconv.Itoa(count)),
		ClassName: c.ClassName,
		IconSize:  c.IconSize,
	}
}
