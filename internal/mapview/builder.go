package mapview

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/couchcryptid/trail-map-service/internal/domain"
)

// DefaultClusterRadius is the cluster radius in pixels.
const DefaultClusterRadius = 120

// Options select the rendering policy of a Builder.
type Options struct {
	IconStyle     IconStyle
	Clustering    bool
	ClusterRadius int
	DefaultCamera Camera
	Basemaps      []TileLayer
	Overlays      []TileLayer
}

// DefaultOptions are the clustered div-icon map over the Salish Sea.
func DefaultOptions() Options {
	return Options{
		IconStyle:     IconStyleDivIcon,
		Clustering:    true,
		ClusterRadius: DefaultClusterRadius,
		DefaultCamera: Camera{Center: [2]float64{47.6, -122.6}, Zoom: 7},
		Basemaps: []TileLayer{
			{
				Name:    "Imagery",
				Kind:    "tile",
				URL:     "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
				Opacity: 1,
			},
			{
				Name:    "Ocean",
				Kind:    "tile",
				URL:     "https://server.arcgisonline.com/ArcGIS/rest/services/Ocean/World_Ocean_Base/MapServer/tile/{z}/{y}/{x}",
				Opacity: 1,
			},
		},
		Overlays: []TileLayer{
			{
				Name:    "Navigational Charts",
				Kind:    "esri-image",
				URL:     "https://seamlessrnc.nauticalcharts.noaa.gov/arcgis/rest/services/RNC/NOAA_RNC/ImageServer",
				Opacity: 0.35,
			},
		},
	}
}

// Builder turns features into a View. It is safe for concurrent use.
type Builder struct {
	styles   domain.StyleSet
	renderer MarkerRenderer
	opts     Options
	logger   *slog.Logger
}

// NewBuilder creates a Builder for the given styles and rendering policy.
func NewBuilder(styles domain.StyleSet, opts Options, logger *slog.Logger) (*Builder, error) {
	renderer, err := RendererFor(opts.IconStyle)
	if err != nil {
		return nil, err
	}
	if opts.Clustering && opts.ClusterRadius <= 0 {
		return nil, fmt.Errorf("cluster radius must be positive, got %d", opts.ClusterRadius)
	}
	return &Builder{
		styles:   styles,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}, nil
}

// WithRenderer returns a copy of b that draws markers with r.
func (b *Builder) WithRenderer(r MarkerRenderer) *Builder {
	c := *b
	c.renderer = r
	return &c
}

// Build partitions features by type and produces one layer per type. The view
// bounds are the union of all layer bounds; with no features the view keeps
// the default camera instead of fitting.
func (b *Builder) Build(features []domain.Feature) *View {
	groups := domain.PartitionByType(features, b.styles)

	view := &View{
		BuildID:  uuid.NewString(),
		BuiltAt:  domain.Now(),
		Layers:   make([]Layer, 0, len(groups)),
		Bounds:   domain.EmptyBounds(),
		Camera:   b.opts.DefaultCamera,
		Basemaps: b.opts.Basemaps,
		Overlays: b.opts.Overlays,
	}

	for _, g := range groups {
		if !g.Known {
			b.logger.Warn("marker type has no style, using fallback",
				"typ", g.Typ,
				"label", g.Style.Label,
				"count", len(g.Features),
			)
		}

		layer := b.buildLayer(g)
		view.Layers = append(view.Layers, layer)
		view.Bounds = view.Bounds.Union(layer.Bounds)
	}

	view.FitBounds = !view.Bounds.IsEmpty()
	return view
}

func (b *Builder) buildLayer(g domain.LayerGroup) Layer {
	layer := Layer{
		Typ:          g.Typ,
		Label:        g.Style.Label,
		ControlLabel: g.Style.Label + " " + g.Style.IconHTML(),
		Known:        g.Known,
		Style:        g.Style,
		Features:     domain.NewFeatureCollection(g.Features),
		Markers: lo.Map(g.Features, func(f domain.Feature, _ int) Marker {
			return b.renderer.Render(f, g.Style)
		}),
		Bounds: g.Bounds(),
	}
	if b.opts.Clustering {
		layer.Cluster = newClusterOptions(g.Typ, g.Style, b.opts.ClusterRadius)
	}
	return layer
}
