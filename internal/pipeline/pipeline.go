package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/couchcryptid/trail-map-service/internal/domain"
	"github.com/couchcryptid/trail-map-service/internal/mapview"
	"github.com/couchcryptid/trail-map-service/internal/observability"
)

var tracer = otel.Tracer("trail-map-service/pipeline")

// Loader reads every marker record from the source document.
type Loader interface {
	Load(ctx context.Context) ([]domain.MarkerRecord, error)
}

// Transformer converts one marker record into a feature.
type Transformer interface {
	Transform(ctx context.Context, rec domain.MarkerRecord) (domain.Feature, error)
}

// ViewBuilder groups features into the renderable map view.
type ViewBuilder interface {
	Build(features []domain.Feature) *mapview.View
}

// Publisher pushes a freshly built view to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, view *mapview.View) error
}

// SnapshotStore persists the features of the last good load. Load returns
// domain.ErrNoSnapshot when nothing has been saved.
type SnapshotStore interface {
	Save(ctx context.Context, features []domain.Feature) error
	Load(ctx context.Context) ([]domain.Feature, error)
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithPublisher publishes every successful build.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithSnapshots saves every successful build and serves the saved features
// when the first load fails.
func WithSnapshots(store SnapshotStore) Option {
	return func(p *Pipeline) { p.snapshots = store }
}

// WithReloadInterval makes Run reload the source every d. Zero loads once.
func WithReloadInterval(d time.Duration) Option {
	return func(p *Pipeline) { p.reloadInterval = d }
}

// WithClock sets the clock driving periodic reloads.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// Pipeline orchestrates the load-transform-build cycle and holds the current view.
type Pipeline struct {
	loader      Loader
	transformer Transformer
	builder     ViewBuilder
	publisher   Publisher
	snapshots   SnapshotStore
	logger      *slog.Logger
	metrics     *observability.Metrics

	reloadInterval time.Duration
	clock          clockwork.Clock

	mu      sync.Mutex // serialises load cycles
	view    atomic.Pointer[mapview.View]
	lastErr atomic.Pointer[error]
}

// New creates a Pipeline with the given stages and observability.
func New(l Loader, t Transformer, b ViewBuilder, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		loader:      l,
		transformer: t,
		builder:     b,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// View returns the current view, or nil if no load has succeeded yet.
func (p *Pipeline) View() *mapview.View {
	return p.view.Load()
}

// LastError returns the error of the most recent load cycle, or nil if it succeeded.
func (p *Pipeline) LastError() error {
	if errp := p.lastErr.Load(); errp != nil {
		return *errp
	}
	return nil
}

// CheckReadiness returns nil once a view is available, or an error describing
// why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.view.Load() != nil {
		return nil
	}
	if err := p.LastError(); err != nil {
		return errors.New(domain.UserMessage(err))
	}
	return errors.New("trail markers have not been loaded yet")
}

// Run performs the initial load and then reloads every reload interval until
// the context is cancelled. Load failures are logged and do not stop Run.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "reload_interval", p.reloadInterval)

	_, _ = p.Load(ctx)
	if p.reloadInterval <= 0 {
		return nil
	}

	ticker := p.clock.NewTicker(p.reloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			_, _ = p.Load(ctx)
		}
	}
}

// Load runs one complete cycle. On success the new view replaces the current
// one; on failure the current view is kept and the error is returned.
func (p *Pipeline) Load(ctx context.Context) (*mapview.View, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := tracer.Start(ctx, "pipeline.load")
	defer span.End()

	start := time.Now()

	records, err := p.loader.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, p.fail(ctx, err)
	}
	p.metrics.MarkersLoaded.Add(float64(len(records)))

	features, err := p.transform(ctx, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transform failed")
		return nil, p.fail(ctx, err)
	}

	view := p.builder.Build(features)
	p.install(view)
	p.lastErr.Store(nil)

	span.SetAttributes(
		attribute.Int("markers", len(records)),
		attribute.Int("features", len(features)),
		attribute.Int("layers", len(view.Layers)),
	)
	p.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("trail map built",
		"build_id", view.BuildID,
		"markers", len(records),
		"features", len(features),
		"layers", len(view.Layers),
		"duration", time.Since(start),
	)

	// Sinks finish even when shutdown cancels ctx mid-cycle.
	sinkCtx := context.WithoutCancel(ctx)
	p.save(sinkCtx, features)
	p.publish(sinkCtx, view)

	return view, nil
}

// transform converts every record, skipping the ones with invalid data.
func (p *Pipeline) transform(ctx context.Context, records []domain.MarkerRecord) ([]domain.Feature, error) {
	features := make([]domain.Feature, 0, len(records))
	for i, rec := range records {
		f, err := p.transformer.Transform(ctx, rec)
		if err != nil {
			var dataErr *domain.DataError
			if !errors.As(err, &dataErr) {
				return nil, err
			}
			p.logger.Warn("invalid marker, skipping record",
				"error", err,
				"index", i,
				"name", dataErr.Name,
				"field", dataErr.Field,
			)
			p.metrics.RecordsSkipped.Inc()
			continue
		}
		features = append(features, f)
	}
	p.metrics.FeaturesBuilt.Add(float64(len(features)))
	return features, nil
}

func (p *Pipeline) install(view *mapview.View) {
	p.view.Store(view)
	p.metrics.Layers.Set(float64(len(view.Layers)))
	p.metrics.ViewFeatures.Set(float64(view.FeatureCount()))
	if view.Stale {
		p.metrics.ViewStale.Set(1)
	} else {
		p.metrics.ViewStale.Set(0)
	}
}

// fail records a failed cycle. If nothing has been served yet, the last
// snapshot (if any) is rebuilt into a stale view.
func (p *Pipeline) fail(ctx context.Context, err error) error {
	p.lastErr.Store(&err)
	p.metrics.LoadErrors.WithLabelValues(errorKind(err)).Inc()
	p.logger.Error("trail map load failed", "error", err, "message", domain.UserMessage(err))

	if p.view.Load() != nil || p.snapshots == nil {
		return err
	}

	features, serr := p.snapshots.Load(ctx)
	if serr != nil {
		if !errors.Is(serr, domain.ErrNoSnapshot) {
			p.logger.Warn("snapshot load failed", "error", serr)
		}
		return err
	}

	view := p.builder.Build(features)
	view.Stale = true
	p.install(view)
	p.logger.Warn("serving trail map from snapshot",
		"build_id", view.BuildID,
		"features", len(features),
	)
	return err
}

func (p *Pipeline) save(ctx context.Context, features []domain.Feature) {
	if p.snapshots == nil {
		return
	}
	if err := p.snapshots.Save(ctx, features); err != nil {
		p.logger.Warn("snapshot save failed", "error", err)
	}
}

func (p *Pipeline) publish(ctx context.Context, view *mapview.View) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, view); err != nil {
		p.logger.Error("publish layers failed", "error", err, "build_id", view.BuildID)
		p.metrics.PublishErrors.Inc()
		return
	}
	p.metrics.LayersPublished.Add(float64(len(view.Layers)))
}

func errorKind(err error) string {
	var fetchErr *domain.FetchError
	var parseErr *domain.ParseError
	switch {
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &parseErr):
		return "parse"
	default:
		return "other"
	}
}
