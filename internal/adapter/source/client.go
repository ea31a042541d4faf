package source

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/couchcryptid/trail-map-service/internal/domain"
)

var tracer = otel.Tracer("trail-map-service/source")

// Client loads the marker document from an http(s) URL or a local path.
// It implements pipeline.Loader.
type Client struct {
	location   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a marker loader. The timeout bounds the whole HTTP exchange.
func NewClient(location string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		location: location,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Location returns the configured document location.
func (c *Client) Location() string { return c.location }

// Load makes a single attempt to read and parse the marker document.
// Failures are *domain.FetchError or *domain.ParseError.
func (c *Client) Load(ctx context.Context) ([]domain.MarkerRecord, error) {
	ctx, span := tracer.Start(ctx, "load-markers")
	defer span.End()
	span.SetAttributes(attribute.String("markers.source", c.location))

	body, err := c.open(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, &domain.FetchError{Source: c.location, Err: err}
	}
	defer body.Close()

	records, err := Decode(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, &domain.ParseError{Source: c.location, Err: err}
	}

	span.SetAttributes(attribute.Int("markers.count", len(records)))
	c.logger.Debug("markers loaded", "source", c.location, "count", len(records))
	return records, nil
}

func (c *Client) open(ctx context.Context) (io.ReadCloser, error) {
	if !isRemote(c.location) {
		return os.Open(c.location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("markers request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}
	return resp.Body, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Marker document shape.

type document struct {
	XMLName xml.Name        `xml:"markers"`
	Markers []markerElement `xml:"marker"`
}

type markerElement struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

// Decode parses a <markers> document into records, one per <marker> element.
// Attribute namespaces are ignored.
func Decode(r io.Reader) ([]domain.MarkerRecord, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, fmt.Errorf("decode xml: %w", err)
	}

	records := make([]domain.MarkerRecord, 0, len(doc.Markers))
	for _, m := range doc.Markers {
		attrs := make(map[string]string, len(m.Attrs))
		for _, a := range m.Attrs {
			attrs[a.Name.Local] = a.Value
		}
		records = append(records, domain.MarkerRecord{Attrs: attrs})
	}
	return records, nil
}
