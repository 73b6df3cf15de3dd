package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter publishes book and request metrics in Prometheus format
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *promclient.Registry
	collector     Collector

	meter          metric.Meter
	booksGauge     metric.Int64ObservableGauge
	requestCounter metric.Int64Counter
}

// NewOTelExporter wires an OTel meter provider to a Prometheus registry.
// A nil registry gets a fresh one.
func NewOTelExporter(collector Collector, registry *promclient.Registry) (*OTelExporter, error) {
	if registry == nil {
		registry = promclient.NewRegistry()
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"bookshelf-api",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.booksGauge, err = oe.meter.Int64ObservableGauge(
		"books.count",
		metric.WithDescription("Number of stored books per category"),
		metric.WithUnit("{books}"),
		metric.WithInt64Callback(oe.observeBookCounts),
	)
	if err != nil {
		return fmt.Errorf("creating books gauge: %w", err)
	}

	oe.requestCounter, err = oe.meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Number of HTTP requests served"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return fmt.Errorf("creating request counter: %w", err)
	}

	return nil
}

// observeBookCounts runs on every scrape
func (oe *OTelExporter) observeBookCounts(ctx context.Context, observer metric.Int64Observer) error {
	counts, err := oe.collector.CountByCategory(ctx)
	if err != nil {
		return err
	}

	for category, n := range counts {
		observer.Observe(n, metric.WithAttributes(
			attribute.String("book.category", category),
		))
	}

	return nil
}

// Middleware counts every request by method and status code
func (oe *OTelExporter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		oe.requestCounter.Add(r.Context(), 1, metric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.status_code", strconv.Itoa(status)),
		))
	})
}

// ServeHTTP serves the registry in Prometheus text format
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
