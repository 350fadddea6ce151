package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("listingscraper.internal.telemetry")

var reportCounter, _ = meter.Int64Counter(
	"degradation_reports",
	metric.WithDescription("broken and warning reports by id"),
)
var reportedGauge, _ = meter.Int64Gauge(
	"reported_count",
	metric.WithDescription("last value passed to ReportCount by id"),
)

// SlogAPI logs reports through log/slog and mirrors them as otel metrics.
type SlogAPI struct{}

// logArgs prefixes params with the report id. A trailing key without a
// value is kept under "extra" instead of becoming a !BADKEY.
func logArgs(id string, params []any) []any {
	args := make([]any, 0, len(params)+3)
	args = append(args, "id", id)
	if len(params)%2 == 1 {
		args = append(args, params[:len(params)-1]...)
		return append(args, "extra", params[len(params)-1])
	}
	return append(args, params...)
}

func (SlogAPI) report(kind, id string) {
	reportCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("id", id),
	))
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	s.report("broken", id)
	slog.Error("scrape degraded", logArgs(id, params)...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	s.report("warning", id)
	slog.Warn("scrape warning", logArgs(id, params)...)
}

func (SlogAPI) ReportCount(id string, count int64) {
	reportedGauge.Record(context.Background(), count, metric.WithAttributes(attribute.String("id", id)))
	slog.Info("count", "id", id, "n", count)
}
