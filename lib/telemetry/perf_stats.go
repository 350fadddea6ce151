package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("listingscraper.perf_stats")
var cpuGauge, _ = meter.Float64Gauge("cpu_usage")
var memoryGauge, _ = meter.Int64Gauge("allocated_mb")
var goroutineGauge, _ = meter.Int64Gauge("goroutine_count")

// PerfSample is one reading of process resource usage.
type PerfSample struct {
	CPUPercent  float64
	AllocatedMB int64
	Goroutines  int64
}

// SamplePerf reads cpu usage since the previous call along with heap and
// goroutine counts.
func SamplePerf() (PerfSample, error) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	sample := PerfSample{
		AllocatedMB: int64(memStats.Alloc / 1_000_000),
		Goroutines:  int64(runtime.NumGoroutine()),
	}
	usage, err := cpu.Percent(0, false)
	if err != nil {
		return sample, err
	}
	if len(usage) > 0 {
		sample.CPUPercent = usage[0]
	}
	return sample, nil
}

// InstrumentPerfStats records a PerfSample every interval until ctx is done.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sample, err := SamplePerf()
				if err != nil {
					slog.DebugContext(ctx, "failed to read cpu usage", "err", err)
				} else {
					cpuGauge.Record(ctx, sample.CPUPercent)
				}
				memoryGauge.Record(ctx, sample.AllocatedMB)
				goroutineGauge.Record(ctx, sample.Goroutines)
			case <-ctx.Done():
				return
			}
		}
	}()
}
