package fleetmetrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	plotdomain "github.com/smallbiznis/soildata/internal/plot/domain"
	soildatadomain "github.com/smallbiznis/soildata/internal/soildata/domain"
	"gorm.io/gorm"
)

// Gauges is the fleet snapshot pushed upstream. It lives on its own registry
// so it never leaks into the service's /metrics output.
type Gauges struct {
	registry *prometheus.Registry

	plots        prometheus.Gauge
	measurements prometheus.Gauge
	newestAge    prometheus.Gauge
	memory       prometheus.Gauge
}

func NewGauges(constLabels prometheus.Labels) *Gauges {
	reg := prometheus.NewRegistry()
	g := &Gauges{
		registry: reg,
		plots: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "soildata_fleet_plots_total",
			Help:        "Number of plots stored by this instance.",
			ConstLabels: constLabels,
		}),
		measurements: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "soildata_fleet_measurements_total",
			Help:        "Number of soil data measurements stored by this instance.",
			ConstLabels: constLabels,
		}),
		newestAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "soildata_fleet_newest_measurement_age_seconds",
			Help:        "Seconds since the newest measurement timestamp, 0 when there are none.",
			ConstLabels: constLabels,
		}),
		memory: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "soildata_fleet_process_memory_bytes",
			Help:        "Memory obtained from the OS by the process.",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(g.plots, g.measurements, g.newestAge, g.memory)
	return g
}

func (g *Gauges) Registry() *prometheus.Registry {
	return g.registry
}

// Refresh reloads every gauge from the database and the runtime.
func (g *Gauges) Refresh(ctx context.Context, db *gorm.DB, now time.Time) error {
	var plots, measurements int64
	if err := db.WithContext(ctx).Model(&plotdomain.Plot{}).Count(&plots).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Model(&soildatadomain.SoilData{}).Count(&measurements).Error; err != nil {
		return err
	}

	var newest soildatadomain.SoilData
	res := db.WithContext(ctx).
		Select("timestamp").
		Order("timestamp DESC").
		Limit(1).
		Find(&newest)
	if res.Error != nil {
		return res.Error
	}

	age := 0.0
	if res.RowsAffected > 0 && now.After(newest.Timestamp) {
		age = now.Sub(newest.Timestamp).Seconds()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	g.plots.Set(float64(plots))
	g.measurements.Set(float64(measurements))
	g.newestAge.Set(age)
	g.memory.Set(float64(mem.Sys))
	return nil
}
