package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/soildata/internal/clock"
	plotdomain "github.com/smallbiznis/soildata/internal/plot/domain"
	soildatadomain "github.com/smallbiznis/soildata/internal/soildata/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const readingsPerPlot = 3

var samplePlots = []struct {
	Name string
	Crop string
}{
	{"North Field", "maize"},
	{"Riverside Orchard", "apple"},
	{"Greenhouse 1", "tomato"},
}

// Sample ranges are narrower than the accepted ranges so seeded readings
// look like a healthy field.
var (
	moistureRange    = [2]float64{20, 45}
	phRange          = [2]float64{5.5, 8.5}
	temperatureRange = [2]float64{15, 30}
)

type Seeder struct {
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
	rng   *rand.Rand
	log   *zap.Logger
}

func NewSeeder(db *gorm.DB, genID *snowflake.Node, clk clock.Clock, rng *rand.Rand, log *zap.Logger) *Seeder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{db: db, genID: genID, clock: clk, rng: rng, log: log.Named("seed")}
}

// EnsureSampleData creates sample plots with a few days of readings each.
// It does nothing when any plot already exists and reports whether it seeded.
func (s *Seeder) EnsureSampleData(ctx context.Context) (bool, error) {
	if s.db == nil {
		return false, errors.New("seed database handle is required")
	}

	seeded := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&plotdomain.Plot{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := s.clock.Now().UTC()
		plots := make([]plotdomain.Plot, 0, len(samplePlots))
		for _, p := range samplePlots {
			plots = append(plots, plotdomain.Plot{
				ID:        s.genID.Generate(),
				Name:      p.Name,
				Slug:      slug.Make(p.Name),
				Metadata:  datatypes.JSONMap{"crop": p.Crop, "sample": true},
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		if err := tx.Create(&plots).Error; err != nil {
			return fmt.Errorf("create sample plots: %w", err)
		}

		records := make([]soildatadomain.SoilData, 0, len(plots)*readingsPerPlot)
		for _, p := range plots {
			for day := 0; day < readingsPerPlot; day++ {
				records = append(records, s.reading(p.ID, now.AddDate(0, 0, -day)))
			}
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("create sample readings: %w", err)
		}

		seeded = true
		s.log.Info("sample data created",
			zap.Int("plots", len(plots)),
			zap.Int("measurements", len(records)),
		)
		return nil
	})
	return seeded, err
}

func (s *Seeder) reading(plotID snowflake.ID, at time.Time) soildatadomain.SoilData {
	return soildatadomain.SoilData{
		ID:          s.genID.Generate(),
		PlotID:      plotID,
		Moisture:    s.between(soildatadomain.MoistureRule, moistureRange),
		PH:          s.between(soildatadomain.PHRule, phRange),
		Temperature: s.between(soildatadomain.TemperatureRule, temperatureRange),
		Timestamp:   at,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func (s *Seeder) between(rule soildatadomain.FieldRule, bounds [2]float64) float64 {
	return rule.Round(bounds[0] + s.rng.Float64()*(bounds[1]-bounds[0]))
}
