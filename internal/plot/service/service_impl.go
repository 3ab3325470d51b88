package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/soildata/internal/clock"
	"github.com/smallbiznis/soildata/internal/config"
	obslogger "github.com/smallbiznis/soildata/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/soildata/internal/observability/metrics"
	plotdomain "github.com/smallbiznis/soildata/internal/plot/domain"
	"github.com/smallbiznis/soildata/pkg/db"
	"github.com/smallbiznis/soildata/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    plotdomain.Repository
	Listing *config.ListingConfigHolder `optional:"true"`
	Metrics *obsmetrics.Metrics         `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    plotdomain.Repository
	listing *config.ListingConfigHolder
	metrics *obsmetrics.Metrics
}

func New(p Params) plotdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("plot.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		listing: p.Listing,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req plotdomain.CreateRequest) (*plotdomain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > plotdomain.MaxNameLength {
		return nil, plotdomain.ErrInvalidName
	}

	plotSlug := slug.Make(name)
	if plotSlug == "" {
		return nil, plotdomain.ErrInvalidName
	}

	existing, err := s.repo.FindBySlug(ctx, s.db, plotSlug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, plotdomain.ErrNameTaken
	}

	now := s.clock.Now()
	p := &plotdomain.Plot{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      plotSlug,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, p); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, plotdomain.ErrNameTaken
		}
		return nil, err
	}

	s.metrics.RecordPlotCreated(ctx)
	obslogger.WithRecord(s.log, "plot", p.ID.String()).Info("plot created", zap.String("slug", p.Slug))
	return toResponse(p), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*plotdomain.Response, error) {
	plotID, err := plotdomain.ParseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, plotID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, plotdomain.ErrNotFound
	}

	return toResponse(item), nil
}

func (s *Service) List(ctx context.Context, req plotdomain.ListRequest) (*plotdomain.ListResponse, error) {
	listing := s.listing.Get()
	page := pagination.Resolve(req.Page, req.Limit, pagination.Bounds{
		DefaultLimit: listing.DefaultLimit,
		MaxLimit:     listing.MaxLimit,
	})

	total, err := s.repo.Count(ctx, s.db)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, s.db, page)
	if err != nil {
		return nil, err
	}

	data := make([]plotdomain.Response, 0, len(items))
	for _, item := range items {
		data = append(data, *toResponse(item))
	}

	return &plotdomain.ListResponse{
		Data:       data,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: pagination.TotalPages(total, page.Limit),
	}, nil
}

// Delete removes an unused plot. Plots still referenced by measurements are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	plotID, err := plotdomain.ParseID(id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, plotID)
		if err != nil {
			return err
		}
		if item == nil {
			return plotdomain.ErrNotFound
		}

		inUse, err := s.repo.CountMeasurements(ctx, tx, plotID)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return plotdomain.ErrInUse
		}

		if err := s.repo.Delete(ctx, tx, plotID); err != nil {
			if db.IsForeignKeyErr(err) {
				return plotdomain.ErrInUse
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordPlotDeleted(ctx)
	obslogger.WithRecord(s.log, "plot", plotID.String()).Info("plot deleted")
	return nil
}

func toResponse(p *plotdomain.Plot) *plotdomain.Response {
	return &plotdomain.Response{
		ID:        p.ID.String(),
		Name:      p.Name,
		Slug:      p.Slug,
		Metadata:  p.Metadata,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
