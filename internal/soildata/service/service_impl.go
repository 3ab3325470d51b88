package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/soildata/internal/clock"
	"github.com/smallbiznis/soildata/internal/config"
	obscontext "github.com/smallbiznis/soildata/internal/observability/context"
	obslogger "github.com/smallbiznis/soildata/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/soildata/internal/observability/metrics"
	plotdomain "github.com/smallbiznis/soildata/internal/plot/domain"
	soildatadomain "github.com/smallbiznis/soildata/internal/soildata/domain"
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
	Repo    soildatadomain.Repository
	Plots   plotdomain.Directory
	Listing *config.ListingConfigHolder `optional:"true"`
	Metrics *obsmetrics.Metrics         `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    soildatadomain.Repository
	plots   plotdomain.Directory
	listing *config.ListingConfigHolder
	metrics *obsmetrics.Metrics
}

func New(p Params) soildatadomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("soildata.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		plots:   p.Plots,
		listing: p.Listing,
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, req soildatadomain.ListRequest) (*soildatadomain.ListResponse, error) {
	ctx = obscontext.WithOperation(ctx, "soildata.list")

	listing := s.listing.Get()
	q := soildatadomain.ResolveQuery(req, pagination.Bounds{
		DefaultLimit: listing.DefaultLimit,
		MaxLimit:     listing.MaxLimit,
	})

	var (
		total int64
		data  []soildatadomain.Response
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		total, err = s.repo.Count(ctx, tx, q.Filter)
		if err != nil {
			return err
		}

		items, err := s.repo.List(ctx, tx, q)
		if err != nil {
			return err
		}

		data, err = s.toResponses(ctx, tx, items)
		return err
	}, db.ReadSnapshot(s.db)...)
	if err != nil {
		return nil, s.fail(ctx, "", err)
	}

	return &soildatadomain.ListResponse{
		Data:       data,
		Total:      total,
		Page:       q.Page.Page,
		Limit:      q.Page.Limit,
		TotalPages: pagination.TotalPages(total, q.Page.Limit),
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*soildatadomain.Response, error) {
	ctx = obscontext.WithOperation(ctx, "soildata.get")

	recordID, err := soildatadomain.ParseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, recordID)
	if err != nil {
		return nil, s.fail(ctx, id, err)
	}
	if item == nil {
		return nil, soildatadomain.ErrNotFound
	}

	resp, err := s.toResponse(ctx, s.db, item)
	if err != nil {
		return nil, s.fail(ctx, id, err)
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, req soildatadomain.CreateRequest) (*soildatadomain.Response, error) {
	ctx = obscontext.WithOperation(ctx, "soildata.create")

	if err := soildatadomain.ValidateCreate(req); err != nil {
		s.recordRejection(ctx, err)
		return nil, err
	}
	plotID, _ := soildatadomain.ParsePlotID(req.PlotID)

	exists, err := s.plots.Exists(ctx, s.db, plotID)
	if err != nil {
		return nil, s.fail(ctx, "", err)
	}
	if !exists {
		return nil, soildatadomain.ErrPlotNotFound
	}

	record := s.newRecord(plotID, req, s.clock.Now())
	if err := s.repo.Insert(ctx, s.db, record); err != nil {
		if db.IsForeignKeyErr(err) {
			return nil, soildatadomain.ErrPlotNotFound
		}
		return nil, s.fail(ctx, record.ID.String(), err)
	}

	s.metrics.RecordMeasurementsCreated(ctx, "single", 1)
	obslogger.WithRecord(s.log, "soil_data", record.ID.String()).Info("soil data created",
		zap.String("plot_id", plotID.String()),
	)

	resp, err := s.toResponse(ctx, s.db, record)
	if err != nil {
		return nil, s.fail(ctx, record.ID.String(), err)
	}
	return resp, nil
}

// Update applies a partial payload. The plot is only re-checked when the
// payload moves the record to a different plot.
func (s *Service) Update(ctx context.Context, id string, req soildatadomain.UpdateRequest) (*soildatadomain.Response, error) {
	ctx = obscontext.WithOperation(ctx, "soildata.update")

	recordID, err := soildatadomain.ParseID(id)
	if err != nil {
		return nil, err
	}

	var updated *soildatadomain.SoilData
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, recordID)
		if err != nil {
			return err
		}
		if item == nil {
			return soildatadomain.ErrNotFound
		}

		if err := soildatadomain.ValidateUpdate(req); err != nil {
			s.recordRejection(ctx, err)
			return err
		}

		if req.PlotID != nil {
			plotID, _ := soildatadomain.ParsePlotID(*req.PlotID)
			if plotID != item.PlotID {
				exists, err := s.plots.Exists(ctx, tx, plotID)
				if err != nil {
					return err
				}
				if !exists {
					return soildatadomain.ErrPlotNotFound
				}
				item.PlotID = plotID
			}
		}
		if req.Moisture != nil {
			item.Moisture = *req.Moisture
		}
		if req.PH != nil {
			item.PH = *req.PH
		}
		if req.Temperature != nil {
			item.Temperature = *req.Temperature
		}
		if req.Timestamp != nil {
			item.Timestamp = req.Timestamp.UTC()
		}
		item.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, item); err != nil {
			if db.IsForeignKeyErr(err) {
				return soildatadomain.ErrPlotNotFound
			}
			return err
		}

		updated, err = s.repo.FindByID(ctx, tx, recordID)
		if err != nil {
			return err
		}
		if updated == nil {
			return soildatadomain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, id, err)
	}

	s.metrics.RecordMeasurementUpdated(ctx)
	obslogger.WithRecord(s.log, "soil_data", id).Info("soil data updated")

	resp, err := s.toResponse(ctx, s.db, updated)
	if err != nil {
		return nil, s.fail(ctx, id, err)
	}
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ctx = obscontext.WithOperation(ctx, "soildata.delete")

	recordID, err := soildatadomain.ParseID(id)
	if err != nil {
		return err
	}

	item, err := s.repo.FindByID(ctx, s.db, recordID)
	if err != nil {
		return s.fail(ctx, id, err)
	}
	if item == nil {
		return soildatadomain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, s.db, recordID); err != nil {
		return s.fail(ctx, id, err)
	}

	s.metrics.RecordMeasurementDeleted(ctx)
	obslogger.WithRecord(s.log, "soil_data", id).Info("soil data deleted")
	return nil
}

// BulkCreate stores the whole batch or nothing. Every item is validated before
// the transaction opens; plot checks and inserts share one transaction.
func (s *Service) BulkCreate(ctx context.Context, req soildatadomain.BulkCreateRequest) (*soildatadomain.BulkCreateResponse, error) {
	ctx = obscontext.WithOperation(ctx, "soildata.bulk_create")

	if len(req.Items) == 0 {
		return nil, soildatadomain.ErrEmptyBatch
	}
	if len(req.Items) > soildatadomain.MaxBatchSize {
		return nil, soildatadomain.ErrBatchTooLarge
	}

	plotIDs := make([]snowflake.ID, len(req.Items))
	for i, item := range req.Items {
		if err := soildatadomain.ValidateCreate(item); err != nil {
			s.recordRejection(ctx, err)
			return nil, &soildatadomain.BatchItemError{Index: i, Err: err}
		}
		plotIDs[i], _ = soildatadomain.ParsePlotID(item.PlotID)
	}

	now := s.clock.Now()
	records := make([]*soildatadomain.SoilData, len(req.Items))
	for i, item := range req.Items {
		records[i] = s.newRecord(plotIDs[i], item, now)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		checked := make(map[snowflake.ID]struct{}, len(plotIDs))
		for i, plotID := range plotIDs {
			if _, ok := checked[plotID]; ok {
				continue
			}
			exists, err := s.plots.Exists(ctx, tx, plotID)
			if err != nil {
				return err
			}
			if !exists {
				return &soildatadomain.BatchItemError{Index: i, Err: soildatadomain.ErrPlotNotFound}
			}
			checked[plotID] = struct{}{}
		}

		if err := s.repo.BulkInsert(ctx, tx, records); err != nil {
			if db.IsForeignKeyErr(err) {
				return soildatadomain.ErrPlotNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "", err)
	}

	s.metrics.RecordMeasurementsCreated(ctx, "bulk", len(records))
	obslogger.FromContext(ctx).Info("soil data batch created", zap.Int("count", len(records)))

	data, err := s.toResponses(ctx, s.db, records)
	if err != nil {
		return nil, s.fail(ctx, "", err)
	}
	return &soildatadomain.BulkCreateResponse{Data: data}, nil
}

func (s *Service) newRecord(plotID snowflake.ID, req soildatadomain.CreateRequest, now time.Time) *soildatadomain.SoilData {
	return &soildatadomain.SoilData{
		ID:          s.genID.Generate(),
		PlotID:      plotID,
		Moisture:    *req.Moisture,
		PH:          *req.PH,
		Temperature: *req.Temperature,
		Timestamp:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// fail logs unexpected errors with the operation and record id. Client and
// not-found errors pass through untouched.
func (s *Service) fail(ctx context.Context, recordID string, err error) error {
	if isExpected(err) {
		return err
	}
	obslogger.WithRecord(obslogger.WithContext(ctx, s.log), "soil_data", recordID).
		Error("soil data operation failed", zap.Error(err))
	return err
}

func (s *Service) recordRejection(ctx context.Context, err error) {
	var item *soildatadomain.BatchItemError
	if errors.As(err, &item) {
		err = item.Err
	}
	var v soildatadomain.Violation
	if errors.As(err, &v) {
		s.metrics.RecordValidationRejected(ctx, v.ViolationField(), v.ViolationCode())
	}
}

func isExpected(err error) bool {
	return soildatadomain.IsValidation(err) ||
		errors.Is(err, soildatadomain.ErrNotFound) ||
		errors.Is(err, soildatadomain.ErrPlotNotFound)
}

func (s *Service) toResponse(ctx context.Context, tx *gorm.DB, item *soildatadomain.SoilData) (*soildatadomain.Response, error) {
	out, err := s.toResponses(ctx, tx, []*soildatadomain.SoilData{item})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// toResponses attaches plot projections with one lookup for the whole slice.
func (s *Service) toResponses(ctx context.Context, tx *gorm.DB, items []*soildatadomain.SoilData) ([]soildatadomain.Response, error) {
	ids := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.PlotID)
	}

	summaries, err := s.plots.Summaries(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]soildatadomain.Response, 0, len(items))
	for _, item := range items {
		resp := soildatadomain.Response{
			ID:          item.ID.String(),
			PlotID:      item.PlotID.String(),
			Moisture:    item.Moisture,
			PH:          item.PH,
			Temperature: item.Temperature,
			Timestamp:   item.Timestamp,
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
		}
		if summary, ok := summaries[item.PlotID]; ok {
			summary := summary
			resp.Plot = &summary
		}
		out = append(out, resp)
	}
	return out, nil
}
