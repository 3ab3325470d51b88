package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	soildatadomain "github.com/smallbiznis/soildata/internal/soildata/domain"
	"github.com/smallbiznis/soildata/pkg/db/option"
	"github.com/smallbiznis/soildata/pkg/repository"
	"gorm.io/gorm"
)

const bulkInsertChunk = 200

type repo struct {
	store repository.Repository[soildatadomain.SoilData]
}

func Provide(db *gorm.DB) soildatadomain.Repository {
	return &repo{store: repository.ProvideStore[soildatadomain.SoilData](db)}
}

// List returns one page ordered by timestamp, newest first. Order among equal
// timestamps is whatever the datastore yields.
func (r *repo) List(ctx context.Context, db *gorm.DB, q soildatadomain.Query) ([]*soildatadomain.SoilData, error) {
	stmt := applyFilter(db.WithContext(ctx).Model(&soildatadomain.SoilData{}), q.Filter)
	for _, opt := range []option.QueryOption{
		option.WithOrder("timestamp DESC"),
		option.WithLimit(q.Page.Limit),
		option.WithOffset(q.Page.Offset()),
	} {
		stmt = opt.Apply(stmt)
	}

	var items []*soildatadomain.SoilData
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, f soildatadomain.Filter) (int64, error) {
	var total int64
	err := applyFilter(db.WithContext(ctx).Model(&soildatadomain.SoilData{}), f).Count(&total).Error
	return total, err
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*soildatadomain.SoilData, error) {
	return r.store.WithTrx(db).FindOne(ctx, &soildatadomain.SoilData{ID: id})
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *soildatadomain.SoilData) error {
	return r.store.WithTrx(db).Create(ctx, record)
}

// Update writes every mutable column, zero values included.
func (r *repo) Update(ctx context.Context, db *gorm.DB, record *soildatadomain.SoilData) error {
	return r.store.WithTrx(db).Update(ctx, record.ID, map[string]any{
		"plot_id":     record.PlotID,
		"moisture":    record.Moisture,
		"ph":          record.PH,
		"temperature": record.Temperature,
		"timestamp":   record.Timestamp,
		"updated_at":  record.UpdatedAt,
	})
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return r.store.WithTrx(db).Delete(ctx, id)
}

func (r *repo) BulkInsert(ctx context.Context, db *gorm.DB, records []*soildatadomain.SoilData) error {
	if len(records) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(records, bulkInsertChunk).Error
}

func applyFilter(stmt *gorm.DB, f soildatadomain.Filter) *gorm.DB {
	if f.PlotID != nil {
		stmt = stmt.Where("plot_id = ?", *f.PlotID)
	}
	if f.FromDate != nil {
		stmt = stmt.Where("timestamp >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		stmt = stmt.Where("timestamp <= ?", *f.ToDate)
	}
	stmt = applyRange(stmt, "moisture", f.MinMoisture, f.MaxMoisture)
	stmt = applyRange(stmt, "ph", f.MinPH, f.MaxPH)
	return applyRange(stmt, "temperature", f.MinTemperature, f.MaxTemperature)
}

func applyRange(stmt *gorm.DB, column string, lo, hi *float64) *gorm.DB {
	if lo != nil {
		stmt = stmt.Where(column+" >= ?", *lo)
	}
	if hi != nil {
		stmt = stmt.Where(column+" <= ?", *hi)
	}
	return stmt
}
