package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	plotdomain "github.com/smallbiznis/soildata/internal/plot/domain"
	"github.com/smallbiznis/soildata/pkg/db/option"
	"github.com/smallbiznis/soildata/pkg/db/pagination"
	"github.com/smallbiznis/soildata/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	store repository.Repository[plotdomain.Plot]
}

func Provide(db *gorm.DB) plotdomain.Repository {
	return &repo{store: repository.ProvideStore[plotdomain.Plot](db)}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *plotdomain.Plot) error {
	return r.store.WithTrx(db).Create(ctx, p)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*plotdomain.Plot, error) {
	return r.store.WithTrx(db).FindOne(ctx, &plotdomain.Plot{ID: id})
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*plotdomain.Plot, error) {
	if slug == "" {
		return nil, nil
	}
	return r.store.WithTrx(db).FindOne(ctx, &plotdomain.Plot{Slug: slug})
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*plotdomain.Plot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.store.WithTrx(db).Find(ctx, nil,
		option.WithSelect("id", "name"),
		option.WithIDs("id", ids),
	)
}

func (r *repo) Exists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	if id == 0 {
		return false, nil
	}
	return r.store.WithTrx(db).Exists(ctx, &plotdomain.Plot{ID: id})
}

func (r *repo) List(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*plotdomain.Plot, error) {
	return r.store.WithTrx(db).Find(ctx, nil,
		option.WithOrder("created_at DESC"),
		option.WithOrder("id DESC"),
		option.WithLimit(page.Limit),
		option.WithOffset(page.Offset()),
	)
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	return r.store.WithTrx(db).Count(ctx, nil)
}

// CountMeasurements reports how many soil_data rows still reference the plot.
func (r *repo) CountMeasurements(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Table("soil_data").Where("plot_id = ?", id).Count(&count).Error
	return count, err
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return r.store.WithTrx(db).Delete(ctx, id)
}
