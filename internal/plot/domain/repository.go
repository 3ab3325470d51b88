package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/soildata/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, plot *Plot) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Plot, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Plot, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*Plot, error)
	Exists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	List(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*Plot, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	CountMeasurements(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
