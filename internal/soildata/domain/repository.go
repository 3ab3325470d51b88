package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists measurements. Every method runs on the handle it is
// given so callers can pass a transaction.
type Repository interface {
	List(ctx context.Context, db *gorm.DB, q Query) ([]*SoilData, error)
	Count(ctx context.Context, db *gorm.DB, f Filter) (int64, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*SoilData, error)
	Insert(ctx context.Context, db *gorm.DB, record *SoilData) error
	Update(ctx context.Context, db *gorm.DB, record *SoilData) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	BulkInsert(ctx context.Context, db *gorm.DB, records []*SoilData) error
}
