package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Plot is a physical growing area that soil measurements are taken from.
type Plot struct {
	ID        snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	Name      string       `gorm:"type:varchar(120);not null"`
	Slug      string       `gorm:"type:varchar(160);not null;uniqueIndex:ux_plots_slug"`
	Metadata  datatypes.JSONMap
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (Plot) TableName() string { return "plots" }

// Summary is the minimal projection attached to measurement reads.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
