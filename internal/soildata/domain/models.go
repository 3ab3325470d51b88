package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SoilData is a single soil reading taken on a plot.
type SoilData struct {
	ID          snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	PlotID      snowflake.ID `gorm:"column:plot_id;not null;index:idx_soil_data_plot_id"`
	Moisture    float64      `gorm:"type:numeric(5,2);not null"`
	PH          float64      `gorm:"column:ph;type:numeric(4,2);not null"`
	Temperature float64      `gorm:"type:numeric(4,1);not null"`
	Timestamp   time.Time    `gorm:"not null;index:idx_soil_data_timestamp,sort:desc"`
	CreatedAt   time.Time    `gorm:"not null"`
	UpdatedAt   time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (SoilData) TableName() string { return "soil_data" }
