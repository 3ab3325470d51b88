package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/soildata/pkg/db/pagination"
)

// Filter narrows a measurement listing. Nil bounds are unconstrained and every
// bound is inclusive. Contradictory bounds (min > max) are allowed and simply
// match nothing.
type Filter struct {
	PlotID         *snowflake.ID
	FromDate       *time.Time
	ToDate         *time.Time
	MinMoisture    *float64
	MaxMoisture    *float64
	MinPH          *float64
	MaxPH          *float64
	MinTemperature *float64
	MaxTemperature *float64
}

// ListRequest is a parsed but unresolved listing request. Page and Limit are
// zero when absent.
type ListRequest struct {
	Filter
	Page  int
	Limit int
}

// Query is a resolved listing request ready for the repository.
type Query struct {
	Filter Filter
	Page   pagination.Pagination
}

// ResolveQuery applies paging defaults and the limit ceiling.
func ResolveQuery(req ListRequest, bounds pagination.Bounds) Query {
	return Query{
		Filter: req.Filter,
		Page:   pagination.Resolve(req.Page, req.Limit, bounds),
	}
}
