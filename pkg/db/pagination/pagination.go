package pagination

import "math"

const (
	DefaultLimit = 50
	MaxLimit     = 250
)

// Pagination is a resolved page request. Page is 1-based.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Bounds configures how raw page/limit values are resolved.
type Bounds struct {
	DefaultLimit int
	MaxLimit     int
}

func DefaultBounds() Bounds {
	return Bounds{DefaultLimit: DefaultLimit, MaxLimit: MaxLimit}
}

// Resolve normalizes raw page/limit values. Non-positive values fall back to
// defaults, limits above the maximum are clamped and page is capped so the
// offset fits in an int.
func Resolve(page, limit int, bounds Bounds) Pagination {
	if bounds.DefaultLimit < 1 {
		bounds.DefaultLimit = DefaultLimit
	}
	if bounds.MaxLimit < bounds.DefaultLimit {
		bounds.MaxLimit = bounds.DefaultLimit
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = bounds.DefaultLimit
	}
	if limit > bounds.MaxLimit {
		limit = bounds.MaxLimit
	}
	if maxPage := MaxPage(limit); page > maxPage {
		page = maxPage
	}

	return Pagination{Page: page, Limit: limit}
}

// MaxPage is the highest page whose offset is representable for limit.
func MaxPage(limit int) int {
	if limit < 1 {
		return math.MaxInt
	}
	return math.MaxInt / limit
}

func (p Pagination) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	page := p.Page
	if maxPage := MaxPage(p.Limit); page > maxPage {
		page = maxPage
	}
	return (page - 1) * p.Limit
}

// TotalPages reports how many pages of size limit cover total rows.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit < 1 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
