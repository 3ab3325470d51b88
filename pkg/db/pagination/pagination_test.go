package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name        string
		page, limit int
		bounds      Bounds
		want        Pagination
	}{
		{name: "defaults", want: Pagination{Page: 1, Limit: 50}, bounds: DefaultBounds()},
		{name: "negative page", page: -3, limit: 10, bounds: DefaultBounds(), want: Pagination{Page: 1, Limit: 10}},
		{name: "zero limit", page: 2, limit: 0, bounds: DefaultBounds(), want: Pagination{Page: 2, Limit: 50}},
		{name: "clamped", page: 1, limit: 1000, bounds: DefaultBounds(), want: Pagination{Page: 1, Limit: 250}},
		{name: "custom bounds", page: 4, limit: 0, bounds: Bounds{DefaultLimit: 10, MaxLimit: 20}, want: Pagination{Page: 4, Limit: 10}},
		{name: "huge page capped", page: math.MaxInt, limit: 50, bounds: DefaultBounds(), want: Pagination{Page: math.MaxInt / 50, Limit: 50}},
		{name: "broken bounds", page: 1, limit: 0, bounds: Bounds{}, want: Pagination{Page: 1, Limit: 50}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.page, tc.limit, tc.bounds))
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Pagination{Page: 1, Limit: 50}.Offset())
	assert.Equal(t, 100, Pagination{Page: 3, Limit: 50}.Offset())
	assert.Equal(t, 0, Pagination{}.Offset())
}

func TestOffsetDoesNotWrap(t *testing.T) {
	for _, limit := range []int{1, 7, 50, 250} {
		offset := Pagination{Page: math.MaxInt, Limit: limit}.Offset()
		assert.Positive(t, offset, "limit %d", limit)
		assert.LessOrEqual(t, offset, math.MaxInt-limit, "limit %d", limit)

		resolved := Resolve(math.MaxInt, limit, Bounds{DefaultLimit: 1, MaxLimit: 250})
		assert.Equal(t, offset, resolved.Offset(), "limit %d", limit)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}
