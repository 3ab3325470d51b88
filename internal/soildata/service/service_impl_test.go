package service

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/soildata/internal/clock"
	"github.com/smallbiznis/soildata/internal/config"
	plotdomain "github.com/smallbiznis/soildata/internal/plot/domain"
	plotrepository "github.com/smallbiznis/soildata/internal/plot/repository"
	plotservice "github.com/smallbiznis/soildata/internal/plot/service"
	soildatadomain "github.com/smallbiznis/soildata/internal/soildata/domain"
	"github.com/smallbiznis/soildata/internal/soildata/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   soildatadomain.Service
	clock *clock.FakeClock
	node  *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&plotdomain.Plot{}, &soildatadomain.SoilData{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clk,
		Repo:    repository.Provide(db),
		Plots:   plotservice.NewDirectory(plotrepository.Provide(db)),
		Listing: config.NewStaticListingConfigHolder(config.DefaultListingConfig()),
	})

	return &fixture{db: db, svc: svc, clock: clk, node: node}
}

func (fx *fixture) plot(t *testing.T, name string) string {
	t.Helper()
	p := &plotdomain.Plot{
		ID:        fx.node.Generate(),
		Name:      name,
		Slug:      name,
		CreatedAt: fx.clock.Now(),
		UpdatedAt: fx.clock.Now(),
	}
	require.NoError(t, fx.db.Create(p).Error)
	return p.ID.String()
}

func (fx *fixture) count(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, fx.db.Model(&soildatadomain.SoilData{}).Count(&n).Error)
	return n
}

func num(v float64) *float64 { return &v }

func reading(plotID string, moisture, ph, temp float64) soildatadomain.CreateRequest {
	return soildatadomain.CreateRequest{PlotID: plotID, Moisture: num(moisture), PH: num(ph), Temperature: num(temp)}
}

func TestCreateThenRejectOutOfRangeUpdate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	plotID := fx.plot(t, "north")

	created, err := fx.svc.Create(ctx, reading(plotID, 45.67, 7.2, 23.5))
	require.NoError(t, err)
	assert.Equal(t, plotID, created.PlotID)
	assert.Equal(t, 45.67, created.Moisture)
	assert.Equal(t, 7.2, created.PH)
	assert.Equal(t, 23.5, created.Temperature)
	assert.True(t, created.Timestamp.Equal(fx.clock.Now()))
	require.NotNil(t, created.Plot)
	assert.Equal(t, "north", created.Plot.Name)

	_, err = fx.svc.Update(ctx, created.ID, soildatadomain.UpdateRequest{Moisture: num(150)})
	var rv *soildatadomain.RangeViolation
	require.ErrorAs(t, err, &rv)
	assert.Equal(t, "moisture", rv.Field)

	got, err := fx.svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 45.67, got.Moisture)
	assert.Equal(t, created.PlotID, got.PlotID)
	assert.Equal(t, created.PH, got.PH)
	assert.Equal(t, created.Temperature, got.Temperature)
}

func TestCreateRejections(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	plotID := fx.plot(t, "south")

	_, err := fx.svc.Create(ctx, reading("123456789", 30, 6.5, 20))
	assert.ErrorIs(t, err, soildatadomain.ErrPlotNotFound)

	_, err = fx.svc.Create(ctx, reading(plotID, 30, 14.5, 20))
	var rv *soildatadomain.RangeViolation
	require.ErrorAs(t, err, &rv)
	assert.Equal(t, "pH", rv.Field)

	_, err = fx.svc.Create(ctx, reading(plotID, 30, 6.5, 20.25))
	var pv *soildatadomain.PrecisionViolation
	require.ErrorAs(t, err, &pv)

	assert.Equal(t, int64(0), fx.count(t))
}

func TestCreateValidatesBeforePlotLookup(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, reading("123456789", 150, 6.5, 20))
	var rv *soildatadomain.RangeViolation
	require.ErrorAs(t, err, &rv)
	assert.Equal(t, "moisture", rv.Field)
	assert.NotErrorIs(t, err, soildatadomain.ErrPlotNotFound)
}

func TestUpdatePartialFields(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	first := fx.plot(t, "first")
	second := fx.plot(t, "second")

	created, err := fx.svc.Create(ctx, reading(first, 20, 6, 18))
	require.NoError(t, err)

	fx.clock.Advance(time.Hour)
	ts := time.Date(2024, 5, 30, 12, 0, 0, 0, time.UTC)
	updated, err := fx.svc.Update(ctx, created.ID, soildatadomain.UpdateRequest{
		PlotID:    &second,
		PH:        num(0),
		Timestamp: &ts,
	})
	require.NoError(t, err)
	assert.Equal(t, second, updated.PlotID)
	assert.Equal(t, 0.0, updated.PH)
	assert.Equal(t, 20.0, updated.Moisture)
	assert.Equal(t, 18.0, updated.Temperature)
	assert.True(t, updated.Timestamp.Equal(ts))
	require.NotNil(t, updated.Plot)
	assert.Equal(t, "second", updated.Plot.Name)

	missing := "987654321"
	_, err = fx.svc.Update(ctx, created.ID, soildatadomain.UpdateRequest{PlotID: &missing})
	assert.ErrorIs(t, err, soildatadomain.ErrPlotNotFound)

	_, err = fx.svc.Update(ctx, "111", soildatadomain.UpdateRequest{Moisture: num(10)})
	assert.ErrorIs(t, err, soildatadomain.ErrNotFound)

	_, err = fx.svc.Update(ctx, "not-an-id", soildatadomain.UpdateRequest{})
	assert.ErrorIs(t, err, soildatadomain.ErrInvalidID)
}

func TestUpdateSkipsPlotCheckWhenUnchanged(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	plotID := fx.plot(t, "gone")

	created, err := fx.svc.Create(ctx, reading(plotID, 25, 7, 21))
	require.NoError(t, err)
	require.NoError(t, fx.db.Exec("DELETE FROM plots WHERE id = ?", created.PlotID).Error)

	updated, err := fx.svc.Update(ctx, created.ID, soildatadomain.UpdateRequest{PlotID: &plotID, Moisture: num(26)})
	require.NoError(t, err)
	assert.Equal(t, 26.0, updated.Moisture)
	assert.Nil(t, updated.Plot)
}

func TestDelete(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	plotID := fx.plot(t, "east")

	created, err := fx.svc.Create(ctx, reading(plotID, 33.3, 6.8, 19.9))
	require.NoError(t, err)

	require.NoError(t, fx.svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, fx.svc.Delete(ctx, created.ID), soildatadomain.ErrNotFound)

	_, err = fx.svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, soildatadomain.ErrNotFound)
}

func TestListOrdersAndPaginates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	a := fx.plot(t, "a")
	b := fx.plot(t, "b")

	for i := 0; i < 60; i++ {
		plotID := a
		if i%3 == 0 {
			plotID = b
		}
		_, err := fx.svc.Create(ctx, reading(plotID, float64(i), 7, 20))
		require.NoError(t, err)
		fx.clock.Advance(time.Minute)
	}

	page, err := fx.svc.List(ctx, soildatadomain.ListRequest{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(60), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 50)
	for i := 1; i < len(page.Data); i++ {
		assert.False(t, page.Data[i].Timestamp.After(page.Data[i-1].Timestamp))
	}
	assert.Equal(t, 59.0, page.Data[0].Moisture)

	second, err := fx.svc.List(ctx, soildatadomain.ListRequest{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 50, second.Limit)
	assert.Len(t, second.Data, 10)

	bID, err := plotdomain.ParseID(b)
	require.NoError(t, err)
	onlyB, err := fx.svc.List(ctx, soildatadomain.ListRequest{Filter: soildatadomain.Filter{PlotID: &bID}})
	require.NoError(t, err)
	assert.Equal(t, int64(20), onlyB.Total)
	for _, item := range onlyB.Data {
		assert.Equal(t, b, item.PlotID)
		require.NotNil(t, item.Plot)
		assert.Equal(t, "b", item.Plot.Name)
	}
}

func TestListPageBeyondDataIsEmpty(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	plotID := fx.plot(t, "a")
	for i := 0; i < 3; i++ {
		_, err := fx.svc.Create(ctx, reading(plotID, 30, 7, 20))
		require.NoError(t, err)
	}

	for _, page := range []int{2, 1 << 20, math.MaxInt} {
		resp, err := fx.svc.List(ctx, soildatadomain.ListRequest{Page: page, Limit: 50})
		require.NoError(t, err)
		assert.Equal(t, int64(3), resp.Total, "page %d", page)
		assert.Empty(t, resp.Data, "page %d", page)
		assert.Equal(t, 1, resp.TotalPages)
	}

	capped, err := fx.svc.List(ctx, soildatadomain.ListRequest{Page: math.MaxInt, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt/50, capped.Page)
}

func TestListFilters(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	plotID := fx.plot(t, "filters")

	start := fx.clock.Now()
	for i, m := range []float64{0, 10, 20, 30} {
		_, err := fx.svc.Create(ctx, reading(plotID, m, 5+float64(i), -10+float64(i)*10))
		require.NoError(t, err)
		fx.clock.Advance(24 * time.Hour)
	}

	zero := 0.0
	res, err := fx.svc.List(ctx, soildatadomain.ListRequest{Filter: soildatadomain.Filter{MaxMoisture: &zero}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	lo, hi := 20.0, 10.0
	res, err = fx.svc.List(ctx, soildatadomain.ListRequest{Filter: soildatadomain.Filter{MinMoisture: &lo, MaxMoisture: &hi}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)
	assert.Empty(t, res.Data)

	minPH := 6.0
	maxTemp := 10.0
	res, err = fx.svc.List(ctx, soildatadomain.ListRequest{Filter: soildatadomain.Filter{MinPH: &minPH, MaxTemperature: &maxTemp}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)

	from := start.Add(24 * time.Hour)
	to := start.Add(48 * time.Hour)
	res, err = fx.svc.List(ctx, soildatadomain.ListRequest{Filter: soildatadomain.Filter{FromDate: &from, ToDate: &to}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
}

func TestBulkCreateIsAllOrNothing(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	plotID := fx.plot(t, "bulk")

	_, err := fx.svc.BulkCreate(ctx, soildatadomain.BulkCreateRequest{})
	assert.ErrorIs(t, err, soildatadomain.ErrEmptyBatch)

	_, err = fx.svc.BulkCreate(ctx, soildatadomain.BulkCreateRequest{Items: []soildatadomain.CreateRequest{
		reading(plotID, 20, 6, 18),
		reading(plotID, 21, 6, 18),
		reading(plotID, 101, 6, 18),
	}})
	var itemErr *soildatadomain.BatchItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, 2, itemErr.Index)
	assert.Equal(t, "items[2].moisture", itemErr.ViolationField())
	assert.Equal(t, int64(0), fx.count(t))

	_, err = fx.svc.BulkCreate(ctx, soildatadomain.BulkCreateRequest{Items: []soildatadomain.CreateRequest{
		reading(plotID, 20, 6, 18),
		reading("55555555", 21, 6, 18),
	}})
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, 1, itemErr.Index)
	assert.ErrorIs(t, err, soildatadomain.ErrPlotNotFound)
	assert.Equal(t, int64(0), fx.count(t))

	res, err := fx.svc.BulkCreate(ctx, soildatadomain.BulkCreateRequest{Items: []soildatadomain.CreateRequest{
		reading(plotID, 20, 6, 18),
		reading(plotID, 22.5, 6.25, 18.5),
	}})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, 22.5, res.Data[1].Moisture)
	require.NotNil(t, res.Data[0].Plot)
	assert.Equal(t, int64(2), fx.count(t))
}
