package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/soildata/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID   int64  `gorm:"primaryKey"`
	Kind string `gorm:"not null"`
	Name string `gorm:"not null"`
}

func setupStore(t *testing.T) (Repository[widget], *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&widget{}))

	return ProvideStore[widget](db), db
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)

	require.NoError(t, store.BatchCreate(ctx, []*widget{
		{ID: 1, Kind: "a", Name: "one"},
		{ID: 2, Kind: "a", Name: "two"},
		{ID: 3, Kind: "b", Name: "three"},
	}))

	items, err := store.Find(ctx, &widget{Kind: "a"}, option.WithOrder("id DESC"))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)

	paged, err := store.Find(ctx, nil, option.WithOrder("id ASC"), option.WithOffset(1), option.WithLimit(1))
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, int64(2), paged[0].ID)

	byIDs, err := store.Find(ctx, nil, option.WithIDs("id", []int64{1, 3}))
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	one, err := store.FindOne(ctx, &widget{ID: 3})
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, "three", one.Name)

	missing, err := store.FindOne(ctx, &widget{ID: 99})
	require.NoError(t, err)
	assert.Nil(t, missing)

	exists, err := store.Exists(ctx, &widget{ID: 1})
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Update(ctx, 1, map[string]any{"name": "uno"}))
	one, err = store.FindOne(ctx, &widget{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, "uno", one.Name)

	require.NoError(t, store.Delete(ctx, 1))
	count, err := store.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestStoreWithTrxRollsBack(t *testing.T) {
	ctx := context.Background()
	store, db := setupStore(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := store.WithTrx(tx).Create(ctx, &widget{ID: 10, Kind: "a", Name: "x"}); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})
	require.ErrorIs(t, err, gorm.ErrInvalidData)

	exists, err := store.Exists(ctx, &widget{ID: 10})
	require.NoError(t, err)
	assert.False(t, exists)
}
