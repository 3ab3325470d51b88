package db

import (
	"database/sql"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestReadSnapshot(t *testing.T) {
	assert.Nil(t, ReadSnapshot(nil))
	assert.Nil(t, ReadSnapshot(&gorm.DB{Config: &gorm.Config{Dialector: sqlite.Open(":memory:")}}))

	for _, dialector := range []gorm.Dialector{
		postgres.New(postgres.Config{DSN: "host=localhost"}),
		mysql.New(mysql.Config{DSN: "root@tcp(localhost:3306)/soildata"}),
	} {
		opts := ReadSnapshot(&gorm.DB{Config: &gorm.Config{Dialector: dialector}})
		require.Len(t, opts, 1, dialector.Name())
		assert.Equal(t, sql.LevelRepeatableRead, opts[0].Isolation)
		assert.True(t, opts[0].ReadOnly)
	}
}
