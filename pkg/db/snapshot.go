package db

import (
	"database/sql"

	"gorm.io/gorm"
)

// ReadSnapshot returns transaction options under which every statement of a
// read sees the same snapshot. sqlite transactions are serializable already and
// its driver rejects explicit isolation levels.
func ReadSnapshot(conn *gorm.DB) []*sql.TxOptions {
	if conn == nil || conn.Config == nil || conn.Dialector == nil || conn.Dialector.Name() == "sqlite" {
		return nil
	}
	return []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead, ReadOnly: true}}
}
