package repomanager

import (
	"database/sql"
	"time"
)

// PoolLimits bounds the connection pool shared by all flows.
type PoolLimits struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (l PoolLimits) apply(db *sql.DB) {
	if l.MaxOpenConns > 0 {
		db.SetMaxOpenConns(l.MaxOpenConns)
	}
	if l.MaxIdleConns > 0 {
		db.SetMaxIdleConns(l.MaxIdleConns)
	}
	if l.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(l.ConnMaxLifetime)
	}
}
