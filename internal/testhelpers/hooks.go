package testhelpers

import (
	"testing"

	"gorm.io/gorm"
)

// BeforeCreate runs hook once, right before the next INSERT into table
// opens its transaction. conn writes through the same connection as the
// insert; stmt is the pending insert. An error from hook fails the insert.
//
// Used to make another writer win a uniqueness race between the service's
// existence check and its insert.
func BeforeCreate(t *testing.T, db *gorm.DB, table string, hook func(conn *gorm.DB, stmt *gorm.Statement) error) {
	t.Helper()

	fired := false
	err := db.Callback().Create().Before("gorm:begin_transaction").Register("testhelpers:before_create_"+table, func(tx *gorm.DB) {
		if fired || tx.Statement.Table != table {
			return
		}
		fired = true
		if err := hook(tx.Session(&gorm.Session{NewDB: true}), tx.Statement); err != nil {
			_ = tx.AddError(err)
		}
	})
	if err != nil {
		t.Fatalf("failed to register create hook: %v", err)
	}
}

// CountQueries counts the SELECT statements issued through db from now on
func CountQueries(t *testing.T, db *gorm.DB) *int {
	t.Helper()

	count := new(int)
	err := db.Callback().Query().Before("gorm:query").Register("testhelpers:count_queries", func(*gorm.DB) {
		*count++
	})
	if err != nil {
		t.Fatalf("failed to register query counter: %v", err)
	}
	return count
}
