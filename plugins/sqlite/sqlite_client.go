package sqlite

import (
	"gorm.io/driver/sqlite"

	"github.com/longkeyy/go-dsloader/common/rdbms"
	"github.com/longkeyy/go-dsloader/common/source"
)

var factory = rdbms.FuncFactory{
	DSNFunc: func(src *source.RdbmsSource) (string, error) {
		return rdbms.SQLitePath(src.URL)
	},
	OpenFunc: rdbms.GormOpener(sqlite.Open),
}

func NewSQLClient() any {
	return rdbms.NewClient(factory, rdbms.SQLite)
}

func NewTableClient() any {
	return rdbms.NewTableClient(factory, rdbms.SQLiteTable)
}
