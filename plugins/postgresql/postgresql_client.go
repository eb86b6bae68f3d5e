package postgresql

import (
	"gorm.io/driver/postgres"

	"github.com/longkeyy/go-dsloader/common/rdbms"
	"github.com/longkeyy/go-dsloader/common/source"
)

var factory = rdbms.FuncFactory{
	DSNFunc: func(src *source.RdbmsSource) (string, error) {
		return rdbms.PostgresDSN(src.URL, src.Username, src.Password)
	},
	OpenFunc: rdbms.GormOpener(postgres.Open),
}

func NewSQLClient() any {
	return rdbms.NewClient(factory, rdbms.Postgres)
}

func NewTableClient() any {
	return rdbms.NewTableClient(factory, rdbms.PostgresTable)
}
