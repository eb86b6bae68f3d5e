package sqlserver

import (
	"gorm.io/driver/sqlserver"

	"github.com/longkeyy/go-dsloader/common/rdbms"
	"github.com/longkeyy/go-dsloader/common/source"
)

var factory = rdbms.FuncFactory{
	DSNFunc: func(src *source.RdbmsSource) (string, error) {
		return rdbms.SQLServerDSN(src.URL, src.Username, src.Password)
	},
	OpenFunc: rdbms.GormOpener(sqlserver.Open),
}

func NewSQLClient() any {
	return rdbms.NewClient(factory, rdbms.SQLServer)
}
