package oceanbase

import (
	"gorm.io/driver/mysql"

	"github.com/longkeyy/go-dsloader/common/rdbms"
	"github.com/longkeyy/go-dsloader/common/source"
)

// OceanBase MySQL 租户兼容 MySQL 协议
var factory = rdbms.FuncFactory{
	DSNFunc: func(src *source.RdbmsSource) (string, error) {
		return rdbms.MySQLDSN(src.URL, src.Username, src.Password)
	},
	OpenFunc: rdbms.GormOpener(mysql.Open),
}

func NewSQLClient() any {
	return rdbms.NewClient(factory, rdbms.OceanBaseTable)
}

func NewTableClient() any {
	return rdbms.NewTableClient(factory, rdbms.OceanBaseTable)
}
