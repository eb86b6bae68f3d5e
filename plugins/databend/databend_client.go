package databend

import (
	_ "github.com/datafuselabs/databend-go"

	"github.com/longkeyy/go-dsloader/common/rdbms"
	"github.com/longkeyy/go-dsloader/common/source"
)

var factory = rdbms.FuncFactory{
	DSNFunc: func(src *source.RdbmsSource) (string, error) {
		return rdbms.DatabendDSN(src.URL, src.Username, src.Password)
	},
	OpenFunc: rdbms.SQLOpener("databend"),
}

// NewSQLClient Databend 兼容 MySQL 的系统表查询
func NewSQLClient() any {
	return rdbms.NewClient(factory, rdbms.MySQL)
}
