package mysql

import (
	"gorm.io/driver/mysql"

	"github.com/longkeyy/go-dsloader/common/rdbms"
	"github.com/longkeyy/go-dsloader/common/source"
)

// Factory MySQL 协议族共用的连接工厂，Doris 与 StarRocks 同样走 MySQL 协议
var Factory = rdbms.FuncFactory{
	DSNFunc: func(src *source.RdbmsSource) (string, error) {
		return rdbms.MySQLDSN(src.URL, src.Username, src.Password)
	},
	OpenFunc: rdbms.GormOpener(mysql.Open),
}

// NewSQLClient 创建 MySQL 关系型客户端
func NewSQLClient() any {
	return rdbms.NewClient(Factory, rdbms.MySQL)
}

// NewTableClient 创建 MySQL 表管理客户端
func NewTableClient() any {
	return rdbms.NewTableClient(Factory, rdbms.MySQLTable)
}
