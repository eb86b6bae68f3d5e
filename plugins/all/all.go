// Package all 链接全部内置插件，导入后所有插件入口进入全局注册表
package all

import (
	_ "github.com/longkeyy/go-dsloader/plugins/cassandra"
	_ "github.com/longkeyy/go-dsloader/plugins/clickhouse"
	_ "github.com/longkeyy/go-dsloader/plugins/databend"
	_ "github.com/longkeyy/go-dsloader/plugins/es7"
	_ "github.com/longkeyy/go-dsloader/plugins/ftp"
	_ "github.com/longkeyy/go-dsloader/plugins/hdfs"
	_ "github.com/longkeyy/go-dsloader/plugins/kafka"
	_ "github.com/longkeyy/go-dsloader/plugins/kerberos"
	_ "github.com/longkeyy/go-dsloader/plugins/mongo"
	_ "github.com/longkeyy/go-dsloader/plugins/mysql"
	_ "github.com/longkeyy/go-dsloader/plugins/neo4j"
	_ "github.com/longkeyy/go-dsloader/plugins/oceanbase"
	_ "github.com/longkeyy/go-dsloader/plugins/oracle"
	_ "github.com/longkeyy/go-dsloader/plugins/oss"
	_ "github.com/longkeyy/go-dsloader/plugins/postgresql"
	_ "github.com/longkeyy/go-dsloader/plugins/rabbitmq"
	_ "github.com/longkeyy/go-dsloader/plugins/redis"
	_ "github.com/longkeyy/go-dsloader/plugins/restful"
	_ "github.com/longkeyy/go-dsloader/plugins/s3"
	_ "github.com/longkeyy/go-dsloader/plugins/sqlite"
	_ "github.com/longkeyy/go-dsloader/plugins/sqlserver"
	_ "github.com/longkeyy/go-dsloader/plugins/tdengine"
)
