package rdbms

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/longkeyy/go-dsloader/common/source"
)

// ConnFactory 负责把数据源描述转换为驱动 DSN 并打开连接
type ConnFactory interface {
	DSN(src *source.RdbmsSource) (string, error)
	Open(dsn string) (*sql.DB, error)
}

// FuncFactory 以函数组合出 ConnFactory
type FuncFactory struct {
	DSNFunc  func(src *source.RdbmsSource) (string, error)
	OpenFunc func(dsn string) (*sql.DB, error)
}

func (f FuncFactory) DSN(src *source.RdbmsSource) (string, error) {
	return f.DSNFunc(src)
}

func (f FuncFactory) Open(dsn string) (*sql.DB, error) {
	return f.OpenFunc(dsn)
}

// GormOpener 通过 gorm 方言打开连接并取出底层 *sql.DB
func GormOpener(dialector func(dsn string) gorm.Dialector) func(dsn string) (*sql.DB, error) {
	return func(dsn string) (*sql.DB, error) {
		db, err := gorm.Open(dialector(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		return sqlDB, nil
	}
}

// SQLOpener 通过已注册的 database/sql 驱动名打开连接
func SQLOpener(driverName string) func(dsn string) (*sql.DB, error) {
	return func(dsn string) (*sql.DB, error) {
		db, err := sql.Open(driverName, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s connection: %w", driverName, err)
		}
		return db, nil
	}
}
