package oracle

import (
	go_ora "github.com/sijms/go-ora/v2"

	"github.com/longkeyy/go-dsloader/common/rdbms"
	"github.com/longkeyy/go-dsloader/common/source"
)

// DSN 转换 jdbc:oracle:thin:@ 形式为 go-ora 连接串，SID 通过选项传递
func DSN(src *source.RdbmsSource) (string, error) {
	t, err := rdbms.ParseOracleURL(src.URL)
	if err != nil {
		return "", err
	}
	options := make(map[string]string, len(src.Properties)+1)
	for k, v := range src.Properties {
		options[k] = v
	}
	if t.SID != "" {
		options["SID"] = t.SID
	}
	return go_ora.BuildUrl(t.Host, t.Port, t.Service, src.Username, src.Password, options), nil
}

var factory = rdbms.FuncFactory{
	DSNFunc:  DSN,
	OpenFunc: rdbms.SQLOpener("oracle"),
}

func NewSQLClient() any {
	return rdbms.NewClient(factory, rdbms.Oracle)
}
