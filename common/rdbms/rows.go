package rdbms

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/longkeyy/go-dsloader/common/client"
)

// ScanMaps 把结果集逐行读为 列名→值，[]byte 转为 string
func ScanMaps(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, name := range columns {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// ScanStrings 读取单列字符串结果
func ScanStrings(rows *sql.Rows) ([]string, error) {
	var result []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		if v.Valid {
			result = append(result, v.String)
		}
	}
	return result, rows.Err()
}

func scanColumns(rows *sql.Rows) ([]client.ColumnMeta, error) {
	var result []client.ColumnMeta
	for rows.Next() {
		var name, typ, comment, nullable, key sql.NullString
		if err := rows.Scan(&name, &typ, &comment, &nullable, &key); err != nil {
			return nil, fmt.Errorf("failed to scan column meta: %w", err)
		}
		n := strings.ToUpper(strings.TrimSpace(nullable.String))
		result = append(result, client.ColumnMeta{
			Name:     name.String,
			Type:     typ.String,
			Comment:  comment.String,
			Nullable: n == "YES" || n == "Y",
			Key:      strings.TrimSpace(key.String),
		})
	}
	return result, rows.Err()
}
