package loader

import (
	"fmt"
	goplugin "plugin"

	"github.com/longkeyy/go-dsloader/common/plugin"
)

// openShared 打开插件共享库并查找类别对应的构造函数符号
func openShared(path string, category plugin.Category) (plugin.Constructor, error) {
	so, err := goplugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	sym, err := so.Lookup(category.Symbol())
	if err != nil {
		return nil, fmt.Errorf("lookup %s in %s: %w", category.Symbol(), path, err)
	}
	return asConstructor(sym)
}

// asConstructor 接受导出函数或指向函数的变量两种形式
func asConstructor(sym any) (plugin.Constructor, error) {
	switch v := sym.(type) {
	case func() any:
		return v, nil
	case *func() any:
		if v == nil || *v == nil {
			return nil, fmt.Errorf("constructor symbol is nil")
		}
		return *v, nil
	case plugin.Constructor:
		return v, nil
	case *plugin.Constructor:
		if v == nil || *v == nil {
			return nil, fmt.Errorf("constructor symbol is nil")
		}
		return *v, nil
	default:
		return nil, fmt.Errorf("unexpected constructor symbol type %T", sym)
	}
}
