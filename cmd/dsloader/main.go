package main

import (
	"github.com/longkeyy/go-dsloader/core/engine"
	"github.com/longkeyy/go-dsloader/version"

	// 编译期链接全部内置插件入口
	_ "github.com/longkeyy/go-dsloader/plugins/all"
)

func main() {
	engine.Main(version.String())
}
