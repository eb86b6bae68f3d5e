// Package version 记录宿主程序版本，插件清单中的 hostVersion 约束以此为准
package version

// Version 是宿主程序的语义化版本
const Version = "1.4.0"

// Prerelease 非空时表示预发布版本
var Prerelease = ""

// String 返回完整版本号
func String() string {
	if Prerelease != "" {
		return Version + "-" + Prerelease
	}
	return Version
}
